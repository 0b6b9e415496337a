package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type hashSection struct {
	ID            string         `json:"id"`
	LayoutType    LayoutType     `json:"layoutType"`
	Config        Props          `json:"config"`
	ComponentRefs []ComponentRef `json:"refs"`
}

type hashView struct {
	Components     []Component   `json:"components"`
	Sections       []hashSection `json:"sections"`
	Layout         []string      `json:"layout"`
	Theme          string        `json:"theme"`
	GlobalSettings Props         `json:"globalSettings"`
}

// Hash returns a deterministic sha256 over the state's content. Section
// creation timestamps are excluded, so content-equivalent states hash equally.
// A nil state hashes like an empty one.
func (s *State) Hash() string {
	view := hashView{Components: []Component{}, Sections: []hashSection{}, Layout: []string{}}
	if s != nil {
		for _, id := range s.ComponentIDs() {
			c := s.Components[id]
			c.ID = id
			if len(c.Props) == 0 {
				c.Props = nil
			}
			view.Components = append(view.Components, c)
		}
		for _, sec := range s.Sections {
			refs := sec.ComponentRefs
			if refs == nil {
				refs = []ComponentRef{}
			}
			cfg := sec.Config
			if len(cfg) == 0 {
				cfg = nil
			}
			view.Sections = append(view.Sections, hashSection{ID: sec.ID, LayoutType: sec.LayoutType, Config: cfg, ComponentRefs: refs})
		}
		if s.Layout != nil {
			view.Layout = s.Layout
		}
		view.Theme = s.Theme
		if len(s.GlobalSettings) > 0 {
			view.GlobalSettings = s.GlobalSettings
		}
	}

	// encoding/json sorts map keys, which makes the encoding canonical.
	data, err := json.Marshal(view)
	if err != nil {
		// Props are validated as JSON-serializable before they reach the state.
		data = []byte(err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
