package layout

import "encoding/json"

// Snapshot is an immutable deep copy of a State together with its hash.
type Snapshot struct {
	state *State
	hash  string
}

// NewSnapshot captures a deep copy of s.
func NewSnapshot(s *State) Snapshot {
	c := s.Clone()
	return Snapshot{state: &c, hash: c.Hash()}
}

// State returns a fresh deep copy of the captured state.
func (s Snapshot) State() State {
	if s.state == nil {
		return NewState()
	}
	return s.state.Clone()
}

// Hash returns the content hash of the captured state.
func (s Snapshot) Hash() string {
	if s.state == nil {
		empty := NewState()
		return empty.Hash()
	}
	return s.hash
}

// IsZero reports whether the snapshot was never captured.
func (s Snapshot) IsZero() bool { return s.state == nil }

// MarshalJSON encodes the captured state.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.state == nil {
		return json.Marshal(NewState())
	}
	return json.Marshal(s.state)
}

// UnmarshalJSON decodes a state and captures it.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	st.Normalize()
	*s = NewSnapshot(&st)
	return nil
}
