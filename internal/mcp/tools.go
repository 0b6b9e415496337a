package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/store"
)

func (s *Server) registerComponentTools() {
	s.mcp.AddTool(mcp.NewTool("add_component",
		mcp.WithDescription("Add a component to the layout, optionally placing it in a section column"),
		mcp.WithString("type", mcp.Description("Component type, e.g. hero, text, image"), mcp.Required()),
		mcp.WithObject("props", mcp.Description("Initial component props (optional)")),
		mcp.WithString("sectionId", mcp.Description("Section to place the component in (optional)")),
		mcp.WithNumber("column", mcp.Description("1-based column inside the section (optional)")),
	), s.handleAddComponent)

	s.mcp.AddTool(mcp.NewTool("update_component",
		mcp.WithDescription("Merge props into a component. A null value removes the prop."),
		mcp.WithString("id", mcp.Description("Component ID"), mcp.Required()),
		mcp.WithObject("props", mcp.Description("Props to merge"), mcp.Required()),
		mcp.WithBoolean("replace", mcp.Description("Replace all props instead of merging")),
	), s.handleUpdateComponent)

	s.mcp.AddTool(mcp.NewTool("remove_component",
		mcp.WithDescription("Remove a component. Removing an unknown component is a no-op."),
		mcp.WithString("id", mcp.Description("Component ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveComponent)

	s.mcp.AddTool(mcp.NewTool("move_component",
		mcp.WithDescription("Move a component to another section column and/or render position. An empty sectionId unplaces it."),
		mcp.WithString("id", mcp.Description("Component ID"), mcp.Required()),
		mcp.WithString("sectionId", mcp.Description("Target section (empty to unplace)")),
		mcp.WithNumber("column", mcp.Description("1-based target column")),
		mcp.WithNumber("index", mcp.Description("New position in the render order (optional)")),
	), s.handleMoveComponent)

	s.mcp.AddTool(mcp.NewTool("assign_component",
		mcp.WithDescription("Place a component at the end of a section column"),
		mcp.WithString("id", mcp.Description("Component ID"), mcp.Required()),
		mcp.WithString("sectionId", mcp.Description("Section ID"), mcp.Required()),
		mcp.WithNumber("column", mcp.Description("1-based column (default 1)")),
	), s.handleAssignComponent)

	s.mcp.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the current layout document with its revision and content hash"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetState)
}

func (s *Server) registerSectionTools() {
	s.mcp.AddTool(mcp.NewTool("create_section",
		mcp.WithDescription("Append a new section"),
		mcp.WithString("layoutType",
			mcp.Description("Layout type: full_width, two_column, three_column, grid, hero"),
			mcp.Required(),
		),
		mcp.WithObject("config", mcp.Description("Section config merged over the layout defaults (optional)")),
	), s.handleCreateSection)

	s.mcp.AddTool(mcp.NewTool("remove_section",
		mcp.WithDescription("Remove a section. Its components stay in the document, unplaced."),
		mcp.WithString("id", mcp.Description("Section ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveSection)

	s.mcp.AddTool(mcp.NewTool("auto_adopt",
		mcp.WithDescription("Place every unplaced component in the first section, creating one when none exists"),
	), s.handleAutoAdopt)
}

func (s *Server) registerHistoryTools() {
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Step back one history entry"),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Step forward one history entry"),
	), s.handleRedo)

	s.mcp.AddTool(mcp.NewTool("history_stats",
		mcp.WithDescription("Report history cursor, size and entry labels"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleHistoryStats)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cmd := store.AddComponent{
		Type:  getString(args, "type"),
		Props: getProps(args, "props"),
	}
	if sec := getString(args, "sectionId"); sec != "" {
		cmd.Target = &store.Target{SectionID: sec, Column: getInt(args, "column", 1)}
	}
	return s.dispatch(ctx, cmd)
}

func (s *Server) handleUpdateComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	replace, _ := args["replace"].(bool)
	return s.dispatch(ctx, store.UpdateComponent{
		ID:      getString(args, "id"),
		Props:   getProps(args, "props"),
		Replace: replace,
	})
}

func (s *Server) handleRemoveComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(ctx, store.RemoveComponent{ID: getString(req.GetArguments(), "id")})
}

func (s *Server) handleMoveComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cmd := store.MoveComponent{
		ID:     getString(args, "id"),
		Target: store.Target{SectionID: getString(args, "sectionId"), Column: getInt(args, "column", 1)},
	}
	if v, ok := args["index"].(float64); ok {
		idx := int(v)
		cmd.Index = &idx
	}
	return s.dispatch(ctx, cmd)
}

func (s *Server) handleAssignComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return s.dispatch(ctx, store.AssignComponent{
		ID:        getString(args, "id"),
		SectionID: getString(args, "sectionId"),
		Column:    getInt(args, "column", 1),
	})
}

func (s *Server) handleCreateSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return s.dispatch(ctx, store.CreateSection{
		LayoutType: getString(args, "layoutType"),
		Config:     getProps(args, "config"),
	})
}

func (s *Server) handleRemoveSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(ctx, store.RemoveSection{ID: getString(req.GetArguments(), "id")})
}

func (s *Server) handleAutoAdopt(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(ctx, store.AutoAdopt{})
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.render("undo", s.store.Undo(ctx))
}

func (s *Server) handleRedo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.render("redo", s.store.Redo(ctx))
}

type stateView struct {
	Document string          `json:"document"`
	Revision uint64          `json:"revision"`
	Hash     string          `json:"hash"`
	Orphans  []string        `json:"orphans,omitempty"`
	State    layout.Snapshot `json:"state"`
}

func (s *Server) handleGetState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.store.Get()
	st := snap.State()
	return jsonResult(stateView{
		Document: s.store.Document(),
		Revision: s.store.Revision(),
		Hash:     snap.Hash(),
		Orphans:  st.Orphans(),
		State:    snap,
	})
}

type historyView struct {
	Attached bool     `json:"attached"`
	Phase    string   `json:"phase,omitempty"`
	Cursor   int      `json:"cursor"`
	Entries  int      `json:"entries"`
	CanUndo  bool     `json:"can_undo"`
	CanRedo  bool     `json:"can_redo"`
	Labels   []string `json:"labels,omitempty"`
}

func (s *Server) handleHistoryStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h := s.store.History()
	if h == nil {
		return jsonResult(historyView{Cursor: -1})
	}
	view := historyView{
		Attached: true,
		Phase:    h.Phase().String(),
		Cursor:   h.Cursor(),
		Entries:  h.Len(),
		CanUndo:  h.CanUndo(),
		CanRedo:  h.CanRedo(),
	}
	for _, e := range h.Entries() {
		view.Labels = append(view.Labels, e.Label)
	}
	return jsonResult(view)
}

// ── Argument helpers ───────────────────────────────────────

func getString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func getInt(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func getProps(args map[string]any, key string) layout.Props {
	m, ok := args[key].(map[string]any)
	if !ok {
		return nil
	}
	return layout.Props(m)
}
