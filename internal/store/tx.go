package store

import (
	"context"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/sections"
)

// Command is one mutation of the layout document. Apply runs against a
// private working copy; returning an error discards the copy.
type Command interface {
	Name() string
	Apply(tx *Tx) error
}

// Tx is the working copy a command mutates, plus what the command reports
// back to the caller.
type Tx struct {
	ctx      context.Context
	state    *layout.State
	sections *sections.Model
	ids      layout.IDGenerator
	label    string
	outcome  Outcome
}

// Context returns the dispatch context.
func (tx *Tx) Context() context.Context { return tx.ctx }

// State returns the working copy.
func (tx *Tx) State() *layout.State { return tx.state }

// Sections returns the placement model.
func (tx *Tx) Sections() *sections.Model { return tx.sections }

// NewID returns a fresh id with prefix.
func (tx *Tx) NewID(prefix string) string { return tx.ids(prefix) }

// SetLabel sets the history label of the transition. The last call wins.
func (tx *Tx) SetLabel(label string) { tx.label = label }

// Created records the component or section a command created.
func (tx *Tx) Created(componentID, sectionID string) {
	if componentID != "" {
		tx.outcome.ComponentID = componentID
	}
	if sectionID != "" {
		tx.outcome.SectionID = sectionID
	}
}

// Adopted records components placed by an adoption pass.
func (tx *Tx) Adopted(ids ...string) {
	tx.outcome.Adopted = append(tx.outcome.Adopted, ids...)
}
