// Package view derives the renderable element set of an entity graph for a
// view level and an expansion state.
//
// A [Scope] binds everything that lives exactly as long as one analysis
// result: the entity graph, its cycle annotation and the set of ids hidden
// by duplicate-root suppression. Replacing the analysis means creating a new
// Scope, so suppression never leaks from one analysis into the next.
//
// The building blocks are pure functions:
//
//   - [Visible] filters entities by level, expansion and the hidden set
//   - [Cluster] builds the container hierarchy for the visible entities
//   - [Build] ties both together into [graph.Elements]
package view

import (
	"slices"
	"sync"

	"github.com/pyview/hiergraph/pkg/cycles"
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/hierarchy"
)

// Scope is the view state owned by one analysis result. The graph and cycle
// data are read-only after construction; the hidden set is guarded so one
// Scope may serve concurrent builds.
type Scope struct {
	Graph       *entity.Graph
	Cycles      *cycles.Info
	Memberships cycles.EntityMap
	ProjectName string

	mu     sync.RWMutex
	hidden IDSet
}

// NewScope creates the scope of an analysis result.
func NewScope(g *entity.Graph, cs []cycles.Cycle, projectName string) *Scope {
	return &Scope{
		Graph:       g,
		Cycles:      cycles.Annotate(cs),
		Memberships: cycles.BuildEntityMap(cs),
		ProjectName: projectName,
		hidden:      make(IDSet),
	}
}

// Hide adds ids to the hidden set.
func (s *Scope) Hide(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.hidden.Add(id)
	}
}

// IsHidden reports whether id is suppressed.
func (s *Scope) IsHidden(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hidden.Has(id)
}

// Hidden returns a copy of the hidden set.
func (s *Scope) Hidden() IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hidden.Clone()
}

// HiddenIDs returns the hidden ids in graph order.
func (s *Scope) HiddenIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, e := range s.Graph.Entities() {
		if s.hidden.Has(e.ID) {
			out = append(out, e.ID)
		}
	}
	return out
}

// SuppressDuplicateRoots hides every package that duplicates the implicit
// project root: its name or id equals the project name, or its id is
// "pkg:<project>". It returns the newly hidden ids.
func (s *Scope) SuppressDuplicateRoots() []string {
	if s.ProjectName == "" {
		return nil
	}
	var dups []string
	for _, p := range s.Graph.OfKind(entity.KindPackage) {
		if IsDuplicateRoot(p, s.ProjectName) && !s.IsHidden(p.ID) {
			dups = append(dups, p.ID)
		}
	}
	s.Hide(dups...)
	return dups
}

// IsDuplicateRoot reports whether the package p duplicates the project root.
func IsDuplicateRoot(p *entity.Entity, projectName string) bool {
	if p.Kind != entity.KindPackage || projectName == "" {
		return false
	}
	return p.Name == projectName ||
		p.ID == projectName ||
		p.ID == hierarchy.PackagePrefix+projectName
}

// IDSet is a set of entity ids.
type IDSet map[string]struct{}

// NewIDSet creates a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s IDSet) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Clone returns a copy of the set.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the ids in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
