// Package session keeps per-client view state over a shared analysis.
//
// A [Session] owns one [view.Scope] plus the client's current view level and
// expansion state, and serializes access with a mutex so the HTTP server can
// serve concurrent requests. Sessions are independent: hiding a duplicate
// root at level 0 in one session never affects another.
//
// Sessions live in a [Store] and expire after a period of inactivity:
//
//	store := session.NewStore(session.DefaultTTL)
//	sess := store.Create(t.Scope(), t.Hash, pipeline.DefaultLevel)
//	el, err := sess.Elements(ctx)
//
// A [FileStore] persists the level and expansion of sessions so they survive
// server restarts.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/pipeline"
	"github.com/pyview/hiergraph/pkg/view"
)

// Session is the view state of one client.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	scope      *view.Scope
	graphHash  string
	level      int
	expanded   view.IDSet
	lastAccess time.Time
}

// State is the serializable part of a session.
type State struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"projectName"`
	GraphHash   string    `json:"graphHash,omitempty"`
	Level       int       `json:"level"`
	LevelName   string    `json:"levelName"`
	Expanded    []string  `json:"expanded"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
}

func newSession(id string, scope *view.Scope, graphHash string, level int, now time.Time) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  now,
		scope:      scope,
		graphHash:  graphHash,
		level:      level,
		expanded:   make(view.IDSet),
		lastAccess: now,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Scope returns the scope the session currently views.
func (s *Session) Scope() *view.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Level returns the current view level.
func (s *Session) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// SetViewLevel changes the view level. Changing the level collapses every
// expanded node.
func (s *Session) SetViewLevel(level int) error {
	if err := errors.ValidateViewLevel(level); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if level != s.level {
		s.level = level
		s.expanded = make(view.IDSet)
	}
	return nil
}

// Toggle flips the expansion of a node and reports whether it is now
// expanded. Nodes without children stay collapsed.
func (s *Session) Toggle(id string) (bool, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scope.Graph.Has(id) {
		return false, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	view.Toggle(s.expanded, s.scope.Graph, id)
	return s.expanded.Has(id), nil
}

// ExpandAll expands every node that has children and returns how many are
// expanded.
func (s *Session) ExpandAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = view.ExpandAll(s.scope.Graph)
	return len(s.expanded)
}

// CollapseAll clears the expansion state.
func (s *Session) CollapseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = make(view.IDSet)
}

// Restore applies a persisted level and expansion. Expanded ids that no
// longer exist or have no children are dropped.
func (s *Session) Restore(st State) error {
	if err := errors.ValidateViewLevel(st.Level); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = st.Level
	s.expanded = make(view.IDSet)
	for _, id := range st.Expanded {
		if e, ok := s.scope.Graph.Entity(id); ok && e.HasChildren() {
			s.expanded.Add(id)
		}
	}
	return nil
}

// Replace installs the scope of a new analysis result. The view level is
// kept; expansion state refers to the old entities and is reset.
func (s *Session) Replace(scope *view.Scope, graphHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = scope
	s.graphHash = graphHash
	s.expanded = make(view.IDSet)
}

// Elements builds the element set of the current view.
func (s *Session) Elements(ctx context.Context) (graph.Elements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pipeline.BuildView(ctx, s.scope, s.level, s.expanded)
}

// Focus returns the highlight set of a visible node in the current view.
func (s *Session) Focus(ctx context.Context, id string) (view.FocusSet, error) {
	el, err := s.Elements(ctx)
	if err != nil {
		return view.FocusSet{}, err
	}
	return view.Focus(el, id)
}

// Info describes an entity of the session's analysis.
func (s *Session) Info(id string) (view.NodeInfo, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return view.NodeInfo{}, err
	}
	return view.Info(s.Scope(), id)
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:          s.ID,
		ProjectName: s.scope.Label(),
		GraphHash:   s.graphHash,
		Level:       s.level,
		LevelName:   entity.LevelName(s.level),
		Expanded:    s.expanded.Sorted(),
		Nodes:       s.scope.Graph.EntityCount(),
		Edges:       s.scope.Graph.EdgeCount(),
	}
}
