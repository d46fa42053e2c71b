package entity

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddEntity] when the entity ID is
	// empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddEntity] when an entity with
	// the same ID already exists. The first record wins.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidKind is returned by [Graph.AddEntity] for an out-of-range kind.
	ErrInvalidKind = errors.New("invalid entity kind")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source
	// entity does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the target
	// entity does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [Graph.AddEdge] when source equals target.
	ErrSelfLoop = errors.New("edge source equals target")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when an edge with the
	// same ordered (source, target) pair exists, whatever its kind.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrUnknownParent is returned by [Graph.Validate] when an entity names a
	// parent that does not exist.
	ErrUnknownParent = errors.New("unknown parent entity")
)

// Graph holds normalized entities and deduplicated edges in insertion order.
//
// Insertion order is significant: every accessor returns entities and edges
// in the order they were added so that repeated renders are deterministic.
//
// The zero value is not usable - use [NewGraph].
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	entities []*Entity
	index    map[string]int
	edges    []Edge
	edgeSet  map[edgeKey]struct{}
	outgoing map[string][]string
	incoming map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		index:    make(map[string]int),
		edgeSet:  make(map[edgeKey]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddEntity appends an entity. Returns ErrInvalidNodeID for an empty ID,
// ErrInvalidKind for an unknown kind and ErrDuplicateNodeID when the ID is
// already taken.
func (g *Graph) AddEntity(e Entity) error {
	if e.ID == "" {
		return ErrInvalidNodeID
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if _, exists := g.index[e.ID]; exists {
		return ErrDuplicateNodeID
	}
	g.index[e.ID] = len(g.entities)
	g.entities = append(g.entities, &e)
	return nil
}

// AddEdge appends an edge between two existing, distinct entities.
// An edge whose ordered pair is already present is rejected with
// ErrDuplicateEdge, so the first kind recorded for a pair wins.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.index[e.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.index[e.Target]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Source == e.Target {
		return ErrSelfLoop
	}
	key := edgeKey{e.Source, e.Target}
	if _, dup := g.edgeSet[key]; dup {
		return ErrDuplicateEdge
	}
	g.edgeSet[key] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[e.Source] = append(g.outgoing[e.Source], e.Target)
	g.incoming[e.Target] = append(g.incoming[e.Target], e.Source)
	return nil
}

// HasEdge reports whether an edge source→target exists.
func (g *Graph) HasEdge(source, target string) bool {
	_, ok := g.edgeSet[edgeKey{source, target}]
	return ok
}

// Has reports whether an entity with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Entity returns the entity with the given ID and true, or nil and false.
// The returned pointer refers to the stored entity.
func (g *Graph) Entity(id string) (*Entity, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.entities[i], true
}

// Position returns the insertion index of the entity, or -1.
func (g *Graph) Position(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Entities returns all entities in insertion order. The slice is a copy; the
// entity pointers are shared with the graph.
func (g *Graph) Entities() []*Entity { return slices.Clone(g.entities) }

// OfKind returns the entities of one kind in insertion order.
func (g *Graph) OfKind(k Kind) []*Entity {
	var out []*Entity
	for _, e := range g.entities {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EntityCount returns the number of entities.
func (g *Graph) EntityCount() int { return len(g.entities) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Outgoing returns the targets of edges leaving id, in insertion order.
// The returned slice should not be modified.
func (g *Graph) Outgoing(id string) []string { return g.outgoing[id] }

// Incoming returns the sources of edges entering id, in insertion order.
// The returned slice should not be modified.
func (g *Graph) Incoming(id string) []string { return g.incoming[id] }

// Neighbors returns the entities connected to id in either direction,
// outgoing first, without duplicates.
func (g *Graph) Neighbors(id string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range [][]string{g.outgoing[id], g.incoming[id]} {
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// Connected reports whether an edge joins a and b in either direction.
func (g *Graph) Connected(a, b string) bool {
	return g.HasEdge(a, b) || g.HasEdge(b, a)
}

// Children returns the child IDs recorded on the entity, or nil.
func (g *Graph) Children(id string) []string {
	if e, ok := g.Entity(id); ok {
		return e.ChildIDs
	}
	return nil
}

// Counts returns the number of entities per kind.
func (g *Graph) Counts() map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, e := range g.entities {
		counts[e.Kind]++
	}
	return counts
}

// Validate checks graph integrity: every edge joins existing distinct
// entities and every parent reference resolves.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if !g.Has(e.Source) {
			return ErrUnknownSourceNode
		}
		if !g.Has(e.Target) {
			return ErrUnknownTargetNode
		}
		if e.Source == e.Target {
			return ErrSelfLoop
		}
	}
	for _, e := range g.entities {
		if e.ParentID != "" && !g.Has(e.ParentID) {
			return ErrUnknownParent
		}
	}
	return nil
}
