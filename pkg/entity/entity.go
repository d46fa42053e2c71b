package entity

import "strings"

// Entity is a normalized source-code unit and a node of the hierarchical graph.
//
// ParentID and ChildIDs are filled in by hierarchy inference; a freshly
// normalized entity carries only its declared owners (ModuleID, ClassID) as
// recorded by the analysis backend.
type Entity struct {
	ID       string
	Name     string
	Kind     Kind
	ParentID string
	ChildIDs []string

	// Owners declared on the raw record. They may reference missing entities.
	ModuleID string
	ClassID  string

	// Line is the source line recorded for methods and fields, or 0.
	Line int
}

// Level returns the fixed view level of the entity's kind.
func (e *Entity) Level() int { return e.Kind.Level() }

// HasParent reports whether hierarchy inference attached the entity to a parent.
func (e *Entity) HasParent() bool { return e.ParentID != "" }

// HasChildren reports whether any entity names this one as its parent.
func (e *Entity) HasChildren() bool { return len(e.ChildIDs) > 0 }

// FreeFunctionMarker prefixes ids of module-level functions, which carry no
// id-encoded owner.
const FreeFunctionMarker = "func:"

// IsFreeFunction reports whether the entity is a module-level function.
func (e *Entity) IsFreeFunction() bool {
	return e.Kind == KindMethod && strings.HasPrefix(e.ID, FreeFunctionMarker)
}

// Edge is a directed relationship between two entities.
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
}

// ID returns the canonical "source-target" identifier of the edge.
func (e Edge) ID() string { return EdgeID(e.Source, e.Target) }

// EdgeID builds the "source-target" identifier used for edges and cycle paths.
func EdgeID(source, target string) string { return source + "-" + target }

type edgeKey struct{ source, target string }
