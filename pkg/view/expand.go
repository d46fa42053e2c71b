package view

import "github.com/pyview/hiergraph/pkg/entity"

// Toggle flips the expansion of id. Entities without children cannot be
// expanded; Toggle reports whether the set changed.
func Toggle(expanded IDSet, g *entity.Graph, id string) bool {
	e, ok := g.Entity(id)
	if !ok || !e.HasChildren() {
		return false
	}
	if expanded.Has(id) {
		delete(expanded, id)
	} else {
		expanded.Add(id)
	}
	return true
}

// ExpandAll returns the set of every entity that has children.
func ExpandAll(g *entity.Graph) IDSet {
	out := make(IDSet)
	for _, e := range g.Entities() {
		if e.HasChildren() {
			out.Add(e.ID)
		}
	}
	return out
}
