package view

import "github.com/pyview/hiergraph/pkg/entity"

// Visible returns the entities shown at level, in input order. An entity is
// visible when it is not hidden and either its level is at most level or
// its parent is expanded.
func Visible(entities []*entity.Entity, level int, expanded, hidden IDSet) []*entity.Entity {
	var out []*entity.Entity
	for _, e := range entities {
		if IsVisible(e, level, expanded, hidden) {
			out = append(out, e)
		}
	}
	return out
}

// IsVisible applies the visibility rule to a single entity.
func IsVisible(e *entity.Entity, level int, expanded, hidden IDSet) bool {
	if hidden.Has(e.ID) {
		return false
	}
	return e.Level() <= level || (e.ParentID != "" && expanded.Has(e.ParentID))
}
