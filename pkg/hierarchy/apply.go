package hierarchy

import "github.com/pyview/hiergraph/pkg/entity"

// Stats summarizes one inference pass.
type Stats struct {
	Attached int // entities given a parent
	Roots    int // packages, which never have a parent
	Orphans  int // non-package entities left parent-less
}

// Apply infers the parent of every entity in g and rebuilds the child lists.
// Previous links are discarded, so Apply is idempotent. Child lists follow
// entity insertion order.
func Apply(g *entity.Graph) Stats {
	var st Stats
	entities := g.Entities()
	for _, e := range entities {
		e.ParentID = ""
		e.ChildIDs = nil
	}

	parents := make([]string, len(entities))
	for i, e := range entities {
		if e.Kind == entity.KindPackage {
			st.Roots++
			continue
		}
		id, ok := InferParent(g, e)
		if !ok || id == e.ID {
			st.Orphans++
			continue
		}
		parents[i] = id
		st.Attached++
	}

	for i, e := range entities {
		if parents[i] == "" {
			continue
		}
		e.ParentID = parents[i]
		p, _ := g.Entity(parents[i])
		p.ChildIDs = append(p.ChildIDs, e.ID)
	}
	return st
}

// Ancestors returns the parent chain of id, nearest first.
func Ancestors(l Lookup, id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	e, ok := l.Entity(id)
	for ok && e.ParentID != "" && !seen[e.ParentID] {
		out = append(out, e.ParentID)
		seen[e.ParentID] = true
		e, ok = l.Entity(e.ParentID)
	}
	return out
}
