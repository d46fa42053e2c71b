package view

import (
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/graph"
)

// FocusSet is what stays highlighted when a node is selected; everything
// else is dimmed.
type FocusSet struct {
	NodeID     string   `json:"nodeId"`
	Neighbors  []string `json:"neighbors"`
	Edges      []string `json:"edges"`
	Containers []string `json:"containers"`
}

// Focus computes the highlight set of a node within an element set: its
// neighbors, its incident edges and the container chains of the node and
// its neighbors.
func Focus(el graph.Elements, id string) (FocusSet, error) {
	node, ok := el.Node(id)
	if !ok {
		return FocusSet{}, errors.New(errors.ErrCodeNodeNotFound, "node %q is not visible", id)
	}
	fs := FocusSet{NodeID: id, Neighbors: []string{}, Edges: []string{}, Containers: []string{}}

	seen := NewIDSet(id)
	for _, e := range el.Edges {
		var other string
		switch id {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			continue
		}
		fs.Edges = append(fs.Edges, e.ID)
		if !seen.Has(other) {
			seen.Add(other)
			fs.Neighbors = append(fs.Neighbors, other)
		}
	}

	parents := make(map[string]string, len(el.Containers))
	for _, c := range el.Containers {
		parents[c.ID] = c.ParentContainerID
	}
	inFocus := make(IDSet)
	addChain := func(cid string) {
		for cid != "" && !inFocus.Has(cid) {
			inFocus.Add(cid)
			fs.Containers = append(fs.Containers, cid)
			cid = parents[cid]
		}
	}
	addChain(node.ContainerParentID)
	for _, nid := range fs.Neighbors {
		if n, ok := el.Node(nid); ok {
			addChain(n.ContainerParentID)
		}
	}
	return fs, nil
}
