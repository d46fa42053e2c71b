package view

import (
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/graph"
)

// DefaultProjectLabel labels the project root when the analysis names none.
const DefaultProjectLabel = "Root"

// Label returns the project name, or DefaultProjectLabel.
func (s *Scope) Label() string {
	if s.ProjectName == "" {
		return DefaultProjectLabel
	}
	return s.ProjectName
}

// Build derives the element set of s for a view level and expansion state.
//
// At level 0 packages duplicating the project root are hidden for the rest
// of the scope's lifetime and a synthetic root-proxy node is emitted in
// their place. Edges are kept when both endpoints are visible.
func Build(s *Scope, level int, expanded IDSet) (graph.Elements, error) {
	if err := errors.ValidateViewLevel(level); err != nil {
		return graph.Elements{}, err
	}
	if level == 0 {
		s.SuppressDuplicateRoots()
	}

	visible := Visible(s.Graph.Entities(), level, expanded, s.Hidden())
	cl := Cluster(s.Graph, visible, level, s.Label())

	el := graph.Elements{
		Nodes: make([]graph.Node, 0, len(visible)+1),
		Edges: []graph.Edge{},
	}
	shown := make(IDSet, len(visible))
	for _, e := range visible {
		shown.Add(e.ID)
		el.Nodes = append(el.Nodes, s.node(e, cl.Assignment[e.ID], expanded))
	}

	if level == 0 {
		el.Nodes = append(el.Nodes, graph.Node{
			ID:                graph.RootProxyID,
			Name:              s.Label(),
			Kind:              entity.KindModule.String(),
			Level:             0,
			ContainerParentID: graph.PackageContainerID,
			Synthetic:         true,
		})
		cl.Containers[0].MemberIDs = append(cl.Containers[0].MemberIDs, graph.RootProxyID)
	}

	for _, e := range s.Graph.Edges() {
		if !shown.Has(e.Source) || !shown.Has(e.Target) || e.Source == e.Target {
			continue
		}
		el.Edges = append(el.Edges, graph.Edge{
			ID:        e.ID(),
			Source:    e.Source,
			Target:    e.Target,
			Kind:      e.Kind.String(),
			IsInCycle: s.Cycles.EdgeInCycle(e.Source, e.Target),
		})
	}
	el.Containers = cl.Containers
	return el, nil
}

func (s *Scope) node(e *entity.Entity, container string, expanded IDSet) graph.Node {
	n := graph.Node{
		ID:                e.ID,
		Name:              e.Name,
		Kind:              e.Kind.String(),
		Level:             e.Level(),
		ContainerParentID: container,
		IsInCycle:         s.Cycles.HasNode(e.ID),
		HasChildren:       e.HasChildren(),
		Expanded:          expanded.Has(e.ID),
	}
	if n.IsInCycle {
		n.CycleSeverity = string(s.Memberships.Severity(e.ID))
	}
	return n
}
