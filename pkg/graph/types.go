package graph

import (
	"fmt"

	"github.com/pyview/hiergraph/pkg/cycles"
	"github.com/pyview/hiergraph/pkg/entity"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Container kinds.
const (
	ContainerPackage = "package-container"
	ContainerModule  = "module-container"
	ContainerClass   = "class-container"
)

// Fixed element ids.
const (
	// PackageContainerID is the id of the single top-level container.
	PackageContainerID = "package-container"
	// RootProxyID is the id of the synthetic node that stands in for the
	// project root at view level 0.
	RootProxyID = "root-proxy"
)

// ModuleContainerID returns the container id anchored on a module.
func ModuleContainerID(moduleID string) string { return "module-container-" + moduleID }

// ClassContainerID returns the container id anchored on a class.
func ClassContainerID(classID string) string { return "class-container-" + classID }

// =============================================================================
// Elements - Render Contract
// =============================================================================

// Elements is the flat node/edge/container set handed to the rendering
// layer. Consumers need no knowledge of entity id conventions.
type Elements struct {
	Nodes      []Node      `json:"nodes"`
	Edges      []Edge      `json:"edges"`
	Containers []Container `json:"containers"`
}

// Node is a visible entity (or the synthetic root proxy).
type Node struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Kind              string `json:"kind"`
	Level             int    `json:"level"`
	ContainerParentID string `json:"containerParentId,omitempty"`
	IsInCycle         bool   `json:"isInCycle"`
	CycleSeverity     string `json:"cycleSeverity,omitempty"`
	Synthetic         bool   `json:"synthetic,omitempty"`
	HasChildren       bool   `json:"hasChildren,omitempty"`
	Expanded          bool   `json:"expanded,omitempty"`
}

// Edge is a relationship between two visible nodes.
type Edge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Kind      string `json:"kind"`
	IsInCycle bool   `json:"isInCycle"`
}

// Container is a synthetic grouping used for visual nesting.
type Container struct {
	ID                string   `json:"id"`
	Kind              string   `json:"kind"`
	Label             string   `json:"label"`
	MemberIDs         []string `json:"memberIds"`
	ParentContainerID string   `json:"parentContainerId,omitempty"`
}

// Node returns the node with the given id.
func (e *Elements) Node(id string) (Node, bool) {
	for _, n := range e.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Container returns the container with the given id.
func (e *Elements) Container(id string) (Container, bool) {
	for _, c := range e.Containers {
		if c.ID == id {
			return c, true
		}
	}
	return Container{}, false
}

// =============================================================================
// Document - Transformed Graph Serialization
// =============================================================================

// Document is the serialized form of a transformed entity graph together
// with its cycle data. The pipeline caches documents so that re-opening an
// analysis skips the transformation.
type Document struct {
	ProjectName string           `json:"project_name,omitempty"`
	Entities    []DocumentEntity `json:"entities"`
	Edges       []DocumentEdge   `json:"edges"`
	Cycles      []cycles.Cycle   `json:"cycles,omitempty"`
}

// DocumentEntity is one entity of a [Document].
type DocumentEntity struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     entity.Kind `json:"kind"`
	ParentID string      `json:"parent_id,omitempty"`
	ModuleID string      `json:"module_id,omitempty"`
	ClassID  string      `json:"class_id,omitempty"`
	Line     int         `json:"line,omitempty"`
}

// DocumentEdge is one edge of a [Document].
type DocumentEdge struct {
	Source string          `json:"source"`
	Target string          `json:"target"`
	Kind   entity.EdgeKind `json:"kind"`
}

// FromEntities converts an entity graph to a Document. Entity and edge order
// is preserved.
func FromEntities(g *entity.Graph, projectName string, cs []cycles.Cycle) Document {
	doc := Document{
		ProjectName: projectName,
		Entities:    make([]DocumentEntity, 0, g.EntityCount()),
		Edges:       make([]DocumentEdge, 0, g.EdgeCount()),
		Cycles:      cs,
	}
	for _, e := range g.Entities() {
		doc.Entities = append(doc.Entities, DocumentEntity{
			ID:       e.ID,
			Name:     e.Name,
			Kind:     e.Kind,
			ParentID: e.ParentID,
			ModuleID: e.ModuleID,
			ClassID:  e.ClassID,
			Line:     e.Line,
		})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, DocumentEdge{Source: e.Source, Target: e.Target, Kind: e.Kind})
	}
	return doc
}

// ToEntities rebuilds the entity graph of a Document, restoring parent links
// and child lists. Unknown parents are dropped.
func ToEntities(doc Document) (*entity.Graph, error) {
	g := entity.NewGraph()
	for _, d := range doc.Entities {
		if err := g.AddEntity(entity.Entity{
			ID:       d.ID,
			Name:     d.Name,
			Kind:     d.Kind,
			ModuleID: d.ModuleID,
			ClassID:  d.ClassID,
			Line:     d.Line,
		}); err != nil {
			return nil, fmt.Errorf("entity %s: %w", d.ID, err)
		}
	}
	for _, d := range doc.Entities {
		parent, ok := g.Entity(d.ParentID)
		if d.ParentID == "" || !ok || d.ParentID == d.ID {
			continue
		}
		child, _ := g.Entity(d.ID)
		child.ParentID = d.ParentID
		parent.ChildIDs = append(parent.ChildIDs, d.ID)
	}
	for _, d := range doc.Edges {
		if err := g.AddEdge(entity.Edge{Source: d.Source, Target: d.Target, Kind: d.Kind}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", d.Source, d.Target, err)
		}
	}
	return g, nil
}
