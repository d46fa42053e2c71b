package view

import (
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/graph"
)

// Source is the read access clustering needs. [*entity.Graph] implements it.
type Source interface {
	Entity(id string) (*entity.Entity, bool)
	Connected(a, b string) bool
}

// Clustering is the container hierarchy of one view.
type Clustering struct {
	// Containers in materialization order: the package container, then module
	// containers, then class containers.
	Containers []graph.Container
	// Assignment maps every visible entity id to exactly one container id.
	Assignment map[string]string

	anchors  map[string]int
	listings map[string]int
}

// ContainerOf returns the container an entity is assigned to.
func (c *Clustering) ContainerOf(id string) (string, bool) {
	cid, ok := c.Assignment[id]
	return cid, ok
}

// Cluster builds the containers for the visible entities at level.
//
// The package container always exists and carries the project label from
// level 1 on. From level 2 every visible module anchors a container holding
// the module, its visible classes and the visible free functions an edge
// connects to it. From level 3 every visible class with at least one visible
// method child (or field child, from level 4) anchors a container nested in
// its module's container, or in the package container when the module has
// none.
//
// Each visible entity is assigned to its own anchor container, else to the
// first container listing it, else to the container of its nearest
// ancestor, else to the package container.
func Cluster(src Source, visible []*entity.Entity, level int, label string) Clustering {
	cl := Clustering{
		Assignment: make(map[string]string, len(visible)),
		anchors:    make(map[string]int),
		listings:   make(map[string]int),
	}
	pkg := graph.Container{
		ID:   graph.PackageContainerID,
		Kind: graph.ContainerPackage,
	}
	if level >= 1 {
		pkg.Label = label
	}
	cl.Containers = append(cl.Containers, pkg)

	shown := make(IDSet, len(visible))
	for _, e := range visible {
		shown.Add(e.ID)
	}

	if level >= 2 {
		for _, m := range visible {
			if m.Kind != entity.KindModule {
				continue
			}
			members := []string{m.ID}
			for _, e := range visible {
				switch {
				case e.Kind == entity.KindClass && e.ParentID == m.ID:
					members = append(members, e.ID)
				case e.IsFreeFunction() && src.Connected(e.ID, m.ID):
					members = append(members, e.ID)
				}
			}
			cl.add(graph.Container{
				ID:                graph.ModuleContainerID(m.ID),
				Kind:              graph.ContainerModule,
				Label:             m.Name,
				MemberIDs:         members,
				ParentContainerID: graph.PackageContainerID,
			}, m.ID)
		}
	}

	if level >= 3 {
		for _, c := range visible {
			if c.Kind != entity.KindClass {
				continue
			}
			members := []string{c.ID}
			for _, id := range c.ChildIDs {
				child, ok := src.Entity(id)
				if !ok || !shown.Has(id) {
					continue
				}
				if child.Kind == entity.KindMethod || (child.Kind == entity.KindField && level >= 4) {
					members = append(members, id)
				}
			}
			if len(members) == 1 {
				continue
			}
			parent := graph.PackageContainerID
			if i, ok := cl.anchors[c.ParentID]; ok && c.ParentID != "" {
				parent = cl.Containers[i].ID
			}
			cl.add(graph.Container{
				ID:                graph.ClassContainerID(c.ID),
				Kind:              graph.ContainerClass,
				Label:             c.Name,
				MemberIDs:         members,
				ParentContainerID: parent,
			}, c.ID)
		}
	}

	for _, e := range visible {
		cid := cl.resolve(src, e)
		cl.Assignment[e.ID] = cid
		if cid == graph.PackageContainerID {
			cl.Containers[0].MemberIDs = append(cl.Containers[0].MemberIDs, e.ID)
		}
	}
	return cl
}

func (cl *Clustering) add(c graph.Container, anchor string) {
	i := len(cl.Containers)
	cl.Containers = append(cl.Containers, c)
	cl.anchors[anchor] = i
	for _, id := range c.MemberIDs {
		if id == anchor {
			continue
		}
		if _, ok := cl.listings[id]; !ok {
			cl.listings[id] = i
		}
	}
}

// own returns the container anchored on id or the first container listing it.
func (cl *Clustering) own(id string) (string, bool) {
	if i, ok := cl.anchors[id]; ok {
		return cl.Containers[i].ID, true
	}
	if i, ok := cl.listings[id]; ok {
		return cl.Containers[i].ID, true
	}
	return "", false
}

func (cl *Clustering) resolve(src Source, e *entity.Entity) string {
	if cid, ok := cl.own(e.ID); ok {
		return cid
	}
	seen := map[string]bool{e.ID: true}
	for pid := e.ParentID; pid != "" && !seen[pid]; {
		seen[pid] = true
		if cid, ok := cl.own(pid); ok {
			return cid
		}
		p, ok := src.Entity(pid)
		if !ok {
			break
		}
		pid = p.ParentID
	}
	return graph.PackageContainerID
}
