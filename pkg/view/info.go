package view

import (
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
)

// Link is one end of an edge as shown in node details.
type Link struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// NodeInfo is the detail panel of a single entity.
type NodeInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	LevelName     string   `json:"levelName"`
	ParentID      string   `json:"parentId,omitempty"`
	ChildCount    int      `json:"childCount"`
	Incoming      []Link   `json:"incoming"`
	Outgoing      []Link   `json:"outgoing"`
	IsInCycle     bool     `json:"isInCycle"`
	CycleSeverity string   `json:"cycleSeverity,omitempty"`
	CyclePartners []string `json:"cyclePartners,omitempty"`
}

// Info describes an entity of the scope, independently of visibility.
func Info(s *Scope, id string) (NodeInfo, error) {
	e, ok := s.Graph.Entity(id)
	if !ok {
		return NodeInfo{}, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	info := NodeInfo{
		ID:         e.ID,
		Name:       e.Name,
		Kind:       e.Kind.String(),
		LevelName:  entity.LevelName(e.Level()),
		ParentID:   e.ParentID,
		ChildCount: len(e.ChildIDs),
		Incoming:   []Link{},
		Outgoing:   []Link{},
		IsInCycle:  s.Cycles.HasNode(e.ID),
	}
	for _, edge := range s.Graph.Edges() {
		switch id {
		case edge.Source:
			info.Outgoing = append(info.Outgoing, s.link(edge.Target, edge.Kind))
		case edge.Target:
			info.Incoming = append(info.Incoming, s.link(edge.Source, edge.Kind))
		}
	}
	if m, ok := s.Memberships[e.ID]; ok {
		info.CycleSeverity = string(m.Severity)
		info.CyclePartners = m.Partners
	}
	return info, nil
}

func (s *Scope) link(id string, kind entity.EdgeKind) Link {
	l := Link{ID: id, Name: id, Kind: kind.String()}
	if e, ok := s.Graph.Entity(id); ok {
		l.Name = e.Name
	}
	return l
}
