// Package cycles annotates graph nodes and edges with circular-dependency
// membership.
//
// Cycle data comes from the analysis backend as a list of [Cycle] records.
// [Annotate] flattens them into an [Info] holding alias-expanded node ids and
// "from-to" edge ids; [Info.EdgeInCycle] then decides edge membership at
// render time, treating any edge whose endpoints are both cycle nodes as
// cyclic. That over-approximation is accepted: it can mark an edge between
// members of two unrelated cycles.
package cycles

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Severity ranks how serious a cycle is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities: low < medium < high. Unknown values rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// Path is one path of a cycle, either a single hop (From, To) or a sequence
// of node ids.
type Path struct {
	From  string   `json:"from,omitempty"`
	To    string   `json:"to,omitempty"`
	Nodes []string `json:"nodes,omitempty"`

	RelationshipType string  `json:"relationship_type,omitempty"`
	Strength         float64 `json:"strength,omitempty"`
}

// EdgeIDs returns the "a-b" ids of every hop along the path. A path with
// both endpoints set is a single hop and its Nodes are ignored.
func (p Path) EdgeIDs() []string {
	if p.From != "" && p.To != "" {
		return []string{p.From + "-" + p.To}
	}
	var ids []string
	for i := 0; i+1 < len(p.Nodes); i++ {
		ids = append(ids, p.Nodes[i]+"-"+p.Nodes[i+1])
	}
	return ids
}

// Cycle is a detected circular-dependency group.
type Cycle struct {
	ID               string   `json:"cycle_id,omitempty"`
	Entities         []string `json:"entities"`
	Paths            []Path   `json:"paths,omitempty"`
	Severity         Severity `json:"severity,omitempty"`
	RelationshipType string   `json:"relationship_type,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// EffectiveSeverity returns the cycle severity, defaulting to medium.
func (c Cycle) EffectiveSeverity() Severity {
	if c.Severity == "" {
		return SeverityMedium
	}
	return c.Severity
}

// EffectiveRelationship returns the relationship type, defaulting to import.
func (c Cycle) EffectiveRelationship() string {
	if c.RelationshipType == "" {
		return "import"
	}
	return c.RelationshipType
}

// Set is a decoded cycle dataset. It unmarshals from either a bare array of
// cycles or an object {"cycles": [...]}; null decodes to an empty set.
type Set []Cycle

// UnmarshalJSON implements json.Unmarshaler.
func (s *Set) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = nil
		return nil
	case data[0] == '[':
		var list []Cycle
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode cycles: %w", err)
		}
		*s = list
		return nil
	case data[0] == '{':
		var wrapped struct {
			Cycles []Cycle `json:"cycles"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fmt.Errorf("decode cycles: %w", err)
		}
		*s = wrapped.Cycles
		return nil
	}
	return fmt.Errorf("decode cycles: unexpected JSON %q", truncate(data, 16))
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
