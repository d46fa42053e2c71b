package cycles

// Membership describes how one entity participates in cycles.
type Membership struct {
	Severity         Severity `json:"severity"`
	Partners         []string `json:"partners"`
	RelationshipType string   `json:"cycleType"`
}

// EntityMap maps entity ids (verbatim, not aliased) to their membership.
type EntityMap map[string]Membership

// BuildEntityMap records, for every cycle entity, the most severe cycle it
// belongs to. On equal severity the first cycle wins. Partners are the other
// entities of that cycle in declaration order.
func BuildEntityMap(cycles []Cycle) EntityMap {
	m := make(EntityMap)
	for _, c := range cycles {
		sev := c.EffectiveSeverity()
		for _, id := range c.Entities {
			if prev, ok := m[id]; ok && prev.Severity.Rank() >= sev.Rank() {
				continue
			}
			partners := make([]string, 0, len(c.Entities))
			for _, other := range c.Entities {
				if other != id {
					partners = append(partners, other)
				}
			}
			m[id] = Membership{
				Severity:         sev,
				Partners:         partners,
				RelationshipType: c.EffectiveRelationship(),
			}
		}
	}
	return m
}

// Severity returns the membership severity of id, or "" when id is in no cycle.
func (m EntityMap) Severity(id string) Severity {
	if mem, ok := m[id]; ok {
		return mem.Severity
	}
	return ""
}
