package cycles

import (
	"strings"
	"unicode"

	"github.com/pyview/hiergraph/pkg/entity"
)

// Info is the alias-expanded cycle membership of one cycle dataset.
// The zero value describes "no cycles".
type Info struct {
	nodeIDs  map[string]struct{}
	edgeIDs  map[string]struct{}
	nodeList []string
	edgeList []string
}

// Annotate builds cycle membership from a cycle dataset. Every entity id is
// recorded verbatim, without its namespace prefix and as its last dot
// segment. Every path contributes "from-to" ids for each hop.
func Annotate(cycles []Cycle) *Info {
	info := &Info{
		nodeIDs: make(map[string]struct{}),
		edgeIDs: make(map[string]struct{}),
	}
	for _, c := range cycles {
		for _, id := range c.Entities {
			for _, alias := range Aliases(id) {
				info.addNode(alias)
			}
		}
		for _, p := range c.Paths {
			for _, id := range p.EdgeIDs() {
				info.addEdge(id)
			}
		}
	}
	return info
}

// Aliases returns id followed by its short forms, without duplicates:
// "mod:app.core" yields ["mod:app.core", "app.core", "core"].
func Aliases(id string) []string {
	if id == "" {
		return nil
	}
	out := []string{id}
	add := func(s string) {
		if s == "" {
			return
		}
		for _, have := range out {
			if have == s {
				return
			}
		}
		out = append(out, s)
	}
	add(StripNamespace(id))
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		add(id[i+1:])
	}
	return out
}

// StripNamespace removes a leading "<ns>:" tag such as "mod:" or "pkg_1:".
// The tag must start with a letter; later characters may be letters,
// digits or '_'.
func StripNamespace(id string) string {
	ns, rest, ok := strings.Cut(id, ":")
	if !ok || ns == "" {
		return id
	}
	for i, r := range ns {
		switch {
		case unicode.IsLetter(r), r == '_' && i > 0, unicode.IsDigit(r) && i > 0:
		default:
			return id
		}
	}
	return rest
}

func (i *Info) addNode(id string) {
	if _, ok := i.nodeIDs[id]; ok {
		return
	}
	i.nodeIDs[id] = struct{}{}
	i.nodeList = append(i.nodeList, id)
}

func (i *Info) addEdge(id string) {
	if _, ok := i.edgeIDs[id]; ok {
		return
	}
	i.edgeIDs[id] = struct{}{}
	i.edgeList = append(i.edgeList, id)
}

// HasNode reports whether id is a cycle node.
func (i *Info) HasNode(id string) bool {
	if i == nil {
		return false
	}
	_, ok := i.nodeIDs[id]
	return ok
}

// HasEdgeID reports whether the literal edge id appears in the cycle paths.
func (i *Info) HasEdgeID(id string) bool {
	if i == nil {
		return false
	}
	_, ok := i.edgeIDs[id]
	return ok
}

// EdgeInCycle reports whether the edge source→target is cycle-affected: its
// id or its reverse id appears in a path, or both endpoints are cycle nodes.
func (i *Info) EdgeInCycle(source, target string) bool {
	if i == nil {
		return false
	}
	return i.HasEdgeID(entity.EdgeID(source, target)) ||
		i.HasEdgeID(entity.EdgeID(target, source)) ||
		(i.HasNode(source) && i.HasNode(target))
}

// NodeIDs returns the cycle node ids in first-seen order.
func (i *Info) NodeIDs() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.nodeList...)
}

// EdgeIDs returns the cycle edge ids in first-seen order.
func (i *Info) EdgeIDs() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.edgeList...)
}

// Empty reports whether no cycle data was recorded.
func (i *Info) Empty() bool { return i == nil || len(i.nodeList) == 0 && len(i.edgeList) == 0 }
