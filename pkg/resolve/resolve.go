// Package resolve turns the relationship fields of analysis records into
// deduplicated graph edges.
//
// Import references name their target loosely: a full id, a dotted module
// path or a display name. [Resolver.ResolveImport] tries, in order:
//
//  1. the reference is a known entity id
//  2. the first entity, in insertion order, whose id contains the reference
//  3. a module whose display name equals the reference
//  4. a module whose id ends in ":<reference>"
//  5. "mod:<reference>" is a known id
//
// Containment never resolves an import to the importing module itself.
//
// Unresolved imports, self-imports and imports from unknown modules are
// dropped and counted. Containment edges (module→class, module→function,
// class→method, class→field and declared owners) are added only when both
// endpoints exist and differ. Edges are deduplicated on the ordered
// (source, target) pair; the kind of the first edge for a pair wins.
package resolve

import (
	"errors"
	"strings"

	"github.com/pyview/hiergraph/pkg/analysis"
	"github.com/pyview/hiergraph/pkg/entity"
)

// ModulePrefix is the id namespace tried last when resolving imports.
const ModulePrefix = "mod:"

// Stats counts the outcome of edge extraction.
type Stats struct {
	Added      int // edges appended to the graph
	Duplicates int // edges dropped because the ordered pair already existed
	Invalid    int // imports or relationships that could not be resolved
	Skipped    int // containment references to missing or identical entities
}

// Resolver extracts edges into an entity graph. Create it after all entities
// have been added; modules added later are not indexed for name and suffix
// matching.
type Resolver struct {
	g        *entity.Graph
	ids      []string
	byName   map[string]string
	bySuffix map[string]string
	stats    Stats
}

// New indexes the modules of g for import resolution.
func New(g *entity.Graph) *Resolver {
	r := &Resolver{
		g:        g,
		byName:   make(map[string]string),
		bySuffix: make(map[string]string),
	}
	for _, e := range g.Entities() {
		r.ids = append(r.ids, e.ID)
	}
	for _, m := range g.OfKind(entity.KindModule) {
		if _, ok := r.byName[m.Name]; !ok && m.Name != "" {
			r.byName[m.Name] = m.ID
		}
		for i := 0; i < len(m.ID); i++ {
			if m.ID[i] != ':' {
				continue
			}
			suffix := m.ID[i+1:]
			if _, ok := r.bySuffix[suffix]; !ok && suffix != "" {
				r.bySuffix[suffix] = m.ID
			}
		}
	}
	return r
}

// Stats returns the counters accumulated so far.
func (r *Resolver) Stats() Stats { return r.stats }

// ResolveImport maps an import reference to an entity id.
func (r *Resolver) ResolveImport(ref string) (string, bool) {
	return r.resolveFrom("", ref)
}

// resolveFrom resolves ref for an import declared by source.
func (r *Resolver) resolveFrom(source, ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if r.g.Has(ref) {
		return ref, true
	}
	for _, id := range r.ids {
		if id != source && strings.Contains(id, ref) {
			return id, true
		}
	}
	if id, ok := r.byName[ref]; ok {
		return id, true
	}
	if id, ok := r.bySuffix[ref]; ok {
		return id, true
	}
	if id := ModulePrefix + ref; r.g.Has(id) {
		return id, true
	}
	return "", false
}

// AddImport resolves imp and adds an edge from the module source to it.
// The edge kind is the import type when it names a known edge kind.
func (r *Resolver) AddImport(source string, imp analysis.Import) bool {
	target, ok := r.resolveFrom(source, imp.Module)
	if !ok || target == source || !r.g.Has(source) {
		r.stats.Invalid++
		return false
	}
	kind := entity.EdgeKind(imp.ImportType)
	if !kind.Valid() {
		kind = entity.EdgeImport
	}
	return r.add(entity.Edge{Source: source, Target: target, Kind: kind}, &r.stats.Invalid)
}

// AddContains adds a containment edge parent→child.
func (r *Resolver) AddContains(parent, child string) bool {
	if parent == "" || child == "" {
		r.stats.Skipped++
		return false
	}
	return r.add(entity.Edge{Source: parent, Target: child, Kind: entity.EdgeContains}, &r.stats.Skipped)
}

// AddRelationship adds a typed edge listed outside the entity records.
func (r *Resolver) AddRelationship(rel analysis.Relationship) bool {
	return r.add(entity.Edge{Source: rel.From, Target: rel.To, Kind: RelationshipKind(rel.Type)}, &r.stats.Invalid)
}

func (r *Resolver) add(e entity.Edge, failure *int) bool {
	err := r.g.AddEdge(e)
	switch {
	case err == nil:
		r.stats.Added++
		return true
	case errors.Is(err, entity.ErrDuplicateEdge):
		r.stats.Duplicates++
	default:
		*failure++
	}
	return false
}

// ModuleEdges extracts the import and containment edges of a module record
// whose normalized id is id.
func (r *Resolver) ModuleEdges(id string, rec analysis.Record) {
	for _, imp := range rec.Imports {
		r.AddImport(id, imp)
	}
	for _, c := range rec.Classes {
		r.AddContains(id, c)
	}
	for _, f := range rec.Functions {
		r.AddContains(id, f)
	}
}

// MemberEdges connects a method or field to its declared class, or to its
// declared module when the class is unknown.
func (r *Resolver) MemberEdges(id string, rec analysis.Record) {
	switch {
	case rec.ClassID != "" && r.g.Has(rec.ClassID):
		r.AddContains(rec.ClassID, id)
	case rec.ModuleID != "" && r.g.Has(rec.ModuleID):
		r.AddContains(rec.ModuleID, id)
	}
}

// ClassEdges extracts the containment edges of a class record: its methods,
// its fields and its declared module.
func (r *Resolver) ClassEdges(id string, rec analysis.Record) {
	for _, m := range rec.Methods {
		r.AddContains(id, m)
	}
	for _, f := range rec.Fields {
		r.AddContains(id, f)
	}
	if rec.ModuleID != "" && r.g.Has(rec.ModuleID) {
		r.AddContains(rec.ModuleID, id)
	}
}

// RelationshipKind maps a free-form relationship type to an edge kind.
// Unknown types become references.
func RelationshipKind(t string) entity.EdgeKind {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "import", "imports":
		return entity.EdgeImport
	case "inheritance", "inherits", "inherit", "extends":
		return entity.EdgeInherit
	case "composition", "composes", "compose":
		return entity.EdgeCompose
	case "call", "calls":
		return entity.EdgeCall
	case "contains":
		return entity.EdgeContains
	}
	return entity.EdgeReference
}
