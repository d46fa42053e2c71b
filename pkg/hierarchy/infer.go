// Package hierarchy recovers the parent/child containment tree of a graph of
// normalized entities.
//
// The analysis backend rarely supplies parents explicitly. Each kind has its
// own pure inference function working from the entity id (and from the owner
// ids the record declared, when those resolve):
//
//	cls:<ns>:<path>:<Name>                      → module <ns>:<path>
//	<ns>:<a.b.c>                                → package pkg:<a>
//	meth|field:cls:<ns>:<path>:<Class>:<...>    → class cls:<ns>:<path>:<Class>
//	func:<...>                                  → first connected module
//
// Free functions are owned by the module that an edge connects them to. When
// several modules qualify the module added first wins; this is a heuristic
// and is ambiguous for functions shared between modules.
package hierarchy

import (
	"strings"

	"github.com/pyview/hiergraph/pkg/entity"
)

// PackagePrefix is the id prefix of package entities.
const PackagePrefix = "pkg:"

// Lookup resolves entity ids. [*entity.Graph] implements it.
type Lookup interface {
	Entity(id string) (*entity.Entity, bool)
}

// EdgeIndex extends Lookup with adjacency queries for the free-function
// fallback. [*entity.Graph] implements it.
type EdgeIndex interface {
	Lookup
	Neighbors(id string) []string
	Position(id string) int
}

// ClassModuleID extracts the module id encoded in a class id:
// "cls:mod:app.core:User" yields "mod:app.core".
func ClassModuleID(id string) (string, bool) {
	parts := strings.Split(id, ":")
	if len(parts) < 3 || parts[0] != "cls" {
		return "", false
	}
	return parts[1] + ":" + parts[2], true
}

// ModulePackageID extracts the package id encoded in a module id:
// "mod:app.core.models" yields "pkg:app".
func ModulePackageID(id string) (string, bool) {
	_, path, ok := strings.Cut(id, ":")
	if !ok {
		return "", false
	}
	path, _, _ = strings.Cut(path, ":")
	head, _, _ := strings.Cut(path, ".")
	if head == "" {
		return "", false
	}
	return PackagePrefix + head, true
}

// MemberClassID extracts the class id encoded in a method or field id:
// "meth:cls:mod:app.core:User:save:12" yields "cls:mod:app.core:User".
func MemberClassID(id string) (string, bool) {
	parts := strings.Split(id, ":")
	if len(parts) < 5 || parts[1] != "cls" {
		return "", false
	}
	switch parts[0] {
	case "meth", "method", "field":
	default:
		return "", false
	}
	return strings.Join(parts[1:5], ":"), true
}

// ParentOfClass returns the owning module of a class.
func ParentOfClass(l Lookup, e *entity.Entity) (string, bool) {
	if resolves(l, e.ModuleID, entity.KindModule) {
		return e.ModuleID, true
	}
	if id, ok := ClassModuleID(e.ID); ok && resolves(l, id, entity.KindModule) {
		return id, true
	}
	return "", false
}

// ParentOfModule returns the owning package of a module.
func ParentOfModule(l Lookup, e *entity.Entity) (string, bool) {
	if id, ok := ModulePackageID(e.ID); ok && resolves(l, id, entity.KindPackage) {
		return id, true
	}
	return "", false
}

// ParentOfMember returns the owning class of a method or field. Members
// without a class fall back to their declared module.
func ParentOfMember(l Lookup, e *entity.Entity) (string, bool) {
	if resolves(l, e.ClassID, entity.KindClass) {
		return e.ClassID, true
	}
	if id, ok := MemberClassID(e.ID); ok && resolves(l, id, entity.KindClass) {
		return id, true
	}
	if resolves(l, e.ModuleID, entity.KindModule) {
		return e.ModuleID, true
	}
	return "", false
}

// OwnerByEdges returns the module connected to id by an edge in either
// direction. Among several candidates the one inserted first is chosen.
func OwnerByEdges(g EdgeIndex, id string) (string, bool) {
	best, bestPos := "", -1
	for _, n := range g.Neighbors(id) {
		if !resolves(g, n, entity.KindModule) {
			continue
		}
		if pos := g.Position(n); bestPos < 0 || pos < bestPos {
			best, bestPos = n, pos
		}
	}
	return best, bestPos >= 0
}

// InferParent dispatches to the inference function of the entity's kind.
func InferParent(g EdgeIndex, e *entity.Entity) (string, bool) {
	switch e.Kind {
	case entity.KindClass:
		return ParentOfClass(g, e)
	case entity.KindModule:
		return ParentOfModule(g, e)
	case entity.KindMethod, entity.KindField:
		if id, ok := ParentOfMember(g, e); ok {
			return id, true
		}
		if strings.HasPrefix(e.ID, entity.FreeFunctionMarker) {
			return OwnerByEdges(g, e.ID)
		}
	}
	return "", false
}

func resolves(l Lookup, id string, kind entity.Kind) bool {
	if id == "" {
		return false
	}
	e, ok := l.Entity(id)
	return ok && e.Kind == kind
}
