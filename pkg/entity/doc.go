// Package entity defines the normalized entity model of a hierarchical code
// graph: the five entity kinds, typed edges, the [Normalize] function that
// turns loosely-typed analysis records into stable ids and short display
// names, and [Graph], an insertion-ordered entity/edge store.
//
// # Kinds and levels
//
// Every entity has one of five kinds whose view level is fixed:
//
//	Package = 0, Module = 1, Class = 2, Method = 3, Field = 4
//
// # Graph
//
// [Graph] rejects empty or duplicate ids, edges with unknown endpoints,
// self-loops, and a second edge for an ordered (source, target) pair that is
// already present. The first edge recorded for a pair keeps its kind.
//
//	g := entity.NewGraph()
//	g.AddEntity(entity.Entity{ID: "mod:a", Kind: entity.KindModule})
//	g.AddEntity(entity.Entity{ID: "mod:b", Kind: entity.KindModule})
//	g.AddEdge(entity.Edge{Source: "mod:a", Target: "mod:b", Kind: entity.EdgeImport})
//
// Parent/child links are not set here; see package hierarchy.
package entity
