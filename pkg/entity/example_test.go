package entity_test

import (
	"fmt"

	"github.com/pyview/hiergraph/pkg/entity"
)

func ExampleNormalize() {
	ref := entity.Normalize(entity.Ref{ID: "cls:mod:shop.orders:Invoice"}, entity.KindClass, 0)
	fmt.Println(ref.ID)
	fmt.Println(ref.Name)

	anon := entity.Normalize(entity.Ref{}, entity.KindMethod, 7)
	fmt.Println(anon.ID, "/", anon.Name)
	// Output:
	// cls:mod:shop.orders:Invoice
	// Invoice
	// method_7 / Method 7
}

func ExampleGraph() {
	g := entity.NewGraph()
	_ = g.AddEntity(entity.Entity{ID: "mod:a", Name: "a", Kind: entity.KindModule})
	_ = g.AddEntity(entity.Entity{ID: "mod:b", Name: "b", Kind: entity.KindModule})
	_ = g.AddEdge(entity.Edge{Source: "mod:a", Target: "mod:b", Kind: entity.EdgeImport})

	// A second edge for the same ordered pair is rejected.
	err := g.AddEdge(entity.Edge{Source: "mod:a", Target: "mod:b", Kind: entity.EdgeCall})
	fmt.Println(err)
	fmt.Println(g.EdgeCount(), g.Edges()[0].Kind)
	// Output:
	// duplicate edge
	// 1 import
}
