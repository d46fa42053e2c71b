package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/render/nodelink"
)

func ExampleToDOT() {
	el := graph.Elements{
		Nodes: []graph.Node{
			{ID: "mod:app", Name: "app", Kind: "module", ContainerParentID: "package-container"},
			{ID: "mod:db", Name: "db", Kind: "module", ContainerParentID: "package-container"},
		},
		Edges: []graph.Edge{{ID: "mod:app-mod:db", Source: "mod:app", Target: "mod:db", Kind: "import"}},
		Containers: []graph.Container{
			{ID: "package-container", Kind: "package-container", Label: "shop", MemberIDs: []string{"mod:app", "mod:db"}},
		},
	}

	dot := nodelink.ToDOT(el, nodelink.Options{})
	fmt.Println(strings.Count(dot, "subgraph"))
	fmt.Println(strings.Contains(dot, `"mod:app" -> "mod:db";`))
	// Output:
	// 1
	// true
}
