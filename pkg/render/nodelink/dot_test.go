package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/pyview/hiergraph/pkg/graph"
)

func sample() graph.Elements {
	return graph.Elements{
		Nodes: []graph.Node{
			{ID: "mod:a", Name: "a", Kind: "module", Level: 1, ContainerParentID: "module-container-mod:a", IsInCycle: true},
			{ID: "mod:b", Name: "b", Kind: "module", Level: 1, ContainerParentID: "module-container-mod:b", IsInCycle: true},
			{ID: "cls:mod:a:K", Name: "K", Kind: "class", Level: 2, ContainerParentID: "module-container-mod:a"},
			{ID: "loose", Name: "loose", Kind: "module", Level: 1},
		},
		Edges: []graph.Edge{
			{ID: "mod:a-mod:b", Source: "mod:a", Target: "mod:b", Kind: "import", IsInCycle: true},
			{ID: "mod:a-cls:mod:a:K", Source: "mod:a", Target: "cls:mod:a:K", Kind: "contains"},
		},
		Containers: []graph.Container{
			{ID: "package-container", Kind: "package-container", Label: "shop", MemberIDs: []string{}},
			{ID: "module-container-mod:a", Kind: "module-container", Label: "a", MemberIDs: []string{"mod:a", "cls:mod:a:K"}, ParentContainerID: "package-container"},
			{ID: "module-container-mod:b", Kind: "module-container", Label: "b", MemberIDs: []string{"mod:b"}, ParentContainerID: "package-container"},
		},
	}
}

func TestToDOT_Clusters(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	if !strings.HasPrefix(dot, "digraph G {") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	for _, want := range []string{
		`subgraph "cluster_package-container"`,
		`subgraph "cluster_module-container-mod:a"`,
		`label="shop"`,
		`"cls:mod:a:K" [label="K", shape=component]`,
		`"mod:a" -> "mod:b"`,
		`"loose" [label="loose"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s\n%s", want, dot)
		}
	}

	// Module clusters are nested inside the package cluster.
	pkg := strings.Index(dot, `"cluster_package-container"`)
	mod := strings.Index(dot, `"cluster_module-container-mod:a"`)
	if pkg < 0 || mod < pkg {
		t.Error("module cluster should follow the package cluster it is nested in")
	}
	if strings.Index(dot, `"loose" [`) > pkg {
		t.Error("unassigned node should be written at top level")
	}
}

func TestToDOT_Cycles(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	if !strings.Contains(dot, `"mod:a" -> "mod:b" [color="`+CycleColor+`", penwidth=2]`) {
		t.Errorf("cycle edge not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, `"mod:a" -> "cls:mod:a:K" [style=dotted, arrowhead=none]`) {
		t.Errorf("contains edge not dotted:\n%s", dot)
	}
}

func TestToDOT_Options(t *testing.T) {
	dot := ToDOT(sample(), Options{Title: "Overview", EdgeLabels: true, LeftToRight: true})

	for _, want := range []string{"rankdir=LR", `label="Overview"`, `label="import"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s", want)
		}
	}
}

func TestToDOT_Synthetic(t *testing.T) {
	el := graph.Elements{Nodes: []graph.Node{{ID: "root-proxy", Name: "Root", Kind: "module", Synthetic: true}}}
	if !strings.Contains(ToDOT(el, Options{}), "dashed") {
		t.Error("synthetic node should be dashed")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sample(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output is not SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
