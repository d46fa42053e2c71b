package graph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyview/hiergraph/pkg/cycles"
	"github.com/pyview/hiergraph/pkg/entity"
)

func sampleGraph(t *testing.T) *entity.Graph {
	t.Helper()
	g := entity.NewGraph()
	require.NoError(t, g.AddEntity(entity.Entity{ID: "pkg:a", Name: "a", Kind: entity.KindPackage}))
	require.NoError(t, g.AddEntity(entity.Entity{ID: "mod:a.x", Name: "x", Kind: entity.KindModule, ParentID: "pkg:a"}))
	require.NoError(t, g.AddEntity(entity.Entity{ID: "mod:a.y", Name: "y", Kind: entity.KindModule, ParentID: "pkg:a"}))
	require.NoError(t, g.AddEntity(entity.Entity{ID: "cls:mod:a.x:C", Name: "C", Kind: entity.KindClass, ParentID: "mod:a.x", ModuleID: "mod:a.x"}))
	require.NoError(t, g.AddEdge(entity.Edge{Source: "mod:a.y", Target: "mod:a.x", Kind: entity.EdgeImport}))
	return g
}

func TestDocumentRestoresHierarchy(t *testing.T) {
	cs := []cycles.Cycle{{Entities: []string{"mod:a.x"}}}
	doc := FromEntities(sampleGraph(t), "a", cs)

	data, err := MarshalDocument(doc)
	require.NoError(t, err)
	back, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, back)

	g, err := ToEntities(back)
	require.NoError(t, err)

	assert.Equal(t, 4, g.EntityCount())
	assert.Equal(t, []string{"mod:a.x", "mod:a.y"}, g.Children("pkg:a"))
	cls, ok := g.Entity("cls:mod:a.x:C")
	require.True(t, ok)
	assert.Equal(t, "mod:a.x", cls.ParentID)
	assert.Equal(t, entity.KindClass, cls.Kind)
	assert.Equal(t, []entity.Edge{{Source: "mod:a.y", Target: "mod:a.x", Kind: entity.EdgeImport}}, g.Edges())
}

func TestToEntitiesRejectsBrokenEdges(t *testing.T) {
	_, err := ToEntities(Document{
		Entities: []DocumentEntity{{ID: "a", Kind: entity.KindModule}},
		Edges:    []DocumentEdge{{Source: "a", Target: "b"}},
	})
	assert.ErrorIs(t, err, entity.ErrUnknownTargetNode)
}

func TestToEntitiesDropsUnknownParent(t *testing.T) {
	g, err := ToEntities(Document{
		Entities: []DocumentEntity{{ID: "mod:a", Kind: entity.KindModule, ParentID: "pkg:gone"}},
	})
	require.NoError(t, err)
	m, _ := g.Entity("mod:a")
	assert.Empty(t, m.ParentID)
}

func TestElementsJSONShape(t *testing.T) {
	el := Elements{
		Nodes: []Node{{ID: "mod:a", Name: "a", Kind: "module", Level: 1, ContainerParentID: PackageContainerID}},
		Edges: []Edge{{ID: "mod:a-mod:b", Source: "mod:a", Target: "mod:b", Kind: "import"}},
		Containers: []Container{{ID: PackageContainerID, Kind: ContainerPackage, MemberIDs: []string{"mod:a"}}},
	}
	data, err := MarshalElements(el)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"containerParentId": "package-container"`)
	assert.Contains(t, s, `"isInCycle": false`)
	assert.Contains(t, s, `"memberIds": [`)
	assert.NotContains(t, s, "cycleSeverity")

	back, err := ReadElements(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, el, back)
}

func TestContainerIDs(t *testing.T) {
	assert.Equal(t, "module-container-mod:a", ModuleContainerID("mod:a"))
	assert.Equal(t, "class-container-cls:mod:a:C", ClassContainerID("cls:mod:a:C"))
}
