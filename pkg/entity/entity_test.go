package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindLevelsAreOrdered(t *testing.T) {
	for i, k := range Kinds {
		assert.Equal(t, i, k.Level(), "%s level", k)
		if i > 0 {
			assert.Less(t, Kinds[i-1].Level(), k.Level())
		}
	}
	assert.Equal(t, "Class", LevelName(2))
	assert.Equal(t, "Level 7", LevelName(7))
}

func TestKindText(t *testing.T) {
	for _, k := range Kinds {
		b, err := k.MarshalText()
		require.NoError(t, err)

		var back Kind
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, k, back)
	}

	_, err := Kind(9).MarshalText()
	assert.Error(t, err)
	_, err = ParseKind("namespace")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		raw   Ref
		kind  Kind
		index int
		want  Ref
	}{
		{"id and name", Ref{ID: "mod:app.core", Name: "app.core"}, KindModule, 0, Ref{"mod:app.core", "core"}},
		{"name only", Ref{Name: "app/models.py"}, KindModule, 1, Ref{"app/models.py", "py"}},
		{"id only", Ref{ID: "cls:mod:app.core:Service"}, KindClass, 2, Ref{"cls:mod:app.core:Service", "Service"}},
		{"backslashes", Ref{ID: "m1", Name: `src\pkg\util`}, KindModule, 0, Ref{"m1", "util"}},
		{"nothing", Ref{}, KindModule, 3, Ref{"mod_3", "Module 3"}},
		{"nothing field", Ref{}, KindField, 0, Ref{"field_0", "Field 0"}},
		{"trailing separator", Ref{ID: "pkg:"}, KindPackage, 4, Ref{"pkg:", "Package 4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.kind, tt.index))
		})
	}
}

func TestGraphAddEntity(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEntity(Entity{ID: "pkg:app", Kind: KindPackage}))
	require.NoError(t, g.AddEntity(Entity{ID: "mod:app.core", Kind: KindModule}))

	assert.ErrorIs(t, g.AddEntity(Entity{Kind: KindModule}), ErrInvalidNodeID)
	assert.ErrorIs(t, g.AddEntity(Entity{ID: "pkg:app", Kind: KindPackage}), ErrDuplicateNodeID)
	assert.ErrorIs(t, g.AddEntity(Entity{ID: "x", Kind: Kind(8)}), ErrInvalidKind)

	assert.Equal(t, 2, g.EntityCount())
	assert.Equal(t, 1, g.Position("mod:app.core"))
	assert.Equal(t, -1, g.Position("missing"))

	e, ok := g.Entity("mod:app.core")
	require.True(t, ok)
	assert.Equal(t, 1, e.Level())
}

func TestGraphAddEdge(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"mod:a", "mod:b", "mod:c"} {
		require.NoError(t, g.AddEntity(Entity{ID: id, Kind: KindModule}))
	}

	require.NoError(t, g.AddEdge(Edge{Source: "mod:a", Target: "mod:b", Kind: EdgeImport}))
	require.NoError(t, g.AddEdge(Edge{Source: "mod:b", Target: "mod:a", Kind: EdgeImport}))

	assert.ErrorIs(t, g.AddEdge(Edge{Source: "mod:a", Target: "mod:b", Kind: EdgeCall}), ErrDuplicateEdge)
	assert.ErrorIs(t, g.AddEdge(Edge{Source: "mod:a", Target: "mod:a"}), ErrSelfLoop)
	assert.ErrorIs(t, g.AddEdge(Edge{Source: "mod:x", Target: "mod:a"}), ErrUnknownSourceNode)
	assert.ErrorIs(t, g.AddEdge(Edge{Source: "mod:a", Target: "mod:x"}), ErrUnknownTargetNode)

	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, EdgeImport, edges[0].Kind)
	assert.Equal(t, "mod:a-mod:b", edges[0].ID())
	assert.Equal(t, []string{"mod:b"}, g.Outgoing("mod:a"))
	assert.Equal(t, []string{"mod:b"}, g.Incoming("mod:a"))
	assert.Equal(t, []string{"mod:b"}, g.Neighbors("mod:a"))
	assert.True(t, g.Connected("mod:b", "mod:a"))
	assert.False(t, g.Connected("mod:c", "mod:a"))
	assert.NoError(t, g.Validate())
}

func TestGraphPreservesInsertionOrder(t *testing.T) {
	g := NewGraph()
	ids := []string{"mod:z", "mod:a", "mod:m", "pkg:b"}
	for _, id := range ids {
		k := KindModule
		if id == "pkg:b" {
			k = KindPackage
		}
		require.NoError(t, g.AddEntity(Entity{ID: id, Kind: k}))
	}

	var got []string
	for _, e := range g.Entities() {
		got = append(got, e.ID)
	}
	assert.Equal(t, ids, got)
	assert.Len(t, g.OfKind(KindModule), 3)
	assert.Equal(t, map[Kind]int{KindModule: 3, KindPackage: 1}, g.Counts())
}

func TestGraphValidateParent(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEntity(Entity{ID: "mod:a", Kind: KindModule, ParentID: "pkg:gone"}))
	assert.ErrorIs(t, g.Validate(), ErrUnknownParent)
}

func TestIsFreeFunction(t *testing.T) {
	assert.True(t, (&Entity{ID: "func:mod:a:main", Kind: KindMethod}).IsFreeFunction())
	assert.False(t, (&Entity{ID: "meth:cls:mod:a:C:run:3", Kind: KindMethod}).IsFreeFunction())
	assert.False(t, (&Entity{ID: "func:x", Kind: KindField}).IsFreeFunction())
}
