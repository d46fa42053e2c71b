package transform

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyview/hiergraph/pkg/analysis"
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/view"
)

func decode(t *testing.T, doc string) *analysis.Result {
	t.Helper()
	res, err := analysis.Decode([]byte(doc))
	require.NoError(t, err)
	return res
}

const twoModules = `{"modules": [{"id": "mod:a", "imports": [{"module": "b"}]}, {"id": "mod:b"}]}`

func TestTwoModuleImport(t *testing.T) {
	res, err := Run(context.Background(), decode(t, twoModules), Options{})
	require.NoError(t, err)

	var ids []string
	for _, e := range res.Graph.Entities() {
		ids = append(ids, e.ID)
		assert.Equal(t, entity.KindModule, e.Kind)
	}
	assert.Equal(t, []string{"mod:a", "mod:b"}, ids)
	assert.Equal(t, []entity.Edge{{Source: "mod:a", Target: "mod:b", Kind: entity.EdgeImport}}, res.Graph.Edges())

	s := view.NewScope(res.Graph, res.Cycles, res.ProjectName)

	el, err := view.Build(s, 0, nil)
	require.NoError(t, err)
	require.Len(t, el.Containers, 1)
	assert.Equal(t, graph.PackageContainerID, el.Containers[0].ID)

	el, err = view.Build(s, 1, nil)
	require.NoError(t, err)
	require.Len(t, el.Nodes, 2)
	require.Len(t, el.Edges, 1)
	assert.Len(t, el.Containers, 1)
	for _, n := range el.Nodes {
		assert.False(t, n.IsInCycle, n.ID)
	}
	assert.Equal(t, "mod:a-mod:b", el.Edges[0].ID)
	assert.Equal(t, "import", el.Edges[0].Kind)
	assert.False(t, el.Edges[0].IsInCycle)
}

func TestTwoModuleCycle(t *testing.T) {
	in := decode(t, `{
		"modules": [{"id": "mod:a", "imports": [{"module": "b"}]}, {"id": "mod:b"}],
		"cycles": [{"entities": ["mod:a", "mod:b"], "paths": [{"from": "mod:a", "to": "mod:b"}]}]
	}`)
	res, err := Run(context.Background(), in, Options{})
	require.NoError(t, err)

	el, err := view.Build(view.NewScope(res.Graph, res.Cycles, res.ProjectName), 1, nil)
	require.NoError(t, err)
	for _, n := range el.Nodes {
		assert.True(t, n.IsInCycle, n.ID)
	}
	require.Len(t, el.Edges, 1)
	assert.True(t, el.Edges[0].IsInCycle)
}

func TestClassParentFromEncodedModule(t *testing.T) {
	with := decode(t, `{"modules": [{"id": "mod:pkg.x"}], "classes": [{"id": "cls:mod:pkg.x:Foo"}]}`)
	res, err := Run(context.Background(), with, Options{})
	require.NoError(t, err)
	cls, ok := res.Graph.Entity("cls:mod:pkg.x:Foo")
	require.True(t, ok)
	assert.Equal(t, "mod:pkg.x", cls.ParentID)

	without := decode(t, `{"classes": [{"id": "cls:mod:pkg.x:Foo"}]}`)
	res, err = Run(context.Background(), without, Options{})
	require.NoError(t, err)
	cls, _ = res.Graph.Entity("cls:mod:pkg.x:Foo")
	assert.Empty(t, cls.ParentID)
}

func TestDeduplicatesImports(t *testing.T) {
	in := decode(t, `{"modules": [
		{"id": "mod:a", "imports": ["b", {"module": "mod:b"}, {"module": "b", "import_type": "call"}, "a"]},
		{"id": "mod:b"}
	]}`)
	res, err := Run(context.Background(), in, Options{})
	require.NoError(t, err)

	edges := res.Graph.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, entity.EdgeImport, edges[0].Kind)
	assert.Equal(t, 2, res.Stats.Edges.Duplicates)
	assert.Equal(t, 1, res.Stats.Edges.Invalid)
	for _, e := range edges {
		assert.NotEqual(t, e.Source, e.Target)
	}
}

func TestSkipsMalformedAndDuplicateRecords(t *testing.T) {
	in := decode(t, `{
		"packages": [{"id": "pkg:a"}, "pkg:b", null, {"id": "pkg:a"}],
		"modules": [{"id": "mod:a.x", "functions": [{"id": "func:a.x:run"}]}, {"imports": 7}],
		"methods": [{"id": "func:a.x:run", "module_id": "mod:a.x"}, {}],
		"relationships": [{"from_entity": "func:a.x:run", "to_entity": "pkg:a"}, 3]
	}`)
	res, err := Run(context.Background(), in, Options{})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Stats.Entities)
	assert.Equal(t, 4, res.Stats.Malformed)
	assert.Equal(t, 1, res.Stats.Duplicates)

	anon, ok := res.Graph.Entity("method_1")
	require.True(t, ok)
	assert.Equal(t, "Method 1", anon.Name)

	fn, _ := res.Graph.Entity("func:a.x:run")
	assert.Equal(t, "mod:a.x", fn.ParentID)
	assert.True(t, res.Graph.HasEdge("func:a.x:run", "pkg:a"))
}

func TestProgressIsMonotonic(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"modules": [`)
	for i := range 23 {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id": "mod:m%d", "imports": ["m%d"]}`, i, (i+1)%23)
	}
	b.WriteString(`], "classes": [`)
	for i := range 7 {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id": "cls:mod:m0:C%d"}`, i)
	}
	b.WriteString(`]}`)

	var got []Progress
	yields := 0
	res, err := Run(context.Background(), decode(t, b.String()), Options{
		ChunkSize:  5,
		OnProgress: func(p Progress) { got = append(got, p) },
		Yield:      func() { yields++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 23, res.Graph.EdgeCount())

	// modules 5 chunks, classes 2, module edges 5, class edges 2, finalize 1
	require.Len(t, got, 15)
	assert.Equal(t, 14, yields)

	ones := 0
	for i, p := range got {
		if i > 0 {
			assert.GreaterOrEqual(t, p.Fraction, got[i-1].Fraction, "progress %d", i)
		}
		if p.Fraction == 1 {
			ones++
		}
		assert.LessOrEqual(t, p.ProcessedItems, p.TotalItems)
	}
	assert.Equal(t, 1, ones)
	assert.Equal(t, 1.0, got[len(got)-1].Fraction)
	assert.Equal(t, StageFinalize, got[len(got)-1].Stage)
	assert.InDelta(t, 0.9, got[6].Fraction, 1e-9)
	assert.Equal(t, StageClasses, got[6].Stage)
	assert.Equal(t, "Class", got[6].CurrentKind)
}

func TestEmptyInputReportsCompletionOnce(t *testing.T) {
	var got []Progress
	res, err := Run(context.Background(), decode(t, `{}`), Options{
		OnProgress: func(p Progress) { got = append(got, p) },
	})
	require.NoError(t, err)
	assert.Zero(t, res.Graph.EntityCount())
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Fraction)
}

func TestAbortBetweenChunks(t *testing.T) {
	in := decode(t, `{"packages": [{"id":"p1"},{"id":"p2"},{"id":"p3"},{"id":"p4"}]}`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Progress
	res, err := Run(ctx, in, Options{
		ChunkSize: 1,
		OnProgress: func(p Progress) {
			got = append(got, p)
			if len(got) == 2 {
				cancel()
			}
		},
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeAborted, OutcomeOf(err))
	assert.Len(t, got, 2)
}

// cancelAfterCtx reports cancellation from its second Err call on, as if
// the caller cancelled while the first chunk was being processed.
type cancelAfterCtx struct {
	context.Context
	calls int
}

func (c *cancelAfterCtx) Err() error {
	c.calls++
	if c.calls > 1 {
		return context.Canceled
	}
	return nil
}

func TestAbortDuringChunkReportsNoProgress(t *testing.T) {
	in := decode(t, `{"packages": [{"id":"p1"},{"id":"p2"}]}`)
	ctx := &cancelAfterCtx{Context: context.Background()}

	var got []Progress
	res, err := Run(ctx, in, Options{
		ChunkSize:  2,
		OnProgress: func(p Progress) { got = append(got, p) },
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, got)
}

func TestAbortBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Run(ctx, decode(t, twoModules), Options{OnProgress: func(Progress) { called = true }})
	assert.ErrorIs(t, err, ErrAborted)
	assert.False(t, called)
}

func TestPanicBecomesInternalError(t *testing.T) {
	res, err := Run(context.Background(), decode(t, twoModules), Options{
		OnProgress: func(Progress) { panic("boom") },
	})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrCodeInternal))
	assert.Equal(t, OutcomeFailed, OutcomeOf(err))
}

func TestRunValidation(t *testing.T) {
	_, err := Run(context.Background(), nil, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidAnalysis))

	_, err = Run(context.Background(), decode(t, `{}`), Options{ChunkSize: -1})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestRunIsIdempotent(t *testing.T) {
	doc := `{
		"project_name": "app",
		"packages": [{"id": "pkg:app"}],
		"modules": [{"id": "mod:app.a", "imports": ["app.b"], "functions": ["func:app.a:go"]}, {"id": "mod:app.b"}],
		"classes": [{"id": "cls:mod:app.a:K", "methods": ["meth:cls:mod:app.a:K:m:1"], "fields": ["field:cls:mod:app.a:K:f:2"]}],
		"methods": [{"id": "meth:cls:mod:app.a:K:m:1"}, {"id": "func:app.a:go"}],
		"fields": [{"id": "field:cls:mod:app.a:K:f:2", "class_id": "cls:mod:app.a:K"}]
	}`
	first, err := Run(context.Background(), decode(t, doc), Options{ChunkSize: 2})
	require.NoError(t, err)
	second, err := Run(context.Background(), decode(t, doc), Options{ChunkSize: 3})
	require.NoError(t, err)

	assert.Equal(t, graph.FromEntities(first.Graph, "app", nil), graph.FromEntities(second.Graph, "app", nil))
	for level := 0; level <= 4; level++ {
		a, err := view.Build(view.NewScope(first.Graph, nil, "app"), level, nil)
		require.NoError(t, err)
		b, err := view.Build(view.NewScope(second.Graph, nil, "app"), level, nil)
		require.NoError(t, err)
		assert.Equal(t, a, b, "level %d", level)
	}
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSucceeded, OutcomeOf(nil))
	assert.Equal(t, OutcomeAborted, OutcomeOf(fmt.Errorf("run: %w", ErrAborted)))
	assert.Equal(t, OutcomeFailed, OutcomeOf(stderrors.New("x")))
}
