package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyview/hiergraph/pkg/cycles"
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/view"
)

func scope(t *testing.T) *view.Scope {
	t.Helper()
	g := entity.NewGraph()
	for _, e := range []entity.Entity{
		{ID: "pkg:shop", Name: "shop", Kind: entity.KindPackage},
		{ID: "mod:shop.orders", Name: "orders", Kind: entity.KindModule},
		{ID: "mod:shop.order", Name: "order", Kind: entity.KindModule},
		{ID: "cls:mod:shop.orders:OrderService", Name: "OrderService", Kind: entity.KindClass, ParentID: "mod:shop.orders"},
		{ID: "cls:mod:shop.orders:Cart", Name: "Cart", Kind: entity.KindClass},
		{ID: "mod:billing", Name: "billing", Kind: entity.KindModule},
	} {
		require.NoError(t, g.AddEntity(e))
	}
	return view.NewScope(g, []cycles.Cycle{
		{Entities: []string{"mod:shop.orders", "mod:billing"}, Severity: cycles.SeverityHigh},
	}, "shop")
}

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestSubstringRanking(t *testing.T) {
	res, err := Run(scope(t), "ORDER", Options{})
	require.NoError(t, err)
	assert.False(t, res.Glob)
	assert.Equal(t, []string{
		"mod:shop.order",                   // exact
		"mod:shop.orders",                  // prefix
		"cls:mod:shop.orders:OrderService", // prefix
		"cls:mod:shop.orders:Cart",         // id only
	}, ids(res.Hits))
	assert.Equal(t, 4, res.Total)

	h := res.Hits[1]
	assert.True(t, h.IsInCycle)
	assert.Equal(t, "high", h.CycleSeverity)
	assert.Equal(t, "Module", h.LevelName)
}

func TestGlob(t *testing.T) {
	res, err := Run(scope(t), "*service", Options{})
	require.NoError(t, err)
	assert.True(t, res.Glob)
	assert.Equal(t, []string{"cls:mod:shop.orders:OrderService"}, ids(res.Hits))

	res, err = Run(scope(t), "mod:shop.*", Options{Kinds: []entity.Kind{entity.KindModule}})
	require.NoError(t, err)
	assert.Equal(t, []string{"mod:shop.orders", "mod:shop.order"}, ids(res.Hits))

	_, err = Run(scope(t), "[unclosed", Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPattern))
}

func TestFilters(t *testing.T) {
	res, err := Run(scope(t), "o", Options{CycleOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"mod:shop.orders", "mod:billing"}, ids(res.Hits))

	res, err = Run(scope(t), "o", Options{Kinds: []entity.Kind{entity.KindClass}})
	require.NoError(t, err)
	assert.Equal(t, []string{"cls:mod:shop.orders:OrderService", "cls:mod:shop.orders:Cart"}, ids(res.Hits))

	res, err = Run(scope(t), "o", Options{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 2)
	assert.True(t, res.Truncated)
	assert.Greater(t, res.Total, 2)
}

func TestInvalidQuery(t *testing.T) {
	_, err := Run(scope(t), "   ", Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	long := make([]byte, MaxQueryLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = Run(scope(t), string(long), Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}
