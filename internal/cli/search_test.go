package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/pipeline"
	"github.com/pyview/hiergraph/pkg/search"
)

func TestSearchCommandJSON(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "search", "analysis.json", "order", "--kind", "Class", "--json")
	require.NoError(t, err)

	var res search.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "cls:mod:shop.orders:Order", res.Hits[0].ID)
}

func TestSearchCommandTable(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "search", "analysis.json", "*", "--cycles")
	require.NoError(t, err)
	assert.Contains(t, out, "mod:shop.orders")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "2 of 2 matches")

	out, err = runCLI(t, "search", "analysis.json", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No entities match")
}

func TestSearchCommandErrors(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "search", "analysis.json", "x", "--kind", "widget")
	require.Error(t, err)

	_, err = runCLI(t, "search", "analysis.json", "[unclosed")
	require.Error(t, err)
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"module", " Class "})
	require.NoError(t, err)
	assert.Equal(t, []entity.Kind{entity.KindModule, entity.KindClass}, kinds)
}

func TestCollectStats(t *testing.T) {
	r := pipeline.NewRunner(nil, nil, nil)
	tr, err := r.Transform(context.Background(), []byte(shopAnalysis), pipeline.Options{})
	require.NoError(t, err)

	report, err := collectStats(context.Background(), tr)
	require.NoError(t, err)

	assert.Equal(t, "shop", report.Project)
	assert.Equal(t, 6, report.Entities)
	assert.Equal(t, 1, report.Cycles)
	assert.Equal(t, 2, report.InCycle)
	assert.Equal(t, 2, report.Kinds["package"])
	assert.Equal(t, 2, report.Kinds["module"])
	require.Len(t, report.Levels, 5)
	assert.Equal(t, "Package", report.Levels[0].Name)
	assert.Equal(t, 1, report.Relation["import"])
	require.NotNil(t, report.Transform)
	assert.Zero(t, report.Transform.Malformed)
}

func TestStatsCommand(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "stats", "analysis.json")
	require.NoError(t, err)
	assert.Contains(t, out, "shop")
	assert.Contains(t, out, "Module")

	out, err = runCLI(t, "stats", "analysis.json", "--json")
	require.NoError(t, err)
	var report StatsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 6, report.Entities)
}

func TestStatsWarnsAboutSkippedRecords(t *testing.T) {
	report := StatsReport{
		Project:   "x",
		Transform: &TransformCounters{Malformed: 2},
	}
	var buf bytes.Buffer
	writeStats(&buf, report)
	assert.Contains(t, buf.String(), "Skipped 2 malformed")
}
