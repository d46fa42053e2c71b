package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pyview/hiergraph/pkg/entity"
	hgerrors "github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/pipeline"
)

// StatsReport summarizes a transformed analysis.
type StatsReport struct {
	Project  string         `json:"project"`
	Hash     string         `json:"hash"`
	Entities int            `json:"entities"`
	Edges    int            `json:"edges"`
	Cycles   int            `json:"cycles"`
	InCycle  int            `json:"inCycle"`
	Kinds    map[string]int `json:"kinds"`
	Relation map[string]int `json:"relations"`
	Levels   []LevelStats   `json:"levels"`

	// Transform counters; nil when the graph came from the cache.
	Transform *TransformCounters `json:"transform,omitempty"`
}

// LevelStats is the size of the collapsed view at one level.
type LevelStats struct {
	Level      int    `json:"level"`
	Name       string `json:"name"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	Containers int    `json:"containers"`
}

// TransformCounters are the records a transformation skipped or repaired.
type TransformCounters struct {
	Malformed  int `json:"malformed"`
	Duplicates int `json:"duplicates"`
	Unresolved int `json:"unresolved"`
	DupEdges   int `json:"duplicateEdges"`
	Orphans    int `json:"orphans"`
}

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats [analysis.json]",
		Short: "Summarize entities, relationships, cycles and view sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStats(cmd.Context(), cmd.OutOrStdout(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func (c *CLI) runStats(ctx context.Context, w io.Writer, input string, asJSON bool) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	t, err := runner.TransformFile(ctx, input, c.baseOptions())
	if err != nil {
		return err
	}
	report, err := collectStats(ctx, t)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeStats(w, report)
	return nil
}

// collectStats builds the report. Every level is built in its own scope so
// that level 0 root suppression does not shrink the other levels.
func collectStats(ctx context.Context, t *pipeline.Transformed) (StatsReport, error) {
	g := t.Graph
	r := StatsReport{
		Project:  t.ProjectName,
		Hash:     t.Hash,
		Entities: g.EntityCount(),
		Edges:    g.EdgeCount(),
		Cycles:   len(t.Cycles),
		Kinds:    make(map[string]int),
		Relation: make(map[string]int),
	}
	for k, n := range g.Counts() {
		r.Kinds[k.String()] = n
	}
	for _, e := range g.Edges() {
		r.Relation[e.Kind.String()]++
	}
	r.InCycle = len(t.Scope().Memberships)

	for level := 0; level <= hgerrors.MaxViewLevel; level++ {
		el, err := pipeline.BuildView(ctx, t.Scope(), level, nil)
		if err != nil {
			return StatsReport{}, err
		}
		r.Levels = append(r.Levels, LevelStats{
			Level:      level,
			Name:       entity.LevelName(level),
			Nodes:      len(el.Nodes),
			Edges:      len(el.Edges),
			Containers: len(el.Containers),
		})
	}

	if t.RunID != "" {
		r.Transform = &TransformCounters{
			Malformed:  t.Stats.Malformed,
			Duplicates: t.Stats.Duplicates,
			Unresolved: t.Stats.Edges.Invalid,
			DupEdges:   t.Stats.Edges.Duplicates,
			Orphans:    t.Stats.Hierarchy.Orphans,
		}
	}
	return r, nil
}

func writeStats(w io.Writer, r StatsReport) {
	out := newPrinter(w)
	fmt.Fprintln(w, StyleTitle.Render(r.Project))
	out.keyValue("Entities", strconv.Itoa(r.Entities))
	out.keyValue("Edges", strconv.Itoa(r.Edges))
	out.keyValue("Cycles", fmt.Sprintf("%d (%d entities)", r.Cycles, r.InCycle))
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(r.Levels))
	for _, l := range r.Levels {
		k, _ := entity.KindAtLevel(l.Level)
		rows = append(rows, []string{
			strconv.Itoa(l.Level), l.Name,
			strconv.Itoa(r.Kinds[k.String()]),
			strconv.Itoa(l.Nodes), strconv.Itoa(l.Edges), strconv.Itoa(l.Containers),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Level", "Kind", "Entities", "Visible", "Edges", "Clusters").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			if col <= 1 {
				return StyleValue
			}
			return StyleNumber
		})
	fmt.Fprintln(w, t.Render())

	if len(r.Relation) > 0 {
		fmt.Fprintln(w)
		for _, k := range entity.EdgeKinds {
			if n := r.Relation[k.String()]; n > 0 {
				out.keyValue(k.String(), strconv.Itoa(n))
			}
		}
	}

	if tc := r.Transform; tc != nil && tc.Malformed+tc.Duplicates+tc.Unresolved+tc.Orphans > 0 {
		fmt.Fprintln(w)
		out.warn("Skipped %d malformed and %d duplicate records, %d unresolved references, %d orphans",
			tc.Malformed, tc.Duplicates, tc.Unresolved, tc.Orphans)
	}
}
