package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/search"
)

type searchOpts struct {
	kinds     []string
	cycleOnly bool
	limit     int
	json      bool
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var opts searchOpts

	cmd := &cobra.Command{
		Use:   "search [analysis.json] [query]",
		Short: "Find entities by name",
		Long: `Search matches entity names case-insensitively. Queries containing *, ?, [ or {
are glob patterns matched against whole names and ids.`,
		Example: `  hiergraph search analysis.json order
  hiergraph search analysis.json 'Order*' --kind class --cycles`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.kinds, "kind", "k", nil, "restrict to kinds: package, module, class, method, field")
	cmd.Flags().BoolVar(&opts.cycleOnly, "cycles", false, "only entities in a circular dependency")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", search.DefaultLimit, "maximum hits, -1 for all")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print hits as JSON")

	return cmd
}

func parseKinds(names []string) ([]entity.Kind, error) {
	var kinds []entity.Kind
	for _, name := range names {
		k, err := entity.ParseKind(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (c *CLI) runSearch(ctx context.Context, w io.Writer, input, query string, opts searchOpts) error {
	kinds, err := parseKinds(opts.kinds)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	t, err := runner.TransformFile(ctx, input, c.baseOptions())
	if err != nil {
		return err
	}

	res, err := search.Run(t.Scope(), query, search.Options{
		Kinds:     kinds,
		CycleOnly: opts.cycleOnly,
		Limit:     opts.limit,
	})
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	writeHits(w, res)
	return nil
}

func writeHits(w io.Writer, res search.Result) {
	if len(res.Hits) == 0 {
		fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("No entities match %q", res.Query)))
		return
	}

	rows := make([][]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		cycle := ""
		if h.IsInCycle {
			cycle = h.CycleSeverity
		}
		rows = append(rows, []string{h.Name, h.LevelName, h.ID, cycle})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Kind", "ID", "Cycle").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return styleHeader
			case col == 3:
				return styleFailure
			case col == 2:
				return StyleDim
			}
			return StyleValue
		})
	fmt.Fprintln(w, t.Render())

	summary := fmt.Sprintf("%d of %d matches", len(res.Hits), res.Total)
	if res.Truncated {
		summary += " (use --limit to see more)"
	}
	fmt.Fprintln(w, StyleDim.Render(summary))
}
