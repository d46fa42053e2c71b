package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pyview/hiergraph/pkg/analysis"
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/pipeline"
	"github.com/pyview/hiergraph/pkg/transform"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	output     string   // output file (single format) or base path
	formats    []string // json, dot, svg, png, pdf
	level      int
	expand     []string
	expandAll  bool
	project    string
	chunkSize  int
	refresh    bool
	edgeLabels bool
	title      string
	tui        bool
}

// buildCommand creates the build command, which transforms an analysis file
// and writes the view at one level in one or more formats.
func (c *CLI) buildCommand() *cobra.Command {
	var formatsStr string
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [analysis.json]",
		Short: "Build a clustered view of an analysis",
		Long: `Build transforms an analysis file into a hierarchical graph and renders the
view at the requested level.

Levels: 0 Package, 1 Module, 2 Class, 3 Method, 4 Field.`,
		Example: `  hiergraph build analysis.json
  hiergraph build analysis.json -l 2 -f svg,json -o shop
  hiergraph build analysis.json -f dot -o - | dot -Tpng > shop.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if !cmd.Flags().Changed("level") {
				opts.level = c.Config.View.Level
			}
			return c.runBuild(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple), - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	cmd.Flags().IntVarP(&opts.level, "level", "l", 0, "view level 0-4 (default from config, else 1)")
	cmd.Flags().StringSliceVar(&opts.expand, "expand", nil, "entity ids to expand (repeatable)")
	cmd.Flags().BoolVar(&opts.expandAll, "expand-all", false, "expand every entity that has children")
	cmd.Flags().StringVar(&opts.project, "project", "", "project name (overrides the analysis and config)")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "records per progress step")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.edgeLabels, "edge-labels", false, "label edges with their relationship")
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title (default project name)")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show an interactive progress view")

	return cmd
}

func (c *CLI) pipelineOptions(opts buildOpts) pipeline.Options {
	po := c.baseOptions()
	po.Level = opts.level
	po.Expanded = opts.expand
	po.ExpandAll = opts.expandAll
	po.Refresh = opts.refresh
	po.Formats = opts.formats
	po.EdgeLabels = opts.edgeLabels
	po.Title = opts.title
	if opts.project != "" {
		po.ProjectName = opts.project
	}
	if opts.chunkSize > 0 {
		po.ChunkSize = opts.chunkSize
	}
	return po
}

func (c *CLI) runBuild(ctx context.Context, cmd *cobra.Command, input string, opts buildOpts) error {
	logger := loggerFromContext(ctx)
	out := newPrinter(cmd.OutOrStdout())

	data, err := analysis.ReadFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	po := c.pipelineOptions(opts)
	timer := newRunTimer(logger)

	var res *pipeline.Result
	if opts.tui {
		res, err = runWithTUI(ctx, input, func(ctx context.Context, onProgress transform.ProgressFunc) (*pipeline.Result, error) {
			po.OnProgress = func(p transform.Progress) {
				timer.observe(p)
				onProgress(p)
			}
			return runner.Execute(ctx, data, po)
		})
	} else {
		spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Transforming "+input)
		spinner.Start()
		po.OnProgress = func(p transform.Progress) {
			timer.observe(p)
			spinner.Update(progressMessage(p))
		}
		res, err = runner.Execute(ctx, data, po)
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	timer.done("Built "+res.ProjectName, "level", entity.LevelName(po.Level), "nodes", res.Stats.VisibleNodes)
	if opts.output != "-" {
		out.viewSummary(res.Stats.VisibleNodes, len(res.Elements.Edges), res.CacheInfo.GraphHit)
	}

	if err := writeArtifacts(ctx, out, res, input, opts); err != nil {
		return err
	}
	if opts.output != "-" {
		out.nextStep("Explore interactively", "hiergraph serve "+input)
	}
	return nil
}

// writeArtifacts writes one file per format. A single format goes to
// opts.output verbatim; several formats share a base path.
func writeArtifacts(ctx context.Context, out printer, res *pipeline.Result, input string, opts buildOpts) error {
	logger := loggerFromContext(ctx)
	single := len(opts.formats) == 1

	base := basePath(opts.output, input)

	for _, format := range opts.formats {
		data, ok := res.Artifacts[format]
		if !ok {
			continue
		}

		path := base + "." + format
		if single && opts.output != "" {
			path = opts.output
		}
		if path != "-" && filepath.Clean(path) == filepath.Clean(input) {
			path = base + ".view." + format
		}

		f, err := openOutput(path)
		if err != nil {
			return err
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil {
			return werr
		}
		if cerr != nil {
			return cerr
		}
		logger.Debugf("Generated %s: %d bytes", format, len(data))
		if path != "-" {
			out.file(path)
		}
	}
	return nil
}

// progressMessage formats a progress report for the spinner.
func progressMessage(p transform.Progress) string {
	msg := fmt.Sprintf("%s %3.0f%%", p.Label, p.Fraction*100)
	if p.TotalItems > 0 {
		msg += fmt.Sprintf(" (%d/%d)", p.ProcessedItems, p.TotalItems)
	}
	return msg
}
