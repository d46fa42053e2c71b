package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/observability"
	"github.com/pyview/hiergraph/pkg/render"
	"github.com/pyview/hiergraph/pkg/render/nodelink"
	"github.com/pyview/hiergraph/pkg/view"
)

// BuildView derives the elements of s and reports the build to the
// observability hooks.
func BuildView(ctx context.Context, s *view.Scope, level int, expanded view.IDSet) (graph.Elements, error) {
	start := time.Now()
	el, err := view.Build(s, level, expanded)
	observability.Transform().OnViewBuild(ctx, level, len(el.Nodes), len(el.Containers), time.Since(start), err)
	return el, err
}

// Render generates output artifacts in the requested formats. SVG is
// rendered at most once and reused for PNG and PDF.
func Render(ctx context.Context, el graph.Elements, formats []string, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}

	dot := nodelink.ToDOT(el, nodelink.Options{
		Title:      opts.Title,
		EdgeLabels: opts.EdgeLabels,
	})
	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = nodelink.RenderSVG(ctx, dot)
		return svg, err
	}

	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = graph.MarshalElements(el)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = svgOnce()
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPNG(ctx, data, DefaultPNGScale)
			}
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
