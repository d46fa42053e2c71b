// Package pkg provides the core libraries of hiergraph, a hierarchical
// code-dependency graph engine.
//
// # Overview
//
// hiergraph turns the flat output of a code analysis (packages, modules,
// classes, methods, fields, their relationships and the detected circular
// dependencies) into a containment hierarchy that can be viewed at five
// levels of detail, with visual clusters and cycle highlighting.
//
// # Architecture
//
// The typical data flow:
//
//	analysis JSON
//	     ↓
//	[analysis]   decode raw records
//	     ↓
//	[transform]  staged, chunked conversion ([entity], [resolve], [hierarchy])
//	     ↓
//	[view]       visibility + clustering per level, cycle flags from [cycles]
//	     ↓
//	[graph]      nodes, edges and containers
//	     ↓
//	[render/nodelink]  DOT / SVG / PNG / PDF
//
// [pipeline] wires these stages together with caching ([cache]) and is used
// by both the CLI and the HTTP server; [session] keeps per-client view state
// and [search] finds entities by name.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Execute(ctx, data, pipeline.Options{
//	    Level:   2,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("graph.svg", res.Artifacts["svg"], 0o644)
//
// [analysis]: github.com/pyview/hiergraph/pkg/analysis
// [transform]: github.com/pyview/hiergraph/pkg/transform
// [entity]: github.com/pyview/hiergraph/pkg/entity
// [resolve]: github.com/pyview/hiergraph/pkg/resolve
// [hierarchy]: github.com/pyview/hiergraph/pkg/hierarchy
// [view]: github.com/pyview/hiergraph/pkg/view
// [cycles]: github.com/pyview/hiergraph/pkg/cycles
// [graph]: github.com/pyview/hiergraph/pkg/graph
// [render/nodelink]: github.com/pyview/hiergraph/pkg/render/nodelink
// [pipeline]: github.com/pyview/hiergraph/pkg/pipeline
// [cache]: github.com/pyview/hiergraph/pkg/cache
// [session]: github.com/pyview/hiergraph/pkg/session
// [search]: github.com/pyview/hiergraph/pkg/search
package pkg
