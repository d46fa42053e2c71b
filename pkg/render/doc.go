// Package render converts rendered SVG into other output formats.
//
// The [ToPDF] and [ToPNG] functions shell out to rsvg-convert (from librsvg).
// Conversion fails with an UNSUPPORTED error when the tool is missing; use
// [Available] to check beforehand.
//
// Clustered node-link diagrams are produced by the [nodelink] subpackage:
//
//	dot := nodelink.ToDOT(elements, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/pyview/hiergraph/pkg/render/nodelink
package render
