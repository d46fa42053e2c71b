// Package pipeline provides the analysis → graph → view → render pipeline
// shared by the CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages, each cached independently:
//
//  1. Transform: decode the analysis and build the entity graph
//     (cached as a [graph.Document] keyed by the analysis hash)
//  2. View: derive the element set for a view level and expansion state
//     (keyed by the graph hash plus view options)
//  3. Render: produce output artifacts (JSON, DOT, SVG, PNG, PDF)
//     (keyed by the elements hash plus format)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, data, pipeline.Options{
//	    Level:   2,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	t, err := runner.Transform(ctx, data, opts)
//	scope := t.Scope()
//	elements, err := runner.BuildView(ctx, scope, t.Hash, opts)
//	artifacts, err := runner.Render(ctx, elements, opts)
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyview/hiergraph/pkg/cache"
	"github.com/pyview/hiergraph/pkg/cycles"
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/transform"
	"github.com/pyview/hiergraph/pkg/view"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultLevel is the view level used by the CLI and server when none is
	// given: modules inside the project container.
	DefaultLevel = 1

	// DefaultPNGScale is the resolution multiplier of PNG output.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// ContentType returns the MIME type of an output format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Transform options
	ChunkSize int  `json:"chunk_size,omitempty"`
	Refresh   bool `json:"refresh,omitempty"` // skip cache reads

	// ProjectName overrides the project name recorded in the analysis.
	ProjectName string `json:"project_name,omitempty"`

	// View options
	Level     int      `json:"level"`
	Expanded  []string `json:"expanded,omitempty"`
	ExpandAll bool     `json:"expand_all,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	EdgeLabels bool     `json:"edge_labels,omitempty"`
	Title      string   `json:"title,omitempty"`

	// Runtime options (not serialized)
	OnProgress transform.ProgressFunc `json:"-"`
	Logger     *log.Logger            `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Transformed is the output of the transform stage. A graph loaded from
// the cache carries no RunID and zero Stats; callers use that to tell a
// cached graph from a fresh run.
type Transformed struct {
	Graph       *entity.Graph
	Cycles      []cycles.Cycle
	ProjectName string

	// Hash is the content hash of the serialized graph document.
	Hash string

	// RunID and Stats describe the transformation. Both are empty when the
	// graph came from the cache.
	RunID string
	Stats transform.Stats
}

// Scope creates a fresh view scope for the graph.
func (t *Transformed) Scope() *view.Scope {
	return view.NewScope(t.Graph, t.Cycles, t.ProjectName)
}

// Result contains the outputs of a pipeline run.
type Result struct {
	*Transformed

	// Scope is the view scope the elements were built in. It carries the
	// hidden set, so later views of the same analysis should reuse it.
	Scope *view.Scope

	// Elements is the view element set.
	Elements graph.Elements

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	VisibleNodes  int
	Containers    int
	TransformTime time.Duration
	ViewTime      time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit    bool // Whether the entity graph came from cache
	ElementsHit bool // Whether the view elements came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForView(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForView checks the view options.
func (o *Options) ValidateForView() error {
	o.setLogger()
	return errors.ValidateViewLevel(o.Level)
}

// ValidateForRender normalizes the format list and checks it.
func (o *Options) ValidateForRender() error {
	o.setLogger()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	o.Formats = slices.Clone(o.Formats)
	for i, f := range o.Formats {
		o.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	o.Formats = slices.Compact(o.Formats)
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// TransformOptions returns the options of the transform stage.
func (o *Options) TransformOptions() transform.Options {
	return transform.Options{
		ChunkSize:  o.ChunkSize,
		OnProgress: o.OnProgress,
		Logger:     o.Logger,
	}
}

// ExpandedSet returns the expansion state requested by the options.
func (o *Options) ExpandedSet(g *entity.Graph) view.IDSet {
	if o.ExpandAll {
		return view.ExpandAll(g)
	}
	return view.NewIDSet(o.Expanded...)
}

// ElementsKeyOpts returns cache key options for a view built in s.
func (o *Options) ElementsKeyOpts(s *view.Scope, expanded view.IDSet) cache.ElementsKeyOpts {
	return cache.ElementsKeyOpts{
		Level:    o.Level,
		Project:  s.Label(),
		Expanded: expanded.Sorted(),
		Hidden:   s.HiddenIDs(),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Title:      o.Title,
		EdgeLabels: o.EdgeLabels,
	}
}
