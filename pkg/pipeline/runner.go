package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/pyview/hiergraph/pkg/analysis"
	"github.com/pyview/hiergraph/pkg/cache"
	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/observability"
	"github.com/pyview/hiergraph/pkg/transform"
	"github.com/pyview/hiergraph/pkg/view"
)

// Cache key types reported to observability hooks.
const (
	keyTypeGraph    = "graph"
	keyTypeElements = "elements"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options; concurrent transforms of the same analysis
// share one run.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	flight singleflight.Group
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete transform → view → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Transform
	start := time.Now()
	t, hit, err := r.TransformWithCacheInfo(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	result.Transformed = t
	result.Stats.TransformTime = time.Since(start)
	result.Stats.NodeCount = t.Graph.EntityCount()
	result.Stats.EdgeCount = t.Graph.EdgeCount()
	result.CacheInfo.GraphHit = hit

	r.Logger.Info("built entity graph",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"cached", hit,
		"duration", result.Stats.TransformTime)

	// Stage 2: View
	start = time.Now()
	result.Scope = t.Scope()
	el, hit, err := r.BuildViewWithCacheInfo(ctx, result.Scope, t.Hash, opts)
	if err != nil {
		return nil, fmt.Errorf("view: %w", err)
	}
	result.Elements = el
	result.Stats.ViewTime = time.Since(start)
	result.Stats.VisibleNodes = len(el.Nodes)
	result.Stats.Containers = len(el.Containers)
	result.CacheInfo.ElementsHit = hit

	r.Logger.Info("built view",
		"level", opts.Level,
		"nodes", len(el.Nodes),
		"containers", len(el.Containers),
		"duration", result.Stats.ViewTime)

	// Stage 3: Render
	if opts.Title == "" {
		opts.Title = result.Scope.Label()
	}
	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, el, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// TransformWithCacheInfo builds the entity graph of an analysis document with
// caching and returns cache hit info.
//
// Concurrent calls for the same document share a single run; only the first
// caller's context, progress callback and logger are used.
func (r *Runner) TransformWithCacheInfo(ctx context.Context, data []byte, opts Options) (*Transformed, bool, error) {
	r.applyLogger(&opts)

	key := r.Keyer.GraphKey(cache.Hash(data))
	flightKey := key
	if opts.Refresh {
		flightKey += "|refresh"
	}
	v, err, _ := r.flight.Do(flightKey, func() (any, error) {
		t, hit, err := r.transform(ctx, key, data, opts)
		if err != nil {
			return nil, err
		}
		return cachedTransform{t, hit}, nil
	})
	if err != nil {
		return nil, false, err
	}
	ct := v.(cachedTransform)

	t := *ct.t
	if opts.ProjectName != "" {
		t.ProjectName = opts.ProjectName
	}
	return &t, ct.hit, nil
}

type cachedTransform struct {
	t   *Transformed
	hit bool
}

func (r *Runner) transform(ctx context.Context, key string, data []byte, opts Options) (*Transformed, bool, error) {
	hooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if docData, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if t, err := fromDocument(docData); err == nil {
				hooks.OnCacheHit(ctx, keyTypeGraph)
				return t, true, nil
			}
			// Undecodable entry, fall through to recompute
		}
		hooks.OnCacheMiss(ctx, keyTypeGraph)
	}

	in, err := analysis.Decode(data)
	if err != nil {
		return nil, false, err
	}
	res, err := transform.Run(ctx, in, opts.TransformOptions())
	if err != nil {
		return nil, false, err
	}

	docData, err := graph.MarshalDocument(graph.FromEntities(res.Graph, res.ProjectName, res.Cycles))
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph: %w", err)
	}
	if err := r.Cache.Set(ctx, key, docData, cache.TTLGraph); err == nil {
		hooks.OnCacheSet(ctx, keyTypeGraph, len(docData))
	} else {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
	}

	return &Transformed{
		Graph:       res.Graph,
		Cycles:      res.Cycles,
		ProjectName: res.ProjectName,
		Hash:        cache.Hash(docData),
		RunID:       res.RunID,
		Stats:       res.Stats,
	}, false, nil
}

func fromDocument(data []byte) (*Transformed, error) {
	doc, err := graph.UnmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	g, err := graph.ToEntities(doc)
	if err != nil {
		return nil, err
	}
	return &Transformed{
		Graph:       g,
		Cycles:      doc.Cycles,
		ProjectName: doc.ProjectName,
		Hash:        cache.Hash(data),
	}, nil
}

// Transform is a convenience wrapper that calls TransformWithCacheInfo and discards the cache hit info.
func (r *Runner) Transform(ctx context.Context, data []byte, opts Options) (*Transformed, error) {
	t, _, err := r.TransformWithCacheInfo(ctx, data, opts)
	return t, err
}

// TransformFile reads the analysis file at path and transforms it.
func (r *Runner) TransformFile(ctx context.Context, path string, opts Options) (*Transformed, error) {
	data, err := analysis.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Transform(ctx, data, opts)
}

// BuildViewWithCacheInfo derives the view elements of s with caching and
// returns cache hit info. graphHash identifies the graph of s.
//
// At level 0 duplicate roots are suppressed in s before the cache lookup,
// so cached and freshly built views leave s in the same state.
func (r *Runner) BuildViewWithCacheInfo(ctx context.Context, s *view.Scope, graphHash string, opts Options) (graph.Elements, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForView(); err != nil {
		return graph.Elements{}, false, err
	}
	hooks := observability.Cache()

	if opts.Level == 0 {
		s.SuppressDuplicateRoots()
	}
	expanded := opts.ExpandedSet(s.Graph)
	key := r.Keyer.ElementsKey(graphHash, opts.ElementsKeyOpts(s, expanded))

	if !opts.Refresh {
		var cached graph.Elements
		if err := cache.GetJSON(ctx, r.Cache, key, &cached); err == nil {
			hooks.OnCacheHit(ctx, keyTypeElements)
			return cached, true, nil
		}
		hooks.OnCacheMiss(ctx, keyTypeElements)
	}

	el, err := BuildView(ctx, s, opts.Level, expanded)
	if err != nil {
		return graph.Elements{}, false, err
	}
	if data, err := graph.MarshalElements(el); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLElements); err == nil {
			hooks.OnCacheSet(ctx, keyTypeElements, len(data))
		}
	}
	return el, false, nil
}

// BuildView is a convenience wrapper that calls BuildViewWithCacheInfo and discards the cache hit info.
func (r *Runner) BuildView(ctx context.Context, s *view.Scope, graphHash string, opts Options) (graph.Elements, error) {
	el, _, err := r.BuildViewWithCacheInfo(ctx, s, graphHash, opts)
	return el, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// JSON output is the serialized elements and is never cached separately.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, el graph.Elements, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	elData, err := graph.MarshalElements(el)
	if err != nil {
		return nil, false, fmt.Errorf("serialize elements for cache key: %w", err)
	}
	elHash := cache.Hash(elData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if format == FormatJSON {
			artifacts[format] = elData
			continue
		}
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(elHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, keyTypeArtifact)
				artifacts[format] = data
				continue
			}
			hooks.OnCacheMiss(ctx, keyTypeArtifact)
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, el, missing, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(elHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, el graph.Elements, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, el, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

