// Package transform converts a decoded analysis result into a hierarchical
// entity graph, incrementally.
//
// A run walks nine stages in fixed order:
//
//	Packages → Modules → Classes → Methods → Fields →
//	ModuleEdges → MethodEdges → ClassEdges → Finalize
//
// Each stage processes its records in chunks of [Options.ChunkSize]. After
// every chunk the run reports [Progress] and yields, and before every chunk
// it checks its context: a cancelled run stops immediately, reports nothing
// further and returns [ErrAborted] without a partial graph.
//
// Entity stages account for the first 90% of progress, relationship stages
// for the next 8%, and Finalize (hierarchy inference) for the rest. Within a
// band progress is weighted by record count.
//
// Malformed records, duplicate ids and unresolvable references are skipped
// and counted in [Stats]; they never fail the run.
package transform

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pyview/hiergraph/pkg/analysis"
	"github.com/pyview/hiergraph/pkg/cycles"
	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/hierarchy"
	"github.com/pyview/hiergraph/pkg/observability"
	"github.com/pyview/hiergraph/pkg/resolve"
)

// ErrAborted is returned when the run's context is cancelled between chunks.
// The returned error also wraps the context's error.
var ErrAborted = stderrors.New("transform aborted")

// Progress bands.
const (
	entityBand       = 0.9
	relationshipBand = 0.98
)

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeAborted   Outcome = "aborted"
	OutcomeFailed    Outcome = "failed"
)

// OutcomeOf maps the error returned by [Run] to an outcome.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case stderrors.Is(err, ErrAborted):
		return OutcomeAborted
	default:
		return OutcomeFailed
	}
}

// Stats counts what a run kept and what it skipped.
type Stats struct {
	Entities   int // entities added
	Malformed  int // records that were not usable objects
	Duplicates int // records whose id was already taken

	Edges     resolve.Stats
	Hierarchy hierarchy.Stats
}

// Result is the output of a successful run.
type Result struct {
	RunID       string
	Graph       *entity.Graph
	Cycles      []cycles.Cycle
	ProjectName string
	Stats       Stats
	Duration    time.Duration
}

type run struct {
	ctx    context.Context
	opts   Options
	logger *log.Logger
	in     *analysis.Result

	g        *entity.Graph
	resolver *resolve.Resolver
	stats    Stats

	// Decoded records and their normalized ids, per kind. Skipped records
	// keep an empty id.
	records [entity.NumKinds][]analysis.Record
	ids     [entity.NumKinds][]string

	entityTotal, entityDone int
	relTotal, relDone       int
}

// Run transforms in into an entity graph.
//
// Run returns ErrAborted (wrapping ctx.Err()) when ctx is cancelled, and an
// INTERNAL_ERROR *errors.Error for unexpected failures, including panics.
func Run(ctx context.Context, in *analysis.Result, opts Options) (res *Result, err error) {
	if in == nil {
		return nil, errors.New(errors.ErrCodeInvalidAnalysis, "no analysis result")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	r := &run{
		ctx:    ctx,
		opts:   opts,
		logger: opts.Logger.With("run", opts.RunID),
		in:     in,
		g:      entity.NewGraph(),
	}
	for _, k := range entity.Kinds {
		r.entityTotal += len(in.Of(k))
	}
	r.relTotal = len(in.Modules) + len(in.Methods) + len(in.Fields) + len(in.Classes) + len(in.Relationships)

	start := time.Now()
	hooks := observability.Transform()
	hooks.OnTransformStart(ctx, opts.RunID, r.entityTotal)

	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = errors.New(errors.ErrCodeInternal, "transform panicked: %v", p)
		}
		nodes, edges := 0, 0
		if res != nil {
			nodes, edges = res.Graph.EntityCount(), res.Graph.EdgeCount()
		}
		outcome := OutcomeOf(err)
		hooks.OnTransformComplete(ctx, opts.RunID, string(outcome), nodes, edges, time.Since(start))
		if err != nil {
			r.logger.Debug("transform ended", "outcome", outcome, "error", err)
		}
	}()

	if err := r.execute(); err != nil {
		return nil, err
	}

	res = &Result{
		RunID:       opts.RunID,
		Graph:       r.g,
		Cycles:      in.Cycles,
		ProjectName: in.ProjectName,
		Stats:       r.stats,
		Duration:    time.Since(start),
	}
	r.logger.Info("transformed analysis",
		"nodes", r.g.EntityCount(),
		"edges", r.g.EdgeCount(),
		"skipped", r.stats.Malformed+r.stats.Duplicates,
		"unresolved", r.stats.Edges.Invalid,
		"duration", res.Duration)
	return res, nil
}

func (r *run) execute() error {
	for _, k := range entity.Kinds {
		st := Stage(k)
		raw := r.in.Of(k)
		r.records[k] = make([]analysis.Record, len(raw))
		r.ids[k] = make([]string, len(raw))
		if err := r.stage(st, len(raw), func(i int) { r.addEntity(k, i, raw[i]) }); err != nil {
			return err
		}
	}

	// The resolver indexes modules, so it is created once all entities exist.
	r.resolver = resolve.New(r.g)

	modules := entity.KindModule
	if err := r.stage(StageModuleEdges, len(r.ids[modules]), func(i int) {
		if id := r.ids[modules][i]; id != "" {
			r.resolver.ModuleEdges(id, r.records[modules][i])
		}
	}); err != nil {
		return err
	}

	methods, fields := entity.KindMethod, entity.KindField
	nm := len(r.ids[methods])
	if err := r.stage(StageMethodEdges, nm+len(r.ids[fields]), func(i int) {
		k := methods
		if i >= nm {
			k, i = fields, i-nm
		}
		if id := r.ids[k][i]; id != "" {
			r.resolver.MemberEdges(id, r.records[k][i])
		}
	}); err != nil {
		return err
	}

	classes := entity.KindClass
	nc := len(r.ids[classes])
	if err := r.stage(StageClassEdges, nc+len(r.in.Relationships), func(i int) {
		if i < nc {
			if id := r.ids[classes][i]; id != "" {
				r.resolver.ClassEdges(id, r.records[classes][i])
			}
			return
		}
		rel, err := analysis.DecodeRelationship(r.in.Relationships[i-nc])
		if err != nil {
			r.stats.Malformed++
			r.logger.Debug("skipping relationship", "index", i-nc, "error", err)
			return
		}
		r.resolver.AddRelationship(rel)
	}); err != nil {
		return err
	}
	r.stats.Edges = r.resolver.Stats()

	return r.finalize()
}

func (r *run) addEntity(k entity.Kind, i int, raw []byte) {
	rec, err := analysis.DecodeRecord(raw)
	if err != nil {
		r.stats.Malformed++
		r.logger.Debug("skipping record", "kind", k, "index", i, "error", err)
		return
	}
	ref := entity.Normalize(entity.Ref{ID: rec.ID, Name: rec.Name}, k, i)
	err = r.g.AddEntity(entity.Entity{
		ID:       ref.ID,
		Name:     ref.Name,
		Kind:     k,
		ModuleID: rec.ModuleID,
		ClassID:  rec.ClassID,
		Line:     rec.Line,
	})
	if err != nil {
		r.stats.Duplicates++
		r.logger.Debug("skipping record", "kind", k, "id", ref.ID, "error", err)
		return
	}
	r.stats.Entities++
	r.records[k][i] = rec
	r.ids[k][i] = ref.ID
}

// stage processes n items in chunks. Empty stages are no-ops.
func (r *run) stage(st Stage, n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}
	start := time.Now()
	before := r.stats.Malformed + r.stats.Duplicates
	for lo := 0; lo < n; lo += r.opts.ChunkSize {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}
		hi := min(lo+r.opts.ChunkSize, n)
		for i := lo; i < hi; i++ {
			fn(i)
		}
		if st.IsEntityStage() {
			r.entityDone += hi - lo
		} else {
			r.relDone += hi - lo
		}
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}
		r.report(st, hi, n)
		r.opts.Yield()
	}
	skipped := r.stats.Malformed + r.stats.Duplicates - before
	observability.Transform().OnStageComplete(r.ctx, st.String(), n, skipped, time.Since(start))
	r.logger.Debug("stage complete", "stage", st, "items", n, "skipped", skipped, "duration", time.Since(start))
	return nil
}

func (r *run) finalize() error {
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	start := time.Now()
	r.stats.Hierarchy = hierarchy.Apply(r.g)
	if err := r.g.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "inconsistent graph")
	}
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	total := r.g.EntityCount() + r.g.EdgeCount()
	r.emit(Progress{
		Fraction:       1,
		Stage:          StageFinalize,
		Label:          StageFinalize.Label(),
		Detail:         fmt.Sprintf("%d nodes and %d edges", r.g.EntityCount(), r.g.EdgeCount()),
		TotalItems:     total,
		ProcessedItems: total,
		CurrentKind:    StageFinalize.Kind(),
	})
	observability.Transform().OnStageComplete(r.ctx, StageFinalize.String(), r.g.EntityCount(), r.stats.Hierarchy.Orphans, time.Since(start))
	return nil
}

func (r *run) report(st Stage, processed, total int) {
	var f float64
	if st.IsEntityStage() {
		f = entityBand * float64(r.entityDone) / float64(r.entityTotal)
	} else {
		f = entityBand + (relationshipBand-entityBand)*float64(r.relDone)/float64(r.relTotal)
	}
	r.emit(Progress{
		Fraction:       f,
		Stage:          st,
		Label:          st.Label(),
		Detail:         fmt.Sprintf("%s %d/%d", st.Kind(), processed, total),
		TotalItems:     total,
		ProcessedItems: processed,
		CurrentKind:    st.Kind(),
	})
}

func (r *run) emit(p Progress) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(p)
	}
}
