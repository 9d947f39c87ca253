package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/logging"
	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/pubsub"
	"github.com/depscope/depscope/pkg/store"
)

// pipeline step numbers for progress events
const totalSteps = 6

// Runner orchestrates the analysis pipeline for imports. Stages within one
// import run strictly sequentially; different imports run independently and
// may be processed in parallel via RunAll.
type Runner struct {
	store    store.Store
	pub      pubsub.Publisher // optional, may be nil
	maxNodes int
	workers  int
}

// Options configures one pipeline invocation.
type Options struct {
	// StaleOnly restricts contribution recomputation to top-level nodes
	// whose stamps are missing or outdated.
	StaleOnly bool
	// Reason describes what triggered the run (e.g., "initial", "data changed").
	Reason string
}

// Result summarizes one import's pipeline run.
type Result struct {
	Import    model.ImportID
	Name      string
	Empty     bool // import had zero nodes; nothing computed
	Nodes     int
	Edges     int
	TopLevel  int
	Redundant int // edges flagged redundant

	// Contributions holds the triples computed this run, keyed by node
	// hash. In stale-only mode this covers only the recomputed nodes.
	Contributions map[string]model.Contribution

	Duration time.Duration
	Err      error // set by RunAll when this import's run failed
}

// NewRunner creates a pipeline runner. pub may be nil to disable progress
// events. maxNodes <= 0 disables the graph size bound; workers <= 0 means
// one import at a time in RunAll.
func NewRunner(st store.Store, pub pubsub.Publisher, maxNodes, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{store: st, pub: pub, maxNodes: maxNodes, workers: workers}
}

// Run executes the full pipeline for one import: load, topological order,
// closures, contributions, redundancy, then a single atomic write-back of
// all derived fields. Any stage failure or cancellation aborts the run
// before the write, so derived fields are all-or-nothing per import.
//
// An import with zero nodes is a no-op, not an error.
func (r *Runner) Run(ctx context.Context, id model.ImportID, opts Options) (*Result, error) {
	ctx = logging.WithImportID(ctx, string(id))
	start := time.Now()
	logging.InfoContext(ctx, "starting analysis", "reason", opts.Reason, "staleOnly", opts.StaleOnly)

	r.publish(id, "loading", "Loading graph", 1)
	g, err := graph.Load(ctx, r.store, id, r.maxNodes)
	if errors.Is(err, graph.ErrEmptyGraph) {
		logging.InfoContext(ctx, "import is empty, nothing to analyze")
		r.publish(id, "empty", "Import has no nodes", totalSteps)
		return &Result{Import: id, Empty: true, Duration: time.Since(start)}, nil
	}
	if err != nil {
		r.publishError(id, err)
		return nil, err
	}

	r.publish(id, "ordering", "Computing topological order", 2)
	order, err := g.TopoOrder()
	if err != nil {
		r.publishError(id, err)
		return nil, err
	}

	r.publish(id, "closures", "Computing transitive closures", 3)
	cl, err := ComputeClosures(ctx, g, order)
	if err != nil {
		r.publishError(id, err)
		return nil, err
	}

	r.publish(id, "contributions", "Attributing contributions", 4)
	contribs, err := ComputeContributions(ctx, g, cl, ContributionOptions{StaleOnly: opts.StaleOnly})
	if err != nil {
		r.publishError(id, err)
		return nil, err
	}

	r.publish(id, "redundancy", "Detecting redundant edges", 5)
	redundant, err := DetectRedundantEdges(ctx, g, cl)
	if err != nil {
		r.publishError(id, err)
		return nil, err
	}

	// No writes after an observed cancellation
	if err := ctx.Err(); err != nil {
		r.publishError(id, err)
		return nil, fmt.Errorf("pipeline cancelled: %w", err)
	}

	batch := &store.DerivedBatch{
		ComputedAt:     time.Now(),
		ClosureSizes:   cl.Sizes(g),
		Contributions:  contribs,
		RedundantEdges: make(map[model.EdgeID]bool, len(redundant)),
	}
	for _, e := range redundant {
		batch.RedundantEdges[e] = true
	}
	if err := r.store.WriteDerived(ctx, id, batch); err != nil {
		r.publishError(id, err)
		return nil, fmt.Errorf("writing derived fields: %w", err)
	}

	result := &Result{
		Import:        id,
		Name:          g.ImportName(),
		Nodes:         g.NodeCount(),
		Edges:         g.EdgeCount(),
		TopLevel:      len(g.TopLevel()),
		Redundant:     len(redundant),
		Contributions: contribs,
		Duration:      time.Since(start),
	}
	r.publish(id, "ready", "Analysis complete", totalSteps)
	logging.InfoContext(ctx, "analysis complete",
		"nodes", result.Nodes, "edges", result.Edges,
		"topLevel", result.TopLevel, "redundant", result.Redundant,
		"durationMs", result.Duration.Milliseconds())
	return result, nil
}

// RunAll runs the pipeline for several imports with bounded parallelism.
// Imports share no mutable state, so one import's failure never aborts the
// others; per-import errors are recorded on the results and joined into the
// returned error.
func (r *Runner) RunAll(ctx context.Context, ids []model.ImportID, opts Options) ([]*Result, error) {
	results := make([]*Result, len(ids))

	var grp errgroup.Group
	grp.SetLimit(r.workers)
	for i, id := range ids {
		i, id := i, id
		grp.Go(func() error {
			res, err := r.Run(ctx, id, opts)
			if err != nil {
				res = &Result{Import: id, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	// Errors are carried on the results, never through the group
	_ = grp.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", res.Import, res.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (r *Runner) publish(id model.ImportID, state, message string, step int) {
	if r.pub == nil {
		return
	}
	_ = r.pub.Publish(pubsub.TopicPipeline, state, pubsub.PipelineStatus{
		Import:  string(id),
		State:   state,
		Message: message,
		Step:    step,
		Total:   totalSteps,
	})
}

func (r *Runner) publishError(id model.ImportID, err error) {
	if r.pub == nil {
		return
	}
	_ = r.pub.Publish(pubsub.TopicPipeline, "error", pubsub.PipelineStatus{
		Import:  string(id),
		State:   "error",
		Message: err.Error(),
		Total:   totalSteps,
	})
}
