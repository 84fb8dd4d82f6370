package pipeline

import (
	"context"
	"log/slog"

	"github.com/erik-esparza/rival-review/internal/config"
	"github.com/erik-esparza/rival-review/internal/model"
	"github.com/erik-esparza/rival-review/internal/trend"
)

// Run carries the accumulated state of one watch run through the
// pipeline. Steps fill in fields as they execute; later steps read
// what earlier steps produced.
type Run struct {
	// Config holds the validated run configuration.
	Config *config.Config

	// Previous is the stored baseline snapshot. A first run gets an
	// empty well-formed snapshot rather than nil.
	Previous *model.Snapshot

	// Current is the snapshot captured during this run.
	Current *model.Snapshot

	// Reviews holds the reviews collected during this run.
	Reviews []model.Review

	// ReviewLog is the full accumulated review log, including rows
	// appended during this run.
	ReviewLog []model.Review

	// Analysis is the classification result.
	Analysis *trend.Analysis

	// CompletedSteps records which steps ran, in order.
	CompletedSteps []string
}

// NewRun creates a Run for the given configuration.
func NewRun(cfg *config.Config) *Run {
	return &Run{Config: cfg}
}

// Step defines the interface that all pipeline steps implement.
// Steps are executed in sequence, each receiving the accumulated run
// state from previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., priority, dependencies)
type Step interface {
	// Do executes the pipeline step, mutating the run state.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails.
//
// Design decision: This option exists because some failures (e.g., a
// review page that no longer parses) shouldn't prevent reporting the
// rank analysis. The default is to stop on error because early
// failures usually mean the run produced nothing worth reporting.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps handle their own timeouts. This allows graceful
// cleanup between steps while still respecting cancellation.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("run cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"query", run.Config.Query,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"query", run.Config.Query,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"query", run.Config.Query,
			)
		}

		run.CompletedSteps = append(run.CompletedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
