// Package pipeline implements the staged external-model pipeline that turns
// a checked-out repository plus a change request into a unified diff. The
// stages run strictly in order, each consuming the fully materialized
// artifacts of its predecessors: flatten -> build context -> plan -> draft
// -> verify.
package pipeline

import (
	"context"
	"fmt"

	"diffsmith/internal/events"
)

// Completer is the single external capability every stage calls: one text
// completion against the configured model backend. Implementations carry
// their own model identifier, token budget and credentials, injected at
// construction so a deterministic stub can stand in during tests.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config bounds a pipeline's resource usage.
type Config struct {
	// MaxFileLines truncates individual files (see FlattenOptions).
	MaxFileLines int
	// MaxTotalLines is the run-wide input ceiling.
	MaxTotalLines int
	// Retries is how many additional attempts a failed per-file model call
	// gets before the file is skipped with a recorded gap.
	Retries int
	// IgnoreGlobs excludes matching paths from flattening.
	IgnoreGlobs []string
}

const defaultRetries = 1

// FailurePolicy declares how the orchestrator reacts when a stage fails.
type FailurePolicy int

const (
	// PolicyAbort terminates the run with the stage's error.
	PolicyAbort FailurePolicy = iota
	// PolicyDegrade records the failure and continues with the best
	// artifact produced so far.
	PolicyDegrade
	// PolicySkipAndContinue marks stages that absorb per-file failures
	// internally as recorded gaps; an error escaping such a stage still
	// aborts (it means something beyond a single file broke).
	PolicySkipAndContinue
)

type stage struct {
	name   string
	policy FailurePolicy
	run    func(ctx context.Context, state *runState) error
}

// runState threads the accumulated artifacts through the stage sequence.
// Each artifact is written by exactly one stage and read-only afterward.
type runState struct {
	root   string
	prompt string

	files      []FileRecord
	contextDoc string
	plan       string
	draft      DiffDocument
	final      string

	gaps         []ContextGap
	degradations []string
}

// Result is the outcome of a completed (possibly degraded) run.
type Result struct {
	Diff         string
	Gaps         []ContextGap
	Degradations []string
	Files        int
	Fragments    int
}

// Degraded reports whether the run skipped files or returned an unverified
// draft.
func (r *Result) Degraded() bool {
	return len(r.Gaps) > 0 || len(r.Degradations) > 0
}

// Pipeline sequences the stages over one repository checkout. A Pipeline is
// stateless between runs and safe to reuse.
type Pipeline struct {
	model   Completer
	cfg     Config
	prompts stagePrompts
	stages  []stage
}

// New builds a pipeline around the given model capability.
func New(model Completer, cfg Config) (*Pipeline, error) {
	if model == nil {
		return nil, fmt.Errorf("model completer is required")
	}
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetries
	}
	prompts, err := loadStagePrompts()
	if err != nil {
		return nil, err
	}
	p := &Pipeline{model: model, cfg: cfg, prompts: prompts}
	p.stages = []stage{
		{name: "flatten", policy: PolicyAbort, run: p.flattenStage},
		{name: "context", policy: PolicySkipAndContinue, run: p.contextStage},
		{name: "plan", policy: PolicyAbort, run: p.planStage},
		{name: "draft", policy: PolicySkipAndContinue, run: p.draftStage},
		{name: "verify", policy: PolicyDegrade, run: p.verifyStage},
	}
	return p, nil
}

// Run drives all stages over the repository checked out at root and returns
// the final diff. Failures follow each stage's policy: planning failures
// abort, verification failures degrade to the unverified draft, per-file
// failures are recorded as gaps.
func (p *Pipeline) Run(ctx context.Context, root, prompt string) (*Result, error) {
	state := &runState{root: root, prompt: prompt}

	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := st.run(ctx, state)
		if err == nil {
			events.Emit(ctx, events.PipelineStage, events.NewSuccess(
				fmt.Sprintf("stage %s completed", st.name)))
			continue
		}
		// Cancellation abandons the run outright; no stage policy may absorb
		// it into a degraded result.
		if ctx.Err() != nil {
			return nil, err
		}
		if st.policy == PolicyDegrade {
			state.degradations = append(state.degradations, err.Error())
			events.Emit(ctx, events.PipelineStage, events.NewWarn(
				fmt.Sprintf("stage %s degraded: %v", st.name, err)))
			continue
		}
		events.Emit(ctx, events.PipelineStage, events.NewError(
			fmt.Sprintf("stage %s failed: %v", st.name, err)))
		return nil, err
	}

	res := &Result{
		Diff:         state.final,
		Gaps:         state.gaps,
		Degradations: state.degradations,
		Files:        len(state.files),
		Fragments:    state.draft.Fragments(),
	}
	events.Emit(ctx, events.PipelineDone, events.NewSuccess(
		fmt.Sprintf("pipeline produced %d fragment(s) across %d file(s)", res.Fragments, res.Files)))
	return res, nil
}

// completeWithRetry issues one model call with bounded retries. The returned
// error wraps the last attempt's failure as a ModelCallError.
func (p *Pipeline) completeWithRetry(ctx context.Context, stageName, path, system, prompt string) (string, error) {
	var lastErr error
	attempts := 1 + p.cfg.Retries
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		reply, err := p.model.Complete(ctx, system, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
	}
	return "", &ModelCallError{Stage: stageName, Path: path, Err: lastErr}
}
