package pipeline

import (
	"context"
	"fmt"
	"strings"

	"diffsmith/internal/events"
)

// flattenStage reads the repository into the FileRecord sequence. Runs
// before any model call so an oversized repository fails fast.
func (p *Pipeline) flattenStage(ctx context.Context, state *runState) error {
	files, err := Flatten(state.root, FlattenOptions{
		MaxFileLines:  p.cfg.MaxFileLines,
		MaxTotalLines: p.cfg.MaxTotalLines,
		IgnoreGlobs:   p.cfg.IgnoreGlobs,
	})
	if err != nil {
		return err
	}
	state.files = files
	events.Emit(ctx, events.PipelineStage, events.NewInfo(
		fmt.Sprintf("flattened %d file(s)", len(files))))
	return nil
}

// contextStage is the first pass: one model call per file, each seeing only
// the context accumulated from strictly earlier files. A file whose call
// fails after retries is recorded as a gap and the pass continues.
func (p *Pipeline) contextStage(ctx context.Context, state *runState) error {
	var b strings.Builder
	for _, f := range state.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		reply, err := p.completeWithRetry(ctx, "context", f.Path, p.prompts.analysis,
			fileAnalysisPrompt(f, b.String()))
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			state.gaps = append(state.gaps, ContextGap{Stage: "context", Path: f.Path, Reason: err.Error()})
			events.Emit(ctx, events.PipelineFile, events.NewWarn(
				fmt.Sprintf("context gap for %s: %v", f.Path, err)))
			continue
		}
		fmt.Fprintf(&b, "### %s\n%s\n\n", f.Path, strings.TrimSpace(reply))
	}
	state.contextDoc = b.String()
	return nil
}

// planStage is the single brainstorm call. Failure is fatal to the run;
// there is no diffing without a plan.
func (p *Pipeline) planStage(ctx context.Context, state *runState) error {
	reply, err := p.completeWithRetry(ctx, "plan", "", p.prompts.planning,
		planningPrompt(state.contextDoc, state.prompt))
	if err != nil {
		return &PlanningError{Err: err}
	}
	plan := strings.TrimSpace(reply)
	if plan == "" {
		return &PlanningError{Err: fmt.Errorf("model returned an empty plan")}
	}
	state.plan = plan
	return nil
}

// draftStage is the second pass, in the same file order as the first. Each
// file gets a binary decision: a diff fragment or nothing.
func (p *Pipeline) draftStage(ctx context.Context, state *runState) error {
	for _, f := range state.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		reply, err := p.completeWithRetry(ctx, "draft", f.Path, p.prompts.drafting,
			draftingPrompt(f, state.contextDoc, state.plan, state.prompt))
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			state.gaps = append(state.gaps, ContextGap{Stage: "draft", Path: f.Path, Reason: err.Error()})
			events.Emit(ctx, events.PipelineFile, events.NewWarn(
				fmt.Sprintf("draft gap for %s: %v", f.Path, err)))
			continue
		}
		if strings.EqualFold(strings.TrimSpace(reply), noChangesMarker) {
			continue
		}
		fragment := ExtractDiffFence(reply)
		if fragment == "" {
			// Unparseable replies count as "no change" rather than
			// corrupting the diff document.
			events.Emit(ctx, events.PipelineFile, events.NewWarn(
				fmt.Sprintf("unparseable draft reply for %s dropped", f.Path)))
			continue
		}
		if normalized, err := NormalizeFragment(fragment, f.Path, f.Content); err == nil {
			fragment = normalized
		}
		state.draft.Append(fragment)
		events.Emit(ctx, events.PipelineFile, events.NewInfo(
			fmt.Sprintf("drafted fragment for %s", f.Path)))
	}
	return nil
}

// verifyStage is the final pass: one call over the whole draft, whose reply
// supersedes the draft wholesale. Failure degrades to the unverified draft
// (handled by the orchestrator's policy), never to an empty result.
func (p *Pipeline) verifyStage(ctx context.Context, state *runState) error {
	// A repository where every file drafted "no change" yields an empty
	// diff, not an error and not a model call.
	if state.draft.Empty() {
		state.final = ""
		return nil
	}
	// The draft is the fallback whatever happens below.
	state.final = state.draft.String()

	reply, err := p.completeWithRetry(ctx, "verify", "", p.prompts.verification,
		verificationPrompt(state.contextDoc, state.plan, state.draft.String(), state.prompt))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &VerificationError{Err: err}
	}
	verified := ExtractDiffFence(reply)
	if verified == "" {
		return &VerificationError{Err: fmt.Errorf("verifier reply contained no diff fence")}
	}
	state.final = strings.TrimRight(verified, "\n") + "\n"
	return nil
}
