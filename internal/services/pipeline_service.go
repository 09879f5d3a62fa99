package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"diffsmith/internal/events"
	"diffsmith/internal/llm/client"
	"diffsmith/internal/models"
	"diffsmith/internal/pipeline"
	"diffsmith/internal/utils"

	"github.com/google/uuid"
)

// ignoreFileName lists extra flattener ignore globs, one per line, at the
// analyzed repository's root.
const ignoreFileName = ".diffsmithignore"

// AnalyzeResult is what one completed run hands back to the HTTP surface.
type AnalyzeResult struct {
	RunKey       string
	Diff         string
	Degradations []string
	Gaps         []pipeline.ContextGap
}

// Degraded reports whether the diff was produced with skipped files or
// without verification.
func (r *AnalyzeResult) Degraded() bool {
	return len(r.Degradations) > 0 || len(r.Gaps) > 0
}

// PipelineService drives one full analysis per request: resolve the model,
// clone the repository, run the staged pipeline and persist the outcome.
type PipelineService struct {
	context        context.Context
	gitService     *GitService
	keyringService *KeyringService
	modelConfigs   ModelConfigService
	runs           PipelineRunService
	pipelineCfg    pipeline.Config
}

func NewPipelineService(gitService *GitService, keyringService *KeyringService, modelConfigs ModelConfigService, runs PipelineRunService, cfg pipeline.Config) *PipelineService {
	return &PipelineService{
		gitService:     gitService,
		keyringService: keyringService,
		modelConfigs:   modelConfigs,
		runs:           runs,
		pipelineCfg:    cfg,
	}
}

func (s *PipelineService) Startup(ctx context.Context) error {
	s.context = ctx
	if s.gitService == nil {
		return fmt.Errorf("git service not configured")
	}
	if s.keyringService == nil {
		return fmt.Errorf("keyring service not configured")
	}
	if s.modelConfigs == nil {
		return fmt.Errorf("model configuration service not configured")
	}
	if s.runs == nil {
		return fmt.Errorf("pipeline run service not configured")
	}
	return nil
}

// instantiateLLMClient builds the provider-specific completion client for
// the given catalog model, with its API key resolved from the keyring or
// environment.
func (s *PipelineService) instantiateLLMClient(ctx context.Context, model *models.LLMModel) (*client.LLMClient, error) {
	providerID := strings.TrimSpace(model.ProviderID)
	if providerID == "" {
		return nil, fmt.Errorf("model %s is missing provider information", model.DisplayName)
	}

	apiKey, err := s.keyringService.ResolveApiKey(providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for %s: %w", providerID, err)
	}

	var (
		llmClient *client.LLMClient
		createErr error
	)
	switch providerID {
	case "anthropic":
		llmClient, createErr = client.NewClaudeClient(ctx, apiKey, client.ClaudeModelOptions{
			Model: model.APIName,
		})
	case "openai":
		llmClient, createErr = client.NewOpenAIClient(ctx, apiKey, client.OpenAIModelOptions{
			Model: model.APIName,
		})
	case "gemini":
		llmClient, createErr = client.NewGeminiClient(ctx, apiKey, client.GeminiModelOptions{
			Model: model.APIName,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerID)
	}

	if createErr != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", providerID, createErr)
	}
	return llmClient, nil
}

func (s *PipelineService) resolveModel(modelKey string) (*models.LLMModel, error) {
	modelKey = strings.TrimSpace(modelKey)
	if modelKey == "" {
		return s.modelConfigs.DefaultModel()
	}
	model, err := s.modelConfigs.GetModel(modelKey)
	if err != nil {
		return nil, err
	}
	if !model.Enabled {
		return nil, fmt.Errorf("model %s is disabled", model.DisplayName)
	}
	return model, nil
}

// Analyze clones repoURL, runs the staged pipeline against it with the
// user's change request, persists the run and returns the final diff.
// Degradations (skipped files, unverified draft) are carried on the result
// and the run record, never hidden.
func (s *PipelineService) Analyze(ctx context.Context, repoURL, prompt, modelKey string) (*AnalyzeResult, error) {
	repoURL = strings.TrimSpace(repoURL)
	prompt = strings.TrimSpace(prompt)
	if repoURL == "" {
		return nil, fmt.Errorf("repo url is required")
	}
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	model, err := s.resolveModel(modelKey)
	if err != nil {
		return nil, err
	}

	llmClient, err := s.instantiateLLMClient(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	runKey := uuid.NewString()
	ctx = events.WithRun(ctx, runKey)

	run := &models.PipelineRun{
		RunKey:   runKey,
		RepoURL:  repoURL,
		Prompt:   prompt,
		Provider: model.ProviderID,
		ModelKey: model.Key,
		Status:   models.RunStatusRunning,
	}
	if _, err := s.runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	events.Emit(ctx, events.PipelineStage, events.NewInfo(fmt.Sprintf(
		"Analyze: starting for %s using %s via %s", repoURL, model.DisplayName, model.ProviderName,
	)))

	tempDir, err := os.MkdirTemp("", "diffsmith-")
	if err != nil {
		return nil, s.failRun(runKey, fmt.Errorf("failed to create workspace: %w", err))
	}
	defer os.RemoveAll(tempDir)

	if _, err := s.gitService.Clone(ctx, repoURL, tempDir); err != nil {
		return nil, s.failRun(runKey, &pipeline.RepositoryAccessError{Root: repoURL, Err: err})
	}
	if !utils.HasGitRepo(tempDir) {
		return nil, s.failRun(runKey, &pipeline.RepositoryAccessError{
			Root: repoURL, Err: fmt.Errorf("clone produced no git repository"),
		})
	}

	cfg := s.pipelineCfg
	cfg.IgnoreGlobs = append(cfg.IgnoreGlobs, s.repoIgnoreGlobs(tempDir)...)

	p, err := pipeline.New(llmClient, cfg)
	if err != nil {
		return nil, s.failRun(runKey, err)
	}

	res, err := p.Run(ctx, tempDir, prompt)
	if err != nil {
		return nil, s.failRun(runKey, err)
	}

	status := models.RunStatusSucceeded
	if res.Degraded() {
		status = models.RunStatusDegraded
	}
	updates := map[string]interface{}{
		"status": status,
		"diff":   res.Diff,
	}
	if len(res.Degradations) > 0 {
		updates["degradations"] = marshalJSON(res.Degradations)
	}
	if len(res.Gaps) > 0 {
		updates["skipped_files"] = marshalJSON(res.Gaps)
	}
	if err := s.runs.UpdateByRunKey(runKey, updates); err != nil {
		events.Emit(ctx, events.PipelineStage, events.NewWarn(
			fmt.Sprintf("failed to persist run %s: %v", runKey, err)))
	}

	events.Emit(ctx, events.PipelineDone, events.NewSuccess(fmt.Sprintf(
		"Analyze: finished %s with %d fragment(s)", runKey, res.Fragments,
	)))

	return &AnalyzeResult{
		RunKey:       runKey,
		Diff:         res.Diff,
		Degradations: res.Degradations,
		Gaps:         res.Gaps,
	}, nil
}

// failRun marks the persisted run failed and passes the error through.
func (s *PipelineService) failRun(runKey string, cause error) error {
	_ = s.runs.UpdateByRunKey(runKey, map[string]interface{}{
		"status":        models.RunStatusFailed,
		"error_message": cause.Error(),
	})
	return cause
}

// repoIgnoreGlobs reads optional flattener ignore patterns committed to the
// analyzed repository.
func (s *PipelineService) repoIgnoreGlobs(root string) []string {
	path := filepath.Join(root, ignoreFileName)
	globs, err := utils.ReadNonEmptyLines(path)
	if err != nil {
		return nil
	}
	return globs
}

func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
