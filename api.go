package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"diffsmith/internal/models"
	"diffsmith/internal/pipeline"
	"diffsmith/internal/services"
)

// analyzer runs one repository analysis end to end.
type analyzer interface {
	Analyze(ctx context.Context, repoURL, prompt, modelKey string) (*services.AnalyzeResult, error)
}

type runStore interface {
	GetByRunKey(runKey string) (*models.PipelineRun, error)
	ListRecent(limit int) ([]models.PipelineRun, error)
}

type modelCatalog interface {
	ListModelGroups() ([]models.LLMModelGroup, error)
}

type handler struct {
	pipeline analyzer
	runs     runStore
	catalog  modelCatalog
}

func newHandler(pipeline analyzer, runs runStore, catalog modelCatalog) *handler {
	return &handler{pipeline: pipeline, runs: runs, catalog: catalog}
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", h.handleAnalyze)
	mux.HandleFunc("GET /runs", h.handleListRuns)
	mux.HandleFunc("GET /runs/{run_key}", h.handleGetRun)
	mux.HandleFunc("GET /models", h.handleListModels)
	return mux
}

type analyzeRequest struct {
	RepoURL string `json:"repoUrl"`
	Prompt  string `json:"prompt"`
	Model   string `json:"model,omitempty"`
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.RepoURL) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "repoUrl is required")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "prompt is required")
		return
	}

	res, err := h.pipeline.Analyze(r.Context(), req.RepoURL, req.Prompt, req.Model)
	if err != nil {
		status, code := classifyError(err)
		writeError(w, status, code, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Diffsmith-Run", res.RunKey)
	if res.Degraded() {
		w.Header().Set("X-Diffsmith-Degraded", "true")
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, res.Diff)
}

func (h *handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRecent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (h *handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runKey := r.PathValue("run_key")
	run, err := h.runs.GetByRunKey(runKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "not_found", "no run with key "+runKey)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	groups, err := h.catalog.ListModelGroups()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": groups})
}

// classifyError maps pipeline failure modes onto HTTP statuses.
func classifyError(err error) (int, string) {
	var tooLarge *pipeline.InputTooLargeError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "input_too_large"
	}
	var repoErr *pipeline.RepositoryAccessError
	if errors.As(err, &repoErr) {
		return http.StatusBadGateway, "repository_access"
	}
	var modelErr *pipeline.ModelCallError
	if errors.As(err, &modelErr) {
		return http.StatusBadGateway, "model_call"
	}
	var planErr *pipeline.PlanningError
	if errors.As(err, &planErr) {
		return http.StatusBadGateway, "planning"
	}
	var verifyErr *pipeline.VerificationError
	if errors.As(err, &verifyErr) {
		return http.StatusBadGateway, "verification"
	}
	return http.StatusInternalServerError, "internal"
}

const maxRequestBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
