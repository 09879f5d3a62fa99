package services

import (
	"context"
	"fmt"
	"strings"

	"diffsmith/internal/models"
	"diffsmith/internal/repositories"
)

type PipelineRunService interface {
	Startup(ctx context.Context)
	Create(run *models.PipelineRun) (*models.PipelineRun, error)
	GetByRunKey(runKey string) (*models.PipelineRun, error)
	UpdateByRunKey(runKey string, updates map[string]interface{}) error
	ListRecent(limit int) ([]models.PipelineRun, error)
	DeleteByRunKey(runKey string) error
}

type pipelineRunService struct {
	repo repositories.PipelineRunRepository
	ctx  context.Context
}

func NewPipelineRunService(repo repositories.PipelineRunRepository) PipelineRunService {
	return &pipelineRunService{repo: repo}
}

func (s *pipelineRunService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *pipelineRunService) Create(run *models.PipelineRun) (*models.PipelineRun, error) {
	if run == nil {
		return nil, fmt.Errorf("run is required")
	}
	run.RunKey = strings.TrimSpace(run.RunKey)
	run.RepoURL = strings.TrimSpace(run.RepoURL)
	if run.RunKey == "" {
		return nil, fmt.Errorf("run key is required")
	}
	if run.RepoURL == "" {
		return nil, fmt.Errorf("repo url is required")
	}
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	if err := s.repo.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *pipelineRunService) GetByRunKey(runKey string) (*models.PipelineRun, error) {
	runKey = strings.TrimSpace(runKey)
	if runKey == "" {
		return nil, fmt.Errorf("run key is required")
	}
	return s.repo.GetByRunKey(runKey)
}

func (s *pipelineRunService) UpdateByRunKey(runKey string, updates map[string]interface{}) error {
	runKey = strings.TrimSpace(runKey)
	if runKey == "" {
		return fmt.Errorf("run key is required")
	}
	return s.repo.UpdateByRunKey(runKey, updates)
}

func (s *pipelineRunService) ListRecent(limit int) ([]models.PipelineRun, error) {
	return s.repo.ListRecent(limit)
}

func (s *pipelineRunService) DeleteByRunKey(runKey string) error {
	runKey = strings.TrimSpace(runKey)
	if runKey == "" {
		return fmt.Errorf("run key is required")
	}
	return s.repo.DeleteByRunKey(runKey)
}
