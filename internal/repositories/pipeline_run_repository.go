package repositories

import (
	"errors"
	"fmt"

	"diffsmith/internal/models"

	"gorm.io/gorm"
)

type PipelineRunRepository interface {
	Create(run *models.PipelineRun) error
	GetByRunKey(runKey string) (*models.PipelineRun, error)
	UpdateByRunKey(runKey string, updates map[string]interface{}) error
	ListRecent(limit int) ([]models.PipelineRun, error)
	DeleteByRunKey(runKey string) error
}

type pipelineRunRepository struct {
	db *gorm.DB
}

func NewPipelineRunRepository(db *gorm.DB) PipelineRunRepository {
	return &pipelineRunRepository{db: db}
}

func (r *pipelineRunRepository) Create(run *models.PipelineRun) error {
	if run == nil {
		return fmt.Errorf("run is required")
	}
	if run.RunKey == "" {
		return fmt.Errorf("run key is required")
	}
	return r.db.Create(run).Error
}

func (r *pipelineRunRepository) GetByRunKey(runKey string) (*models.PipelineRun, error) {
	if runKey == "" {
		return nil, fmt.Errorf("run key is required")
	}
	var run models.PipelineRun
	res := r.db.Where("run_key = ?", runKey).Take(&run)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &run, nil
}

func (r *pipelineRunRepository) UpdateByRunKey(runKey string, updates map[string]interface{}) error {
	if runKey == "" {
		return fmt.Errorf("run key is required")
	}
	return r.db.Model(&models.PipelineRun{}).Where("run_key = ?", runKey).Updates(updates).Error
}

func (r *pipelineRunRepository) ListRecent(limit int) ([]models.PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []models.PipelineRun
	res := r.db.Order("created_at desc").Limit(limit).Find(&runs)
	if res.Error != nil {
		return nil, res.Error
	}
	return runs, nil
}

func (r *pipelineRunRepository) DeleteByRunKey(runKey string) error {
	if runKey == "" {
		return fmt.Errorf("run key is required")
	}
	return r.db.Where("run_key = ?", runKey).Delete(&models.PipelineRun{}).Error
}
