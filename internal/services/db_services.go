package services

import (
	"diffsmith/internal/repositories"

	"gorm.io/gorm"
)

// DbServices aggregates all domain services backed by the database.
type DbServices struct {
	Runs         PipelineRunService
	ModelConfigs ModelConfigService
}

// NewDbServices constructs the service container using repositories backed by db.
func NewDbServices(db *gorm.DB) *DbServices {
	runRepo := repositories.NewPipelineRunRepository(db)
	modelSettingRepo := repositories.NewModelSettingRepository(db)

	return &DbServices{
		Runs:         NewPipelineRunService(runRepo),
		ModelConfigs: NewModelConfigService(modelSettingRepo),
	}
}
