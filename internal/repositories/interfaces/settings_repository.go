package interfaces

import (
	"context"

	"shuttle/internal/models"
)

type SettingsRepository interface {
	// Get returns ErrNotFound when no settings have been saved yet.
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}
