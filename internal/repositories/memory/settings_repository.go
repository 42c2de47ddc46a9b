package memory

import (
	"context"
	"fmt"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
)

type settingsRepository struct {
	store *Store
}

func NewSettingsRepository(store *Store) interfaces.SettingsRepository {
	return &settingsRepository{store: store}
}

func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	defer r.store.lock(ctx)()

	if r.store.settings == nil {
		return nil, fmt.Errorf("settings: %w", interfaces.ErrNotFound)
	}
	settings := *r.store.settings
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	defer r.store.lock(ctx)()

	settings.ID = models.GlobalSettingsID
	settings.UpdatedAt = time.Now()
	stored := *settings
	r.store.settings = &stored
	r.store.wrote()
	return nil
}
