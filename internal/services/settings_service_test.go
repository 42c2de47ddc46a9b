package services

import (
	"testing"

	"shuttle/internal/models"
	"shuttle/internal/repositories/memory"
	"shuttle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_DefaultsUntilSaved(t *testing.T) {
	f := newFixture(t)
	svc := NewSettingsService(memory.NewSettingsRepository(memory.NewStore()),
		models.Settings{PaymentEnabled: true, BookingWindowEnd: "2026-12-31"}, logger.NewNop())

	settings, err := svc.Get(f.ctx)
	require.NoError(t, err)
	assert.True(t, settings.PaymentEnabled)
	assert.Equal(t, "2026-12-31", settings.BookingWindowEnd)
	assert.Equal(t, models.GlobalSettingsID, settings.ID)

	updated, err := svc.Update(f.ctx, &UpdateSettingsRequest{PaymentEnabled: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.PaymentEnabled)
	assert.Equal(t, "2026-12-31", updated.BookingWindowEnd)

	settings, err = svc.Get(f.ctx)
	require.NoError(t, err)
	assert.False(t, settings.PaymentEnabled)
}

func TestSettings_ValidatesWindow(t *testing.T) {
	f := newFixture(t)

	_, err := f.settings.Update(f.ctx, &UpdateSettingsRequest{BookingWindowStart: strPtr("March 1")})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.settings.Update(f.ctx, &UpdateSettingsRequest{
		BookingWindowStart: strPtr("2026-04-01"),
		BookingWindowEnd:   strPtr("2026-03-01"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	settings, err := f.settings.Update(f.ctx, &UpdateSettingsRequest{
		BookingWindowStart: strPtr("2026-03-01"),
		BookingWindowEnd:   strPtr("2026-04-01"),
	})
	require.NoError(t, err)
	assert.True(t, settings.AllowsDate(testDate))
	assert.False(t, settings.AllowsDate("2026-04-02"))

	cleared, err := f.settings.Update(f.ctx, &UpdateSettingsRequest{BookingWindowEnd: strPtr("")})
	require.NoError(t, err)
	assert.True(t, cleared.AllowsDate("2027-01-01"))
}
