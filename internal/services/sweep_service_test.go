package services

import (
	"testing"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/utils"
	"shuttle/pkg/logger"
	"shuttle/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newSweepService(t *testing.T, f *fixture) SweepService {
	t.Helper()
	archive, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/reports")
	require.NoError(t, err)
	return NewSweepService(f.cleanup, f.reschedule, f.cache, archive, "sweeps", logger.NewNop())
}

func TestSweep_CleanupArchivesReport(t *testing.T) {
	f := newFixture(t)
	sweeps := newSweepService(t, f)
	seedTrip(t, f, testDate, 1, heldSeat("lapsed", f.clock.Now().Add(-time.Minute)), paidSeat("paid"))

	report, err := sweeps.RunCleanup(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SeatsRemoved)

	files, err := sweeps.ListReports(f.ctx, models.SweepKindCleanup)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "sweeps/cleanup/2026-03-10T080000Z.json", files[0].Key)

	data, err := sweeps.GetReport(f.ctx, files[0].Key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.GetBytes(data, "seats_removed").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(data, "trips_modified").Int())

	reschedules, err := sweeps.ListReports(f.ctx, models.SweepKindReschedule)
	require.NoError(t, err)
	assert.Empty(t, reschedules)
}

func TestSweep_RejectsOverlappingRun(t *testing.T) {
	f := newFixture(t)
	sweeps := newSweepService(t, f)

	key := utils.CacheKeySweepLock + string(models.SweepKindReschedule)
	acquired, err := f.cache.SetNX(f.ctx, key, "other-worker", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = sweeps.RunReschedule(f.ctx)
	assert.ErrorIs(t, err, ErrSweepInProgress)

	require.NoError(t, f.cache.Delete(f.ctx, key))

	report, err := sweeps.RunReschedule(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", report.FromDate)

	acquired, err = f.cache.SetNX(f.ctx, key, "next-worker", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "lock must be released after the run")
}

func TestSweep_GetMissingReport(t *testing.T) {
	f := newFixture(t)
	sweeps := newSweepService(t, f)

	_, err := sweeps.GetReport(f.ctx, "sweeps/cleanup/nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweep_WithoutLockOrArchive(t *testing.T) {
	f := newFixture(t)
	sweeps := NewSweepService(f.cleanup, f.reschedule, nil, nil, "", logger.NewNop())

	_, err := sweeps.RunCleanup(f.ctx)
	require.NoError(t, err)

	files, err := sweeps.ListReports(f.ctx, models.SweepKindCleanup)
	require.NoError(t, err)
	assert.Empty(t, files)
}
