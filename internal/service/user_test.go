package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/evcharge/internal/models"
)

func finished(id string, userID int64, status string, energy, cost, minutes float64, start time.Time) *models.ChargingSession {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return &models.ChargingSession{
		ID:                 id,
		UserID:             userID,
		Status:             status,
		EnergyDeliveredKwh: energy,
		Cost:               &cost,
		DurationMin:        minutes,
		StartTime:          start,
		EndTime:            &end,
	}
}

func TestUserStats(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	sessions := newFakeSessions(
		finished("a", 1, models.SessionCompleted, 12.34, 123.456, 40, base),
		finished("b", 1, models.SessionStopped, 7.5, 75.5, 25, base.Add(time.Hour)),
		finished("c", 1, models.SessionFailed, 100, 1000, 90, base.Add(2*time.Hour)),
		finished("d", 2, models.SessionCompleted, 50, 500, 60, base),
	)
	svc := NewUserService(&fakeVehicles{}, sessions, &fakeTransactions{})

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 19.8, stats.TotalEnergyKwh)
	assert.Equal(t, 198.96, stats.TotalCost)
	assert.Equal(t, int64(2), stats.TotalSessions)
	assert.Equal(t, 33, stats.AvgSessionDuration)
	assert.Equal(t, 7.9, stats.CO2SavedKg)

	empty, err := svc.Stats(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, &models.UserStats{}, empty)
}

func TestUserSessionsPaginated(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	sessions := newFakeSessions(
		finished("a", 1, models.SessionCompleted, 1, 1, 10, base),
		finished("b", 1, models.SessionCompleted, 1, 1, 10, base.Add(time.Hour)),
		finished("c", 1, models.SessionCompleted, 1, 1, 10, base.Add(2*time.Hour)),
	)
	svc := NewUserService(&fakeVehicles{}, sessions, &fakeTransactions{})

	page, total, err := svc.Sessions(context.Background(), 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID)

	page, _, err = svc.Sessions(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].ID)
}
