package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/evcharge/internal/config"
	"github.com/langchou/evcharge/internal/metrics"
	"github.com/langchou/evcharge/internal/models"
	"github.com/langchou/evcharge/internal/repository"
	"github.com/langchou/evcharge/internal/state"
)

type chargingFixture struct {
	svc       *ChargingService
	stations  *fakeStations
	sessions  *fakeSessions
	txs       *fakeTransactions
	publisher *fakePublisher
}

func testStation() *models.Station {
	return &models.Station{
		ID:   1,
		Name: "Downtown Hub",
		City: "San Francisco",
		Ports: models.Ports{
			{ID: "P1", Type: "Normal AC", Power: 22, Status: models.StatusAvailable},
			{ID: "P2", Type: "Fast DC", Power: 150, Status: models.StatusBusy},
		},
		Pricing: models.Pricing{
			Normal: models.Tariff{Base: 10, Peak: 14},
			Fast:   models.Tariff{Base: 18, Peak: 24},
		},
		PeakHours: &models.PeakHours{Start: 18, End: 21},
	}
}

// speedup 为每个 tick 模拟的倍数；tick 5ms * 120000 = 10 分钟
func newChargingFixture(t *testing.T, speedup float64, existing ...*models.ChargingSession) *chargingFixture {
	t.Helper()
	f := buildChargingFixture(t, speedup, existing...)
	require.NoError(t, f.svc.Start(context.Background()))
	return f
}

// buildChargingFixture 创建未启动的服务
func buildChargingFixture(t *testing.T, speedup float64, existing ...*models.ChargingSession) *chargingFixture {
	t.Helper()
	cfg := &config.Config{
		SimTick:           5 * time.Millisecond,
		SimSpeedup:        speedup,
		DefaultPeakStart:  18,
		DefaultPeakEnd:    21,
		DefaultTotalPorts: 4,
	}
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	f := &chargingFixture{
		stations:  newFakeStations(testStation()),
		sessions:  newFakeSessions(existing...),
		txs:       &fakeTransactions{},
		publisher: &fakePublisher{},
	}
	vehicles := &fakeVehicles{vehicles: map[int64]*models.Vehicle{
		7: {ID: 7, UserID: 1, Make: "Tesla", Model: "Model 3", BatteryCapacityKwh: 82},
	}}
	f.svc = NewChargingService(cfg, zap.NewNop(), f.stations, vehicles, f.sessions, f.txs, f.publisher, m, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local) }

	t.Cleanup(f.svc.Stop)
	return f
}

func activeSession(id string, userID int64) *models.ChargingSession {
	return &models.ChargingSession{
		ID:                 id,
		UserID:             userID,
		StationID:          1,
		PortID:             "P1",
		ChargingType:       "Normal AC",
		PaymentMethod:      "Card",
		BatteryCapacityKwh: 60,
		ChargerPowerKw:     22,
		Status:             models.SessionCharging,
		BatteryStart:       20,
		BatteryTarget:      30,
		BatteryCurrent:     25,
		DurationMin:        30,
		StartTime:          time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local),
	}
}

// startConcurrently 同时发起多个 StartSession
func startConcurrently(svc *ChargingService, reqs ...StartRequest) []error {
	errs := make([]error, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req StartRequest) {
			defer wg.Done()
			_, errs[i] = svc.StartSession(context.Background(), req)
		}(i, req)
	}
	wg.Wait()
	return errs
}

func succeeded(errs []error) int {
	n := 0
	for _, err := range errs {
		if err == nil {
			n++
		}
	}
	return n
}

func TestStartSessionRunsToCompletion(t *testing.T) {
	f := newChargingFixture(t, 120000)
	ctx := context.Background()

	sess, err := f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 1, PortID: "P1"})
	require.NoError(t, err)
	assert.Equal(t, state.StateCharging, sess.Status)
	assert.Equal(t, "Normal AC", sess.ChargingType)
	assert.Equal(t, 60.0, sess.BatteryCapacityKwh)
	assert.Equal(t, 22.0, sess.ChargerPowerKw)
	assert.Equal(t, DefaultBatteryStart, sess.BatteryStart)
	assert.Equal(t, DefaultBatteryTarget, sess.BatteryTarget)
	assert.True(t, sess.EstimatedCompletion.After(sess.StartTime))
	assert.Equal(t, models.StatusBusy, f.stations.portStatus(1, "P1"))

	require.Eventually(t, func() bool { return f.publisher.completedCount() == 1 }, 3*time.Second, 5*time.Millisecond)

	got, err := f.svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, got.Status)
	assert.Equal(t, 80.0, got.BatteryCurrent)
	assert.Equal(t, 100.0, got.Progress)
	assert.Equal(t, 36.0, got.EnergyDeliveredKwh)
	// 22kW*0.85 每 10 分钟约 5.19%，12 个 tick 到达 80%
	assert.Equal(t, 120.0, got.DurationMin)
	require.NotNil(t, got.EndTime)
	require.NotNil(t, got.Cost)
	// 10:00 开始 120 分钟全部在谷时
	assert.Equal(t, 360.0, *got.Cost)

	assert.Equal(t, models.StatusAvailable, f.stations.portStatus(1, "P1"))
	assert.GreaterOrEqual(t, f.publisher.updateCount(), 11)

	txs := f.txs.all()
	require.Len(t, txs, 1)
	assert.Equal(t, 360.0, txs[0].Amount)
	assert.Equal(t, models.TransactionCharging, txs[0].Type)
	assert.Equal(t, "Wallet", txs[0].PaymentMethod)
	require.NotNil(t, txs[0].SessionID)
	assert.Equal(t, sess.ID, *txs[0].SessionID)

	_, tracked := f.svc.ActiveStates("")[sess.ID]
	assert.False(t, tracked)
}

func TestStopSession(t *testing.T) {
	f := newChargingFixture(t, 1)
	ctx := context.Background()

	sess, err := f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 1, PortID: "P1", BatteryStart: 30, BatteryTarget: 90})
	require.NoError(t, err)

	states := f.svc.ActiveStates(sess.ID)
	require.Contains(t, states, sess.ID)
	assert.Equal(t, state.StateCharging, states[sess.ID].CurrentState)

	res, err := f.svc.StopSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStopped, res.Session.Status)
	require.NotNil(t, res.Cost)
	assert.Equal(t, 0.0, *res.Session.Cost)
	assert.Equal(t, 0.0, res.Session.EnergyDeliveredKwh)

	assert.Equal(t, models.SessionStopped, f.sessions.get(sess.ID).Status)
	assert.Equal(t, models.StatusAvailable, f.stations.portStatus(1, "P1"))
	assert.Empty(t, f.txs.all())
	assert.Equal(t, 1, f.publisher.completedCount())

	_, err = f.svc.StopSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestStartSessionRejections(t *testing.T) {
	f := newChargingFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 1, PortID: "P2"})
	assert.ErrorIs(t, err, ErrPortUnavailable, "busy port")

	_, err = f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 1, PortID: "P9"})
	assert.ErrorIs(t, err, ErrPortUnavailable, "unknown port")

	_, err = f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 99, PortID: "P1"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 1, PortID: "P1", BatteryStart: 90, BatteryTarget: 50})
	assert.ErrorIs(t, err, ErrInvalidBatteryRange)

	_, err = f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 1, PortID: "P1"})
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 1, PortID: "P1"})
	assert.ErrorIs(t, err, ErrActiveSession)
}

func TestStartSessionUsesVehicleCapacity(t *testing.T) {
	f := newChargingFixture(t, 1)
	vehicleID := int64(7)

	sess, err := f.svc.StartSession(context.Background(), StartRequest{UserID: 1, StationID: 1, PortID: "P1", VehicleID: &vehicleID})
	require.NoError(t, err)
	assert.Equal(t, "Tesla Model 3", sess.VehicleType)
	assert.Equal(t, 82.0, sess.BatteryCapacityKwh)
}

func TestGetSessionUnknown(t *testing.T) {
	f := newChargingFixture(t, 1)
	_, err := f.svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.StopSession(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStartResumesActiveSessions(t *testing.T) {
	f := newChargingFixture(t, 120000, activeSession("resume-me", 2))

	require.Eventually(t, func() bool { return f.publisher.completedCount() == 1 }, 3*time.Second, 5*time.Millisecond)

	got := f.sessions.get("resume-me")
	assert.Equal(t, models.SessionCompleted, got.Status)
	assert.Equal(t, 30.0, got.BatteryCurrent)
	assert.Equal(t, 6.0, got.EnergyDeliveredKwh)
	// 已有 30 分钟，再模拟一个 10 分钟的 tick
	assert.Equal(t, 40.0, got.DurationMin)
	require.NotNil(t, got.Cost)
	assert.Equal(t, 60.0, *got.Cost)

	txs := f.txs.all()
	require.Len(t, txs, 1)
	assert.Equal(t, "Card", txs[0].PaymentMethod)
}

func TestConcurrentStartsReserveEachPortOnce(t *testing.T) {
	f := newChargingFixture(t, 1)
	// 两个请求都读到端口空闲后才继续
	f.stations.getGate = newGate(2)

	errs := startConcurrently(f.svc,
		StartRequest{UserID: 10, StationID: 1, PortID: "P1"},
		StartRequest{UserID: 11, StationID: 1, PortID: "P1"},
	)

	assert.Equal(t, 1, succeeded(errs))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrPortUnavailable)
		}
	}

	active, err := f.sessions.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, models.StatusBusy, f.stations.portStatus(1, "P1"))
}

func TestConcurrentStartsAllowOneActiveSessionPerUser(t *testing.T) {
	f := newChargingFixture(t, 1)
	f.stations.addPort(1, models.Port{ID: "P3", Type: "Normal AC", Power: 22, Status: models.StatusAvailable})
	// 两个请求都通过了进行中会话检查
	f.stations.getGate = newGate(2)

	errs := startConcurrently(f.svc,
		StartRequest{UserID: 10, StationID: 1, PortID: "P1"},
		StartRequest{UserID: 10, StationID: 1, PortID: "P3"},
	)

	assert.Equal(t, 1, succeeded(errs))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrActiveSession)
		}
	}

	active, err := f.sessions.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)

	// 失败的一方释放了端口
	busy := 0
	for _, port := range []string{"P1", "P3"} {
		if f.stations.portStatus(1, port) == models.StatusBusy {
			busy++
			assert.Equal(t, active[0].PortID, port)
		}
	}
	assert.Equal(t, 1, busy)
}

func TestConcurrentStopsWithoutRunnerSettleOnce(t *testing.T) {
	f := buildChargingFixture(t, 1, activeSession("idle", 2))
	f.stations.stations[1].Ports[0].Status = models.StatusBusy
	// 两次停止都读到进行中状态
	f.sessions.getGate = newGate(2)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.StopSession(context.Background(), "idle")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded(errs))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrSessionNotActive)
		}
	}

	got := f.sessions.get("idle")
	assert.Equal(t, models.SessionStopped, got.Status)
	require.NotNil(t, got.Cost)
	// 3 kWh，9:00 开始 30 分钟谷时 10/kWh
	assert.Equal(t, 30.0, *got.Cost)
	require.Len(t, f.txs.all(), 1)
	assert.Equal(t, 1, f.publisher.completedCount())
	assert.Equal(t, models.StatusAvailable, f.stations.portStatus(1, "P1"))
}

func TestStartSessionWhileStoppedWaitsForResume(t *testing.T) {
	f := buildChargingFixture(t, 120000)
	ctx := context.Background()

	sess, err := f.svc.StartSession(ctx, StartRequest{UserID: 1, StationID: 1, PortID: "P1", BatteryStart: 20, BatteryTarget: 30})
	require.NoError(t, err)

	f.svc.mu.RLock()
	runners := len(f.svc.runners)
	f.svc.mu.RUnlock()
	assert.Zero(t, runners)
	assert.True(t, f.sessions.get(sess.ID).Active())
	assert.Equal(t, models.StatusBusy, f.stations.portStatus(1, "P1"))

	require.NoError(t, f.svc.Start(ctx))
	require.Eventually(t, func() bool { return f.publisher.completedCount() == 1 }, 3*time.Second, 5*time.Millisecond)

	got := f.sessions.get(sess.ID)
	assert.Equal(t, models.SessionCompleted, got.Status)
	assert.Equal(t, models.StatusAvailable, f.stations.portStatus(1, "P1"))
}

func TestAdvance(t *testing.T) {
	sess := &models.ChargingSession{
		BatteryCapacityKwh: 60,
		ChargerPowerKw:     60,
		BatteryStart:       20,
		BatteryTarget:      80,
		BatteryCurrent:     20,
	}

	// 60kW*0.85*1h/60kWh = 85%，一步即达到目标
	reached := advance(sess, time.Hour)
	assert.True(t, reached)
	assert.Equal(t, 80.0, sess.BatteryCurrent)
	assert.Equal(t, 100.0, sess.Progress)
	assert.Equal(t, 60.0, sess.DurationMin)

	sess.BatteryCurrent = 20
	sess.DurationMin = 0
	reached = advance(sess, 6*time.Minute)
	assert.False(t, reached)
	assert.InDelta(t, 28.5, sess.BatteryCurrent, 1e-9)
	assert.Equal(t, 14.2, sess.Progress)
	assert.Equal(t, 5.1, sess.EnergyDeliveredKwh)
}
