package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/evcharge/internal/config"
	"github.com/langchou/evcharge/internal/estimator"
	"github.com/langchou/evcharge/internal/metrics"
	"github.com/langchou/evcharge/internal/models"
	"github.com/langchou/evcharge/internal/repository"
	"github.com/langchou/evcharge/internal/state"
	"github.com/langchou/evcharge/pkg/currency"
)

// 默认起止电量
const (
	DefaultBatteryStart  = 20.0
	DefaultBatteryTarget = 80.0
)

const (
	chargingEfficiency = 0.85
	defaultPayment     = "Wallet"
)

// StartRequest 开始充电参数
type StartRequest struct {
	UserID        int64
	StationID     int64
	PortID        string
	ChargingType  string
	PaymentMethod string
	VehicleID     *int64
	VehicleType   string
	BatteryStart  float64
	BatteryTarget float64
}

// SessionUpdate 推送给 WebSocket 的进度快照
type SessionUpdate struct {
	SessionID           string    `json:"session_id"`
	Status              string    `json:"status"`
	BatteryCurrent      float64   `json:"battery_current"`
	Progress            float64   `json:"progress"`
	EnergyDeliveredKwh  float64   `json:"energy_delivered"`
	DurationMin         float64   `json:"duration_min"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

// SessionResult 会话结束结果
type SessionResult struct {
	Session *models.ChargingSession  `json:"session"`
	Cost    *estimator.CostBreakdown `json:"cost,omitempty"`
}

// runner 单个会话的模拟协程
type runner struct {
	mu       sync.Mutex
	session  *models.ChargingSession
	stopReq  chan struct{}
	done     chan struct{}
	stopping atomic.Bool
	result   *SessionResult
}

func (r *runner) snapshot() *models.ChargingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.session
	return &cp
}

// ChargingService 模拟充电会话服务
type ChargingService struct {
	cfg          *config.Config
	logger       *zap.Logger
	stations     StationStore
	vehicles     VehicleStore
	sessions     SessionStore
	transactions TransactionStore
	publisher    Publisher
	metrics      *metrics.Recorder
	currency     *currency.Formatter
	stateManager *state.Manager

	mu      sync.RWMutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	runners map[string]*runner

	now func() time.Time
}

// NewChargingService 创建充电服务
func NewChargingService(
	cfg *config.Config,
	logger *zap.Logger,
	stations StationStore,
	vehicles VehicleStore,
	sessions SessionStore,
	transactions TransactionStore,
	publisher Publisher,
	m *metrics.Recorder,
	cur *currency.Formatter,
) *ChargingService {
	if cur == nil {
		cur = currency.Default
	}
	svc := &ChargingService{
		cfg:          cfg,
		logger:       logger,
		stations:     stations,
		vehicles:     vehicles,
		sessions:     sessions,
		transactions: transactions,
		publisher:    publisher,
		metrics:      m,
		currency:     cur,
		stopCh:       make(chan struct{}),
		runners:      make(map[string]*runner),
		now:          time.Now,
	}

	svc.stateManager = state.NewManager(svc.onStateChange)

	return svc
}

// Start 启动服务，恢复未结束会话的模拟
func (s *ChargingService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.stopCh = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("list active sessions: %w", err)
	}

	for _, sess := range active {
		machine := s.stateManager.GetOrCreate(sess.ID, sess.Status)
		if machine.CanTransition(state.EventStart) {
			if err := machine.Trigger(state.EventStart); err != nil {
				s.logger.Error("Failed to resume session", zap.String("session_id", sess.ID), zap.Error(err))
				continue
			}
			sess.Status = machine.CurrentState()
		}
		if s.launch(sess) {
			s.metrics.SessionStarted()
		}
		s.logger.Info("Resumed charging session",
			zap.String("session_id", sess.ID),
			zap.Float64("battery", sess.BatteryCurrent),
		)
	}

	s.logger.Info("Charging service started", zap.Int("resumed", len(active)))
	return nil
}

// Stop 停止所有模拟协程，会话保持进行中状态以便下次恢复
func (s *ChargingService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Charging service stopped")
}

// StartSession 开始充电
func (s *ChargingService) StartSession(ctx context.Context, req StartRequest) (*models.ChargingSession, error) {
	if req.BatteryStart == 0 {
		req.BatteryStart = DefaultBatteryStart
	}
	if req.BatteryTarget == 0 {
		req.BatteryTarget = DefaultBatteryTarget
	}
	if req.BatteryTarget <= req.BatteryStart {
		return nil, fmt.Errorf("%w: target %.0f%% must exceed start %.0f%%", ErrInvalidBatteryRange, req.BatteryTarget, req.BatteryStart)
	}

	if _, err := s.sessions.GetActiveByUserID(ctx, req.UserID); err == nil {
		return nil, ErrActiveSession
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check active session: %w", err)
	}

	station, err := s.stations.GetByID(ctx, req.StationID)
	if err != nil {
		return nil, fmt.Errorf("get station: %w", err)
	}
	port, ok := station.Ports.Find(req.PortID)
	if !ok || port.Status != models.StatusAvailable {
		return nil, ErrPortUnavailable
	}

	vehicleType := req.VehicleType
	if vehicleType == "" {
		vehicleType = estimator.DefaultVehicleType
	}
	capacity := estimator.BatteryCapacity(vehicleType)
	if req.VehicleID != nil {
		v, err := s.vehicles.GetByID(ctx, *req.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("get vehicle: %w", err)
		}
		vehicleType = v.VehicleType()
		capacity = estimator.BatteryCapacity(vehicleType)
		if v.BatteryCapacityKwh > 0 {
			capacity = v.BatteryCapacityKwh
		}
	}

	chargingType := req.ChargingType
	if chargingType == "" {
		chargingType = port.Type
	}
	power := port.Power
	if power <= 0 {
		power = estimator.ChargerPower(chargingType)
	}
	payment := req.PaymentMethod
	if payment == "" {
		payment = defaultPayment
	}

	estimate := estimator.EstimateSlotDurationWithCapacity(capacity, req.BatteryStart, req.BatteryTarget, chargingType)
	now := s.now()

	sess := &models.ChargingSession{
		ID:                  uuid.NewString(),
		UserID:              req.UserID,
		StationID:           station.ID,
		PortID:              port.ID,
		ChargingType:        chargingType,
		PaymentMethod:       payment,
		VehicleType:         vehicleType,
		BatteryCapacityKwh:  capacity,
		ChargerPowerKw:      power,
		Status:              state.StatePending,
		BatteryStart:        req.BatteryStart,
		BatteryTarget:       req.BatteryTarget,
		BatteryCurrent:      req.BatteryStart,
		StartTime:           now,
		EstimatedCompletion: now.Add(time.Duration(estimate.EstimatedChargingMinutes) * time.Minute),
	}

	if err := s.stations.ReservePort(ctx, station.ID, port.ID); err != nil {
		if errors.Is(err, repository.ErrPortTaken) {
			return nil, ErrPortUnavailable
		}
		return nil, fmt.Errorf("reserve port: %w", err)
	}

	machine := s.stateManager.GetOrCreate(sess.ID, state.StatePending)
	if err := machine.Trigger(state.EventStart); err != nil {
		s.stateManager.Remove(sess.ID)
		s.releasePort(ctx, sess)
		return nil, err
	}
	sess.Status = machine.CurrentState()

	if err := s.sessions.Create(ctx, sess); err != nil {
		s.stateManager.Remove(sess.ID)
		s.releasePort(ctx, sess)
		if errors.Is(err, repository.ErrActiveExists) {
			return nil, ErrActiveSession
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	cp := *sess
	if s.launch(sess) {
		s.metrics.SessionStarted()
	}

	s.logger.Info("Charging session started",
		zap.String("session_id", cp.ID),
		zap.Int64("user_id", cp.UserID),
		zap.Int64("station_id", cp.StationID),
		zap.String("port_id", cp.PortID),
		zap.Float64("capacity_kwh", capacity),
		zap.Float64("power_kw", power),
	)

	return &cp, nil
}

// StopSession 用户结束充电
func (s *ChargingService) StopSession(ctx context.Context, id string) (*SessionResult, error) {
	s.mu.RLock()
	r, ok := s.runners[id]
	s.mu.RUnlock()

	if ok {
		if !r.stopping.CompareAndSwap(false, true) {
			return nil, ErrSessionNotActive
		}
		close(r.stopReq)
		select {
		case <-r.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if r.result == nil {
			return nil, ErrSessionNotActive
		}
		return r.result, nil
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Active() {
		return nil, ErrSessionNotActive
	}

	// 服务未在模拟该会话（例如尚未恢复），直接结束
	s.stateManager.GetOrCreate(sess.ID, sess.Status)
	result, err := s.finalize(ctx, sess, state.EventStop)
	if err != nil {
		return nil, err
	}
	s.publisher.BroadcastSessionComplete(sess.ID, result)
	return result, nil
}

// GetSession 获取会话，进行中的会话返回内存中的最新快照
func (s *ChargingService) GetSession(ctx context.Context, id string) (*models.ChargingSession, error) {
	s.mu.RLock()
	r, ok := s.runners[id]
	s.mu.RUnlock()
	if ok {
		return r.snapshot(), nil
	}
	return s.sessions.GetByID(ctx, id)
}

// ActiveStates 进行中会话的状态，sessionID 非空时只返回该会话
func (s *ChargingService) ActiveStates(sessionID string) map[string]*state.SessionState {
	all := s.stateManager.GetAllStates()
	if sessionID == "" {
		return all
	}
	filtered := make(map[string]*state.SessionState, 1)
	if st, ok := all[sessionID]; ok {
		filtered[sessionID] = st
	}
	return filtered
}

// launch 启动会话模拟协程，服务已停止时不启动，会话留待下次 Start 恢复
func (s *ChargingService) launch(sess *models.ChargingSession) bool {
	r := &runner{
		session: sess,
		stopReq: make(chan struct{}),
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.runners[sess.ID] = r
	s.wg.Add(1)
	go s.simulate(r, s.stopCh)
	return true
}

// simulate 按 SimTick 推进电量，每个 tick 相当于 SimTick*SimSpeedup 的充电时间
func (s *ChargingService) simulate(r *runner, stopCh <-chan struct{}) {
	defer s.wg.Done()
	defer close(r.done)

	ticker := time.NewTicker(s.cfg.SimTick)
	defer ticker.Stop()

	simulated := time.Duration(float64(s.cfg.SimTick) * s.cfg.SimSpeedup)
	ctx := context.Background()

	for {
		select {
		case <-stopCh:
			s.mu.Lock()
			delete(s.runners, r.session.ID)
			s.mu.Unlock()
			return

		case <-r.stopReq:
			s.finish(ctx, r, state.EventStop)
			return

		case <-ticker.C:
			r.mu.Lock()
			reached := advance(r.session, simulated)
			update := toUpdate(r.session)
			snapshot := *r.session
			r.mu.Unlock()

			if reached {
				// 用户同时请求停止时以完成为准
				r.stopping.Store(true)
				s.finish(ctx, r, state.EventComplete)
				return
			}

			if machine, ok := s.stateManager.Get(snapshot.ID); ok {
				machine.UpdateState(func(st *state.SessionState) {
					st.BatteryCurrent = snapshot.BatteryCurrent
					st.Progress = snapshot.Progress
					st.EnergyKwh = snapshot.EnergyDeliveredKwh
					st.ElapsedMin = snapshot.DurationMin
				})
			}
			if err := s.sessions.UpdateProgress(ctx, &snapshot); err != nil {
				s.logger.Warn("Failed to persist session progress", zap.String("session_id", snapshot.ID), zap.Error(err))
			}
			s.publisher.BroadcastSessionUpdate(snapshot.ID, update)
		}
	}
}

// finish 结束会话并移除模拟协程
func (s *ChargingService) finish(ctx context.Context, r *runner, event string) {
	sess := r.snapshot()
	result, err := s.finalize(ctx, sess, event)
	if err != nil {
		s.logger.Error("Failed to finalize session", zap.String("session_id", sess.ID), zap.Error(err))
	}

	r.mu.Lock()
	if result != nil {
		r.session = result.Session
	}
	r.result = result
	r.mu.Unlock()

	s.mu.Lock()
	delete(s.runners, sess.ID)
	s.mu.Unlock()

	if result != nil {
		s.publisher.BroadcastSessionComplete(sess.ID, result)
	}
}

// finalize 结算费用、释放端口并记录交易
func (s *ChargingService) finalize(ctx context.Context, sess *models.ChargingSession, event string) (*SessionResult, error) {
	machine := s.stateManager.GetOrCreate(sess.ID, sess.Status)
	defer s.stateManager.Remove(sess.ID)

	station, err := s.stations.GetByID(ctx, sess.StationID)
	if err != nil {
		event = state.EventFail
	}
	if err := machine.Trigger(event); err != nil {
		if machine.Terminal() {
			return nil, ErrSessionNotActive
		}
		return nil, err
	}

	end := s.now()
	sess.Status = machine.CurrentState()
	sess.EndTime = &end
	sess.EnergyDeliveredKwh = estimator.Round(sess.EnergyBetween(sess.BatteryStart, sess.BatteryCurrent), 1)

	var breakdown *estimator.CostBreakdown
	cost := 0.0
	if station != nil {
		tariff := station.Pricing.TariffFor(sess.ChargingType)
		peakStart, peakEnd := station.PeakWindow(s.cfg.DefaultPeakStart, s.cfg.DefaultPeakEnd)
		b := estimator.EstimateCostWith(s.currency, estimator.CostInput{
			EnergyKwh:       sess.EnergyDeliveredKwh,
			BasePricePerKwh: tariff.Base,
			PeakPricePerKwh: tariff.Peak,
			CurrentHour:     sess.StartTime.Hour(),
			DurationMinutes: sess.DurationMin,
			PeakStartHour:   peakStart,
			PeakEndHour:     peakEnd,
		})
		breakdown = &b
		cost = b.TotalCost
	}
	sess.Cost = &cost

	if err := s.sessions.Complete(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrAlreadyEnded) {
			return nil, ErrSessionNotActive
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}
	s.releasePort(ctx, sess)

	if cost > 0 {
		sessionID := sess.ID
		tx := &models.Transaction{
			UserID:        sess.UserID,
			SessionID:     &sessionID,
			Amount:        cost,
			Type:          models.TransactionCharging,
			PaymentMethod: sess.PaymentMethod,
			Description:   fmt.Sprintf("Charging at %s (%.1f kWh)", station.Name, sess.EnergyDeliveredKwh),
			CreatedAt:     end,
		}
		if err := s.transactions.Create(ctx, tx); err != nil {
			s.logger.Error("Failed to record transaction", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	s.metrics.SessionFinished(sess.Status, sess.EnergyDeliveredKwh)

	s.logger.Info("Charging session finished",
		zap.String("session_id", sess.ID),
		zap.String("status", sess.Status),
		zap.Float64("energy_kwh", sess.EnergyDeliveredKwh),
		zap.String("cost", s.currency.Format(cost)),
	)
	return &SessionResult{Session: sess, Cost: breakdown}, nil
}

func (s *ChargingService) releasePort(ctx context.Context, sess *models.ChargingSession) {
	if err := s.stations.UpdatePortStatus(ctx, sess.StationID, sess.PortID, models.StatusAvailable); err != nil {
		s.logger.Warn("Failed to release port",
			zap.Int64("station_id", sess.StationID),
			zap.String("port_id", sess.PortID),
			zap.Error(err),
		)
	}
}

// onStateChange 状态变化回调
func (s *ChargingService) onStateChange(sessionID string, from, to string) {
	s.logger.Debug("Session state changed",
		zap.String("session_id", sessionID),
		zap.String("from", from),
		zap.String("to", to),
	)
}

// advance 推进一个模拟步长，返回是否达到目标电量
func advance(sess *models.ChargingSession, step time.Duration) bool {
	if sess.BatteryCapacityKwh <= 0 {
		sess.BatteryCurrent = sess.BatteryTarget
	} else {
		gained := sess.ChargerPowerKw * chargingEfficiency * step.Hours() / sess.BatteryCapacityKwh * 100
		sess.BatteryCurrent += gained
	}
	sess.DurationMin += step.Minutes()

	reached := sess.BatteryCurrent >= sess.BatteryTarget
	if reached {
		sess.BatteryCurrent = sess.BatteryTarget
	}

	sess.Progress = estimator.Round((sess.BatteryCurrent-sess.BatteryStart)/(sess.BatteryTarget-sess.BatteryStart)*100, 1)
	sess.EnergyDeliveredKwh = estimator.Round(sess.EnergyBetween(sess.BatteryStart, sess.BatteryCurrent), 1)
	return reached
}

func toUpdate(sess *models.ChargingSession) SessionUpdate {
	return SessionUpdate{
		SessionID:           sess.ID,
		Status:              sess.Status,
		BatteryCurrent:      estimator.Round(sess.BatteryCurrent, 1),
		Progress:            sess.Progress,
		EnergyDeliveredKwh:  sess.EnergyDeliveredKwh,
		DurationMin:         estimator.Round(sess.DurationMin, 1),
		EstimatedCompletion: sess.EstimatedCompletion,
	}
}
