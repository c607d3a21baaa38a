package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/evcharge/internal/models"
)

// SessionRepository 充电会话仓库
type SessionRepository struct {
	db *DB
}

// NewSessionRepository 创建会话仓库
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, station_id, port_id, charging_type, payment_method, vehicle_type,
	battery_capacity_kwh, charger_power_kw, status, battery_start, battery_target, battery_current, progress,
	energy_delivered_kwh, duration_min, cost, start_time, end_time, estimated_completion`

// Create 创建充电会话
func (r *SessionRepository) Create(ctx context.Context, s *models.ChargingSession) error {
	query := `
		INSERT INTO charging_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.StationID,
		s.PortID,
		s.ChargingType,
		s.PaymentMethod,
		s.VehicleType,
		s.BatteryCapacityKwh,
		s.ChargerPowerKw,
		s.Status,
		s.BatteryStart,
		s.BatteryTarget,
		s.BatteryCurrent,
		s.Progress,
		s.EnergyDeliveredKwh,
		s.DurationMin,
		s.Cost,
		s.StartTime,
		s.EndTime,
		s.EstimatedCompletion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert charging session: %w", ErrActiveExists)
		}
		return fmt.Errorf("insert charging session: %w", err)
	}
	return nil
}

// UpdateProgress 更新进行中会话的快照
func (r *SessionRepository) UpdateProgress(ctx context.Context, s *models.ChargingSession) error {
	query := `
		UPDATE charging_sessions SET
			status = $2,
			battery_current = $3,
			progress = $4,
			energy_delivered_kwh = $5,
			duration_min = $6
		WHERE id = $1 AND end_time IS NULL
	`
	_, err := r.db.Pool.Exec(ctx, query,
		s.ID,
		s.Status,
		s.BatteryCurrent,
		s.Progress,
		s.EnergyDeliveredKwh,
		s.DurationMin,
	)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	return nil
}

// Complete 结束会话，已结束的会话返回 ErrAlreadyEnded
func (r *SessionRepository) Complete(ctx context.Context, s *models.ChargingSession) error {
	query := `
		UPDATE charging_sessions SET
			status = $2,
			battery_current = $3,
			progress = $4,
			energy_delivered_kwh = $5,
			duration_min = $6,
			cost = $7,
			end_time = $8
		WHERE id = $1 AND end_time IS NULL
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		s.ID,
		s.Status,
		s.BatteryCurrent,
		s.Progress,
		s.EnergyDeliveredKwh,
		s.DurationMin,
		s.Cost,
		s.EndTime,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete session: %w", ErrAlreadyEnded)
	}
	return nil
}

// GetByID 获取会话
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.ChargingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM charging_sessions WHERE id = $1`

	s, err := scanSession(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", notFound(err))
	}
	return s, nil
}

// GetActiveByUserID 获取用户进行中的会话
func (r *SessionRepository) GetActiveByUserID(ctx context.Context, userID int64) (*models.ChargingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM charging_sessions
		WHERE user_id = $1 AND end_time IS NULL ORDER BY start_time DESC LIMIT 1`

	s, err := scanSession(r.db.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", notFound(err))
	}
	return s, nil
}

// ListActive 获取所有进行中的会话（服务重启后恢复模拟）
func (r *SessionRepository) ListActive(ctx context.Context) ([]*models.ChargingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM charging_sessions WHERE end_time IS NULL ORDER BY start_time`
	return r.list(ctx, query)
}

// ListByUserID 获取用户会话列表
func (r *SessionRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.ChargingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM charging_sessions
		WHERE user_id = $1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

// ListByStationID 获取充电站会话列表（运营方视图）
func (r *SessionRepository) ListByStationID(ctx context.Context, stationID int64, limit, offset int) ([]*models.ChargingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM charging_sessions
		WHERE station_id = $1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, stationID, limit, offset)
}

// CountByStationID 统计充电站会话数
func (r *SessionRepository) CountByStationID(ctx context.Context, stationID int64) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM charging_sessions WHERE station_id = $1`, stationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count station sessions: %w", err)
	}
	return count, nil
}

// CountByUserID 统计用户会话数
func (r *SessionRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM charging_sessions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// GetStats 获取用户已结束会话的汇总
func (r *SessionRepository) GetStats(ctx context.Context, userID int64) (totalEnergy, totalCost, avgDuration float64, count int64, err error) {
	query := `
		SELECT COALESCE(SUM(energy_delivered_kwh), 0), COALESCE(SUM(cost), 0), COALESCE(AVG(duration_min), 0), COUNT(*)
		FROM charging_sessions WHERE user_id = $1 AND status IN ('completed', 'stopped')
	`
	err = r.db.Pool.QueryRow(ctx, query, userID).Scan(&totalEnergy, &totalCost, &avgDuration, &count)
	if err != nil {
		err = fmt.Errorf("get session stats: %w", err)
	}
	return
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.ChargingSession, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.ChargingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*models.ChargingSession, error) {
	s := &models.ChargingSession{}
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StationID,
		&s.PortID,
		&s.ChargingType,
		&s.PaymentMethod,
		&s.VehicleType,
		&s.BatteryCapacityKwh,
		&s.ChargerPowerKw,
		&s.Status,
		&s.BatteryStart,
		&s.BatteryTarget,
		&s.BatteryCurrent,
		&s.Progress,
		&s.EnergyDeliveredKwh,
		&s.DurationMin,
		&s.Cost,
		&s.StartTime,
		&s.EndTime,
		&s.EstimatedCompletion,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
