package service

import (
	"context"
	"errors"

	"github.com/langchou/evcharge/internal/models"
)

var (
	// ErrActiveSession 用户已有进行中的会话
	ErrActiveSession = errors.New("user already has an active charging session")
	// ErrPortUnavailable 端口不存在或不可用
	ErrPortUnavailable = errors.New("charging port is not available")
	// ErrSessionNotActive 会话已结束
	ErrSessionNotActive = errors.New("charging session is not active")
	// ErrInvalidBatteryRange 目标电量不高于起始电量
	ErrInvalidBatteryRange = errors.New("invalid battery range")
)

// StationStore 充电站存储
type StationStore interface {
	GetByID(ctx context.Context, id int64) (*models.Station, error)
	List(ctx context.Context, filter models.StationFilter) ([]*models.Station, error)
	UpdatePortStatus(ctx context.Context, stationID int64, portID, status string) error
	ReservePort(ctx context.Context, stationID int64, portID string) error
}

// VehicleStore 车辆存储
type VehicleStore interface {
	GetByID(ctx context.Context, id int64) (*models.Vehicle, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Vehicle, error)
}

// SessionStore 会话存储
type SessionStore interface {
	Create(ctx context.Context, s *models.ChargingSession) error
	UpdateProgress(ctx context.Context, s *models.ChargingSession) error
	Complete(ctx context.Context, s *models.ChargingSession) error
	GetByID(ctx context.Context, id string) (*models.ChargingSession, error)
	GetActiveByUserID(ctx context.Context, userID int64) (*models.ChargingSession, error)
	ListActive(ctx context.Context) ([]*models.ChargingSession, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.ChargingSession, error)
	CountByUserID(ctx context.Context, userID int64) (int64, error)
	GetStats(ctx context.Context, userID int64) (totalEnergy, totalCost, avgDuration float64, count int64, err error)
}

// StationSessionStore 按充电站查询会话
type StationSessionStore interface {
	ListByStationID(ctx context.Context, stationID int64, limit, offset int) ([]*models.ChargingSession, error)
	CountByStationID(ctx context.Context, stationID int64) (int64, error)
}

// TransactionStore 交易存储
type TransactionStore interface {
	Create(ctx context.Context, t *models.Transaction) error
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error)
}

// Publisher 会话推送
type Publisher interface {
	BroadcastSessionUpdate(sessionID string, data interface{})
	BroadcastSessionComplete(sessionID string, data interface{})
}
