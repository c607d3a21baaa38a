package service

import (
	"context"
	"fmt"

	"github.com/langchou/evcharge/internal/estimator"
	"github.com/langchou/evcharge/internal/models"
)

// 每 kWh 电动出行相对燃油车减少的 CO2 (kg)
const co2PerKwh = 0.4

// UserService 用户车辆、历史与统计
type UserService struct {
	vehicles     VehicleStore
	sessions     SessionStore
	transactions TransactionStore
}

// NewUserService 创建用户服务
func NewUserService(vehicles VehicleStore, sessions SessionStore, transactions TransactionStore) *UserService {
	return &UserService{
		vehicles:     vehicles,
		sessions:     sessions,
		transactions: transactions,
	}
}

// Vehicles 用户车辆
func (s *UserService) Vehicles(ctx context.Context, userID int64) ([]*models.Vehicle, error) {
	return s.vehicles.ListByUserID(ctx, userID)
}

// Sessions 分页查询会话历史
func (s *UserService) Sessions(ctx context.Context, userID int64, limit, offset int) ([]*models.ChargingSession, int64, error) {
	sessions, err := s.sessions.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.sessions.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Transactions 交易记录
func (s *UserService) Transactions(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	return s.transactions.ListByUserID(ctx, userID, limit, offset)
}

// Stats 汇总已结束会话
func (s *UserService) Stats(ctx context.Context, userID int64) (*models.UserStats, error) {
	energy, cost, avgDuration, count, err := s.sessions.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	return &models.UserStats{
		TotalEnergyKwh:     estimator.Round(energy, 1),
		TotalCost:          estimator.Round(cost, 2),
		TotalSessions:      count,
		AvgSessionDuration: int(estimator.Round(avgDuration, 0)),
		CO2SavedKg:         estimator.Round(energy*co2PerKwh, 1),
	}, nil
}
