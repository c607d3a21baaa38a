package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/evcharge/internal/models"
)

// VehicleRepository 用户车辆仓库
type VehicleRepository struct {
	db *DB
}

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create 创建车辆
func (r *VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (user_id, make, model, battery_capacity_kwh, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now()
	err := r.db.Pool.QueryRow(ctx, query,
		v.UserID,
		v.Make,
		v.Model,
		v.BatteryCapacityKwh,
		now,
		now,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}

	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取车辆
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	query := `
		SELECT id, user_id, make, model, battery_capacity_kwh, created_at, updated_at
		FROM vehicles WHERE id = $1
	`
	v := &models.Vehicle{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.UserID,
		&v.Make,
		&v.Model,
		&v.BatteryCapacityKwh,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get vehicle by id: %w", notFound(err))
	}
	return v, nil
}

// ListByUserID 获取用户车辆列表
func (r *VehicleRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Vehicle, error) {
	query := `
		SELECT id, user_id, make, model, battery_capacity_kwh, created_at, updated_at
		FROM vehicles WHERE user_id = $1 ORDER BY id
	`
	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v := &models.Vehicle{}
		err := rows.Scan(
			&v.ID,
			&v.UserID,
			&v.Make,
			&v.Model,
			&v.BatteryCapacityKwh,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, rows.Err()
}
