package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/evcharge/internal/models"
)

// StationRepository 充电站数据仓库
type StationRepository struct {
	db *DB
}

// NewStationRepository 创建充电站仓库
func NewStationRepository(db *DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `id, name, city, nearby_landmark, address, latitude, longitude, operator_id, status, rating,
	total_reviews, amenities, operating_hours, ports, pricing, peak_start, peak_end, created_at, updated_at`

// Create 创建充电站
func (r *StationRepository) Create(ctx context.Context, s *models.Station) error {
	query := `
		INSERT INTO stations (name, city, nearby_landmark, address, latitude, longitude, operator_id, status,
			amenities, operating_hours, ports, pricing, peak_start, peak_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	now := time.Now()
	if s.Status == "" {
		s.Status = models.StatusAvailable
	}
	if s.Amenities == nil {
		s.Amenities = []string{}
	}
	s.Address = models.FormatDisplayAddress(s.City, s.NearbyLandmark)

	var peakStart, peakEnd *int
	if s.PeakHours != nil {
		peakStart, peakEnd = &s.PeakHours.Start, &s.PeakHours.End
	}

	err := r.db.Pool.QueryRow(ctx, query,
		s.Name,
		s.City,
		s.NearbyLandmark,
		s.Address,
		s.Coordinates.Lat,
		s.Coordinates.Lng,
		s.OperatorID,
		s.Status,
		s.Amenities,
		s.OperatingHours,
		s.Ports,
		s.Pricing,
		peakStart,
		peakEnd,
		now,
		now,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert station: %w", err)
	}

	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取充电站
func (r *StationRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`

	s, err := scanStation(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get station: %w", notFound(err))
	}
	return s, nil
}

// List 按状态和城市查询充电站
func (r *StationRepository) List(ctx context.Context, filter models.StationFilter) ([]*models.Station, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" && filter.Status != "all" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.City != "" {
		args = append(args, "%"+filter.City+"%")
		conds = append(conds, fmt.Sprintf("city ILIKE $%d", len(args)))
	}

	query := `SELECT ` + stationColumns + ` FROM stations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []*models.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}

	return stations, rows.Err()
}

// UpdatePortStatus 更新单个端口状态
func (r *StationRepository) UpdatePortStatus(ctx context.Context, stationID int64, portID, status string) error {
	query := `
		UPDATE stations SET
			ports = (
				SELECT COALESCE(jsonb_agg(
					CASE WHEN p->>'id' = $2 THEN jsonb_set(p, '{status}', to_jsonb($3::text)) ELSE p END
				), '[]'::jsonb)
				FROM jsonb_array_elements(ports) AS p
			),
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Pool.Exec(ctx, query, stationID, portID, status)
	if err != nil {
		return fmt.Errorf("update port status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update port status: %w", ErrNotFound)
	}
	return nil
}

// ReservePort 仅当端口仍为 available 时将其置为 busy，否则返回 ErrPortTaken
func (r *StationRepository) ReservePort(ctx context.Context, stationID int64, portID string) error {
	query := `
		UPDATE stations SET
			ports = (
				SELECT jsonb_agg(
					CASE WHEN p->>'id' = $2 THEN jsonb_set(p, '{status}', to_jsonb($3::text)) ELSE p END
				)
				FROM jsonb_array_elements(ports) AS p
			),
			updated_at = NOW()
		WHERE id = $1
		  AND ports @> jsonb_build_array(jsonb_build_object('id', $2::text, 'status', $4::text))
	`
	tag, err := r.db.Pool.Exec(ctx, query, stationID, portID, models.StatusBusy, models.StatusAvailable)
	if err != nil {
		return fmt.Errorf("reserve port: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reserve port: %w", ErrPortTaken)
	}
	return nil
}

// scanStation 扫描一行充电站数据
func scanStation(row pgx.Row) (*models.Station, error) {
	s := &models.Station{}
	var peakStart, peakEnd *int
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.City,
		&s.NearbyLandmark,
		&s.Address,
		&s.Coordinates.Lat,
		&s.Coordinates.Lng,
		&s.OperatorID,
		&s.Status,
		&s.Rating,
		&s.TotalReviews,
		&s.Amenities,
		&s.OperatingHours,
		&s.Ports,
		&s.Pricing,
		&peakStart,
		&peakEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if peakStart != nil && peakEnd != nil {
		s.PeakHours = &models.PeakHours{Start: *peakStart, End: *peakEnd}
	}
	return s, nil
}
