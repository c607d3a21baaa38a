package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/langchou/evcharge/internal/config"
	"github.com/langchou/evcharge/internal/estimator"
	"github.com/langchou/evcharge/internal/metrics"
	"github.com/langchou/evcharge/internal/models"
)

// 排序方式
const (
	SortByDistance = "distance"
	SortByRating   = "rating"
)

// StationQuery 充电站列表查询
type StationQuery struct {
	Status        string
	City          string
	ChargingType  string
	Lat           float64
	Lng           float64
	MaxDistanceKm float64 // 0 表示不限
	SortBy        string
}

// StationView 充电站及距离、端口占用
type StationView struct {
	*models.Station
	DistanceKm   *float64                `json:"distance_km,omitempty"`
	Availability models.PortAvailability `json:"availability"`
}

// InsightsRequest 站点充电建议参数
type InsightsRequest struct {
	VehicleID      *int64
	VehicleType    string
	CurrentBattery float64
	TargetBattery  float64
	QueueLength    int
}

// StationService 充电站查询服务
type StationService struct {
	cfg      *config.Config
	stations StationStore
	vehicles VehicleStore
	sessions StationSessionStore
	metrics  *metrics.Recorder
}

// NewStationService 创建充电站服务
func NewStationService(cfg *config.Config, stations StationStore, vehicles VehicleStore, sessions StationSessionStore, m *metrics.Recorder) *StationService {
	return &StationService{
		cfg:      cfg,
		stations: stations,
		vehicles: vehicles,
		sessions: sessions,
		metrics:  m,
	}
}

// List 查询充电站，状态和城市在存储层过滤，其余条件在内存中处理
func (s *StationService) List(ctx context.Context, q StationQuery) ([]StationView, error) {
	stations, err := s.stations.List(ctx, models.StationFilter{Status: q.Status, City: q.City})
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	return FilterStations(stations, q), nil
}

// Sessions 充电站的会话记录及总数
func (s *StationService) Sessions(ctx context.Context, stationID int64, limit, offset int) ([]*models.ChargingSession, int64, error) {
	if _, err := s.stations.GetByID(ctx, stationID); err != nil {
		return nil, 0, err
	}
	sessions, err := s.sessions.ListByStationID(ctx, stationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list station sessions: %w", err)
	}
	total, err := s.sessions.CountByStationID(ctx, stationID)
	if err != nil {
		return nil, 0, fmt.Errorf("count station sessions: %w", err)
	}
	return sessions, total, nil
}

// Get 获取充电站详情
func (s *StationService) Get(ctx context.Context, id int64) (*StationView, error) {
	st, err := s.stations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StationView{Station: st, Availability: st.Availability()}, nil
}

// Insights 结合站点负载给出推荐、时长和等待时间
func (s *StationService) Insights(ctx context.Context, stationID int64, req InsightsRequest, now time.Time) (*estimator.ChargingInsights, error) {
	st, err := s.stations.GetByID(ctx, stationID)
	if err != nil {
		return nil, err
	}

	vehicleType := req.VehicleType
	var capacity float64
	if req.VehicleID != nil {
		v, err := s.vehicles.GetByID(ctx, *req.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("get vehicle: %w", err)
		}
		vehicleType = v.VehicleType()
		capacity = v.BatteryCapacityKwh
	}

	avail := st.Availability()
	total := avail.Total
	if total == 0 {
		total = s.cfg.DefaultTotalPorts
	}

	insights := estimator.Insights(vehicleType, capacity, req.CurrentBattery, req.TargetBattery, estimator.StationLoad{
		StationID:   strconv.FormatInt(st.ID, 10),
		QueueLength: req.QueueLength,
		BusyPorts:   avail.Busy,
		TotalPorts:  total,
	}, now)

	s.metrics.ObserveEstimate("insights")
	s.metrics.ObserveWait(insights.WaitTime.EstimatedWaitMinutes)
	return &insights, nil
}

// FilterStations 按充电类型、距离过滤并排序
func FilterStations(stations []*models.Station, q StationQuery) []StationView {
	lat, lng := q.Lat, q.Lng
	if lat == 0 && lng == 0 {
		lat, lng = DefaultLatitude, DefaultLongitude
	}
	chargingType := strings.ToLower(strings.TrimSpace(q.ChargingType))

	views := make([]StationView, 0, len(stations))
	for _, st := range stations {
		if chargingType != "" && !hasPortType(st, chargingType) {
			continue
		}

		view := StationView{Station: st, Availability: st.Availability()}
		if st.Coordinates.Valid() {
			d := estimator.Round(haversineKm(lat, lng, st.Coordinates.Lat, st.Coordinates.Lng), 2)
			if q.MaxDistanceKm > 0 && d > q.MaxDistanceKm {
				continue
			}
			view.DistanceKm = &d
		}
		views = append(views, view)
	}

	switch q.SortBy {
	case SortByDistance:
		sort.SliceStable(views, func(i, j int) bool {
			a, b := views[i].DistanceKm, views[j].DistanceKm
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return *a < *b
			}
		})
	case SortByRating:
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].Rating > views[j].Rating
		})
	}

	return views
}

func hasPortType(st *models.Station, chargingType string) bool {
	for _, p := range st.Ports {
		if strings.Contains(strings.ToLower(p.Type), chargingType) {
			return true
		}
	}
	return false
}
