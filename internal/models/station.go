package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// 充电站/端口状态
const (
	StatusAvailable = "available"
	StatusBusy      = "busy"
	StatusOffline   = "offline"
)

// Port 充电端口
type Port struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`  // Fast DC, Normal AC ...
	Power  float64 `json:"power"` // kW
	Status string  `json:"status"`
	Price  float64 `json:"price"` // 每 kWh
}

// IsFast 是否使用快充价格档
func (p Port) IsFast() bool {
	t := strings.ToLower(p.Type)
	return strings.Contains(t, "dc") || strings.Contains(t, "fast")
}

// Ports 端口列表，以 JSONB 存储
type Ports []Port

// Value 实现 driver.Valuer 接口，用于存储到数据库
func (p Ports) Value() (driver.Value, error) {
	if p == nil {
		p = Ports{}
	}
	return json.Marshal(p)
}

// Scan 实现 sql.Scanner 接口，用于从数据库读取
func (p *Ports) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// Find 按 ID 查找端口
func (p Ports) Find(id string) (Port, bool) {
	for _, port := range p {
		if port.ID == id {
			return port, true
		}
	}
	return Port{}, false
}

// Tariff 单档电价
type Tariff struct {
	Base float64 `json:"base"`
	Peak float64 `json:"peak"`
}

// Pricing 慢充/快充两档电价
type Pricing struct {
	Normal Tariff `json:"normal"`
	Fast   Tariff `json:"fast"`
}

// Value 实现 driver.Valuer 接口
func (p Pricing) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan 实现 sql.Scanner 接口
func (p *Pricing) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// TariffFor 根据端口/充电类型选择电价档
func (p Pricing) TariffFor(chargingType string) Tariff {
	if (Port{Type: chargingType}).IsFast() {
		return p.Fast
	}
	return p.Normal
}

// PeakHours 高峰时段 [Start, End)
type PeakHours struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Coordinates 经纬度
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid 是否为有效坐标 (0,0 视为缺失)
func (c Coordinates) Valid() bool {
	return !(c.Lat == 0 && c.Lng == 0)
}

// Station 充电站
type Station struct {
	ID             int64       `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	City           string      `json:"city" db:"city"`
	NearbyLandmark string      `json:"nearby_landmark" db:"nearby_landmark"`
	Address        string      `json:"address" db:"address"`
	Coordinates    Coordinates `json:"coordinates"`
	OperatorID     *int64      `json:"operator_id,omitempty" db:"operator_id"`
	Status         string      `json:"status" db:"status"`
	Rating         float64     `json:"rating" db:"rating"`
	TotalReviews   int         `json:"total_reviews" db:"total_reviews"`
	Amenities      []string    `json:"amenities" db:"amenities"`
	OperatingHours string      `json:"operating_hours" db:"operating_hours"`
	Ports          Ports       `json:"ports" db:"ports"`
	Pricing        Pricing     `json:"pricing" db:"pricing"`
	PeakHours      *PeakHours  `json:"peak_hours,omitempty"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// PortAvailability 端口占用统计
type PortAvailability struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Busy      int `json:"busy"`
	Offline   int `json:"offline"`
}

// Availability 统计端口占用
func (s *Station) Availability() PortAvailability {
	a := PortAvailability{Total: len(s.Ports)}
	for _, p := range s.Ports {
		switch p.Status {
		case StatusBusy:
			a.Busy++
		case StatusOffline:
			a.Offline++
		default:
			a.Available++
		}
	}
	return a
}

// PeakWindow 返回高峰时段，未配置时使用默认值
func (s *Station) PeakWindow(defaultStart, defaultEnd int) (int, int) {
	if s.PeakHours == nil {
		return defaultStart, defaultEnd
	}
	return s.PeakHours.Start, s.PeakHours.End
}

// StationFilter 充电站查询条件
type StationFilter struct {
	Status string
	City   string
}

func scanJSON(value interface{}, dst interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json source %T", value)
	}
}
