package models

import "time"

// 充电会话状态
const (
	SessionPending   = "pending"
	SessionCharging  = "charging"
	SessionCompleted = "completed"
	SessionStopped   = "stopped"
	SessionFailed    = "failed"
)

// ChargingSession 模拟充电会话
type ChargingSession struct {
	ID                  string     `json:"id" db:"id"`
	UserID              int64      `json:"user_id" db:"user_id"`
	StationID           int64      `json:"station_id" db:"station_id"`
	PortID              string     `json:"port_id" db:"port_id"`
	ChargingType        string     `json:"charging_type" db:"charging_type"`
	PaymentMethod       string     `json:"payment_method" db:"payment_method"`
	VehicleType         string     `json:"vehicle_type" db:"vehicle_type"`
	BatteryCapacityKwh  float64    `json:"battery_capacity" db:"battery_capacity_kwh"`
	ChargerPowerKw      float64    `json:"charger_power" db:"charger_power_kw"`
	Status              string     `json:"status" db:"status"`
	BatteryStart        float64    `json:"battery_start" db:"battery_start"`
	BatteryTarget       float64    `json:"battery_target" db:"battery_target"`
	BatteryCurrent      float64    `json:"battery_current" db:"battery_current"`
	Progress            float64    `json:"progress" db:"progress"` // 0-100
	EnergyDeliveredKwh  float64    `json:"energy_delivered" db:"energy_delivered_kwh"`
	DurationMin         float64    `json:"duration_min" db:"duration_min"`
	Cost                *float64   `json:"cost,omitempty" db:"cost"`
	StartTime           time.Time  `json:"start_time" db:"start_time"`
	EndTime             *time.Time `json:"end_time,omitempty" db:"end_time"`
	EstimatedCompletion time.Time  `json:"estimated_completion" db:"estimated_completion"`
}

// Active 是否进行中
func (s *ChargingSession) Active() bool {
	return s.Status == SessionPending || s.Status == SessionCharging
}

// EnergyBetween 电量区间对应的能量 (kWh)
func (s *ChargingSession) EnergyBetween(fromPercent, toPercent float64) float64 {
	return s.BatteryCapacityKwh * (toPercent - fromPercent) / 100
}
