package models

import (
	"strings"
	"time"
)

// Vehicle 用户车辆
type Vehicle struct {
	ID                 int64     `json:"id" db:"id"`
	UserID             int64     `json:"user_id" db:"user_id"`
	Make               string    `json:"make" db:"make"`
	Model              string    `json:"model" db:"model"`
	BatteryCapacityKwh float64   `json:"battery_capacity" db:"battery_capacity_kwh"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// VehicleType 车型名称 "品牌 型号"，用于查询电池容量表
func (v *Vehicle) VehicleType() string {
	return strings.TrimSpace(v.Make + " " + v.Model)
}
