package estimator

import (
	"sort"
	"strings"
)

// 默认值
const (
	DefaultVehicleType      = "default"
	DefaultBatteryCapacity  = 60.0 // kWh
	DefaultChargerPower     = 22.0 // kW
	DefaultHourMultiplier   = 1.0
	DefaultTotalPorts       = 4
	DefaultTimeAvailableMin = 60
)

// 充电桩类型
const (
	ChargerFastDC      = "Fast DC"
	ChargerUltraFastDC = "Ultra Fast DC"
	ChargerNormalAC    = "Normal AC"
	ChargerSlowAC      = "Slow AC"
)

// 车型电池容量 (kWh)
var vehicleCapacities = map[string]float64{
	"Tesla Model 3":       75,
	"Tesla Model Y":       75,
	"Tesla Model S":       100,
	"Tesla Model X":       100,
	"Nissan Leaf":         62,
	"Chevrolet Bolt":      66,
	"Ford Mustang Mach-E": 88,
	"Hyundai Ioniq 5":     77,
	"Volkswagen ID.4":     82,
	"BMW iX3":             80,
	"Audi e-tron":         95,
	"Porsche Taycan":      93,
	DefaultVehicleType:    DefaultBatteryCapacity,
}

// 充电桩功率 (kW)
var chargerPower = map[string]float64{
	ChargerFastDC:      150,
	ChargerUltraFastDC: 350,
	ChargerNormalAC:    22,
	ChargerSlowAC:      7.4,
}

// 各小时需求系数，17-19 点为高峰，凌晨 1-3 点为低谷
var hourMultipliers = [24]float64{
	0.6, 0.5, 0.5, 0.5, 0.6, 0.8, // 0-5
	1.0, 1.2, 1.4, 1.3, 1.1, 1.0, // 6-11
	1.2, 1.3, 1.1, 1.0, 1.2, 1.5, // 12-17
	1.8, 1.7, 1.4, 1.2, 1.0, 0.8, // 18-23
}

// BatteryCapacity 查询车型电池容量，未知车型返回默认值
func BatteryCapacity(vehicleType string) float64 {
	if c, ok := vehicleCapacities[vehicleType]; ok && c > 0 {
		return c
	}
	return DefaultBatteryCapacity
}

// ChargerPower 查询充电桩功率，未知类型返回 22 kW
func ChargerPower(chargerType string) float64 {
	if p, ok := chargerPower[chargerType]; ok && p > 0 {
		return p
	}
	return DefaultChargerPower
}

// HourMultiplier 查询小时需求系数
func HourMultiplier(hour int) float64 {
	if hour < 0 || hour >= len(hourMultipliers) {
		return DefaultHourMultiplier
	}
	return hourMultipliers[hour]
}

// IsDC 是否为直流快充
func IsDC(chargerType string) bool {
	return strings.Contains(chargerType, "DC")
}

// VehicleTypes 已知车型列表（按名称排序）
func VehicleTypes() []string {
	types := make([]string, 0, len(vehicleCapacities))
	for name := range vehicleCapacities {
		if name != DefaultVehicleType {
			types = append(types, name)
		}
	}
	sort.Strings(types)
	return types
}
