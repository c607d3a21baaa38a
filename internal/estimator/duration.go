package estimator

import "math"

const (
	chargingEfficiency = 0.85
	efficiencyLoss     = 0.15
	bufferFactor       = 1.1
	bufferShare        = 0.1
	slotGridMinutes    = 15
)

// DurationBreakdown 时长构成（仅用于展示，各项独立取整，不保证加和等于总时长）
type DurationBreakdown struct {
	BaseMinutes                 int `json:"base_time"`
	EfficiencyAdjustmentMinutes int `json:"efficiency_adjustment"`
	BufferMinutes               int `json:"buffer_time"`
}

// DurationEstimate 充电时段预估
type DurationEstimate struct {
	EstimatedChargingMinutes int               `json:"estimated_charging_time"`
	RecommendedSlotMinutes   int               `json:"recommended_slot_duration"`
	EnergyRequiredKwh        float64           `json:"energy_required"`
	BatteryCapacityKwh       float64           `json:"battery_capacity"`
	ChargerPowerKw           float64           `json:"charger_power"`
	Breakdown                DurationBreakdown `json:"breakdown"`
	ConfidencePercent        int               `json:"confidence"`
}

// EstimateSlotDuration 根据车型、当前/目标电量和充电桩类型估算充电时长
func EstimateSlotDuration(vehicleType string, currentBatteryPercent, targetBatteryPercent float64, chargerType string) DurationEstimate {
	return EstimateSlotDurationWithCapacity(BatteryCapacity(vehicleType), currentBatteryPercent, targetBatteryPercent, chargerType)
}

// EstimateSlotDurationWithCapacity 使用已知电池容量估算充电时长
func EstimateSlotDurationWithCapacity(capacityKwh, currentBatteryPercent, targetBatteryPercent float64, chargerType string) DurationEstimate {
	if capacityKwh <= 0 {
		capacityKwh = DefaultBatteryCapacity
	}

	// 目标低于当前时为负值，不做截断
	energyNeeded := capacityKwh * (targetBatteryPercent - currentBatteryPercent) / 100
	power := ChargerPower(chargerType)

	rawHours := energyNeeded / power
	adjustedHours := rawHours / chargingEfficiency

	chargingMinutes := int(math.Ceil(adjustedHours * 60))
	totalMinutes := int(math.Ceil(float64(chargingMinutes) * bufferFactor))
	slotMinutes := int(math.Ceil(float64(totalMinutes)/slotGridMinutes)) * slotGridMinutes

	confidence := 88
	if IsDC(chargerType) {
		confidence = 92
	}

	return DurationEstimate{
		EstimatedChargingMinutes: chargingMinutes,
		RecommendedSlotMinutes:   slotMinutes,
		EnergyRequiredKwh:        roundTo(energyNeeded, 1),
		BatteryCapacityKwh:       capacityKwh,
		ChargerPowerKw:           power,
		Breakdown: DurationBreakdown{
			BaseMinutes:                 int(roundHalfUp(rawHours * 60)),
			EfficiencyAdjustmentMinutes: int(roundHalfUp(rawHours * 60 * efficiencyLoss)),
			BufferMinutes:               int(roundHalfUp(float64(chargingMinutes) * bufferShare)),
		},
		ConfidencePercent: confidence,
	}
}
