package estimator

import "time"

// StationLoad 充电站当前负载
type StationLoad struct {
	StationID   string `json:"station_id"`
	QueueLength int    `json:"queue_length"`
	BusyPorts   int    `json:"busy_ports"`
	TotalPorts  int    `json:"total_ports"`
}

// ChargingInsights 一次充电的综合建议
type ChargingInsights struct {
	Recommendation    RecommendationResult `json:"recommendation"`
	Duration          DurationEstimate     `json:"duration"`
	WaitTime          WaitEstimate         `json:"wait_time"`
	OverallConfidence int                  `json:"overall_confidence"`
}

// Insights 依次计算推荐、时长和等待时间
// capacityKwh > 0 时覆盖车型表中的容量
func Insights(vehicleType string, capacityKwh, currentBattery, targetBattery float64, load StationLoad, now time.Time) ChargingInsights {
	rec := Recommend(currentBattery, DefaultTimeAvailableMin, UrgencyNormal)

	if capacityKwh <= 0 {
		capacityKwh = BatteryCapacity(vehicleType)
	}
	duration := EstimateSlotDurationWithCapacity(capacityKwh, currentBattery, targetBattery, rec.ChargerType)

	total := load.TotalPorts
	if total <= 0 {
		total = DefaultTotalPorts
	}
	wait := EstimateWaitTime(WaitInput{
		StationID:          load.StationID,
		CurrentQueueLength: load.QueueLength,
		BusyPorts:          load.BusyPorts,
		TotalPorts:         total,
		CurrentHour:        now.Hour(),
	})

	overall := float64(rec.ConfidencePercent+duration.ConfidencePercent+wait.ConfidencePercent) / 3

	return ChargingInsights{
		Recommendation:    rec,
		Duration:          duration,
		WaitTime:          wait,
		OverallConfidence: int(roundHalfUp(overall)),
	}
}
