package estimator

import "math"

const baseWaitPerVehicleMin = 25.0

// 排队状态
const (
	WaitStatusLow    = "low"
	WaitStatusMedium = "medium"
	WaitStatusHigh   = "high"
)

// WaitInput 排队等待估算输入
type WaitInput struct {
	StationID          string `json:"station_id"`
	CurrentQueueLength int    `json:"queue_length" validate:"gte=0"`
	BusyPorts          int    `json:"busy_ports" validate:"gte=0"`
	TotalPorts         int    `json:"total_ports" validate:"gt=0"`
	CurrentHour        int    `json:"hour" validate:"gte=0,lte=23"`
}

// WaitEstimate 排队等待估算结果
type WaitEstimate struct {
	StationID            string  `json:"station_id,omitempty"`
	EstimatedWaitMinutes int     `json:"estimated_wait_minutes"`
	Status               string  `json:"status"`
	StatusText           string  `json:"status_text"`
	PeakHourFactor       float64 `json:"peak_hour_factor"`
	AvailablePorts       int     `json:"available_ports"`
	ConfidencePercent    int     `json:"confidence"`
	Recommendation       string  `json:"recommendation"`
}

// EstimateWaitTime 根据排队长度、端口占用和时段估算等待时间
func EstimateWaitTime(in WaitInput) WaitEstimate {
	multiplier := HourMultiplier(in.CurrentHour)
	available := in.TotalPorts - in.BusyPorts
	queue := float64(in.CurrentQueueLength)

	var minutes float64
	switch {
	case available > 0 && in.CurrentQueueLength == 0:
		minutes = 0
	case available > 0:
		minutes = math.Ceil(queue * baseWaitPerVehicleMin * (1 / float64(available)) * multiplier / float64(in.TotalPorts))
	default:
		minutes = math.Ceil((queue + 1) * baseWaitPerVehicleMin * multiplier)
	}
	wait := finiteInt(minutes)

	status, text := WaitStatusLow, "No wait expected"
	switch {
	case wait > 30:
		status, text = WaitStatusHigh, "High demand expected"
	case wait > 15:
		status, text = WaitStatusMedium, "Moderate wait expected"
	case wait > 0:
		status, text = WaitStatusLow, "Short wait expected"
	}

	confidence := 75
	if available > 0 {
		confidence = 85
	}

	recommendation := "Good time to charge! Low waiting time expected."
	if wait > 20 {
		recommendation = "Consider booking a slot in advance or trying a nearby station."
	}

	// 端口占用超过总数时按 0 上报
	if available < 0 {
		available = 0
	}

	return WaitEstimate{
		StationID:            in.StationID,
		EstimatedWaitMinutes: wait,
		Status:               status,
		StatusText:           text,
		PeakHourFactor:       multiplier,
		AvailablePorts:       available,
		ConfidencePercent:    confidence,
		Recommendation:       recommendation,
	}
}
