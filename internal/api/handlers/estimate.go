package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/evcharge/internal/estimator"
)

type recommendationRequest struct {
	BatteryPercent       float64 `json:"battery_percent" validate:"gte=0,lte=100"`
	TimeAvailableMinutes float64 `json:"time_available" validate:"gte=0"`
	Urgency              string  `json:"urgency" validate:"omitempty,oneof=normal high"`
}

type slotDurationRequest struct {
	VehicleType        string  `json:"vehicle_type"`
	BatteryCapacityKwh float64 `json:"battery_capacity" validate:"gte=0"`
	CurrentBattery     float64 `json:"current_battery" validate:"gte=0,lte=100"`
	TargetBattery      float64 `json:"target_battery" validate:"gte=0,lte=100"`
	ChargerType        string  `json:"charger_type"`
}

type waitTimeRequest struct {
	StationID   string `json:"station_id"`
	QueueLength int    `json:"queue_length" validate:"gte=0"`
	BusyPorts   int    `json:"busy_ports" validate:"gte=0"`
	TotalPorts  int    `json:"total_ports" validate:"gt=0"`
	Hour        *int   `json:"hour" validate:"omitempty,gte=0,lte=23"`
}

type costRequest struct {
	EnergyKwh       float64  `json:"energy_kwh" validate:"gte=0"`
	BasePrice       float64  `json:"base_price" validate:"gte=0"`
	PeakPrice       float64  `json:"peak_price" validate:"gte=0"`
	Hour            *int     `json:"hour" validate:"omitempty,gte=0,lte=23"`
	DurationMinutes *float64 `json:"duration_minutes" validate:"omitempty,gt=0"`
	PeakStart       *int     `json:"peak_start" validate:"omitempty,gte=0,lte=23"`
	PeakEnd         *int     `json:"peak_end" validate:"omitempty,gte=0,lte=23"`
}

type costResponse struct {
	estimator.CostBreakdown
	Currency       string `json:"currency"`
	FormattedTotal string `json:"formatted_total"`
}

// Recommend 推荐充电桩类型
func (h *Handler) Recommend(c *gin.Context) {
	var req recommendationRequest
	if !h.bind(c, &req) {
		return
	}

	result := estimator.Recommend(req.BatteryPercent, req.TimeAvailableMinutes, req.Urgency)
	h.metrics.ObserveEstimate("recommendation")

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// EstimateSlotDuration 估算充电时长
func (h *Handler) EstimateSlotDuration(c *gin.Context) {
	var req slotDurationRequest
	if !h.bind(c, &req) {
		return
	}

	var result estimator.DurationEstimate
	if req.BatteryCapacityKwh > 0 {
		result = estimator.EstimateSlotDurationWithCapacity(req.BatteryCapacityKwh, req.CurrentBattery, req.TargetBattery, req.ChargerType)
	} else {
		result = estimator.EstimateSlotDuration(req.VehicleType, req.CurrentBattery, req.TargetBattery, req.ChargerType)
	}
	h.metrics.ObserveEstimate("slot_duration")

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// EstimateWaitTime 估算排队等待时间，hour 缺省为当前小时
func (h *Handler) EstimateWaitTime(c *gin.Context) {
	var req waitTimeRequest
	if !h.bind(c, &req) {
		return
	}

	hour := h.now().Hour()
	if req.Hour != nil {
		hour = *req.Hour
	}

	result := estimator.EstimateWaitTime(estimator.WaitInput{
		StationID:          req.StationID,
		CurrentQueueLength: req.QueueLength,
		BusyPorts:          req.BusyPorts,
		TotalPorts:         req.TotalPorts,
		CurrentHour:        hour,
	})
	h.metrics.ObserveWait(result.EstimatedWaitMinutes)

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// EstimateCost 估算峰谷电费，duration_minutes 缺省为 60
func (h *Handler) EstimateCost(c *gin.Context) {
	var req costRequest
	if !h.bind(c, &req) {
		return
	}

	in := estimator.CostInput{
		EnergyKwh:       req.EnergyKwh,
		BasePricePerKwh: req.BasePrice,
		PeakPricePerKwh: req.PeakPrice,
		CurrentHour:     h.now().Hour(),
		DurationMinutes: estimator.DefaultDurationMinutes,
		PeakStartHour:   estimator.DefaultPeakStartHour,
		PeakEndHour:     estimator.DefaultPeakEndHour,
	}
	if req.DurationMinutes != nil {
		in.DurationMinutes = *req.DurationMinutes
	}
	if req.Hour != nil {
		in.CurrentHour = *req.Hour
	}
	if req.PeakStart != nil {
		in.PeakStartHour = *req.PeakStart
	}
	if req.PeakEnd != nil {
		in.PeakEndHour = *req.PeakEnd
	}

	result := estimator.EstimateCostWith(h.currency, in)
	h.metrics.ObserveEstimate("cost")

	c.JSON(http.StatusOK, gin.H{"data": costResponse{
		CostBreakdown:  result,
		Currency:       h.currency.Code(),
		FormattedTotal: h.currency.Format(result.TotalCost),
	}})
}
