package estimator

import (
	"fmt"
	"math"

	"github.com/langchou/evcharge/pkg/currency"
)

// 默认高峰时段
const (
	DefaultPeakStartHour = 18
	DefaultPeakEndHour   = 21
)

// DefaultDurationMinutes 未指定充电时长时按 60 分钟估算
const DefaultDurationMinutes = 60.0

// CostInput 费用估算输入
type CostInput struct {
	EnergyKwh       float64 `json:"energy_kwh" validate:"gte=0"`
	BasePricePerKwh float64 `json:"base_price" validate:"gte=0"`
	PeakPricePerKwh float64 `json:"peak_price" validate:"gte=0"`
	CurrentHour     int     `json:"hour" validate:"gte=0,lte=23"`
	DurationMinutes float64 `json:"duration_minutes" validate:"gt=0"`
	PeakStartHour   int     `json:"peak_start" validate:"gte=0,lte=23"`
	PeakEndHour     int     `json:"peak_end" validate:"gte=0,lte=23"`
}

// CostBreakdown 峰谷费用拆分
type CostBreakdown struct {
	TotalCost        float64 `json:"total_cost"`
	PeakCost         float64 `json:"peak_cost"`
	OffPeakCost      float64 `json:"off_peak_cost"`
	PeakEnergyKwh    float64 `json:"peak_energy"`
	OffPeakEnergyKwh float64 `json:"off_peak_energy"`
	PeakMinutes      float64 `json:"peak_minutes"`
	OffPeakMinutes   float64 `json:"off_peak_minutes"`
	IsPeakTime       bool    `json:"is_peak_time"`
	SavingTip        string  `json:"saving_tip"`
}

// EstimateCost 使用默认货币格式估算费用
func EstimateCost(in CostInput) CostBreakdown {
	return EstimateCostWith(currency.Default, in)
}

// EstimateCostWith 按峰谷时段拆分电量并计算费用
// 从 CurrentHour 整点开始，持续 DurationMinutes；高峰区间为 [PeakStartHour, PeakEndHour)，支持跨零点
func EstimateCostWith(f *currency.Formatter, in CostInput) CostBreakdown {
	if f == nil {
		f = currency.Default
	}

	window := float64(hoursBetween(in.PeakStartHour, in.PeakEndHour) * 60)
	isPeak := inPeakWindow(in.CurrentHour, in.PeakStartHour, in.PeakEndHour)
	duration := in.DurationMinutes

	var peakMinutes float64
	if isPeak {
		untilOffPeak := float64(hoursBetween(in.CurrentHour, in.PeakEndHour) * 60)
		peakMinutes = math.Min(duration, untilOffPeak)
	} else if window > 0 {
		untilPeak := float64(hoursBetween(in.CurrentHour, in.PeakStartHour) * 60)
		if untilPeak < duration {
			peakMinutes = math.Min(duration-untilPeak, window)
		}
	}
	if peakMinutes < 0 {
		peakMinutes = 0
	}
	offPeakMinutes := duration - peakMinutes

	var peakEnergy, offPeakEnergy float64
	switch {
	case duration > 0:
		peakEnergy = in.EnergyKwh * (peakMinutes / duration)
		offPeakEnergy = in.EnergyKwh * (offPeakMinutes / duration)
	case isPeak:
		peakEnergy = in.EnergyKwh
	default:
		offPeakEnergy = in.EnergyKwh
	}

	peakCost := peakEnergy * in.PeakPricePerKwh
	offPeakCost := offPeakEnergy * in.BasePricePerKwh

	tip := "Great timing! You're charging during off-peak hours."
	if isPeak {
		saving := roundTo(peakEnergy*(in.PeakPricePerKwh-in.BasePricePerKwh), 2)
		tip = fmt.Sprintf("You could save %s by charging during off-peak hours.", f.Format(saving))
	}

	return CostBreakdown{
		TotalCost:        roundTo(peakCost+offPeakCost, 2),
		PeakCost:         roundTo(peakCost, 2),
		OffPeakCost:      roundTo(offPeakCost, 2),
		PeakEnergyKwh:    roundTo(peakEnergy, 2),
		OffPeakEnergyKwh: roundTo(offPeakEnergy, 2),
		PeakMinutes:      peakMinutes,
		OffPeakMinutes:   math.Max(offPeakMinutes, 0),
		IsPeakTime:       isPeak,
		SavingTip:        tip,
	}
}

// inPeakWindow 判断小时是否落在 [start, end) 内
func inPeakWindow(hour, start, end int) bool {
	switch {
	case start < end:
		return hour >= start && hour < end
	case start > end:
		return hour >= start || hour < end
	default:
		return false
	}
}

// hoursBetween 从 from 到 to 经过的小时数 (0-23)
func hoursBetween(from, to int) int {
	return ((to-from)%24 + 24) % 24
}
