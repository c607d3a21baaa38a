package estimator

// 紧急程度
const (
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
)

// 优先级
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// 性价比
const (
	CostEfficiencyLow    = "low"
	CostEfficiencyMedium = "medium"
	CostEfficiencyHigh   = "high"
)

// RecommendationResult 充电桩类型推荐结果
type RecommendationResult struct {
	ChargerType       string `json:"charger_type"`
	Reason            string `json:"reason"`
	ConfidencePercent int    `json:"confidence"`
	CostEfficiency    string `json:"cost_efficiency"`
	Priority          string `json:"priority"`
}

// Recommend 根据电量、可用时间和紧急程度推荐快充或慢充
// 规则按顺序匹配，先命中者生效
func Recommend(batteryPercent, timeAvailableMinutes float64, urgency string) RecommendationResult {
	if urgency == "" {
		urgency = UrgencyNormal
	}

	switch {
	case batteryPercent < 20:
		return RecommendationResult{
			ChargerType:       ChargerFastDC,
			Reason:            "Battery level is critically low. Fast charging recommended for safety.",
			ConfidencePercent: 95,
			CostEfficiency:    CostEfficiencyMedium,
			Priority:          PriorityHigh,
		}
	case batteryPercent < 30:
		return RecommendationResult{
			ChargerType:       ChargerFastDC,
			Reason:            "Battery level is low. Fast charging will get you back on the road quickly.",
			ConfidencePercent: 90,
			CostEfficiency:    CostEfficiencyMedium,
			Priority:          PriorityHigh,
		}
	case batteryPercent < 50 && timeAvailableMinutes < 120:
		return RecommendationResult{
			ChargerType:       ChargerFastDC,
			Reason:            "Limited time available with medium battery. Fast charging is optimal.",
			ConfidencePercent: 85,
			CostEfficiency:    CostEfficiencyMedium,
			Priority:          PriorityMedium,
		}
	case timeAvailableMinutes >= 180:
		return RecommendationResult{
			ChargerType:       ChargerNormalAC,
			Reason:            "You have plenty of time. Normal charging is more cost-effective and better for battery health.",
			ConfidencePercent: 88,
			CostEfficiency:    CostEfficiencyHigh,
			Priority:          PriorityLow,
		}
	case batteryPercent >= 50:
		return RecommendationResult{
			ChargerType:       ChargerNormalAC,
			Reason:            "Battery level is adequate. Normal charging recommended for cost savings.",
			ConfidencePercent: 82,
			CostEfficiency:    CostEfficiencyHigh,
			Priority:          PriorityLow,
		}
	}

	if urgency == UrgencyHigh {
		return RecommendationResult{
			ChargerType:       ChargerFastDC,
			Reason:            "Based on your urgency preference, fast charging is recommended.",
			ConfidencePercent: 75,
			CostEfficiency:    CostEfficiencyMedium,
			Priority:          urgency,
		}
	}

	return RecommendationResult{
		ChargerType:       ChargerNormalAC,
		Reason:            "Normal charging is recommended for balanced cost and time.",
		ConfidencePercent: 75,
		CostEfficiency:    CostEfficiencyHigh,
		Priority:          urgency,
	}
}
