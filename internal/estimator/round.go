package estimator

import "math"

// roundHalfUp 0.5 向正无穷方向取整
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// roundTo 保留 n 位小数
func roundTo(x float64, n int) float64 {
	p := math.Pow(10, float64(n))
	return roundHalfUp(x*p) / p
}

func finiteInt(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(x)
}

// Round 保留 places 位小数，0.5 向上取整
func Round(x float64, places int) float64 {
	return roundTo(x, places)
}
