package service

import "math"

const earthRadiusKm = 6371.0

// 未提供定位时的默认坐标（旧金山）
const (
	DefaultLatitude  = 37.7749
	DefaultLongitude = -122.4194
)

// haversineKm 两点间球面距离 (km)
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
