package models

import (
	"regexp"
	"strings"
)

// FormatDisplayAddress 生成展示地址 "城市 - 地标"
// 地标已以城市开头（后接 - 或 ,）时直接使用地标；二者相同时只显示城市
func FormatDisplayAddress(city, landmark string) string {
	city = strings.TrimSpace(city)
	landmark = strings.TrimSpace(landmark)

	if city == "" || landmark == "" {
		if city != "" {
			return city
		}
		return landmark
	}

	prefix := regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(city) + `\s*[-,]`)
	if prefix.MatchString(landmark) {
		return landmark
	}
	if strings.EqualFold(landmark, city) {
		return city
	}
	return city + " - " + landmark
}
