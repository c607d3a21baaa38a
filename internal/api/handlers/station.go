package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/langchou/evcharge/internal/service"
)

// ListStations 获取充电站列表
func (h *Handler) ListStations(c *gin.Context) {
	q := service.StationQuery{
		Status:        c.DefaultQuery("status", "all"),
		City:          c.Query("city"),
		ChargingType:  c.Query("type"),
		Lat:           queryFloat(c, "lat", service.DefaultLatitude),
		Lng:           queryFloat(c, "lng", service.DefaultLongitude),
		MaxDistanceKm: queryFloat(c, "max_distance", 0),
		SortBy:        c.Query("sort"),
	}

	stations, err := h.stations.List(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err, "Stations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stations})
}

// GetStation 获取充电站详情
func (h *Handler) GetStation(c *gin.Context) {
	id, ok := paramID(c, "station")
	if !ok {
		return
	}

	station, err := h.stations.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Station")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": station})
}

// GetStationInsights 结合站点负载的充电建议
func (h *Handler) GetStationInsights(c *gin.Context) {
	id, ok := paramID(c, "station")
	if !ok {
		return
	}

	req := service.InsightsRequest{
		VehicleType:    c.Query("vehicle_type"),
		CurrentBattery: queryFloat(c, "current_battery", service.DefaultBatteryStart),
		TargetBattery:  queryFloat(c, "target_battery", service.DefaultBatteryTarget),
		QueueLength:    queryInt(c, "queue_length", 0),
	}
	if v := c.Query("vehicle_id"); v != "" {
		vid, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
			return
		}
		req.VehicleID = &vid
	}
	if req.QueueLength < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "queue_length must be non-negative"})
		return
	}

	insights, err := h.stations.Insights(c.Request.Context(), id, req, h.now())
	if err != nil {
		h.respondError(c, err, "Station")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": insights})
}

// ListStationSessions 运营方查看充电站会话记录
func (h *Handler) ListStationSessions(c *gin.Context) {
	id, ok := paramID(c, "station")
	if !ok {
		return
	}
	page, perPage, offset := pagination(c)

	sessions, total, err := h.stations.Sessions(c.Request.Context(), id, perPage, offset)
	if err != nil {
		h.respondError(c, err, "Station")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": sessions,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}
