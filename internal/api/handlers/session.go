package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/evcharge/internal/service"
)

type startSessionRequest struct {
	UserID        int64   `json:"user_id" validate:"gt=0"`
	StationID     int64   `json:"station_id" validate:"gt=0"`
	PortID        string  `json:"port_id" validate:"required"`
	ChargingType  string  `json:"charging_type" validate:"max=50"`
	PaymentMethod string  `json:"payment_method" validate:"max=50"`
	VehicleID     *int64  `json:"vehicle_id" validate:"omitempty,gt=0"`
	VehicleType   string  `json:"vehicle_type" validate:"max=100"`
	BatteryStart  float64 `json:"battery_start" validate:"gte=0,lt=100"`
	BatteryTarget float64 `json:"battery_target" validate:"gte=0,lte=100"`
}

// StartSession 开始充电
func (h *Handler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if !h.bind(c, &req) {
		return
	}

	sess, err := h.sessions.StartSession(c.Request.Context(), service.StartRequest{
		UserID:        req.UserID,
		StationID:     req.StationID,
		PortID:        req.PortID,
		ChargingType:  req.ChargingType,
		PaymentMethod: req.PaymentMethod,
		VehicleID:     req.VehicleID,
		VehicleType:   req.VehicleType,
		BatteryStart:  req.BatteryStart,
		BatteryTarget: req.BatteryTarget,
	})
	if err != nil {
		h.respondError(c, err, "Station")
		return
	}

	h.logger.Info("Session started via API", zap.String("session_id", sess.ID))
	c.JSON(http.StatusCreated, gin.H{"data": sess})
}

// GetSession 获取会话
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	sess, err := h.sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sess})
}

// StopSession 结束充电
func (h *Handler) StopSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.sessions.StopSession(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func sessionID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return "", false
	}
	return id, true
}
