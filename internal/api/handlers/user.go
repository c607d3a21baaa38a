package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListVehicles 获取用户车辆
func (h *Handler) ListVehicles(c *gin.Context) {
	userID, ok := paramID(c, "user")
	if !ok {
		return
	}

	vehicles, err := h.users.Vehicles(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Vehicles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

// ListSessions 获取会话历史
func (h *Handler) ListSessions(c *gin.Context) {
	userID, ok := paramID(c, "user")
	if !ok {
		return
	}
	page, perPage, offset := pagination(c)

	sessions, total, err := h.users.Sessions(c.Request.Context(), userID, perPage, offset)
	if err != nil {
		h.respondError(c, err, "Sessions")
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

// GetUserStats 获取用户统计
func (h *Handler) GetUserStats(c *gin.Context) {
	userID, ok := paramID(c, "user")
	if !ok {
		return
	}

	stats, err := h.users.Stats(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// ListTransactions 获取交易记录
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := paramID(c, "user")
	if !ok {
		return
	}
	page, perPage, offset := pagination(c)

	txs, err := h.users.Transactions(c.Request.Context(), userID, perPage, offset)
	if err != nil {
		h.respondError(c, err, "Transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": txs,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
		},
	})
}
