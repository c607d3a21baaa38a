package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/langchou/evcharge/internal/estimator"
	"github.com/langchou/evcharge/internal/metrics"
	"github.com/langchou/evcharge/internal/models"
	"github.com/langchou/evcharge/internal/service"
	"github.com/langchou/evcharge/internal/state"
	"github.com/langchou/evcharge/pkg/currency"
	"github.com/langchou/evcharge/pkg/ws"
)

// StationService 充电站查询
type StationService interface {
	List(ctx context.Context, q service.StationQuery) ([]service.StationView, error)
	Get(ctx context.Context, id int64) (*service.StationView, error)
	Insights(ctx context.Context, stationID int64, req service.InsightsRequest, now time.Time) (*estimator.ChargingInsights, error)
	Sessions(ctx context.Context, stationID int64, limit, offset int) ([]*models.ChargingSession, int64, error)
}

// SessionService 充电会话
type SessionService interface {
	StartSession(ctx context.Context, req service.StartRequest) (*models.ChargingSession, error)
	StopSession(ctx context.Context, id string) (*service.SessionResult, error)
	GetSession(ctx context.Context, id string) (*models.ChargingSession, error)
	ActiveStates(sessionID string) map[string]*state.SessionState
}

// UserService 用户数据
type UserService interface {
	Vehicles(ctx context.Context, userID int64) ([]*models.Vehicle, error)
	Sessions(ctx context.Context, userID int64, limit, offset int) ([]*models.ChargingSession, int64, error)
	Transactions(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error)
	Stats(ctx context.Context, userID int64) (*models.UserStats, error)
}

// Handler HTTP 处理器
type Handler struct {
	logger   *zap.Logger
	stations StationService
	sessions SessionService
	users    UserService
	wsHub    *ws.Hub
	metrics  *metrics.Recorder
	currency *currency.Formatter
	validate *validator.Validate
	upgrader websocket.Upgrader

	now func() time.Time
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	stations StationService,
	sessions SessionService,
	users UserService,
	wsHub *ws.Hub,
	m *metrics.Recorder,
	cur *currency.Formatter,
) *Handler {
	if cur == nil {
		cur = currency.Default
	}
	return &Handler{
		logger:   logger,
		stations: stations,
		sessions: sessions,
		users:    users,
		wsHub:    wsHub,
		metrics:  m,
		currency: cur,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
		now: time.Now,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// 估算
		api.POST("/estimates/recommendation", h.Recommend)
		api.POST("/estimates/slot-duration", h.EstimateSlotDuration)
		api.POST("/estimates/wait-time", h.EstimateWaitTime)
		api.POST("/estimates/cost", h.EstimateCost)

		// 充电站
		api.GET("/stations", h.ListStations)
		api.GET("/stations/:id", h.GetStation)
		api.GET("/stations/:id/insights", h.GetStationInsights)
		api.GET("/stations/:id/sessions", h.ListStationSessions)

		// 充电会话
		api.POST("/sessions", h.StartSession)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/stop", h.StopSession)

		// 用户
		api.GET("/users/:id/vehicles", h.ListVehicles)
		api.GET("/users/:id/sessions", h.ListSessions)
		api.GET("/users/:id/stats", h.GetUserStats)
		api.GET("/users/:id/transactions", h.ListTransactions)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HandleWebSocket WebSocket 处理，?session=<id> 只订阅单个会话
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn, c.Query("session"))
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
