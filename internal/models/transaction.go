package models

import "time"

// 交易类型
const (
	TransactionCharging = "charging"
	TransactionTopUp    = "topup"
	TransactionRefund   = "refund"
)

// Transaction 交易记录
type Transaction struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	SessionID     *string   `json:"session_id,omitempty" db:"session_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Type          string    `json:"type" db:"type"`
	PaymentMethod string    `json:"payment_method" db:"payment_method"`
	Description   string    `json:"description" db:"description"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// UserStats 用户充电统计
type UserStats struct {
	TotalEnergyKwh     float64 `json:"total_energy"`
	TotalCost          float64 `json:"total_cost"`
	TotalSessions      int64   `json:"total_sessions"`
	AvgSessionDuration int     `json:"avg_session_duration"`
	CO2SavedKg         float64 `json:"co2_saved"`
}
