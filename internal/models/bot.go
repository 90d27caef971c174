package models

import "time"

// Статусы бота
const (
	BotStatusActive  = "active"
	BotStatusPaused  = "paused"
	BotStatusStopped = "stopped"
	BotStatusError   = "error"
)

// TradingBot представляет торгового бота, привязанного к одному аккаунту.
//
// TradingMode наследуется от аккаунта в момент создания. Параметры риска
// (RiskPerTrade, StopLoss, TakeProfit, MaxOpenTrades) рассчитываются из
// каталога стратегий с учётом риск-множителя.
type TradingBot struct {
	ID            int       `json:"id" db:"id"`
	AccountID     int       `json:"account_id" db:"account_id"`
	Name          string    `json:"name" db:"name"`
	Strategy      string    `json:"strategy" db:"strategy"`
	TradingPairs  []string  `json:"trading_pairs" db:"trading_pairs"` // хранится как JSON
	RiskLevel     string    `json:"risk_level" db:"risk_level"`
	TradingMode   string    `json:"trading_mode" db:"trading_mode"` // наследуется от аккаунта
	RiskPerTrade  float64   `json:"risk_per_trade" db:"risk_per_trade"` // процент
	StopLoss      float64   `json:"stop_loss" db:"stop_loss"`           // процент
	TakeProfit    float64   `json:"take_profit" db:"take_profit"`       // процент
	MaxOpenTrades int       `json:"max_open_trades" db:"max_open_trades"`
	Status        string    `json:"status" db:"status"` // active, paused, stopped, error
	WinRate       float64   `json:"win_rate" db:"win_rate"`
	TotalTrades   int       `json:"total_trades" db:"total_trades"`
	ProfitLoss    float64   `json:"profit_loss" db:"profit_loss"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// IsRunning возвращает true, если бот активен
func (b *TradingBot) IsRunning() bool {
	return b.Status == BotStatusActive
}

// IsValidBotStatus проверяет корректность статуса бота
func IsValidBotStatus(status string) bool {
	switch status {
	case BotStatusActive, BotStatusPaused, BotStatusStopped, BotStatusError:
		return true
	}
	return false
}
