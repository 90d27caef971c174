package models

import "time"

// Типы записей журнала
const (
	LogTypeInfo    = "info"
	LogTypeWarning = "warning"
	LogTypeError   = "error"
	LogTypeTrade   = "trade"
)

// Источники записей журнала (операция, породившая запись)
const (
	LogSourceSync        = "sync"
	LogSourceConnection  = "connection"
	LogSourceTradingMode = "trading_mode"
	LogSourceOrder       = "order"
	LogSourceBot         = "bot"
	LogSourceCredentials = "credentials"
)

// TradingLog - append-only запись аудита.
//
// Пишется каждой операцией, меняющей состояние аккаунта или бота.
// Приложение никогда не изменяет и не удаляет существующие записи.
type TradingLog struct {
	ID        int       `json:"id" db:"id"`
	AccountID int       `json:"account_id" db:"account_id"`
	BotID     *int      `json:"bot_id,omitempty" db:"bot_id"`
	Type      string    `json:"type" db:"type"`     // info, warning, error, trade
	Source    string    `json:"source" db:"source"` // sync, connection, trading_mode, order, bot, credentials
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
