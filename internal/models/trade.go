package models

import "time"

// Стороны сделки
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// Статусы сделки
const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// Trade представляет одну сделку аккаунта.
//
// Создаётся при размещении ордера, при закрытии получает pnl и closed_at,
// после этого запись неизменна.
type Trade struct {
	ID         int        `json:"id" db:"id"`
	AccountID  int        `json:"account_id" db:"account_id"`
	BotID      *int       `json:"bot_id,omitempty" db:"bot_id"`
	Symbol     string     `json:"symbol" db:"symbol"`
	Side       string     `json:"side" db:"side"` // buy, sell
	EntryPrice float64    `json:"entry_price" db:"entry_price"`
	LotSize    float64    `json:"lot_size" db:"lot_size"`
	StopLoss   *float64   `json:"stop_loss,omitempty" db:"stop_loss"`
	TakeProfit *float64   `json:"take_profit,omitempty" db:"take_profit"`
	Status     string     `json:"status" db:"status"` // open, closed
	PnL        *float64   `json:"pnl,omitempty" db:"pnl"` // NULL до закрытия
	OrderID    string     `json:"order_id,omitempty" db:"order_id"` // id ордера на стороне брокера
	ClosedAt   *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// IsOpen возвращает true для незакрытой сделки
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// IsValidTradeSide проверяет корректность стороны сделки
func IsValidTradeSide(side string) bool {
	return side == TradeSideBuy || side == TradeSideSell
}
