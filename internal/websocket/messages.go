package websocket

import (
	"time"

	"tradeboard/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeAccountUpdate - обновление состояния торгового аккаунта
	// Отправляется после каждой успешной синхронизации с брокером
	MessageTypeAccountUpdate MessageType = "accountUpdate"

	// MessageTypeTradeUpdate - изменение сделки (открытие или закрытие)
	// Отправляется при размещении ордера и при закрытии позиции
	MessageTypeTradeUpdate MessageType = "tradeUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// AccountUpdateMessage - сообщение об обновлении аккаунта
//
// Содержит свежие данные после синхронизации:
// - Баланс и equity по данным брокера
// - Время последней синхронизации
//
// Позволяет дашборду обновлять карточку аккаунта без polling
type AccountUpdateMessage struct {
	BaseMessage
	AccountID int                `json:"account_id"`
	Data      *AccountUpdateData `json:"data"`
}

// AccountUpdateData - данные обновления аккаунта
type AccountUpdateData struct {
	// Баланс счёта по данным брокера
	Balance float64 `json:"balance"`

	// Equity (баланс с учётом открытых позиций)
	Equity float64 `json:"equity"`

	// Время синхронизации
	SyncedAt time.Time `json:"synced_at"`
}

// TradeUpdateMessage - сообщение об изменении сделки
//
// Отправляется при открытии сделки (после размещения ордера)
// и при её закрытии (с заполненным pnl и closed_at)
type TradeUpdateMessage struct {
	BaseMessage
	TradeID int           `json:"trade_id"`
	Data    *models.Trade `json:"data"`
}

// NewAccountUpdateMessage создает сообщение обновления аккаунта
func NewAccountUpdateMessage(accountID int, balance, equity float64, syncedAt time.Time) *AccountUpdateMessage {
	return &AccountUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeAccountUpdate,
			Timestamp: time.Now(),
		},
		AccountID: accountID,
		Data: &AccountUpdateData{
			Balance:  balance,
			Equity:   equity,
			SyncedAt: syncedAt,
		},
	}
}

// NewTradeUpdateMessage создает сообщение об изменении сделки
func NewTradeUpdateMessage(trade *models.Trade) *TradeUpdateMessage {
	return &TradeUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTradeUpdate,
			Timestamp: time.Now(),
		},
		TradeID: trade.ID,
		Data:    trade,
	}
}
