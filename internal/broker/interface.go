// Package broker предоставляет унифицированный интерфейс к внешним
// Broker Gateway (Binance REST, мост MetaTrader).
package broker

import (
	"context"
	"errors"
	"time"
)

// Ошибки уровня gateway
var (
	// ErrUnreachable - транспортная ошибка: gateway недоступен.
	// Сервисы используют её для политики simulate-on-failure.
	ErrUnreachable = errors.New("broker gateway unreachable")

	// ErrAuthFailed - gateway достижим, но credentials отклонены
	ErrAuthFailed = errors.New("broker rejected credentials")

	// ErrOrderNotFound - read-back не нашёл ордер по id
	ErrOrderNotFound = errors.New("order not found on broker")

	// ErrPlatformNotSupported - для платформы нет gateway-клиента
	ErrPlatformNotSupported = errors.New("platform has no gateway client")
)

// Credentials - расшифрованные учётные данные для одного вызова.
//
// Передаются явно в каждый метод клиента: клиенты не держат ключей
// и не имеют скрытого мутируемого состояния.
type Credentials struct {
	// Для binance-подобных платформ
	APIKey    string
	SecretKey string

	// Для mt4/mt5 моста
	AccountID int
	Login     string
	Password  string
	Server    string
}

// AccountSnapshot - снимок состояния аккаунта на стороне брокера
type AccountSnapshot struct {
	Balance   float64
	Equity    float64
	Positions []PositionInfo
	FetchedAt time.Time
}

// PositionInfo - открытая позиция в снимке аккаунта
type PositionInfo struct {
	Symbol string
	Side   string
	Size   float64
	Entry  float64
	PnL    float64
}

// Permissions - права API ключа, определяют допуск к реальной торговле
type Permissions struct {
	CanRead     bool
	CanTrade    bool
	CanWithdraw bool // для предупреждения: торговому ключу withdraw не нужен
}

// TradingAllowed - ключ годится для реальной торговли
func (p Permissions) TradingAllowed() bool {
	return p.CanRead && p.CanTrade
}

// OrderRequest - параметры размещаемого ордера
type OrderRequest struct {
	Symbol     string
	Side       string // buy, sell
	Quantity   float64
	StopLoss   float64 // 0 = не задан
	TakeProfit float64 // 0 = не задан
}

// OrderResult - ответ gateway на размещение ордера
type OrderResult struct {
	OrderID   string
	Symbol    string
	Side      string
	Quantity  float64
	AvgPrice  float64
	Status    string
	CreatedAt time.Time
}

// Client - унифицированный клиент Broker Gateway.
//
// Все методы принимают context и Credentials на каждый вызов.
// MirrorTradingMode - best-effort уведомление at-most-once: ошибка
// не означает, что режим не применён локально, и вызывающий код
// не должен полагаться на успех этого вызова.
type Client interface {
	// Platform возвращает тег платформы клиента
	Platform() string

	// Ping выполняет лёгкий авторизованный вызов для проверки credentials
	Ping(ctx context.Context, creds Credentials) error

	// GetAccountSnapshot читает баланс/equity/позиции
	GetAccountSnapshot(ctx context.Context, creds Credentials) (*AccountSnapshot, error)

	// GetPermissions читает права API ключа
	GetPermissions(ctx context.Context, creds Credentials) (*Permissions, error)

	// GetPrice возвращает текущую цену символа
	GetPrice(ctx context.Context, creds Credentials, symbol string) (float64, error)

	// PlaceOrder размещает рыночный ордер. Никогда не повторяется.
	PlaceOrder(ctx context.Context, creds Credentials, req OrderRequest) (*OrderResult, error)

	// GetOrder читает ордер по id (verification read-back)
	GetOrder(ctx context.Context, creds Credentials, symbol, orderID string) (*OrderResult, error)

	// MirrorTradingMode зеркалирует режим торговли на стороне gateway.
	// Best-effort, at-most-once.
	MirrorTradingMode(ctx context.Context, creds Credentials, mode string) error
}

// GatewayError - ошибка, возвращённая самим gateway (не транспортом)
type GatewayError struct {
	Platform string
	Code     string
	Message  string
	Original error
}

func (e *GatewayError) Error() string {
	return e.Platform + ": " + e.Message
}

// Unwrap поддерживает errors.Is() и errors.As()
func (e *GatewayError) Unwrap() error {
	return e.Original
}
