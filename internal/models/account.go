package models

import (
	"errors"
	"time"
)

// Поддерживаемые платформы брокеров
const (
	PlatformBinance = "binance"
	PlatformBybit   = "bybit"
	PlatformKucoin  = "kucoin"
	PlatformMT4     = "mt4"
	PlatformMT5     = "mt5"
)

// Режимы торговли
const (
	TradingModeDemo = "demo" // симулированная торговля
	TradingModeReal = "real" // торговля реальными средствами
)

// Уровни риска
const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)

// Ошибки валидации аккаунта
var (
	ErrUnknownPlatform       = errors.New("unknown platform")
	ErrUnknownTradingMode    = errors.New("unknown trading mode")
	ErrUnknownRiskLevel      = errors.New("unknown risk level")
	ErrIncompleteCredentials = errors.New("credential pair must be both present or both absent")
)

// TradingAccount представляет брокерский аккаунт пользователя.
//
// Credential-поля зависят от платформы:
//   - binance/bybit/kucoin: APIKey + SecretKey (зашифрованы AES-256-GCM)
//   - mt4/mt5: MTLogin + MTPassword + MTServer (пароль зашифрован)
//
// Инвариант: пара ключей либо присутствует целиком, либо отсутствует целиком.
// TradingMode = "real" допустим только при IsAPIVerified и ConnectionStatus,
// контроль на уровне TradingService, а не БД.
type TradingAccount struct {
	ID               int        `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	Name             string     `json:"name" db:"name"`
	Platform         string     `json:"platform" db:"platform"` // binance, bybit, kucoin, mt4, mt5
	APIKey           string     `json:"-" db:"api_key"`         // зашифрован, не возвращается в JSON
	SecretKey        string     `json:"-" db:"secret_key"`      // зашифрован
	MTLogin          string     `json:"-" db:"mt_login"`        // для mt4/mt5
	MTPassword       string     `json:"-" db:"mt_password"`     // зашифрован
	MTServer         string     `json:"mt_server,omitempty" db:"mt_server"`
	Balance          float64    `json:"balance" db:"balance"`
	Equity           float64    `json:"equity" db:"equity"`
	Leverage         int        `json:"leverage" db:"leverage"`
	TradingMode      string     `json:"trading_mode" db:"trading_mode"` // real, demo
	ConnectionStatus bool       `json:"connection_status" db:"connection_status"`
	IsAPIVerified    bool       `json:"is_api_verified" db:"is_api_verified"`
	RiskLevel        string     `json:"risk_level" db:"risk_level"` // low, medium, high
	MaxDrawdown      float64    `json:"max_drawdown" db:"max_drawdown"`               // процент
	DailyProfitTgt   float64    `json:"daily_profit_target" db:"daily_profit_target"` // процент
	LastError        string     `json:"last_error,omitempty" db:"last_error"`
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty" db:"last_sync_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// IsMetaTrader возвращает true для платформ семейства MetaTrader
func (a *TradingAccount) IsMetaTrader() bool {
	return a.Platform == PlatformMT4 || a.Platform == PlatformMT5
}

// HasCredentials проверяет, что credential-пара присутствует целиком
func (a *TradingAccount) HasCredentials() bool {
	if a.IsMetaTrader() {
		return a.MTLogin != "" && a.MTPassword != ""
	}
	return a.APIKey != "" && a.SecretKey != ""
}

// ValidateCredentialPair проверяет инвариант "оба заполнены или оба пусты"
func (a *TradingAccount) ValidateCredentialPair() error {
	if a.IsMetaTrader() {
		if (a.MTLogin == "") != (a.MTPassword == "") {
			return ErrIncompleteCredentials
		}
		return nil
	}
	if (a.APIKey == "") != (a.SecretKey == "") {
		return ErrIncompleteCredentials
	}
	return nil
}

// CanEnableRealMode проверяет предусловия перехода в режим реальной торговли
func (a *TradingAccount) CanEnableRealMode() bool {
	return a.IsAPIVerified && a.ConnectionStatus
}

// IsValidPlatform проверяет поддержку платформы
func IsValidPlatform(platform string) bool {
	switch platform {
	case PlatformBinance, PlatformBybit, PlatformKucoin, PlatformMT4, PlatformMT5:
		return true
	}
	return false
}

// IsValidTradingMode проверяет корректность режима торговли
func IsValidTradingMode(mode string) bool {
	return mode == TradingModeDemo || mode == TradingModeReal
}

// IsValidRiskLevel проверяет корректность уровня риска
func IsValidRiskLevel(level string) bool {
	switch level {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}
