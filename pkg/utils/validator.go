package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Ошибки валидации
var (
	ErrEmptySymbol     = errors.New("symbol cannot be empty")
	ErrInvalidSymbol   = errors.New("symbol must contain only uppercase letters and digits")
	ErrEmptyAPIKey     = errors.New("api key cannot be empty")
	ErrAPIKeyTooShort  = errors.New("api key is too short")
	ErrInvalidLotSize  = errors.New("lot size must be positive")
	ErrInvalidPercent  = errors.New("percent value must be in range (0, 100]")
)

// symbolRe - формат торгового символа: BTCUSDT, EURUSD, XAUUSD
var symbolRe = regexp.MustCompile(`^[A-Z0-9]{5,20}$`)

// ValidateSymbol проверяет формат торгового символа
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return ErrEmptySymbol
	}
	if !symbolRe.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// NormalizeSymbol приводит символ к каноническому виду (BTCUSDT)
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateAPIKey делает базовую проверку API ключа перед запросом к брокеру.
// Настоящая проверка - тестовый авторизованный вызов.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrEmptyAPIKey
	}
	if len(key) < 16 {
		return ErrAPIKeyTooShort
	}
	return nil
}

// ValidateLotSize проверяет объём ордера
func ValidateLotSize(lot float64) error {
	if lot <= 0 {
		return ErrInvalidLotSize
	}
	return nil
}

// ValidatePercent проверяет процентное значение (риск на сделку, SL/TP)
func ValidatePercent(value float64) error {
	if value <= 0 || value > 100 {
		return ErrInvalidPercent
	}
	return nil
}
