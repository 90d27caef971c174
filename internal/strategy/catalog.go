// Package strategy содержит статический каталог торговых стратегий
// и чистые функции расчёта риск-параметров.
package strategy

import (
	"errors"
	"fmt"

	"tradeboard/internal/models"
)

// Идентификаторы стратегий
const (
	TrendFollowing   = "trend_following"
	MeanReversion    = "mean_reversion"
	Breakout         = "breakout"
	Scalping         = "scalping"
	SmartAuto        = "smart_auto"
	GridTrading      = "grid_trading"
	Hedging          = "hedging"
	Arbitrage        = "arbitrage"
	NewsBased        = "news_based"
	AdaptiveMomentum = "adaptive_momentum"
)

// ErrUnknownStrategy - стратегии нет в каталоге
var ErrUnknownStrategy = errors.New("unknown strategy")

// Params - базовые параметры стратегии из каталога.
// Проценты SL/TP/риска до применения риск-множителя.
type Params struct {
	Timeframes      []string
	Indicators      []string
	EntryConditions []string
	ExitConditions  []string
	RiskPerTrade    float64 // процент баланса
	StopLoss        float64 // процент
	TakeProfit      float64 // процент
	MaxOpenTrades   int
}

// riskMultiplier - линейные множители риск-уровня.
// Применяются к riskPerTrade/stopLoss/takeProfit соответственно.
type riskMultiplier struct {
	Risk       float64
	StopLoss   float64
	TakeProfit float64
}

var riskMultipliers = map[string]riskMultiplier{
	models.RiskLevelLow:    {Risk: 0.5, StopLoss: 0.7, TakeProfit: 0.8},
	models.RiskLevelMedium: {Risk: 1.0, StopLoss: 1.0, TakeProfit: 1.0},
	models.RiskLevelHigh:   {Risk: 2.0, StopLoss: 1.3, TakeProfit: 1.2},
}

// catalog - фиксированная таблица параметров по стратегиям
var catalog = map[string]Params{
	TrendFollowing: {
		Timeframes:      []string{"H1", "H4", "D1"},
		Indicators:      []string{"EMA50", "EMA200", "ADX"},
		EntryConditions: []string{"ema_cross_up", "adx_above_25"},
		ExitConditions:  []string{"ema_cross_down", "trailing_stop"},
		RiskPerTrade:    1.0,
		StopLoss:        2.0,
		TakeProfit:      4.0,
		MaxOpenTrades:   3,
	},
	MeanReversion: {
		Timeframes:      []string{"M15", "H1"},
		Indicators:      []string{"BBANDS", "RSI14"},
		EntryConditions: []string{"price_below_lower_band", "rsi_oversold"},
		ExitConditions:  []string{"price_at_middle_band"},
		RiskPerTrade:    1.0,
		StopLoss:        1.5,
		TakeProfit:      2.0,
		MaxOpenTrades:   4,
	},
	Breakout: {
		Timeframes:      []string{"M30", "H1"},
		Indicators:      []string{"DONCHIAN20", "ATR14", "VOLUME"},
		EntryConditions: []string{"channel_breakout", "volume_spike"},
		ExitConditions:  []string{"atr_trailing_stop"},
		RiskPerTrade:    1.5,
		StopLoss:        2.0,
		TakeProfit:      3.5,
		MaxOpenTrades:   3,
	},
	Scalping: {
		Timeframes:      []string{"M1", "M5"},
		Indicators:      []string{"EMA9", "EMA21", "STOCH"},
		EntryConditions: []string{"ema_pullback", "stoch_cross"},
		ExitConditions:  []string{"fixed_target", "time_stop"},
		RiskPerTrade:    0.5,
		StopLoss:        0.5,
		TakeProfit:      0.8,
		MaxOpenTrades:   6,
	},
	SmartAuto: {
		Timeframes:      []string{"M15", "H1", "H4"},
		Indicators:      []string{"EMA", "RSI14", "MACD", "ATR14"},
		EntryConditions: []string{"composite_signal"},
		ExitConditions:  []string{"composite_exit", "trailing_stop"},
		RiskPerTrade:    1.0,
		StopLoss:        1.5,
		TakeProfit:      3.0,
		MaxOpenTrades:   5,
	},
	GridTrading: {
		Timeframes:      []string{"H1"},
		Indicators:      []string{"GRID_LEVELS", "ATR14"},
		EntryConditions: []string{"price_at_grid_level"},
		ExitConditions:  []string{"opposite_grid_level"},
		RiskPerTrade:    0.8,
		StopLoss:        3.0,
		TakeProfit:      1.0,
		MaxOpenTrades:   10,
	},
	Hedging: {
		Timeframes:      []string{"H4", "D1"},
		Indicators:      []string{"CORRELATION", "ATR14"},
		EntryConditions: []string{"exposure_imbalance"},
		ExitConditions:  []string{"hedge_target_reached"},
		RiskPerTrade:    1.0,
		StopLoss:        2.5,
		TakeProfit:      2.5,
		MaxOpenTrades:   4,
	},
	Arbitrage: {
		Timeframes:      []string{"M1"},
		Indicators:      []string{"SPREAD"},
		EntryConditions: []string{"spread_above_threshold"},
		ExitConditions:  []string{"spread_converged"},
		RiskPerTrade:    0.5,
		StopLoss:        1.0,
		TakeProfit:      0.5,
		MaxOpenTrades:   8,
	},
	NewsBased: {
		Timeframes:      []string{"M5", "M15"},
		Indicators:      []string{"ATR14", "VOLUME"},
		EntryConditions: []string{"news_volatility_spike"},
		ExitConditions:  []string{"volatility_decay", "fixed_target"},
		RiskPerTrade:    1.5,
		StopLoss:        2.5,
		TakeProfit:      4.0,
		MaxOpenTrades:   2,
	},
	AdaptiveMomentum: {
		Timeframes:      []string{"H1", "H4"},
		Indicators:      []string{"ROC", "RSI14", "ATR14"},
		EntryConditions: []string{"momentum_above_threshold"},
		ExitConditions:  []string{"momentum_reversal", "atr_trailing_stop"},
		RiskPerTrade:    1.2,
		StopLoss:        2.0,
		TakeProfit:      3.0,
		MaxOpenTrades:   3,
	},
}

// Strategies возвращает список идентификаторов каталога
func Strategies() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	return ids
}

// IsKnown проверяет наличие стратегии в каталоге
func IsKnown(strategyID string) bool {
	_, ok := catalog[strategyID]
	return ok
}

// BaseParams возвращает базовые параметры стратегии без множителей
func BaseParams(strategyID string) (Params, error) {
	params, ok := catalog[strategyID]
	if !ok {
		return Params{}, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategyID)
	}
	return params, nil
}

// ParamsFor возвращает параметры стратегии с применённым риск-множителем.
//
// Линейное масштабирование: riskPerTrade, stopLoss и takeProfit умножаются
// на множители уровня риска, maxOpenTrades не меняется.
func ParamsFor(strategyID, riskLevel string) (Params, error) {
	params, ok := catalog[strategyID]
	if !ok {
		return Params{}, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategyID)
	}

	mult, ok := riskMultipliers[riskLevel]
	if !ok {
		return Params{}, fmt.Errorf("%w: %s", models.ErrUnknownRiskLevel, riskLevel)
	}

	params.RiskPerTrade *= mult.Risk
	params.StopLoss *= mult.StopLoss
	params.TakeProfit *= mult.TakeProfit

	return params, nil
}
