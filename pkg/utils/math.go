package utils

import "math"

// RoundToLotSize округляет объём ордера ВНИЗ до кратного шагу лота брокера.
//
// Округление вниз гарантирует, что размещаемый объём не превысит
// доступные средства аккаунта.
//
//	RoundToLotSize(0.123456, 0.001) = 0.123
//	RoundToLotSize(1.999, 0.01) = 1.99
func RoundToLotSize(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Floor(value/lotSize) * lotSize
}

// RoundToLotSizeUp округляет ВВЕРХ до кратного шагу.
// Используется когда нужно гарантировать минимальный объём (minQty брокера).
func RoundToLotSizeUp(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Ceil(value/lotSize) * lotSize
}

// CalculatePnL считает прибыль/убыток закрываемой сделки.
//
// Для buy: (exit - entry) * lot, для sell: (entry - exit) * lot.
func CalculatePnL(side string, entryPrice, exitPrice, lotSize float64) float64 {
	if side == "sell" {
		return (entryPrice - exitPrice) * lotSize
	}
	return (exitPrice - entryPrice) * lotSize
}

// PercentOf возвращает percent процентов от value
func PercentOf(value, percent float64) float64 {
	return value * percent / 100
}

// PercentChange возвращает относительное изменение в процентах от base.
// При base = 0 возвращает 0, чтобы не плодить Inf в статистике.
func PercentChange(base, current float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}
