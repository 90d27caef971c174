package strategy

// Recommendation - рекомендованные риск-параметры для текущего баланса счёта
type Recommendation struct {
	RiskPercent    float64 `json:"risk_percent"`
	Leverage       int     `json:"leverage"`
	StopLoss       float64 `json:"stop_loss"`
	TakeProfit     float64 `json:"take_profit"`
	MinOrderSize   float64 `json:"min_order_size"`
	BalanceWarning string  `json:"balance_warning,omitempty"`
}

// Пороговые значения баланса в USD
const (
	lowBalanceThreshold  = 10.0
	tierTwoThreshold     = 20.0
	tierThreeThreshold   = 50.0
	defaultMinOrderSize  = 5.0
	lowBalanceWarningMsg = "Balance is below $10, recommended risk is limited to 1% per trade"
)

// RecommendForBalance возвращает консервативные риск-параметры по уровню баланса.
// Чистая функция без обращений к БД и шлюзам.
//
// Ступени:
//
//	риск:  <10 -> 1%, <50 -> 2%, >=50 -> 3%
//	плечо: <20 -> 5,  <50 -> 3,  >=50 -> 2
//	SL/TP: <50 -> 1/1.5, >=50 -> 2/2.5
func RecommendForBalance(balance float64) Recommendation {
	rec := Recommendation{MinOrderSize: defaultMinOrderSize}

	switch {
	case balance < lowBalanceThreshold:
		rec.RiskPercent = 1
		rec.BalanceWarning = lowBalanceWarningMsg
	case balance < tierThreeThreshold:
		rec.RiskPercent = 2
	default:
		rec.RiskPercent = 3
	}

	switch {
	case balance < tierTwoThreshold:
		rec.Leverage = 5
	case balance < tierThreeThreshold:
		rec.Leverage = 3
	default:
		rec.Leverage = 2
	}

	if balance < tierThreeThreshold {
		rec.StopLoss = 1
		rec.TakeProfit = 1.5
	} else {
		rec.StopLoss = 2
		rec.TakeProfit = 2.5
	}

	return rec
}
