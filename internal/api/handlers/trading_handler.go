package handlers

import (
	"encoding/json"
	"net/http"

	"tradeboard/internal/service"
)

// ChangeTradingModeRequest - тело запроса для смены режима торговли
type ChangeTradingModeRequest struct {
	Mode string `json:"mode"` // demo, real
}

// TradingHandler отвечает за режим торговли и ордера
//
// Endpoints:
// - POST /api/v1/accounts/{id}/trading-mode - смена режима торговли
// - POST /api/v1/accounts/{id}/orders - размещение ордера
// - POST /api/v1/trades/{id}/close - закрытие сделки
type TradingHandler struct {
	tradingService service.TradingServiceInterface
}

// NewTradingHandler создает новый TradingHandler
func NewTradingHandler(tradingService service.TradingServiceInterface) *TradingHandler {
	return &TradingHandler{
		tradingService: tradingService,
	}
}

// ChangeTradingMode переключает режим торговли аккаунта
// POST /api/v1/accounts/{id}/trading-mode
//
// Тело запроса:
//
//	{"mode": "real"}
//
// Переключение в demo всегда успешно. Переключение в real тоже выполняется,
// но message может содержать предупреждения о неподтвержденных торговых
// правах или правах на вывод средств.
func (h *TradingHandler) ChangeTradingMode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req ChangeTradingModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result := h.tradingService.ChangeTradingMode(r.Context(), id, req.Mode)
	if !result.Success {
		respondWithJSON(w, http.StatusBadRequest, result)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// PlaceOrder размещает рыночный ордер
// POST /api/v1/accounts/{id}/orders
//
// Тело запроса:
//
//	{
//	  "symbol": "BTCUSDT",
//	  "side": "buy",
//	  "lot_size": 0.01,
//	  "stop_loss": 58000,
//	  "take_profit": 65000
//	}
//
// Ответ содержит verified: подтверждено ли исполнение повторным чтением
// ордера у брокера. verified=false при success=true означает, что ордер
// размещен, но чтение не подтвердило его исполнение.
func (h *TradingHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var params service.OrderParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result := h.tradingService.PlaceOrder(r.Context(), id, params)
	if !result.Success {
		respondWithJSON(w, http.StatusBadRequest, result)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// CloseTrade закрывает открытую сделку по текущей рыночной цене
// POST /api/v1/trades/{id}/close
func (h *TradingHandler) CloseTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid trade id", "")
		return
	}

	result := h.tradingService.CloseTrade(r.Context(), id)
	if !result.Success {
		respondWithJSON(w, http.StatusBadRequest, result)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
