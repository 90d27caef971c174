package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"tradeboard/internal/models"
	"tradeboard/internal/service"
	"tradeboard/internal/strategy"
)

// CreateBotResponse - ответ на создание бота
//
// warnings заполняются для ботов, привязанных к real-режиму аккаунта
type CreateBotResponse struct {
	Bot      *models.TradingBot `json:"bot"`
	Warnings []string           `json:"warnings,omitempty"`
}

// StrategyInfo - описание стратегии из каталога
type StrategyInfo struct {
	ID     string          `json:"id"`
	Params strategy.Params `json:"params"`
}

// BotHandler отвечает за управление торговыми ботами
//
// Endpoints:
// - GET /api/v1/strategies - каталог стратегий
// - GET /api/v1/bots?account_id=... - список ботов аккаунта
// - POST /api/v1/bots - создание бота
// - GET /api/v1/bots/{id} - бот по id
// - POST /api/v1/bots/{id}/start - запуск бота
// - POST /api/v1/bots/{id}/pause - приостановка бота
// - POST /api/v1/bots/{id}/stop - остановка бота
// - DELETE /api/v1/bots/{id} - удаление бота
type BotHandler struct {
	botService service.BotServiceInterface
}

// NewBotHandler создает новый BotHandler
func NewBotHandler(botService service.BotServiceInterface) *BotHandler {
	return &BotHandler{
		botService: botService,
	}
}

// GetStrategies возвращает каталог стратегий с базовыми параметрами
// GET /api/v1/strategies
func (h *BotHandler) GetStrategies(w http.ResponseWriter, r *http.Request) {
	ids := strategy.Strategies()

	response := make([]StrategyInfo, 0, len(ids))
	for _, id := range ids {
		params, err := strategy.BaseParams(id)
		if err != nil {
			continue
		}
		response = append(response, StrategyInfo{ID: id, Params: params})
	}

	respondWithJSON(w, http.StatusOK, response)
}

// GetBots возвращает список ботов аккаунта
// GET /api/v1/bots?account_id=...
func (h *BotHandler) GetBots(w http.ResponseWriter, r *http.Request) {
	accountID := queryInt(r, "account_id", 0)
	if accountID <= 0 {
		respondWithError(w, http.StatusBadRequest, "account_id query parameter is required", "")
		return
	}

	bots, err := h.botService.ListBots(accountID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list bots", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, bots)
}

// CreateBot создает нового торгового бота
// POST /api/v1/bots
//
// Тело запроса:
//
//	{
//	  "account_id": 1,
//	  "name": "BTC trend",
//	  "strategy": "trend_following",
//	  "trading_pairs": ["BTCUSDT"],
//	  "risk_level": "medium"
//	}
//
// Параметры стратегии выводятся из каталога с учетом уровня риска.
// Бот наследует режим торговли аккаунта и создается остановленным.
func (h *BotHandler) CreateBot(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req service.CreateBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	bot, warnings, err := h.botService.CreateBot(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			respondWithError(w, http.StatusNotFound, "Account not found", "")
		case errors.Is(err, service.ErrUnknownStrategy):
			respondWithError(w, http.StatusBadRequest, "Unknown strategy", err.Error())
		case errors.Is(err, service.ErrNoTradingPairs):
			respondWithError(w, http.StatusBadRequest, "At least one trading pair is required", "")
		case errors.Is(err, service.ErrInvalidRiskLevel):
			respondWithError(w, http.StatusBadRequest, "Unknown risk level", err.Error())
		default:
			respondWithError(w, http.StatusBadRequest, "Failed to create bot", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, CreateBotResponse{
		Bot:      bot,
		Warnings: warnings,
	})
}

// GetBot возвращает бота по id
// GET /api/v1/bots/{id}
func (h *BotHandler) GetBot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bot id", "")
		return
	}

	bot, err := h.botService.GetBot(id)
	if err != nil {
		if errors.Is(err, service.ErrBotNotFound) {
			respondWithError(w, http.StatusNotFound, "Bot not found", "")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get bot", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, bot)
}

// StartBot переводит бота в активное состояние
// POST /api/v1/bots/{id}/start
func (h *BotHandler) StartBot(w http.ResponseWriter, r *http.Request) {
	h.changeBotState(w, r, h.botService.StartBot, "Bot started")
}

// PauseBot приостанавливает активного бота
// POST /api/v1/bots/{id}/pause
func (h *BotHandler) PauseBot(w http.ResponseWriter, r *http.Request) {
	h.changeBotState(w, r, h.botService.PauseBot, "Bot paused")
}

// StopBot останавливает бота
// POST /api/v1/bots/{id}/stop
func (h *BotHandler) StopBot(w http.ResponseWriter, r *http.Request) {
	h.changeBotState(w, r, h.botService.StopBot, "Bot stopped")
}

// DeleteBot останавливает и удаляет бота
// DELETE /api/v1/bots/{id}
func (h *BotHandler) DeleteBot(w http.ResponseWriter, r *http.Request) {
	h.changeBotState(w, r, h.botService.DeleteBot, "Bot deleted")
}

// changeBotState выполняет переход состояния бота и маппит ошибки на HTTP коды
func (h *BotHandler) changeBotState(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int) error, message string) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bot id", "")
		return
	}

	if err := op(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrBotNotFound):
			respondWithError(w, http.StatusNotFound, "Bot not found", "")
		case errors.Is(err, service.ErrBotAlreadyActive):
			respondWithError(w, http.StatusConflict, "Bot is already active", "")
		case errors.Is(err, service.ErrBotNotActive):
			respondWithError(w, http.StatusConflict, "Bot is not active", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to change bot state", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: message})
}
