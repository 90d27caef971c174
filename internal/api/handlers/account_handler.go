package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tradeboard/internal/models"
	"tradeboard/internal/service"
)

// UpdateRiskSettingsRequest - тело запроса для изменения риск-настроек
type UpdateRiskSettingsRequest struct {
	RiskLevel         string  `json:"risk_level"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	DailyProfitTarget float64 `json:"daily_profit_target"`
}

// AccountHandler отвечает за управление торговыми аккаунтами
//
// Endpoints:
// - GET /api/v1/accounts - список аккаунтов
// - POST /api/v1/accounts - создание аккаунта
// - GET /api/v1/accounts/{id} - аккаунт по id
// - DELETE /api/v1/accounts/{id} - удаление аккаунта
// - PATCH /api/v1/accounts/{id}/risk - риск-настройки
// - POST /api/v1/accounts/{id}/credentials - сохранение учетных данных
// - POST /api/v1/accounts/{id}/test-connection - проверка подключения
// - GET /api/v1/accounts/{id}/permissions - проверка торговых прав API ключа
// - POST /api/v1/accounts/{id}/sync - синхронизация с брокером
// - GET /api/v1/accounts/{id}/recommendations - рекомендации риск-параметров
// - GET /api/v1/accounts/{id}/real-trading-analysis - полный анализ аккаунта
// - GET /api/v1/accounts/{id}/trades - история сделок
// - GET /api/v1/accounts/{id}/logs - журнал операций
type AccountHandler struct {
	accountService     service.AccountServiceInterface
	credentialsService service.CredentialsServiceInterface
	connectionService  service.ConnectionServiceInterface
	syncService        service.SyncServiceInterface
	analysisService    service.AnalysisServiceInterface
}

// NewAccountHandler создает новый AccountHandler
func NewAccountHandler(
	accountService service.AccountServiceInterface,
	credentialsService service.CredentialsServiceInterface,
	connectionService service.ConnectionServiceInterface,
	syncService service.SyncServiceInterface,
	analysisService service.AnalysisServiceInterface,
) *AccountHandler {
	return &AccountHandler{
		accountService:     accountService,
		credentialsService: credentialsService,
		connectionService:  connectionService,
		syncService:        syncService,
		analysisService:    analysisService,
	}
}

// GetAccounts возвращает список аккаунтов
// GET /api/v1/accounts?user_id=...
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	accounts, err := h.accountService.ListAccounts(userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list accounts", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, accounts)
}

// CreateAccount создает новый торговый аккаунт
// POST /api/v1/accounts
//
// Тело запроса:
//
//	{
//	  "user_id": "local",
//	  "name": "Main Binance",
//	  "platform": "binance",
//	  "risk_level": "medium"
//	}
//
// Новый аккаунт всегда создается в demo режиме и без учетных данных.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req service.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnknownPlatform):
			respondWithError(w, http.StatusBadRequest, "Unsupported platform", err.Error())
		case errors.Is(err, models.ErrUnknownRiskLevel):
			respondWithError(w, http.StatusBadRequest, "Unknown risk level", err.Error())
		default:
			respondWithError(w, http.StatusBadRequest, "Failed to create account", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, account)
}

// GetAccount возвращает аккаунт по id
// GET /api/v1/accounts/{id}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	account, err := h.accountService.GetAccount(id)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found", "")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get account", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, account)
}

// DeleteAccount удаляет аккаунт вместе с его ботами, сделками и журналом
// DELETE /api/v1/accounts/{id}
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	if err := h.accountService.DeleteAccount(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found", "")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete account", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Account deleted"})
}

// UpdateRiskSettings обновляет риск-настройки аккаунта
// PATCH /api/v1/accounts/{id}/risk
func (h *AccountHandler) UpdateRiskSettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req UpdateRiskSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	err = h.accountService.UpdateRiskSettings(r.Context(), id, req.RiskLevel, req.MaxDrawdown, req.DailyProfitTarget)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			respondWithError(w, http.StatusNotFound, "Account not found", "")
		case errors.Is(err, models.ErrUnknownRiskLevel):
			respondWithError(w, http.StatusBadRequest, "Unknown risk level", err.Error())
		default:
			respondWithError(w, http.StatusBadRequest, "Failed to update risk settings", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Risk settings updated"})
}

// SaveCredentials сохраняет учетные данные аккаунта
// POST /api/v1/accounts/{id}/credentials
//
// Тело запроса для binance/bybit/kucoin:
//
//	{"api_key": "...", "secret_key": "..."}
//
// Тело запроса для mt4/mt5:
//
//	{"mt_login": "12345", "mt_password": "...", "mt_server": "Broker-Demo"}
//
// После сохранения автоматически выполняется проверка подключения,
// результат отражается в поле verified.
func (h *AccountHandler) SaveCredentials(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var input service.CredentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result := h.credentialsService.SaveCredentials(r.Context(), id, input)
	if !result.Success {
		respondWithJSON(w, http.StatusBadRequest, result)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// TestConnection проверяет подключение к брокеру
// POST /api/v1/accounts/{id}/test-connection
//
// Результат всегда 200 OK: success=false в теле означает неудачную
// проверку, simulated=true - недоступный gateway с симулированным успехом.
func (h *AccountHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	result := h.connectionService.TestConnection(r.Context(), id)
	respondWithJSON(w, http.StatusOK, result)
}

// VerifyPermissions проверяет торговые права API ключа
// GET /api/v1/accounts/{id}/permissions
func (h *AccountHandler) VerifyPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	result := h.connectionService.VerifyTradingPermissions(r.Context(), id)
	respondWithJSON(w, http.StatusOK, result)
}

// SyncAccount синхронизирует баланс и equity с брокером
// POST /api/v1/accounts/{id}/sync
func (h *AccountHandler) SyncAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	result := h.syncService.SyncAccount(r.Context(), id)
	respondWithJSON(w, http.StatusOK, result)
}

// GetRecommendations возвращает рекомендации риск-параметров по балансу
// GET /api/v1/accounts/{id}/recommendations
func (h *AccountHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	result := h.analysisService.AnalyzeAccount(r.Context(), id)
	respondWithJSON(w, http.StatusOK, result)
}

// GetRealTradingAnalysis возвращает полный анализ аккаунта
// GET /api/v1/accounts/{id}/real-trading-analysis
//
// Включает флаги is_real_trading и affects_real_money, список предупреждений
// и рекомендованные настройки. При недоступном аккаунте или неудачной
// проверке подключения флаги опускаются в false (fail-closed).
func (h *AccountHandler) GetRealTradingAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	result := h.analysisService.PerformRealTradingAnalysis(r.Context(), id)
	respondWithJSON(w, http.StatusOK, result)
}

// GetTrades возвращает историю сделок аккаунта
// GET /api/v1/accounts/{id}/trades?limit=50
func (h *AccountHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	trades, err := h.accountService.GetTrades(id, queryInt(r, "limit", 50))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get trades", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, trades)
}

// GetLogs возвращает журнал операций аккаунта
// GET /api/v1/accounts/{id}/logs?limit=50
func (h *AccountHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "")
		return
	}

	logs, err := h.accountService.GetLogs(id, queryInt(r, "limit", 50))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get logs", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}
