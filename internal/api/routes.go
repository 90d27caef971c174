package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tradeboard/internal/api/handlers"
	"tradeboard/internal/api/middleware"
	"tradeboard/internal/service"
	"tradeboard/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	AccountService     service.AccountServiceInterface
	CredentialsService service.CredentialsServiceInterface
	ConnectionService  service.ConnectionServiceInterface
	SyncService        service.SyncServiceInterface
	TradingService     service.TradingServiceInterface
	AnalysisService    service.AnalysisServiceInterface
	BotService         service.BotServiceInterface

	Hub *websocket.Hub
	Log *zap.SugaredLogger

	// DashboardTokenHash - bcrypt хеш API токена, пустой отключает auth
	DashboardTokenHash string
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /accounts/
//	│   ├── GET / - список аккаунтов
//	│   ├── POST / - создать аккаунт
//	│   ├── GET /{id} - получить аккаунт
//	│   ├── DELETE /{id} - удалить аккаунт
//	│   ├── PATCH /{id}/risk - риск-настройки
//	│   ├── POST /{id}/credentials - сохранить учетные данные
//	│   ├── POST /{id}/test-connection - проверить подключение
//	│   ├── GET /{id}/permissions - торговые права API ключа
//	│   ├── POST /{id}/sync - синхронизировать с брокером
//	│   ├── POST /{id}/trading-mode - сменить режим торговли
//	│   ├── GET /{id}/recommendations - рекомендации по балансу
//	│   ├── GET /{id}/real-trading-analysis - полный анализ аккаунта
//	│   ├── POST /{id}/orders - разместить ордер
//	│   ├── GET /{id}/trades - история сделок
//	│   └── GET /{id}/logs - журнал операций
//	├── /trades/
//	│   └── POST /{id}/close - закрыть сделку
//	├── /strategies - GET каталог стратегий
//	└── /bots/
//	    ├── GET /?account_id= - список ботов
//	    ├── POST / - создать бота
//	    ├── GET /{id} - получить бота
//	    ├── POST /{id}/start - запустить
//	    ├── POST /{id}/pause - приостановить
//	    ├── POST /{id}/stop - остановить
//	    └── DELETE /{id} - удалить
//
// /ws/stream - WebSocket для real-time обновлений
// /metrics - Prometheus метрики
// /health - health check
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Auth (только для /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery(deps.Log))
	router.Use(middleware.Logging(deps.Log))
	router.Use(middleware.CORS)

	accountHandler := handlers.NewAccountHandler(
		deps.AccountService,
		deps.CredentialsService,
		deps.ConnectionService,
		deps.SyncService,
		deps.AnalysisService,
	)
	tradingHandler := handlers.NewTradingHandler(deps.TradingService)
	botHandler := handlers.NewBotHandler(deps.BotService)

	// API v1 routes, защищены Bearer токеном
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(deps.DashboardTokenHash))

	// Account routes
	api.HandleFunc("/accounts", accountHandler.GetAccounts).Methods("GET")
	api.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{id}", accountHandler.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{id}", accountHandler.DeleteAccount).Methods("DELETE")
	api.HandleFunc("/accounts/{id}/risk", accountHandler.UpdateRiskSettings).Methods("PATCH")
	api.HandleFunc("/accounts/{id}/credentials", accountHandler.SaveCredentials).Methods("POST")
	api.HandleFunc("/accounts/{id}/test-connection", accountHandler.TestConnection).Methods("POST")
	api.HandleFunc("/accounts/{id}/permissions", accountHandler.VerifyPermissions).Methods("GET")
	api.HandleFunc("/accounts/{id}/sync", accountHandler.SyncAccount).Methods("POST")
	api.HandleFunc("/accounts/{id}/recommendations", accountHandler.GetRecommendations).Methods("GET")
	api.HandleFunc("/accounts/{id}/real-trading-analysis", accountHandler.GetRealTradingAnalysis).Methods("GET")
	api.HandleFunc("/accounts/{id}/trades", accountHandler.GetTrades).Methods("GET")
	api.HandleFunc("/accounts/{id}/logs", accountHandler.GetLogs).Methods("GET")

	// Trading routes
	api.HandleFunc("/accounts/{id}/trading-mode", tradingHandler.ChangeTradingMode).Methods("POST")
	api.HandleFunc("/accounts/{id}/orders", tradingHandler.PlaceOrder).Methods("POST")
	api.HandleFunc("/trades/{id}/close", tradingHandler.CloseTrade).Methods("POST")

	// Bot routes
	api.HandleFunc("/strategies", botHandler.GetStrategies).Methods("GET")
	api.HandleFunc("/bots", botHandler.GetBots).Methods("GET")
	api.HandleFunc("/bots", botHandler.CreateBot).Methods("POST")
	api.HandleFunc("/bots/{id}", botHandler.GetBot).Methods("GET")
	api.HandleFunc("/bots/{id}", botHandler.DeleteBot).Methods("DELETE")
	api.HandleFunc("/bots/{id}/start", botHandler.StartBot).Methods("POST")
	api.HandleFunc("/bots/{id}/pause", botHandler.PauseBot).Methods("POST")
	api.HandleFunc("/bots/{id}/stop", botHandler.StopBot).Methods("POST")

	// WebSocket route
	if deps.Hub != nil {
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, w, r)
		})
	}

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
