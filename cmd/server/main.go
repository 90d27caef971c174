package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"tradeboard/internal/api"
	"tradeboard/internal/broker"
	"tradeboard/internal/config"
	"tradeboard/internal/repository"
	"tradeboard/internal/service"
	"tradeboard/internal/websocket"
	"tradeboard/pkg/utils"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, flush, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer flush()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	logger.Infow("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	// Инициализация репозиториев
	accountRepo := repository.NewAccountRepository(db)
	botRepo := repository.NewBotRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	logRepo := repository.NewLogRepository(db)

	// Broker Gateway клиенты
	brokers := broker.NewFactory(cfg.Broker)

	// Инициализация сервисов
	connectionService := service.NewConnectionService(accountRepo, logRepo, brokers, cfg)
	credentialsService := service.NewCredentialsService(accountRepo, logRepo, connectionService, cfg.Security.EncryptionKey)
	syncService := service.NewSyncService(accountRepo, logRepo, connectionService, brokers, cfg)
	tradingService := service.NewTradingService(accountRepo, tradeRepo, logRepo, connectionService, brokers, cfg, logger)
	analysisService := service.NewAnalysisService(accountRepo, tradeRepo, connectionService)
	accountService := service.NewAccountService(accountRepo, tradeRepo, logRepo, botRepo)
	botService := service.NewBotService(botRepo, accountRepo, logRepo)

	// WebSocket hub для real-time обновлений дашборда
	hub := websocket.NewHub(logger)
	go hub.Run()
	syncService.SetWebSocketHub(hub)
	tradingService.SetWebSocketHub(hub)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		AccountService:     accountService,
		CredentialsService: credentialsService,
		ConnectionService:  connectionService,
		SyncService:        syncService,
		TradingService:     tradingService,
		AnalysisService:    analysisService,
		BotService:         botService,

		Hub: hub,
		Log: logger,

		DashboardTokenHash: cfg.Security.DashboardTokenHash,
	}

	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Infow("starting server", "addr", server.Addr, "https", cfg.Server.UseHTTPS)
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatalw("server failed", "error", err)
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalw("server failed", "error", err)
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infow("shutting down server")

	hub.Stop()
	broker.CloseSharedClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalw("server forced to shutdown", "error", err)
	}

	logger.Infow("server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
