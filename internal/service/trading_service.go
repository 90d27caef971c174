package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradeboard/internal/broker"
	"tradeboard/internal/config"
	"tradeboard/internal/models"
	"tradeboard/pkg/utils"
)

// ModeChangeResult - результат переключения режима торговли
type ModeChangeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// OrderParams - параметры размещаемого ордера
type OrderParams struct {
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	LotSize    float64  `json:"lot_size"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
	BotID      *int     `json:"bot_id,omitempty"`
}

// OrderResponse - результат размещения или закрытия ордера.
//
// Success отражает ответ gateway на размещение; Verified - исход
// последующего read-back. Ордер может быть успешно размещен, но
// не подтвержден (Verified=false), это не считается жесткой ошибкой.
type OrderResponse struct {
	Success             bool    `json:"success"`
	Message             string  `json:"message"`
	TradeID             int     `json:"trade_id,omitempty"`
	OrderID             string  `json:"order_id,omitempty"`
	AvgPrice            float64 `json:"avg_price,omitempty"`
	PnL                 *float64 `json:"pnl,omitempty"`
	Verified            bool    `json:"verified"`
	VerificationMessage string  `json:"verification_message,omitempty"`
}

// TradeBroadcaster - интерфейс для отправки обновлений сделок через WebSocket
type TradeBroadcaster interface {
	BroadcastTradeUpdate(trade *models.Trade)
}

// TradingService управляет режимом торговли и размещением ордеров.
type TradingService struct {
	accountRepo   AccountRepositoryInterface
	tradeRepo     TradeRepositoryInterface
	logRepo       LogRepositoryInterface
	connections   ConnectionServiceInterface
	brokers       BrokerFactory
	encryptionKey []byte
	verifyTimeout time.Duration
	logger        *zap.SugaredLogger

	wsHub TradeBroadcaster
}

// NewTradingService создает новый экземпляр сервиса
func NewTradingService(
	accountRepo AccountRepositoryInterface,
	tradeRepo TradeRepositoryInterface,
	logRepo LogRepositoryInterface,
	connections ConnectionServiceInterface,
	brokers BrokerFactory,
	cfg *config.Config,
	logger *zap.SugaredLogger,
) *TradingService {
	return &TradingService{
		accountRepo:   accountRepo,
		tradeRepo:     tradeRepo,
		logRepo:       logRepo,
		connections:   connections,
		brokers:       brokers,
		encryptionKey: []byte(cfg.Security.EncryptionKey),
		verifyTimeout: cfg.Broker.VerifyTimeout,
		logger:        logger,
	}
}

// SetWebSocketHub устанавливает WebSocket hub для push-обновлений сделок
func (s *TradingService) SetWebSocketHub(hub TradeBroadcaster) {
	s.wsHub = hub
}

// ChangeTradingMode переключает аккаунт между demo и real.
//
// Переключение в demo всегда успешно. Переключение в real тоже
// выполняется безусловно, но при неполных правах ключа к сообщению
// добавляется предупреждение (режим не откатывается). Зеркалирование
// режима на стороне gateway - best-effort, at-most-once: ошибка
// логируется и проглатывается.
func (s *TradingService) ChangeTradingMode(ctx context.Context, accountID int, mode string) *ModeChangeResult {
	if !models.IsValidTradingMode(mode) {
		return &ModeChangeResult{Success: false, Message: fmt.Sprintf("invalid trading mode: %s", mode)}
	}

	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return &ModeChangeResult{Success: false, Message: "account not found"}
	}

	if err := s.accountRepo.UpdateTradingMode(accountID, mode); err != nil {
		return &ModeChangeResult{Success: false, Message: fmt.Sprintf("failed to persist trading mode: %v", err)}
	}

	result := &ModeChangeResult{
		Success: true,
		Mode:    mode,
		Message: fmt.Sprintf("trading mode switched to %s", mode),
	}

	logType := models.LogTypeInfo
	if mode == models.TradingModeReal {
		logType = models.LogTypeWarning

		perms := s.connections.VerifyTradingPermissions(ctx, accountID)
		if !perms.Success || !perms.TradingAllowed {
			result.Message += "; warning: trading permissions could not be confirmed, orders may be rejected"
		}
		if perms.CanWithdraw {
			result.Message += "; warning: api key allows withdrawals, consider restricting it"
		}
	}

	s.mirrorMode(ctx, account, mode)

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: accountID,
		Type:      logType,
		Source:    models.LogSourceTradingMode,
		Message:   result.Message,
	})

	return result
}

// mirrorMode уведомляет gateway о смене режима. Ошибки не влияют
// на результат: локальный режим уже применен.
func (s *TradingService) mirrorMode(ctx context.Context, account *models.TradingAccount, mode string) {
	client, err := s.brokers.ClientFor(account.Platform)
	if err != nil {
		return
	}

	creds, err := gatewayCredentials(account, s.encryptionKey)
	if err != nil {
		s.logger.Warnw("trading mode mirror skipped", "account_id", account.ID, "error", err)
		return
	}

	if err := client.MirrorTradingMode(ctx, creds, mode); err != nil {
		s.logger.Warnw("trading mode mirror failed", "account_id", account.ID, "mode", mode, "error", err)
	}
}

// PlaceOrder размещает рыночный ордер через Broker Gateway и выполняет
// одну best-effort проверку read-back по возвращенному order id.
//
// Размещение никогда не повторяется. Read-back выполняется ровно один
// раз: его провал дает Verified=false, но не отменяет Success.
func (s *TradingService) PlaceOrder(ctx context.Context, accountID int, params OrderParams) *OrderResponse {
	if err := utils.ValidateSymbol(utils.NormalizeSymbol(params.Symbol)); err != nil {
		return &OrderResponse{Success: false, Message: err.Error()}
	}
	if !models.IsValidTradeSide(params.Side) {
		return &OrderResponse{Success: false, Message: fmt.Sprintf("invalid side: %s", params.Side)}
	}
	if err := utils.ValidateLotSize(params.LotSize); err != nil {
		return &OrderResponse{Success: false, Message: err.Error()}
	}

	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return &OrderResponse{Success: false, Message: "account not found"}
	}

	client, err := s.brokers.ClientFor(account.Platform)
	if err != nil {
		return &OrderResponse{Success: false, Message: err.Error()}
	}

	creds, err := gatewayCredentials(account, s.encryptionKey)
	if err != nil {
		return &OrderResponse{Success: false, Message: "failed to decrypt credentials"}
	}

	req := broker.OrderRequest{
		Symbol:   utils.NormalizeSymbol(params.Symbol),
		Side:     params.Side,
		Quantity: params.LotSize,
	}
	if params.StopLoss != nil {
		req.StopLoss = *params.StopLoss
	}
	if params.TakeProfit != nil {
		req.TakeProfit = *params.TakeProfit
	}

	placed, err := client.PlaceOrder(ctx, creds, req)
	if err != nil {
		_ = s.logRepo.Create(&models.TradingLog{
			AccountID: accountID,
			BotID:     params.BotID,
			Type:      models.LogTypeError,
			Source:    models.LogSourceOrder,
			Message:   fmt.Sprintf("order rejected: %v", err),
		})
		return &OrderResponse{Success: false, Message: fmt.Sprintf("order rejected: %v", err)}
	}

	response := &OrderResponse{
		Success:  true,
		Message:  "order placed",
		OrderID:  placed.OrderID,
		AvgPrice: placed.AvgPrice,
	}

	response.Verified, response.VerificationMessage = s.verifyOrderExecution(ctx, client, creds, req.Symbol, placed.OrderID)

	trade := &models.Trade{
		AccountID:  accountID,
		BotID:      params.BotID,
		Symbol:     req.Symbol,
		Side:       params.Side,
		EntryPrice: placed.AvgPrice,
		LotSize:    params.LotSize,
		StopLoss:   params.StopLoss,
		TakeProfit: params.TakeProfit,
		Status:     models.TradeStatusOpen,
		OrderID:    placed.OrderID,
	}
	if err := s.tradeRepo.Create(trade); err != nil {
		s.logger.Errorw("failed to record trade", "account_id", accountID, "order_id", placed.OrderID, "error", err)
		response.Message = "order placed, but trade record failed"
	} else {
		response.TradeID = trade.ID
	}

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: accountID,
		BotID:     params.BotID,
		Type:      models.LogTypeTrade,
		Source:    models.LogSourceOrder,
		Message:   fmt.Sprintf("%s %s %.4f @ %.4f (order %s, verified=%v)", params.Side, req.Symbol, params.LotSize, placed.AvgPrice, placed.OrderID, response.Verified),
	})

	if s.wsHub != nil {
		s.wsHub.BroadcastTradeUpdate(trade)
	}

	return response
}

// verifyOrderExecution выполняет единственную read-back проверку.
// Это компенсация ненадежного подтверждения gateway, а не retry-петля.
func (s *TradingService) verifyOrderExecution(ctx context.Context, client broker.Client, creds broker.Credentials, symbol, orderID string) (bool, string) {
	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	if _, err := client.GetOrder(verifyCtx, creds, symbol, orderID); err != nil {
		broker.OrderVerificationsTotal.WithLabelValues(client.Platform(), "not_confirmed").Inc()
		return false, fmt.Sprintf("order not confirmed by read-back: %v", err)
	}

	broker.OrderVerificationsTotal.WithLabelValues(client.Platform(), "confirmed").Inc()
	return true, "order confirmed by read-back"
}

// CloseTrade закрывает открытую сделку по текущей рыночной цене
// и фиксирует P&L
func (s *TradingService) CloseTrade(ctx context.Context, tradeID int) *OrderResponse {
	trade, err := s.tradeRepo.GetByID(tradeID)
	if err != nil {
		return &OrderResponse{Success: false, Message: "trade not found"}
	}

	if !trade.IsOpen() {
		return &OrderResponse{Success: false, Message: "trade is already closed"}
	}

	account, err := s.accountRepo.GetByID(trade.AccountID)
	if err != nil {
		return &OrderResponse{Success: false, Message: "account not found"}
	}

	client, err := s.brokers.ClientFor(account.Platform)
	if err != nil {
		return &OrderResponse{Success: false, Message: err.Error()}
	}

	creds, err := gatewayCredentials(account, s.encryptionKey)
	if err != nil {
		return &OrderResponse{Success: false, Message: "failed to decrypt credentials"}
	}

	exitPrice, err := client.GetPrice(ctx, creds, trade.Symbol)
	if err != nil {
		return &OrderResponse{Success: false, Message: fmt.Sprintf("failed to fetch exit price: %v", err)}
	}

	pnl := utils.CalculatePnL(trade.Side, trade.EntryPrice, exitPrice, trade.LotSize)
	closedAt := time.Now()

	if err := s.tradeRepo.Close(trade.ID, pnl, closedAt); err != nil {
		return &OrderResponse{Success: false, Message: fmt.Sprintf("failed to close trade: %v", err)}
	}

	trade.Status = models.TradeStatusClosed
	trade.PnL = &pnl
	trade.ClosedAt = &closedAt

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: trade.AccountID,
		BotID:     trade.BotID,
		Type:      models.LogTypeTrade,
		Source:    models.LogSourceOrder,
		Message:   fmt.Sprintf("trade %d closed: pnl %.2f", trade.ID, pnl),
	})

	if s.wsHub != nil {
		s.wsHub.BroadcastTradeUpdate(trade)
	}

	return &OrderResponse{
		Success: true,
		Message: "trade closed",
		TradeID: trade.ID,
		OrderID: trade.OrderID,
		PnL:     &pnl,
	}
}
