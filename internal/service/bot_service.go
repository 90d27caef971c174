package service

import (
	"context"
	"errors"
	"fmt"

	"tradeboard/internal/models"
	"tradeboard/internal/strategy"
	"tradeboard/pkg/utils"
)

// Ошибки сервиса ботов
var (
	ErrBotNotFound      = errors.New("bot not found")
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrNoTradingPairs   = errors.New("at least one trading pair is required")
	ErrBotAlreadyActive = errors.New("bot is already active")
	ErrBotNotActive     = errors.New("bot is not active")
)

// CreateBotRequest - параметры создания бота
type CreateBotRequest struct {
	AccountID    int      `json:"account_id"`
	Name         string   `json:"name"`
	Strategy     string   `json:"strategy"`
	TradingPairs []string `json:"trading_pairs"`
	RiskLevel    string   `json:"risk_level"`
}

// BotService управляет жизненным циклом торговых ботов.
// Риск-параметры бота рассчитываются из каталога стратегий
// с учетом риск-множителя, режим торговли наследуется от аккаунта
// в момент создания.
type BotService struct {
	botRepo     BotRepositoryInterface
	accountRepo AccountRepositoryInterface
	logRepo     LogRepositoryInterface
}

// NewBotService создает новый экземпляр сервиса
func NewBotService(
	botRepo BotRepositoryInterface,
	accountRepo AccountRepositoryInterface,
	logRepo LogRepositoryInterface,
) *BotService {
	return &BotService{
		botRepo:     botRepo,
		accountRepo: accountRepo,
		logRepo:     logRepo,
	}
}

// CreateBot создает бота со стратегией из каталога.
// Возвращает бота и список предупреждений для немедленного показа
// (бот на живом аккаунте будет торговать реальными средствами).
func (s *BotService) CreateBot(ctx context.Context, req CreateBotRequest) (*models.TradingBot, []string, error) {
	if !strategy.IsKnown(req.Strategy) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, req.Strategy)
	}
	if !models.IsValidRiskLevel(req.RiskLevel) {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidRiskLevel, req.RiskLevel)
	}
	if len(req.TradingPairs) == 0 {
		return nil, nil, ErrNoTradingPairs
	}

	pairs := make([]string, 0, len(req.TradingPairs))
	for _, pair := range req.TradingPairs {
		normalized := utils.NormalizeSymbol(pair)
		if err := utils.ValidateSymbol(normalized); err != nil {
			return nil, nil, fmt.Errorf("pair %q: %w", pair, err)
		}
		pairs = append(pairs, normalized)
	}

	account, err := s.accountRepo.GetByID(req.AccountID)
	if err != nil {
		return nil, nil, ErrAccountNotFound
	}

	params, err := strategy.ParamsFor(req.Strategy, req.RiskLevel)
	if err != nil {
		return nil, nil, err
	}

	bot := &models.TradingBot{
		AccountID:     account.ID,
		Name:          req.Name,
		Strategy:      req.Strategy,
		TradingPairs:  pairs,
		RiskLevel:     req.RiskLevel,
		TradingMode:   account.TradingMode,
		RiskPerTrade:  params.RiskPerTrade,
		StopLoss:      params.StopLoss,
		TakeProfit:    params.TakeProfit,
		MaxOpenTrades: params.MaxOpenTrades,
		Status:        models.BotStatusStopped,
	}

	if err := s.botRepo.Create(bot); err != nil {
		return nil, nil, err
	}

	var warnings []string
	if account.TradingMode == models.TradingModeReal {
		warnings = append(warnings, "bot is bound to a real-mode account and will trade real funds")
		if !account.CanEnableRealMode() {
			warnings = append(warnings, "account verification is incomplete, orders may be rejected")
		}
	}

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: account.ID,
		BotID:     &bot.ID,
		Type:      models.LogTypeInfo,
		Source:    models.LogSourceBot,
		Message:   fmt.Sprintf("bot %q created (strategy %s, risk %s, mode %s)", bot.Name, bot.Strategy, bot.RiskLevel, bot.TradingMode),
	})

	return bot, warnings, nil
}

// GetBot возвращает бота по ID
func (s *BotService) GetBot(id int) (*models.TradingBot, error) {
	bot, err := s.botRepo.GetByID(id)
	if err != nil {
		return nil, ErrBotNotFound
	}
	return bot, nil
}

// ListBots возвращает ботов аккаунта
func (s *BotService) ListBots(accountID int) ([]*models.TradingBot, error) {
	return s.botRepo.GetByAccountID(accountID)
}

// StartBot переводит бота в статус active
func (s *BotService) StartBot(ctx context.Context, id int) error {
	bot, err := s.botRepo.GetByID(id)
	if err != nil {
		return ErrBotNotFound
	}

	if bot.IsRunning() {
		return ErrBotAlreadyActive
	}

	if err := s.botRepo.UpdateStatus(id, models.BotStatusActive); err != nil {
		return err
	}

	s.auditBot(bot, "bot started")
	return nil
}

// PauseBot приостанавливает активного бота
func (s *BotService) PauseBot(ctx context.Context, id int) error {
	bot, err := s.botRepo.GetByID(id)
	if err != nil {
		return ErrBotNotFound
	}

	if !bot.IsRunning() {
		return ErrBotNotActive
	}

	if err := s.botRepo.UpdateStatus(id, models.BotStatusPaused); err != nil {
		return err
	}

	s.auditBot(bot, "bot paused")
	return nil
}

// StopBot останавливает бота из любого статуса
func (s *BotService) StopBot(ctx context.Context, id int) error {
	bot, err := s.botRepo.GetByID(id)
	if err != nil {
		return ErrBotNotFound
	}

	if bot.Status == models.BotStatusStopped {
		return nil
	}

	if err := s.botRepo.UpdateStatus(id, models.BotStatusStopped); err != nil {
		return err
	}

	s.auditBot(bot, "bot stopped")
	return nil
}

// DeleteBot останавливает бота и удаляет его
func (s *BotService) DeleteBot(ctx context.Context, id int) error {
	if err := s.StopBot(ctx, id); err != nil {
		return err
	}

	bot, err := s.botRepo.GetByID(id)
	if err != nil {
		return ErrBotNotFound
	}

	if err := s.botRepo.Delete(id); err != nil {
		return err
	}

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: bot.AccountID,
		Type:      models.LogTypeInfo,
		Source:    models.LogSourceBot,
		Message:   fmt.Sprintf("bot %q deleted", bot.Name),
	})

	return nil
}

func (s *BotService) auditBot(bot *models.TradingBot, message string) {
	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: bot.AccountID,
		BotID:     &bot.ID,
		Type:      models.LogTypeInfo,
		Source:    models.LogSourceBot,
		Message:   message,
	})
}
