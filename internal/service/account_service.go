package service

import (
	"context"
	"errors"
	"fmt"

	"tradeboard/internal/models"
	"tradeboard/internal/repository"
)

// CreateAccountRequest - параметры создания аккаунта
type CreateAccountRequest struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Platform  string `json:"platform"`
	RiskLevel string `json:"risk_level"`
}

// AccountService - CRUD над аккаунтами и чтение связанных данных.
// Учетные данные не возвращаются наружу никогда: модель скрывает
// их из JSON, сервис ничего дополнительно не расшифровывает.
type AccountService struct {
	accountRepo AccountRepositoryInterface
	tradeRepo   TradeRepositoryInterface
	logRepo     LogRepositoryInterface
	botRepo     BotRepositoryInterface
}

// NewAccountService создает новый экземпляр сервиса
func NewAccountService(
	accountRepo AccountRepositoryInterface,
	tradeRepo TradeRepositoryInterface,
	logRepo LogRepositoryInterface,
	botRepo BotRepositoryInterface,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		tradeRepo:   tradeRepo,
		logRepo:     logRepo,
		botRepo:     botRepo,
	}
}

// CreateAccount создает аккаунт в режиме demo без учетных данных.
// Учетные данные добавляются отдельным вызовом CredentialsService.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*models.TradingAccount, error) {
	if req.Name == "" {
		return nil, errors.New("account name is required")
	}
	if !models.IsValidPlatform(req.Platform) {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownPlatform, req.Platform)
	}

	riskLevel := req.RiskLevel
	if riskLevel == "" {
		riskLevel = models.RiskLevelMedium
	}
	if !models.IsValidRiskLevel(riskLevel) {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownRiskLevel, riskLevel)
	}

	account := &models.TradingAccount{
		UserID:      req.UserID,
		Name:        req.Name,
		Platform:    req.Platform,
		TradingMode: models.TradingModeDemo,
		RiskLevel:   riskLevel,
		Leverage:    1,
	}

	if err := s.accountRepo.Create(account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount возвращает аккаунт по ID
func (s *AccountService) GetAccount(id int) (*models.TradingAccount, error) {
	account, err := s.accountRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts возвращает аккаунты пользователя
func (s *AccountService) ListAccounts(userID string) ([]*models.TradingAccount, error) {
	return s.accountRepo.GetByUserID(userID)
}

// UpdateRiskSettings обновляет риск-профиль аккаунта
func (s *AccountService) UpdateRiskSettings(ctx context.Context, id int, riskLevel string, maxDrawdown, dailyProfitTarget float64) error {
	if !models.IsValidRiskLevel(riskLevel) {
		return fmt.Errorf("%w: %s", models.ErrUnknownRiskLevel, riskLevel)
	}
	if maxDrawdown < 0 || maxDrawdown > 100 || dailyProfitTarget < 0 || dailyProfitTarget > 100 {
		return errors.New("percent values must be within [0, 100]")
	}

	return s.accountRepo.UpdateRiskSettings(id, riskLevel, maxDrawdown, dailyProfitTarget)
}

// DeleteAccount удаляет аккаунт. Связанные боты, сделки и журнал
// удаляются каскадно на уровне схемы БД.
func (s *AccountService) DeleteAccount(ctx context.Context, id int) error {
	if err := s.accountRepo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

// GetTrades возвращает последние сделки аккаунта
func (s *AccountService) GetTrades(accountID, limit int) ([]*models.Trade, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.tradeRepo.GetByAccountID(accountID, limit)
}

// GetLogs возвращает последние записи журнала аккаунта
func (s *AccountService) GetLogs(accountID, limit int) ([]*models.TradingLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.logRepo.GetByAccountID(accountID, limit)
}
