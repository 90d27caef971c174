package service

import (
	"context"
	"fmt"

	"tradeboard/internal/models"
	"tradeboard/internal/strategy"
	"tradeboard/pkg/utils"
)

// AnalysisResult - рекомендация риск-параметров по балансу
type AnalysisResult struct {
	Success         bool                    `json:"success"`
	Message         string                  `json:"message"`
	Recommendations strategy.Recommendation `json:"recommendations"`
}

// AccountAnalysisResult - полный анализ готовности аккаунта к реальной торговле.
//
// При любом сбое выше по цепочке IsRealTrading и AffectsRealMoney
// остаются false: UI закрывается в безопасную сторону и трактует
// аккаунт как не-живой.
type AccountAnalysisResult struct {
	Success             bool                    `json:"success"`
	Message             string                  `json:"message"`
	IsRealTrading       bool                    `json:"is_real_trading"`
	AffectsRealMoney    bool                    `json:"affects_real_money"`
	Warnings            []string                `json:"warnings"`
	RecommendedSettings strategy.Recommendation `json:"recommended_settings"`
}

// AnalysisService выводит риск-рекомендации из текущего баланса
// и собирает сводку готовности аккаунта к реальной торговле.
type AnalysisService struct {
	accountRepo AccountRepositoryInterface
	tradeRepo   TradeRepositoryInterface
	connections ConnectionServiceInterface
}

// NewAnalysisService создает новый экземпляр сервиса
func NewAnalysisService(
	accountRepo AccountRepositoryInterface,
	tradeRepo TradeRepositoryInterface,
	connections ConnectionServiceInterface,
) *AnalysisService {
	return &AnalysisService{
		accountRepo: accountRepo,
		tradeRepo:   tradeRepo,
		connections: connections,
	}
}

// AnalyzeAccount возвращает рекомендации риск-параметров по балансу.
// Чистая функция от баланса: одинаковый вход дает одинаковый выход,
// история и волатильность не учитываются.
func (s *AnalysisService) AnalyzeAccount(ctx context.Context, accountID int) *AnalysisResult {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return &AnalysisResult{Success: false, Message: "account not found"}
	}

	return &AnalysisResult{
		Success:         true,
		Message:         fmt.Sprintf("recommendations derived from balance %.2f", account.Balance),
		Recommendations: strategy.RecommendForBalance(account.Balance),
	}
}

// PerformRealTradingAnalysis составляет полную сводку: проверка
// подключения, права ключа, рекомендации по балансу и список
// предупреждений для живого аккаунта.
func (s *AnalysisService) PerformRealTradingAnalysis(ctx context.Context, accountID int) *AccountAnalysisResult {
	failClosed := &AccountAnalysisResult{Warnings: []string{}}

	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		failClosed.Message = "account not found"
		return failClosed
	}

	conn := s.connections.TestConnection(ctx, accountID)
	if !conn.Success {
		failClosed.Message = fmt.Sprintf("connection check failed: %s", conn.Message)
		return failClosed
	}

	result := &AccountAnalysisResult{
		Success:             true,
		Message:             "analysis complete",
		Warnings:            []string{},
		RecommendedSettings: strategy.RecommendForBalance(account.Balance),
	}

	perms := s.connections.VerifyTradingPermissions(ctx, accountID)

	result.IsRealTrading = account.TradingMode == models.TradingModeReal
	result.AffectsRealMoney = result.IsRealTrading && perms.Success && perms.TradingAllowed

	if result.IsRealTrading {
		result.Warnings = append(result.Warnings, "account is in real trading mode, orders move real funds")

		if !perms.Success || !perms.TradingAllowed {
			result.Warnings = append(result.Warnings, "trading permissions could not be confirmed, orders may be rejected")
		}
		if perms.CanWithdraw {
			result.Warnings = append(result.Warnings, "api key allows withdrawals, restrict it to trading only")
		}
		if rec := result.RecommendedSettings; rec.BalanceWarning != "" {
			result.Warnings = append(result.Warnings, rec.BalanceWarning)
		}

		s.appendDailyLimitWarnings(account, result)
	}

	return result
}

// appendDailyLimitWarnings сравнивает P&L за текущие сутки (UTC)
// с дневными лимитами аккаунта
func (s *AnalysisService) appendDailyLimitWarnings(account *models.TradingAccount, result *AccountAnalysisResult) {
	dailyPnL, err := s.tradeRepo.SumClosedPnLSince(account.ID, utils.DayStart())
	if err != nil {
		return
	}

	if account.MaxDrawdown > 0 && dailyPnL < 0 {
		lossLimit := utils.PercentOf(account.Balance, account.MaxDrawdown)
		if -dailyPnL >= lossLimit {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("daily loss %.2f exceeds max drawdown limit %.2f", -dailyPnL, lossLimit))
		}
	}

	if account.DailyProfitTgt > 0 && dailyPnL > 0 {
		target := utils.PercentOf(account.Balance, account.DailyProfitTgt)
		if dailyPnL >= target {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("daily profit target reached: %.2f of %.2f", dailyPnL, target))
		}
	}
}
