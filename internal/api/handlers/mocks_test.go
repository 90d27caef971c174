package handlers

import (
	"context"
	"errors"

	"tradeboard/internal/models"
	"tradeboard/internal/service"
)

// ErrMockDatabase имитирует инфраструктурную ошибку сервиса
var ErrMockDatabase = errors.New("mock: database unavailable")

// ============ MockAccountService ============

type MockAccountService struct {
	accounts map[int]*models.TradingAccount
	trades   []*models.Trade
	logs     []*models.TradingLog
	nextID   int

	listErr   error
	createErr error
	tradesErr error
}

func NewMockAccountService() *MockAccountService {
	return &MockAccountService{
		accounts: make(map[int]*models.TradingAccount),
		nextID:   1,
	}
}

func (m *MockAccountService) AddAccount(account *models.TradingAccount) *models.TradingAccount {
	account.ID = m.nextID
	m.nextID++
	m.accounts[account.ID] = account
	return account
}

func (m *MockAccountService) CreateAccount(ctx context.Context, req service.CreateAccountRequest) (*models.TradingAccount, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if req.Name == "" {
		return nil, errors.New("account name is required")
	}
	if !models.IsValidPlatform(req.Platform) {
		return nil, models.ErrUnknownPlatform
	}
	account := &models.TradingAccount{
		UserID:      req.UserID,
		Name:        req.Name,
		Platform:    req.Platform,
		TradingMode: models.TradingModeDemo,
		RiskLevel:   models.RiskLevelMedium,
	}
	return m.AddAccount(account), nil
}

func (m *MockAccountService) GetAccount(id int) (*models.TradingAccount, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, service.ErrAccountNotFound
	}
	return account, nil
}

func (m *MockAccountService) ListAccounts(userID string) ([]*models.TradingAccount, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	accounts := make([]*models.TradingAccount, 0, len(m.accounts))
	for _, account := range m.accounts {
		if userID == "" || account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

func (m *MockAccountService) UpdateRiskSettings(ctx context.Context, id int, riskLevel string, maxDrawdown, dailyProfitTarget float64) error {
	account, ok := m.accounts[id]
	if !ok {
		return service.ErrAccountNotFound
	}
	if !models.IsValidRiskLevel(riskLevel) {
		return models.ErrUnknownRiskLevel
	}
	account.RiskLevel = riskLevel
	account.MaxDrawdown = maxDrawdown
	account.DailyProfitTgt = dailyProfitTarget
	return nil
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, id int) error {
	if _, ok := m.accounts[id]; !ok {
		return service.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *MockAccountService) GetTrades(accountID, limit int) ([]*models.Trade, error) {
	if m.tradesErr != nil {
		return nil, m.tradesErr
	}
	return m.trades, nil
}

func (m *MockAccountService) GetLogs(accountID, limit int) ([]*models.TradingLog, error) {
	return m.logs, nil
}

// ============ MockCredentialsService ============

type MockCredentialsService struct {
	result    *service.CredentialsResult
	lastInput service.CredentialsInput
}

func (m *MockCredentialsService) SaveCredentials(ctx context.Context, accountID int, input service.CredentialsInput) *service.CredentialsResult {
	m.lastInput = input
	if m.result != nil {
		return m.result
	}
	return &service.CredentialsResult{Success: true, Message: "credentials saved", Verified: true}
}

// ============ MockConnectionService ============

type MockConnectionService struct {
	connResult  *service.ConnectionResult
	permsResult *service.PermissionsResult
	testCalls   int
}

func (m *MockConnectionService) TestConnection(ctx context.Context, accountID int) *service.ConnectionResult {
	m.testCalls++
	if m.connResult != nil {
		return m.connResult
	}
	return &service.ConnectionResult{Success: true, Message: "connection ok"}
}

func (m *MockConnectionService) VerifyTradingPermissions(ctx context.Context, accountID int) *service.PermissionsResult {
	if m.permsResult != nil {
		return m.permsResult
	}
	return &service.PermissionsResult{Success: true, Message: "permissions ok", TradingAllowed: true}
}

// ============ MockSyncService ============

type MockSyncService struct {
	result *service.SyncResult
}

func (m *MockSyncService) SyncAccount(ctx context.Context, accountID int) *service.SyncResult {
	if m.result != nil {
		return m.result
	}
	return &service.SyncResult{Success: true, Message: "synced", Balance: 100, Equity: 100}
}

// ============ MockTradingService ============

type MockTradingService struct {
	modeResult  *service.ModeChangeResult
	orderResult *service.OrderResponse
	closeResult *service.OrderResponse
	lastMode    string
	lastParams  service.OrderParams
}

func (m *MockTradingService) ChangeTradingMode(ctx context.Context, accountID int, mode string) *service.ModeChangeResult {
	m.lastMode = mode
	if m.modeResult != nil {
		return m.modeResult
	}
	return &service.ModeChangeResult{Success: true, Message: "trading mode changed to " + mode, Mode: mode}
}

func (m *MockTradingService) PlaceOrder(ctx context.Context, accountID int, params service.OrderParams) *service.OrderResponse {
	m.lastParams = params
	if m.orderResult != nil {
		return m.orderResult
	}
	return &service.OrderResponse{Success: true, Message: "order placed", TradeID: 1, OrderID: "ord-1", Verified: true}
}

func (m *MockTradingService) CloseTrade(ctx context.Context, tradeID int) *service.OrderResponse {
	if m.closeResult != nil {
		return m.closeResult
	}
	pnl := 10.0
	return &service.OrderResponse{Success: true, Message: "trade closed", TradeID: tradeID, PnL: &pnl}
}

// ============ MockAnalysisService ============

type MockAnalysisService struct {
	analysisResult *service.AnalysisResult
	fullResult     *service.AccountAnalysisResult
}

func (m *MockAnalysisService) AnalyzeAccount(ctx context.Context, accountID int) *service.AnalysisResult {
	if m.analysisResult != nil {
		return m.analysisResult
	}
	return &service.AnalysisResult{Success: true, Message: "analysis complete"}
}

func (m *MockAnalysisService) PerformRealTradingAnalysis(ctx context.Context, accountID int) *service.AccountAnalysisResult {
	if m.fullResult != nil {
		return m.fullResult
	}
	return &service.AccountAnalysisResult{Success: true, Message: "analysis complete", Warnings: []string{}}
}

// ============ MockBotService ============

type MockBotService struct {
	bots     map[int]*models.TradingBot
	nextID   int
	warnings []string

	createErr error
	stateErr  error
	listErr   error
}

func NewMockBotService() *MockBotService {
	return &MockBotService{
		bots:   make(map[int]*models.TradingBot),
		nextID: 1,
	}
}

func (m *MockBotService) AddBot(bot *models.TradingBot) *models.TradingBot {
	bot.ID = m.nextID
	m.nextID++
	m.bots[bot.ID] = bot
	return bot
}

func (m *MockBotService) CreateBot(ctx context.Context, req service.CreateBotRequest) (*models.TradingBot, []string, error) {
	if m.createErr != nil {
		return nil, nil, m.createErr
	}
	bot := &models.TradingBot{
		AccountID:    req.AccountID,
		Name:         req.Name,
		Strategy:     req.Strategy,
		TradingPairs: req.TradingPairs,
		RiskLevel:    req.RiskLevel,
		Status:       models.BotStatusStopped,
	}
	return m.AddBot(bot), m.warnings, nil
}

func (m *MockBotService) GetBot(id int) (*models.TradingBot, error) {
	bot, ok := m.bots[id]
	if !ok {
		return nil, service.ErrBotNotFound
	}
	return bot, nil
}

func (m *MockBotService) ListBots(accountID int) ([]*models.TradingBot, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	bots := make([]*models.TradingBot, 0, len(m.bots))
	for _, bot := range m.bots {
		if bot.AccountID == accountID {
			bots = append(bots, bot)
		}
	}
	return bots, nil
}

func (m *MockBotService) StartBot(ctx context.Context, id int) error {
	return m.changeStatus(id, models.BotStatusActive)
}

func (m *MockBotService) PauseBot(ctx context.Context, id int) error {
	return m.changeStatus(id, models.BotStatusPaused)
}

func (m *MockBotService) StopBot(ctx context.Context, id int) error {
	return m.changeStatus(id, models.BotStatusStopped)
}

func (m *MockBotService) DeleteBot(ctx context.Context, id int) error {
	if m.stateErr != nil {
		return m.stateErr
	}
	if _, ok := m.bots[id]; !ok {
		return service.ErrBotNotFound
	}
	delete(m.bots, id)
	return nil
}

func (m *MockBotService) changeStatus(id int, status string) error {
	if m.stateErr != nil {
		return m.stateErr
	}
	bot, ok := m.bots[id]
	if !ok {
		return service.ErrBotNotFound
	}
	bot.Status = status
	return nil
}

// Проверяем, что моки реализуют интерфейсы сервисов
var (
	_ service.AccountServiceInterface     = (*MockAccountService)(nil)
	_ service.CredentialsServiceInterface = (*MockCredentialsService)(nil)
	_ service.ConnectionServiceInterface  = (*MockConnectionService)(nil)
	_ service.SyncServiceInterface        = (*MockSyncService)(nil)
	_ service.TradingServiceInterface     = (*MockTradingService)(nil)
	_ service.AnalysisServiceInterface    = (*MockAnalysisService)(nil)
	_ service.BotServiceInterface         = (*MockBotService)(nil)
)
