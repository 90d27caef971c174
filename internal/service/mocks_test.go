package service

import (
	"context"
	"time"

	"tradeboard/internal/broker"
	"tradeboard/internal/config"
	"tradeboard/internal/models"
	"tradeboard/internal/repository"
	"tradeboard/pkg/crypto"
)

// Ключ шифрования для тестов (ровно 32 байта)
const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{EncryptionKey: testEncryptionKey},
		Broker: config.BrokerConfig{
			SimulateOnFailure: true,
			RequestTimeout:    5 * time.Second,
			VerifyTimeout:     3 * time.Second,
		},
	}
}

func encryptForTest(plaintext string) string {
	out, err := crypto.Encrypt(plaintext, []byte(testEncryptionKey))
	if err != nil {
		panic(err)
	}
	return out
}

// ============ Mock AccountRepository ============

type MockAccountRepository struct {
	accounts  map[int]*models.TradingAccount
	getErr    error
	updateErr error
	nextID    int

	balanceUpdates int // счетчик вызовов UpdateBalance
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[int]*models.TradingAccount),
		nextID:   1,
	}
}

func (m *MockAccountRepository) Create(account *models.TradingAccount) error {
	account.ID = m.nextID
	m.nextID++
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(id int) (*models.TradingAccount, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if account, exists := m.accounts[id]; exists {
		copied := *account
		return &copied, nil
	}
	return nil, repository.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByUserID(userID string) ([]*models.TradingAccount, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []*models.TradingAccount
	for _, account := range m.accounts {
		if account.UserID == userID {
			result = append(result, account)
		}
	}
	return result, nil
}

func (m *MockAccountRepository) GetAll() ([]*models.TradingAccount, error) {
	var result []*models.TradingAccount
	for _, account := range m.accounts {
		result = append(result, account)
	}
	return result, nil
}

func (m *MockAccountRepository) UpdateCredentials(account *models.TradingAccount) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, exists := m.accounts[account.ID]
	if !exists {
		return repository.ErrAccountNotFound
	}
	stored.APIKey = account.APIKey
	stored.SecretKey = account.SecretKey
	stored.MTLogin = account.MTLogin
	stored.MTPassword = account.MTPassword
	stored.MTServer = account.MTServer
	stored.IsAPIVerified = false
	return nil
}

func (m *MockAccountRepository) UpdateBalance(id int, balance, equity float64, leverage int, syncedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	account, exists := m.accounts[id]
	if !exists {
		return repository.ErrAccountNotFound
	}
	account.Balance = balance
	account.Equity = equity
	account.Leverage = leverage
	account.LastSyncAt = &syncedAt
	m.balanceUpdates++
	return nil
}

func (m *MockAccountRepository) UpdateTradingMode(id int, mode string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	account, exists := m.accounts[id]
	if !exists {
		return repository.ErrAccountNotFound
	}
	account.TradingMode = mode
	return nil
}

func (m *MockAccountRepository) UpdateVerification(id int, verified, connected bool, lastError string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	account, exists := m.accounts[id]
	if !exists {
		return repository.ErrAccountNotFound
	}
	account.IsAPIVerified = verified
	account.ConnectionStatus = connected
	account.LastError = lastError
	return nil
}

func (m *MockAccountRepository) UpdateRiskSettings(id int, riskLevel string, maxDrawdown, dailyProfitTarget float64) error {
	account, exists := m.accounts[id]
	if !exists {
		return repository.ErrAccountNotFound
	}
	account.RiskLevel = riskLevel
	account.MaxDrawdown = maxDrawdown
	account.DailyProfitTgt = dailyProfitTarget
	return nil
}

func (m *MockAccountRepository) Delete(id int) error {
	if _, exists := m.accounts[id]; !exists {
		return repository.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *MockAccountRepository) Count() (int, error) {
	return len(m.accounts), nil
}

// ============ Mock BotRepository ============

type MockBotRepository struct {
	bots      map[int]*models.TradingBot
	createErr error
	nextID    int
}

func NewMockBotRepository() *MockBotRepository {
	return &MockBotRepository{
		bots:   make(map[int]*models.TradingBot),
		nextID: 1,
	}
}

func (m *MockBotRepository) Create(bot *models.TradingBot) error {
	if m.createErr != nil {
		return m.createErr
	}
	bot.ID = m.nextID
	m.nextID++
	m.bots[bot.ID] = bot
	return nil
}

func (m *MockBotRepository) GetByID(id int) (*models.TradingBot, error) {
	if bot, exists := m.bots[id]; exists {
		copied := *bot
		return &copied, nil
	}
	return nil, repository.ErrBotNotFound
}

func (m *MockBotRepository) GetByAccountID(accountID int) ([]*models.TradingBot, error) {
	var result []*models.TradingBot
	for _, bot := range m.bots {
		if bot.AccountID == accountID {
			result = append(result, bot)
		}
	}
	return result, nil
}

func (m *MockBotRepository) GetByStatus(status string) ([]*models.TradingBot, error) {
	var result []*models.TradingBot
	for _, bot := range m.bots {
		if bot.Status == status {
			result = append(result, bot)
		}
	}
	return result, nil
}

func (m *MockBotRepository) UpdateStatus(id int, status string) error {
	bot, exists := m.bots[id]
	if !exists {
		return repository.ErrBotNotFound
	}
	bot.Status = status
	return nil
}

func (m *MockBotRepository) UpdateStats(id int, winRate float64, totalTrades int, profitLoss float64) error {
	bot, exists := m.bots[id]
	if !exists {
		return repository.ErrBotNotFound
	}
	bot.WinRate = winRate
	bot.TotalTrades = totalTrades
	bot.ProfitLoss = profitLoss
	return nil
}

func (m *MockBotRepository) UpdateParams(bot *models.TradingBot) error {
	stored, exists := m.bots[bot.ID]
	if !exists {
		return repository.ErrBotNotFound
	}
	*stored = *bot
	return nil
}

func (m *MockBotRepository) Delete(id int) error {
	if _, exists := m.bots[id]; !exists {
		return repository.ErrBotNotFound
	}
	delete(m.bots, id)
	return nil
}

func (m *MockBotRepository) CountActiveByAccountID(accountID int) (int, error) {
	count := 0
	for _, bot := range m.bots {
		if bot.AccountID == accountID && bot.Status == models.BotStatusActive {
			count++
		}
	}
	return count, nil
}

// ============ Mock TradeRepository ============

type MockTradeRepository struct {
	trades    map[int]*models.Trade
	createErr error
	sumPnL    float64
	nextID    int
}

func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{
		trades: make(map[int]*models.Trade),
		nextID: 1,
	}
}

func (m *MockTradeRepository) Create(trade *models.Trade) error {
	if m.createErr != nil {
		return m.createErr
	}
	trade.ID = m.nextID
	m.nextID++
	trade.CreatedAt = time.Now()
	m.trades[trade.ID] = trade
	return nil
}

func (m *MockTradeRepository) GetByID(id int) (*models.Trade, error) {
	if trade, exists := m.trades[id]; exists {
		copied := *trade
		return &copied, nil
	}
	return nil, repository.ErrTradeNotFound
}

func (m *MockTradeRepository) GetByAccountID(accountID, limit int) ([]*models.Trade, error) {
	var result []*models.Trade
	for _, trade := range m.trades {
		if trade.AccountID == accountID {
			result = append(result, trade)
		}
	}
	return result, nil
}

func (m *MockTradeRepository) GetOpenByAccountID(accountID int) ([]*models.Trade, error) {
	var result []*models.Trade
	for _, trade := range m.trades {
		if trade.AccountID == accountID && trade.Status == models.TradeStatusOpen {
			result = append(result, trade)
		}
	}
	return result, nil
}

func (m *MockTradeRepository) CountOpenByBotID(botID int) (int, error) {
	count := 0
	for _, trade := range m.trades {
		if trade.BotID != nil && *trade.BotID == botID && trade.Status == models.TradeStatusOpen {
			count++
		}
	}
	return count, nil
}

func (m *MockTradeRepository) Close(id int, pnl float64, closedAt time.Time) error {
	trade, exists := m.trades[id]
	if !exists || trade.Status != models.TradeStatusOpen {
		return repository.ErrTradeNotFound
	}
	trade.Status = models.TradeStatusClosed
	trade.PnL = &pnl
	trade.ClosedAt = &closedAt
	return nil
}

func (m *MockTradeRepository) SumClosedPnLSince(accountID int, since time.Time) (float64, error) {
	return m.sumPnL, nil
}

// ============ Mock LogRepository ============

type MockLogRepository struct {
	entries []*models.TradingLog
}

func NewMockLogRepository() *MockLogRepository {
	return &MockLogRepository{}
}

func (m *MockLogRepository) Create(log *models.TradingLog) error {
	log.ID = len(m.entries) + 1
	log.CreatedAt = time.Now()
	m.entries = append(m.entries, log)
	return nil
}

func (m *MockLogRepository) GetByAccountID(accountID, limit int) ([]*models.TradingLog, error) {
	var result []*models.TradingLog
	for _, entry := range m.entries {
		if entry.AccountID == accountID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (m *MockLogRepository) GetRecent(limit int) ([]*models.TradingLog, error) {
	return m.entries, nil
}

func (m *MockLogRepository) lastMessage() string {
	if len(m.entries) == 0 {
		return ""
	}
	return m.entries[len(m.entries)-1].Message
}

// ============ Mock Broker Client & Factory ============

type MockBrokerClient struct {
	platform string

	pingErr        error
	snapshot       *broker.AccountSnapshot
	snapshotErr    error
	permissions    *broker.Permissions
	permissionsErr error
	price          float64
	priceErr       error
	placeResult    *broker.OrderResult
	placeErr       error
	getOrderResult *broker.OrderResult
	getOrderErr    error
	mirrorErr      error

	placeCalls    int
	getOrderCalls int
	mirrorCalls   int
	lastMirrored  string
}

func (c *MockBrokerClient) Platform() string { return c.platform }

func (c *MockBrokerClient) Ping(ctx context.Context, creds broker.Credentials) error {
	return c.pingErr
}

func (c *MockBrokerClient) GetAccountSnapshot(ctx context.Context, creds broker.Credentials) (*broker.AccountSnapshot, error) {
	if c.snapshotErr != nil {
		return nil, c.snapshotErr
	}
	return c.snapshot, nil
}

func (c *MockBrokerClient) GetPermissions(ctx context.Context, creds broker.Credentials) (*broker.Permissions, error) {
	if c.permissionsErr != nil {
		return nil, c.permissionsErr
	}
	return c.permissions, nil
}

func (c *MockBrokerClient) GetPrice(ctx context.Context, creds broker.Credentials, symbol string) (float64, error) {
	if c.priceErr != nil {
		return 0, c.priceErr
	}
	return c.price, nil
}

func (c *MockBrokerClient) PlaceOrder(ctx context.Context, creds broker.Credentials, req broker.OrderRequest) (*broker.OrderResult, error) {
	c.placeCalls++
	if c.placeErr != nil {
		return nil, c.placeErr
	}
	return c.placeResult, nil
}

func (c *MockBrokerClient) GetOrder(ctx context.Context, creds broker.Credentials, symbol, orderID string) (*broker.OrderResult, error) {
	c.getOrderCalls++
	if c.getOrderErr != nil {
		return nil, c.getOrderErr
	}
	return c.getOrderResult, nil
}

func (c *MockBrokerClient) MirrorTradingMode(ctx context.Context, creds broker.Credentials, mode string) error {
	c.mirrorCalls++
	c.lastMirrored = mode
	return c.mirrorErr
}

type MockBrokerFactory struct {
	client    *MockBrokerClient
	clientErr error
}

func (f *MockBrokerFactory) ClientFor(platform string) (broker.Client, error) {
	if f.clientErr != nil {
		return nil, f.clientErr
	}
	return f.client, nil
}

// verifiedAccount возвращает binance-аккаунт с рабочими
// зашифрованными учетными данными
func verifiedAccount(repo *MockAccountRepository) *models.TradingAccount {
	account := &models.TradingAccount{
		UserID:           "user-1",
		Name:             "Main",
		Platform:         models.PlatformBinance,
		APIKey:           encryptForTest("test-api-key-0123456789"),
		SecretKey:        encryptForTest("test-secret-key-0123456789"),
		Balance:          100,
		Equity:           100,
		Leverage:         5,
		TradingMode:      models.TradingModeDemo,
		ConnectionStatus: true,
		IsAPIVerified:    true,
		RiskLevel:        models.RiskLevelMedium,
	}
	_ = repo.Create(account)
	return account
}
