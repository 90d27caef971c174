package models

import (
	"errors"
	"testing"
)

// ============================================================
// TradingAccount Tests
// ============================================================

func TestIsValidPlatform(t *testing.T) {
	tests := []struct {
		platform string
		want     bool
	}{
		{PlatformBinance, true},
		{PlatformBybit, true},
		{PlatformKucoin, true},
		{PlatformMT4, true},
		{PlatformMT5, true},
		{"kraken", false},
		{"", false},
		{"BINANCE", false}, // регистр имеет значение, нормализация на уровне handler
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			if got := IsValidPlatform(tt.platform); got != tt.want {
				t.Errorf("IsValidPlatform(%q) = %v, want %v", tt.platform, got, tt.want)
			}
		})
	}
}

func TestIsValidTradingMode(t *testing.T) {
	if !IsValidTradingMode(TradingModeDemo) {
		t.Error("demo должен быть валидным режимом")
	}
	if !IsValidTradingMode(TradingModeReal) {
		t.Error("real должен быть валидным режимом")
	}
	if IsValidTradingMode("paper") {
		t.Error("paper не должен быть валидным режимом")
	}
	if IsValidTradingMode("") {
		t.Error("пустой режим не должен быть валидным")
	}
}

func TestIsValidRiskLevel(t *testing.T) {
	for _, level := range []string{RiskLevelLow, RiskLevelMedium, RiskLevelHigh} {
		if !IsValidRiskLevel(level) {
			t.Errorf("%s должен быть валидным уровнем риска", level)
		}
	}
	if IsValidRiskLevel("extreme") {
		t.Error("extreme не должен быть валидным уровнем риска")
	}
}

func TestTradingAccountValidateCredentialPair(t *testing.T) {
	tests := []struct {
		name    string
		account TradingAccount
		wantErr error
	}{
		{
			name:    "binance: оба ключа присутствуют",
			account: TradingAccount{Platform: PlatformBinance, APIKey: "key", SecretKey: "secret"},
		},
		{
			name:    "binance: оба ключа отсутствуют",
			account: TradingAccount{Platform: PlatformBinance},
		},
		{
			name:    "binance: только api key",
			account: TradingAccount{Platform: PlatformBinance, APIKey: "key"},
			wantErr: ErrIncompleteCredentials,
		},
		{
			name:    "binance: только secret",
			account: TradingAccount{Platform: PlatformBinance, SecretKey: "secret"},
			wantErr: ErrIncompleteCredentials,
		},
		{
			name:    "mt5: логин и пароль присутствуют",
			account: TradingAccount{Platform: PlatformMT5, MTLogin: "123456", MTPassword: "pass", MTServer: "Demo-Server"},
		},
		{
			name:    "mt5: только логин",
			account: TradingAccount{Platform: PlatformMT5, MTLogin: "123456"},
			wantErr: ErrIncompleteCredentials,
		},
		{
			name: "mt4: api-ключи игнорируются для metatrader",
			// заполненный APIKey не относится к mt4, пара login/password пустая - валидно
			account: TradingAccount{Platform: PlatformMT4, APIKey: "key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.ValidateCredentialPair()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTradingAccountHasCredentials(t *testing.T) {
	acc := TradingAccount{Platform: PlatformBinance, APIKey: "k", SecretKey: "s"}
	if !acc.HasCredentials() {
		t.Error("аккаунт с парой ключей должен иметь credentials")
	}

	acc = TradingAccount{Platform: PlatformBinance, APIKey: "k"}
	if acc.HasCredentials() {
		t.Error("аккаунт с неполной парой не должен иметь credentials")
	}

	acc = TradingAccount{Platform: PlatformMT5, MTLogin: "1", MTPassword: "p"}
	if !acc.HasCredentials() {
		t.Error("mt5 аккаунт с login/password должен иметь credentials")
	}
}

func TestTradingAccountCanEnableRealMode(t *testing.T) {
	tests := []struct {
		name      string
		verified  bool
		connected bool
		want      bool
	}{
		{"верифицирован и подключен", true, true, true},
		{"не верифицирован", false, true, false},
		{"не подключен", true, false, false},
		{"ни то ни другое", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := TradingAccount{IsAPIVerified: tt.verified, ConnectionStatus: tt.connected}
			if got := acc.CanEnableRealMode(); got != tt.want {
				t.Errorf("CanEnableRealMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTradingAccountIsMetaTrader(t *testing.T) {
	for platform, want := range map[string]bool{
		PlatformMT4:     true,
		PlatformMT5:     true,
		PlatformBinance: false,
		PlatformKucoin:  false,
	} {
		acc := TradingAccount{Platform: platform}
		if got := acc.IsMetaTrader(); got != want {
			t.Errorf("IsMetaTrader() for %s = %v, want %v", platform, got, want)
		}
	}
}

// ============================================================
// TradingBot Tests
// ============================================================

func TestBotIsRunning(t *testing.T) {
	bot := TradingBot{Status: BotStatusActive}
	if !bot.IsRunning() {
		t.Error("active бот должен быть running")
	}

	for _, status := range []string{BotStatusPaused, BotStatusStopped, BotStatusError} {
		bot.Status = status
		if bot.IsRunning() {
			t.Errorf("бот со статусом %s не должен быть running", status)
		}
	}
}

func TestIsValidBotStatus(t *testing.T) {
	for _, status := range []string{BotStatusActive, BotStatusPaused, BotStatusStopped, BotStatusError} {
		if !IsValidBotStatus(status) {
			t.Errorf("%s должен быть валидным статусом", status)
		}
	}
	if IsValidBotStatus("running") {
		t.Error("running не является валидным статусом")
	}
}

// ============================================================
// Trade Tests
// ============================================================

func TestTradeIsOpen(t *testing.T) {
	trade := Trade{Status: TradeStatusOpen}
	if !trade.IsOpen() {
		t.Error("open сделка должна быть открытой")
	}

	trade.Status = TradeStatusClosed
	if trade.IsOpen() {
		t.Error("closed сделка не должна быть открытой")
	}
}

func TestIsValidTradeSide(t *testing.T) {
	if !IsValidTradeSide(TradeSideBuy) || !IsValidTradeSide(TradeSideSell) {
		t.Error("buy и sell должны быть валидными сторонами")
	}
	if IsValidTradeSide("long") {
		t.Error("long не является валидной стороной сделки")
	}
}
