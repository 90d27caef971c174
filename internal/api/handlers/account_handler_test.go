package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"tradeboard/internal/models"
	"tradeboard/internal/service"
)

func newAccountHandler(accounts *MockAccountService) (*AccountHandler, *MockConnectionService, *MockSyncService) {
	connections := &MockConnectionService{}
	sync := &MockSyncService{}
	handler := NewAccountHandler(accounts, &MockCredentialsService{}, connections, sync, &MockAnalysisService{})
	return handler, connections, sync
}

func withID(r *http.Request, id string) *http.Request {
	return mux.SetURLVars(r, map[string]string{"id": id})
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("creates demo account", func(t *testing.T) {
		handler, _, _ := newAccountHandler(NewMockAccountService())

		body, _ := json.Marshal(service.CreateAccountRequest{
			UserID:   "local",
			Name:     "Main Binance",
			Platform: models.PlatformBinance,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreateAccount(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}

		var account models.TradingAccount
		if err := json.NewDecoder(w.Body).Decode(&account); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if account.TradingMode != models.TradingModeDemo {
			t.Errorf("expected demo mode, got %s", account.TradingMode)
		}
		if account.Name != "Main Binance" {
			t.Errorf("expected name 'Main Binance', got %s", account.Name)
		}
	})

	t.Run("rejects unknown platform", func(t *testing.T) {
		handler, _, _ := newAccountHandler(NewMockAccountService())

		body := []byte(`{"name":"x","platform":"etrade"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreateAccount(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		handler, _, _ := newAccountHandler(NewMockAccountService())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader([]byte(`{`)))
		w := httptest.NewRecorder()

		handler.CreateAccount(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	t.Run("returns account", func(t *testing.T) {
		accounts := NewMockAccountService()
		stored := accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
		handler, _, _ := newAccountHandler(accounts)

		req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/1", nil), "1")
		w := httptest.NewRecorder()

		handler.GetAccount(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var account models.TradingAccount
		if err := json.NewDecoder(w.Body).Decode(&account); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if account.ID != stored.ID {
			t.Errorf("expected account id %d, got %d", stored.ID, account.ID)
		}
	})

	t.Run("returns 404 for missing account", func(t *testing.T) {
		handler, _, _ := newAccountHandler(NewMockAccountService())

		req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/99", nil), "99")
		w := httptest.NewRecorder()

		handler.GetAccount(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("returns 400 for non-numeric id", func(t *testing.T) {
		handler, _, _ := newAccountHandler(NewMockAccountService())

		req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/abc", nil), "abc")
		w := httptest.NewRecorder()

		handler.GetAccount(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestAccountHandler_SaveCredentials(t *testing.T) {
	t.Run("saves credentials and reports verification", func(t *testing.T) {
		accounts := NewMockAccountService()
		accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
		handler, _, _ := newAccountHandler(accounts)

		body := []byte(`{"api_key":"valid-api-key-12345","secret_key":"valid-secret-key-1"}`)
		req := withID(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/1/credentials", bytes.NewReader(body)), "1")
		w := httptest.NewRecorder()

		handler.SaveCredentials(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var result service.CredentialsResult
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !result.Verified {
			t.Error("expected verified credentials")
		}
	})

	t.Run("returns 400 when service rejects credentials", func(t *testing.T) {
		accounts := NewMockAccountService()
		accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
		credentials := &MockCredentialsService{
			result: &service.CredentialsResult{Success: false, Message: "api key and secret must be provided together"},
		}
		handler := NewAccountHandler(accounts, credentials, &MockConnectionService{}, &MockSyncService{}, &MockAnalysisService{})

		body := []byte(`{"api_key":"only-key"}`)
		req := withID(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/1/credentials", bytes.NewReader(body)), "1")
		w := httptest.NewRecorder()

		handler.SaveCredentials(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestAccountHandler_TestConnection(t *testing.T) {
	t.Run("returns 200 even for failed check", func(t *testing.T) {
		accounts := NewMockAccountService()
		accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
		handler, connections, _ := newAccountHandler(accounts)
		connections.connResult = &service.ConnectionResult{Success: false, Message: "broker rejected credentials"}

		req := withID(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/1/test-connection", nil), "1")
		w := httptest.NewRecorder()

		handler.TestConnection(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var result service.ConnectionResult
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.Success {
			t.Error("expected success=false in body")
		}
	})

	t.Run("reports simulated result", func(t *testing.T) {
		accounts := NewMockAccountService()
		accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
		handler, connections, _ := newAccountHandler(accounts)
		connections.connResult = &service.ConnectionResult{Success: true, Message: "gateway unreachable, result simulated", Simulated: true}

		req := withID(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/1/test-connection", nil), "1")
		w := httptest.NewRecorder()

		handler.TestConnection(w, req)

		var result service.ConnectionResult
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !result.Simulated {
			t.Error("expected simulated=true in body")
		}
	})
}

func TestAccountHandler_SyncAccount(t *testing.T) {
	accounts := NewMockAccountService()
	accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
	handler, _, syncSvc := newAccountHandler(accounts)
	syncSvc.result = &service.SyncResult{Success: true, Message: "synced", Balance: 250.5, Equity: 248.0, RealTradingEnabled: true}

	req := withID(httptest.NewRequest(http.MethodPost, "/api/v1/accounts/1/sync", nil), "1")
	w := httptest.NewRecorder()

	handler.SyncAccount(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var result service.SyncResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Balance != 250.5 {
		t.Errorf("expected balance 250.5, got %v", result.Balance)
	}
	if !result.RealTradingEnabled {
		t.Error("expected real_trading_enabled=true")
	}
}

func TestAccountHandler_UpdateRiskSettings(t *testing.T) {
	t.Run("updates settings", func(t *testing.T) {
		accounts := NewMockAccountService()
		stored := accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
		handler, _, _ := newAccountHandler(accounts)

		body := []byte(`{"risk_level":"high","max_drawdown":15,"daily_profit_target":5}`)
		req := withID(httptest.NewRequest(http.MethodPatch, "/api/v1/accounts/1/risk", bytes.NewReader(body)), "1")
		w := httptest.NewRecorder()

		handler.UpdateRiskSettings(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if stored.RiskLevel != models.RiskLevelHigh {
			t.Errorf("expected risk level high, got %s", stored.RiskLevel)
		}
	})

	t.Run("rejects unknown risk level", func(t *testing.T) {
		accounts := NewMockAccountService()
		accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
		handler, _, _ := newAccountHandler(accounts)

		body := []byte(`{"risk_level":"extreme"}`)
		req := withID(httptest.NewRequest(http.MethodPatch, "/api/v1/accounts/1/risk", bytes.NewReader(body)), "1")
		w := httptest.NewRecorder()

		handler.UpdateRiskSettings(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	accounts := NewMockAccountService()
	accounts.AddAccount(&models.TradingAccount{Name: "Demo", Platform: models.PlatformBinance})
	handler, _, _ := newAccountHandler(accounts)

	req := withID(httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/1", nil), "1")
	w := httptest.NewRecorder()

	handler.DeleteAccount(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	// Повторное удаление - 404
	req = withID(httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/1", nil), "1")
	w = httptest.NewRecorder()

	handler.DeleteAccount(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d on second delete, got %d", http.StatusNotFound, w.Code)
	}
}

func TestAccountHandler_GetRealTradingAnalysis(t *testing.T) {
	accounts := NewMockAccountService()
	accounts.AddAccount(&models.TradingAccount{Name: "Real", Platform: models.PlatformBinance, TradingMode: models.TradingModeReal})
	analysis := &MockAnalysisService{
		fullResult: &service.AccountAnalysisResult{
			Success:          true,
			Message:          "analysis complete",
			IsRealTrading:    true,
			AffectsRealMoney: true,
			Warnings:         []string{"account is in real trading mode, orders will affect real funds"},
		},
	}
	handler := NewAccountHandler(accounts, &MockCredentialsService{}, &MockConnectionService{}, &MockSyncService{}, analysis)

	req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/1/real-trading-analysis", nil), "1")
	w := httptest.NewRecorder()

	handler.GetRealTradingAnalysis(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var result service.AccountAnalysisResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.AffectsRealMoney {
		t.Error("expected affects_real_money=true")
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(result.Warnings))
	}
}
