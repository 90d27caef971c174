package broker

import (
	"fmt"
	"strings"
	"sync"

	"tradeboard/internal/config"
	"tradeboard/internal/models"
)

// Factory создаёт и кэширует gateway-клиентов по платформе.
//
// Клиенты stateless (credentials передаются на каждый вызов),
// поэтому один экземпляр на платформу переиспользуется всеми аккаунтами.
type Factory struct {
	cfg     config.BrokerConfig
	mu      sync.Mutex
	clients map[string]Client
}

// NewFactory создаёт фабрику клиентов
func NewFactory(cfg config.BrokerConfig) *Factory {
	return &Factory{
		cfg:     cfg,
		clients: make(map[string]Client),
	}
}

// ClientFor возвращает клиент для платформы аккаунта.
//
// bybit и kucoin заведены в модели данных, но gateway-клиентов для них
// нет: аккаунты этих платформ хранятся, но не синхронизируются.
func (f *Factory) ClientFor(platform string) (Client, error) {
	platform = strings.ToLower(platform)

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[platform]; ok {
		return client, nil
	}

	var client Client
	switch platform {
	case models.PlatformBinance:
		client = NewBinance(f.cfg.BinanceBaseURL, f.cfg.BinanceRateLimit)
	case models.PlatformMT4, models.PlatformMT5:
		client = NewMTBridge(platform, f.cfg.MTBridgeURL, f.cfg.MTBridgeRateLimit)
	case models.PlatformBybit, models.PlatformKucoin:
		return nil, fmt.Errorf("%w: %s", ErrPlatformNotSupported, platform)
	default:
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}

	f.clients[platform] = client
	return client, nil
}
