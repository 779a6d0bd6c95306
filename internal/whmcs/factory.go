package whmcs

import (
	"fmt"
	"sync"
	"time"

	"whmcs-stock-monitor/internal/entity"
	"whmcs-stock-monitor/pkg/logger"
)

// FactoryConfig holds the client defaults shared by every website.
type FactoryConfig struct {
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxRetries int
	RateLimit  float64
}

// Factory builds and caches one client per website. Cached clients keep
// their response cache across cycles; a credential or URL change evicts
// the stale client.
type Factory struct {
	cfg    FactoryConfig
	logger *logger.Logger

	mu      sync.Mutex
	clients map[uint]*factoryEntry
}

type factoryEntry struct {
	client      *Client
	fingerprint string
}

// NewFactory creates a client factory.
func NewFactory(cfg FactoryConfig, log *logger.Logger) *Factory {
	return &Factory{
		cfg:     cfg,
		logger:  log,
		clients: make(map[uint]*factoryEntry),
	}
}

// ClientFor returns the client for a website, building it on first use.
func (f *Factory) ClientFor(website *entity.Website) (InventoryClient, error) {
	if website == nil || website.ID == 0 {
		return nil, newError(ErrKindValidation, "website is required", nil)
	}

	fingerprint := fmt.Sprintf("%s|%s|%s", website.WebsiteURL, website.APIIdentifier, website.APISecret)

	f.mu.Lock()
	defer f.mu.Unlock()

	if entry, ok := f.clients[website.ID]; ok && entry.fingerprint == fingerprint {
		return entry.client, nil
	}

	client, err := NewClient(Config{
		APIURL:        website.WebsiteURL,
		APIIdentifier: website.APIIdentifier,
		APISecret:     website.APISecret,
		Timeout:       f.cfg.Timeout,
		CacheTTL:      f.cfg.CacheTTL,
		MaxRetries:    f.cfg.MaxRetries,
		RateLimit:     f.cfg.RateLimit,
	}, f.logger)
	if err != nil {
		return nil, err
	}

	f.clients[website.ID] = &factoryEntry{client: client, fingerprint: fingerprint}
	f.logger.Debug("Built WHMCS client", logger.IntField("website_id", int(website.ID)))
	return client, nil
}

// Invalidate drops the cached client for a website.
func (f *Factory) Invalidate(websiteID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, websiteID)
}
