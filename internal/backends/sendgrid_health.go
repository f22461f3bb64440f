package backends

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"

	"github.com/villaverde/sendgrid-backend/internal/config"
)

// SendGridHealthChecker probes the SendGrid API to determine whether the
// configured key can send. It caches the result to avoid excessive API
// calls.
type SendGridHealthChecker struct {
	apiKey   string
	apiHost  string
	cacheTTL time.Duration
	logger   *zerolog.Logger

	mu            sync.RWMutex
	cachedHealthy bool
	cacheExpiry   time.Time
}

func NewSendGridHealthChecker(cfg *config.Config, logger *zerolog.Logger) *SendGridHealthChecker {
	return &SendGridHealthChecker{
		apiKey:   cfg.SendGridApiKey,
		apiHost:  cfg.SendGridApiHost,
		cacheTTL: cfg.AppEmailFailoverCacheTTL,
		logger:   logger,
	}
}

// IsHealthy reports whether the API accepts the configured key. The
// result is cached for the configured TTL.
func (h *SendGridHealthChecker) IsHealthy(ctx context.Context) bool {
	h.mu.RLock()
	if time.Now().Before(h.cacheExpiry) {
		healthy := h.cachedHealthy
		h.mu.RUnlock()
		return healthy
	}
	h.mu.RUnlock()

	healthy := h.checkHealth(ctx)

	h.mu.Lock()
	h.cachedHealthy = healthy
	h.cacheExpiry = time.Now().Add(h.cacheTTL)
	h.mu.Unlock()

	return healthy
}

// checkHealth asks the scopes endpoint whether the key is usable. Any
// 2xx answer counts as healthy; errors assume unhealthy so failover
// kicks in.
func (h *SendGridHealthChecker) checkHealth(ctx context.Context) bool {
	request := sendgrid.GetRequest(h.apiKey, "/v3/scopes", h.apiHost)
	request.Method = "GET"

	response, err := sendgrid.API(request)
	if err != nil {
		h.logger.Warn().Err(err).Msg("sendgrid health check failed")
		return false
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		h.logger.Warn().
			Int("status", response.StatusCode).
			Msg("sendgrid api key rejected")
		return false
	}
	return true
}

// InvalidateCache forces the next IsHealthy call to probe again.
func (h *SendGridHealthChecker) InvalidateCache() {
	h.mu.Lock()
	h.cacheExpiry = time.Time{}
	h.mu.Unlock()
}
