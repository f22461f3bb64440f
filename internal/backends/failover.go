package backends

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/villaverde/sendgrid-backend/internal/email"
	ierr "github.com/villaverde/sendgrid-backend/internal/errors"
)

// FailoverBackend wraps multiple backends and attempts to send through
// them in order, failing over to the next one when a backend is
// unhealthy or fails to send.
type FailoverBackend struct {
	backends []Backend
	logger   *zerolog.Logger
}

// NewFailoverBackend creates a failover chain. Backends are tried in
// order, the first healthy backend that delivers the message wins.
func NewFailoverBackend(backends []Backend, logger *zerolog.Logger) *FailoverBackend {
	return &FailoverBackend{
		backends: backends,
		logger:   logger,
	}
}

func (f *FailoverBackend) Name() string {
	return "failover"
}

// Send attempts each backend in order. Backends implementing
// HealthChecker are skipped while unhealthy. Validation errors abort the
// chain immediately, since the same message would fail everywhere.
func (f *FailoverBackend) Send(ctx context.Context, msg *email.Message) error {
	var lastErr error

	for _, b := range f.backends {
		if hc, ok := b.(HealthChecker); ok && !hc.IsHealthy(ctx) {
			f.logger.Warn().
				Str("backend", b.Name()).
				Msg("backend unhealthy, skipping")
			continue
		}

		err := b.Send(ctx, msg)
		if err == nil {
			if lastErr != nil {
				f.logger.Info().
					Str("backend", b.Name()).
					Msg("message delivered after failover")
			}
			return nil
		}

		if ierr.IsValidation(err) {
			return err
		}

		f.logger.Warn().
			Err(err).
			Str("backend", b.Name()).
			Msg("backend send failed, trying next")
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("all backends failed: %w", lastErr)
	}
	return ierr.NewError("no healthy backend available").Mark(ierr.ErrProvider)
}

// Backends returns the chain in order.
func (f *FailoverBackend) Backends() []Backend {
	return f.backends
}
