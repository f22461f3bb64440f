package backends

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/villaverde/sendgrid-backend/internal/config"
	"github.com/villaverde/sendgrid-backend/internal/email"
)

// Backend delivers one message to its destination.
type Backend interface {
	Name() string
	Send(ctx context.Context, msg *email.Message) error
}

// New builds the backend selected by the configuration, wrapped in a
// failover chain when one is configured.
func New(cfg *config.Config, logger *zerolog.Logger) (Backend, error) {
	primary, err := newByName(cfg.AppEmailBackend, cfg, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.AppEmailFailoverEnabled {
		return primary, nil
	}

	chain := []Backend{primary}
	for _, name := range cfg.AppEmailFailoverBackends {
		b, err := newByName(name, cfg, logger)
		if err != nil {
			return nil, err
		}
		chain = append(chain, b)
	}

	return NewFailoverBackend(chain, logger), nil
}

func newByName(name string, cfg *config.Config, logger *zerolog.Logger) (Backend, error) {
	switch name {
	case config.BackendSendGrid:
		b := NewSendGridBackend(cfg, logger)
		if cfg.AppEmailFailoverEnabled {
			b.Health = NewSendGridHealthChecker(cfg, logger)
		}
		return b, nil
	case config.BackendConsole:
		return NewConsoleBackend(os.Stdout, logger, payloadOptions(cfg)...), nil
	default:
		return nil, fmt.Errorf("unknown email backend: %s", name)
	}
}

// payloadOptions derives the transcoder options every backend applies.
func payloadOptions(cfg *config.Config) []PayloadOption {
	return []PayloadOption{
		WithSandboxMode(cfg.SandboxMode()),
		WithOpenTracking(cfg.AppTrackEmailOpens),
	}
}
