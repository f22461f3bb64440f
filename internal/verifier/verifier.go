package verifier

import (
	"context"
	"fmt"

	"github.com/villaverde/sendgrid-backend/internal/config"
)

type Result struct {
	Score        float32 `json:"score"`
	IsValid      bool    `json:"valid"`
	IsDisposable bool    `json:"disposable"`
	IsRoleBased  bool    `json:"role"`
	Raw          string  `json:"raw"`
}

type Verifier interface {
	VerifyEmail(ctx context.Context, address string) (*Result, error)
}

// New returns the verifier selected by the configuration.
func New(cfg *config.Config) (Verifier, error) {
	switch cfg.AppEmailVerificationProvider {
	case config.VerificationProviderOffline:
		return NewOfflineVerifier(), nil
	case config.VerificationProviderSendGrid:
		return NewSendGridVerifier(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email verification provider: %s", cfg.AppEmailVerificationProvider)
	}
}
