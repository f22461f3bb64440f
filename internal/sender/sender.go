package sender

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/villaverde/sendgrid-backend/internal/backends"
	"github.com/villaverde/sendgrid-backend/internal/config"
	"github.com/villaverde/sendgrid-backend/internal/email"
	ierr "github.com/villaverde/sendgrid-backend/internal/errors"
	"github.com/villaverde/sendgrid-backend/internal/verifier"
)

// Sender pushes messages through the configured backend, optionally
// verifying recipient addresses first.
type Sender struct {
	cfg      *config.Config
	backend  backends.Backend
	verifier verifier.Verifier
	logger   *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) (*Sender, error) {
	backend, err := backends.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create email backend: %w", err)
	}

	s := &Sender{
		cfg:     cfg,
		backend: backend,
		logger:  logger,
	}

	if cfg.AppEmailVerificationEnabled {
		v, err := verifier.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create email verifier: %w", err)
		}
		s.verifier = v
	}

	return s, nil
}

// Backend returns the backend the sender delivers through.
func (s *Sender) Backend() backends.Backend {
	return s.backend
}

// SendMessages delivers the given messages and returns how many went
// out. Messages without recipients are skipped. When fail-silently is
// off, the first failure stops the run and is returned alongside the
// count of messages already sent.
func (s *Sender) SendMessages(ctx context.Context, msgs []*email.Message) (int, error) {
	sent := 0

	for _, msg := range msgs {
		sendID := uuid.New().String()
		log := s.logger.With().Str("send_id", sendID).Logger()

		if len(msg.Recipients()) == 0 {
			log.Debug().Str("subject", msg.Subject).Msg("message has no recipients, skipping")
			continue
		}

		log.Debug().
			Str("backend", s.backend.Name()).
			Str("subject", msg.Subject).
			Int("recipients", len(msg.Recipients())).
			Msg("sending email")

		if err := s.sendOne(ctx, msg); err != nil {
			if s.cfg.AppFailSilently {
				log.Warn().Err(err).Msg("email send failed")
				continue
			}
			return sent, err
		}

		sent++
		log.Info().Msg("email sent")
	}

	return sent, nil
}

// SendMessage delivers a single message.
func (s *Sender) SendMessage(ctx context.Context, msg *email.Message) error {
	_, err := s.SendMessages(ctx, []*email.Message{msg})
	return err
}

func (s *Sender) sendOne(ctx context.Context, msg *email.Message) error {
	if s.verifier != nil {
		if err := s.verifyRecipients(ctx, msg); err != nil {
			return err
		}
	}
	return s.backend.Send(ctx, msg)
}

func (s *Sender) verifyRecipients(ctx context.Context, msg *email.Message) error {
	for _, addr := range msg.Recipients() {
		result, err := s.verifier.VerifyEmail(ctx, addr.Address)
		if err != nil {
			return fmt.Errorf("email verification error: %w", err)
		}
		if !result.IsValid {
			return ierr.NewErrorf("email address failed verification: %s", addr.Address).
				WithReportableDetails(map[string]any{"address": addr.Address, "result": result.Raw}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
