package backends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/villaverde/sendgrid-backend/internal/email"
)

// ConsoleBackend writes mail-send request bodies to a writer instead of
// delivering them. It serves local development and acts as the last
// resort of failover chains.
type ConsoleBackend struct {
	Out io.Writer

	logger      *zerolog.Logger
	payloadOpts []PayloadOption
}

func NewConsoleBackend(out io.Writer, logger *zerolog.Logger, opts ...PayloadOption) *ConsoleBackend {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleBackend{
		Out:         out,
		logger:      logger,
		payloadOpts: opts,
	}
}

func (b *ConsoleBackend) Name() string {
	return "console"
}

func (b *ConsoleBackend) Send(ctx context.Context, msg *email.Message) error {
	m, err := BuildMail(msg, b.payloadOpts...)
	if err != nil {
		return err
	}

	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if _, err := fmt.Fprintf(b.Out, "%s\n", body); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	b.logger.Debug().
		Str("subject", msg.Subject).
		Strs("to", addressList(msg.To)).
		Msg("wrote payload to console")

	return nil
}
