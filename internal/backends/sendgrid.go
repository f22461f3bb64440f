package backends

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/villaverde/sendgrid-backend/internal/config"
	"github.com/villaverde/sendgrid-backend/internal/email"
	ierr "github.com/villaverde/sendgrid-backend/internal/errors"
)

// SendGridBackend delivers messages through the SendGrid v3 mail-send API.
type SendGridBackend struct {
	Client *sendgrid.Client
	DryRun bool
	// Echo receives every request body before it is sent, when set.
	Echo   io.Writer
	Health *SendGridHealthChecker

	logger      *zerolog.Logger
	payloadOpts []PayloadOption
}

func NewSendGridBackend(cfg *config.Config, logger *zerolog.Logger) *SendGridBackend {
	b := &SendGridBackend{
		Client:      newSendClient(cfg.SendGridApiKey, cfg.SendGridApiHost),
		DryRun:      !cfg.AppSendEnabled,
		logger:      logger,
		payloadOpts: payloadOptions(cfg),
	}
	if cfg.AppEchoToStdout {
		b.Echo = os.Stdout
	}
	return b
}

// newSendClient builds a mail-send client against the given host, so the
// backend can point at regional endpoints or a test server.
func newSendClient(apiKey, host string) *sendgrid.Client {
	request := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
	request.Method = "POST"
	return &sendgrid.Client{Request: request}
}

func (b *SendGridBackend) Name() string {
	return "sendgrid"
}

// IsHealthy defers to the attached health checker. Backends without one,
// and dry-run backends, are always considered healthy.
func (b *SendGridBackend) IsHealthy(ctx context.Context) bool {
	if b.Health == nil || b.DryRun {
		return true
	}
	return b.Health.IsHealthy(ctx)
}

func (b *SendGridBackend) Send(ctx context.Context, msg *email.Message) error {
	m, err := BuildMail(msg, b.payloadOpts...)
	if err != nil {
		return err
	}

	if b.Echo != nil {
		fmt.Fprintf(b.Echo, "%s\n", sgmail.GetRequestBody(m))
	}

	if b.DryRun {
		b.logger.Debug().
			Str("subject", msg.Subject).
			Strs("to", addressList(msg.To)).
			Msg("dry-run sendgrid send")
		return nil
	}

	resp, err := b.Client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid api error: %w", err)
	}

	return classifyResponse(resp)
}

// classifyResponse turns non-2xx mail-send responses into provider errors
// carrying status and body.
func classifyResponse(resp *rest.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return ierr.NewErrorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body).
		WithReportableDetails(map[string]any{"status": resp.StatusCode}).
		Mark(ierr.ErrProvider)
}

func addressList(addrs []email.Address) []string {
	return lo.Map(addrs, func(a email.Address, _ int) string {
		return a.Address
	})
}
