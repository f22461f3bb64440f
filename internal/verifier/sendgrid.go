package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"

	"github.com/villaverde/sendgrid-backend/internal/config"
	"github.com/villaverde/sendgrid-backend/internal/email"
)

type AddressValidationResult struct {
	Email   string  `json:"email"`
	Verdict string  `json:"verdict"`
	Score   float32 `json:"score"`
}

type AddressValidationResponse struct {
	Result AddressValidationResult `json:"result"`
}

// SendGridVerifier checks addresses against the SendGrid email address
// validation API. Domains on the whitelist skip the API entirely, which
// keeps internal and partner addresses deliverable even when the
// validation service scores them poorly.
type SendGridVerifier struct {
	APIHost   string
	APIKey    string
	Whitelist []string
}

func NewSendGridVerifier(cfg *config.Config) *SendGridVerifier {
	return &SendGridVerifier{
		APIHost:   cfg.SendGridApiHost,
		APIKey:    cfg.SendGridEmailVerificationApiKey,
		Whitelist: cfg.AppEmailVerificationWhitelist,
	}
}

func (v *SendGridVerifier) VerifyEmail(ctx context.Context, address string) (*Result, error) {
	result, err := v.VerifyEmailViaWhitelist(ctx, address)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	return v.VerifyEmailViaAPI(ctx, address)
}

// VerifyEmailViaWhitelist returns a valid result when the address
// domain is whitelisted, or nil when the whitelist does not apply.
func (v *SendGridVerifier) VerifyEmailViaWhitelist(ctx context.Context, address string) (*Result, error) {
	if len(v.Whitelist) == 0 {
		return nil, nil
	}

	addr, err := email.ParseAddress(address)
	if err != nil {
		return nil, nil
	}

	at := strings.LastIndex(addr.Address, "@")
	if at == -1 {
		return nil, nil
	}
	domain := addr.Address[at+1:]

	for _, allowed := range v.Whitelist {
		if strings.EqualFold(domain, allowed) {
			return &Result{
				Score:   100.0,
				IsValid: true,
				Raw:     `{"whitelisted":true}`,
			}, nil
		}
	}

	return nil, nil
}

func (v *SendGridVerifier) VerifyEmailViaAPI(ctx context.Context, address string) (*Result, error) {
	request := sendgrid.GetRequest(v.APIKey, "/v3/validations/email", v.APIHost)
	request.Body = fmt.Appendf(request.Body, `{"email":"%s","source":"outbound"}`, address)
	request.Method = "POST"

	response, err := sendgrid.API(request)
	if err != nil {
		return nil, fmt.Errorf("sendgrid api error: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("sendgrid validation failed: status=%d body=%s", response.StatusCode, response.Body)
	}

	var payload AddressValidationResponse
	if err := json.Unmarshal([]byte(response.Body), &payload); err != nil {
		return nil, fmt.Errorf("sendgrid unmarshal error: %w", err)
	}

	result := payload.Result

	return &Result{
		Score:   result.Score,
		IsValid: result.Verdict != "Invalid",
		Raw:     response.Body,
	}, nil
}
