package verifier

import (
	"context"
	"strings"

	"github.com/villaverde/sendgrid-backend/internal/email"
)

// OfflineVerifier validates address format without external API calls.
// It parses the address per RFC 5322 and requires a dotted domain.
type OfflineVerifier struct{}

func NewOfflineVerifier() *OfflineVerifier {
	return &OfflineVerifier{}
}

func (v *OfflineVerifier) VerifyEmail(ctx context.Context, address string) (*Result, error) {
	addr, err := email.ParseAddress(address)
	if err != nil {
		return invalidResult("invalid email format"), nil
	}

	at := strings.LastIndex(addr.Address, "@")
	if at == -1 || at == len(addr.Address)-1 {
		return invalidResult("missing domain"), nil
	}

	domain := addr.Address[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") {
		return invalidResult("invalid domain"), nil
	}

	return &Result{
		Score:   100.0,
		IsValid: true,
		Raw:     `{}`,
	}, nil
}

func invalidResult(reason string) *Result {
	return &Result{
		Score:   0,
		IsValid: false,
		Raw:     `{"error":"` + reason + `"}`,
	}
}
