package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/villaverde/sendgrid-backend/internal/config"
)

func TestOfflineVerifier_ValidEmails(t *testing.T) {
	v := NewOfflineVerifier()
	ctx := context.Background()

	validEmails := []string{
		"user@example.com",
		"user.name@example.com",
		"user+tag@example.com",
		"user@sub.example.com",
		"user@example.co.uk",
		"a@b.co",
	}

	for _, address := range validEmails {
		t.Run(address, func(t *testing.T) {
			result, err := v.VerifyEmail(ctx, address)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsValid {
				t.Errorf("expected %q to be valid, got invalid: %s", address, result.Raw)
			}
			if result.Score != 100.0 {
				t.Errorf("expected score 100, got %f", result.Score)
			}
		})
	}
}

func TestOfflineVerifier_InvalidEmails(t *testing.T) {
	v := NewOfflineVerifier()
	ctx := context.Background()

	testCases := []struct {
		address     string
		description string
	}{
		{"", "empty string"},
		{"notanemail", "no @ symbol"},
		{"@example.com", "no local part"},
		{"user@", "no domain"},
		{"user@localhost", "domain without dot"},
		{"user@.com", "domain starts with dot"},
		{"user@@example.com", "double @"},
		{"user @example.com", "space in local part"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			result, err := v.VerifyEmail(ctx, tc.address)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.IsValid {
				t.Errorf("expected %q to be invalid (%s), got valid", tc.address, tc.description)
			}
			if result.Score != 0 {
				t.Errorf("expected score 0 for invalid address, got %f", result.Score)
			}
		})
	}
}

func TestNewSelectsProvider(t *testing.T) {
	offline, err := New(&config.Config{AppEmailVerificationProvider: config.VerificationProviderOffline})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := offline.(*OfflineVerifier); !ok {
		t.Errorf("expected an offline verifier, got %T", offline)
	}

	sg, err := New(&config.Config{
		AppEmailVerificationProvider:    config.VerificationProviderSendGrid,
		SendGridEmailVerificationApiKey: "SG.test-key",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sg.(*SendGridVerifier); !ok {
		t.Errorf("expected a sendgrid verifier, got %T", sg)
	}

	if _, err := New(&config.Config{AppEmailVerificationProvider: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestSendGridVerifier_VerifyEmailViaAPI(t *testing.T) {
	testCases := []struct {
		name           string
		address        string
		serverResponse AddressValidationResponse
		expectedValid  bool
		expectedScore  float32
	}{
		{
			name:    "valid email",
			address: "valid@example.com",
			serverResponse: AddressValidationResponse{
				Result: AddressValidationResult{
					Email:   "valid@example.com",
					Verdict: "Valid",
					Score:   0.95,
				},
			},
			expectedValid: true,
			expectedScore: 0.95,
		},
		{
			name:    "invalid email",
			address: "invalid@example.com",
			serverResponse: AddressValidationResponse{
				Result: AddressValidationResult{
					Email:   "invalid@example.com",
					Verdict: "Invalid",
					Score:   0.1,
				},
			},
			expectedValid: false,
			expectedScore: 0.1,
		},
		{
			name:    "risky email",
			address: "risky@example.com",
			serverResponse: AddressValidationResponse{
				Result: AddressValidationResult{
					Email:   "risky@example.com",
					Verdict: "Risky",
					Score:   0.5,
				},
			},
			expectedValid: true, // Risky is not Invalid
			expectedScore: 0.5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v3/validations/email" {
					t.Errorf("unexpected path: %s", r.URL.Path)
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				if r.Method != "POST" {
					t.Errorf("unexpected method: %s", r.Method)
					http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(tc.serverResponse)
			}))
			defer server.Close()

			v := &SendGridVerifier{
				APIHost: server.URL,
				APIKey:  "test-api-key",
			}

			result, err := v.VerifyEmailViaAPI(context.Background(), tc.address)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.IsValid != tc.expectedValid {
				t.Errorf("expected IsValid=%v, got %v", tc.expectedValid, result.IsValid)
			}
			if result.Score != tc.expectedScore {
				t.Errorf("expected Score=%f, got %f", tc.expectedScore, result.Score)
			}
		})
	}
}

func TestSendGridVerifier_RejectedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"access forbidden"}]}`, http.StatusForbidden)
	}))
	defer server.Close()

	v := &SendGridVerifier{APIHost: server.URL, APIKey: "test-api-key"}

	_, err := v.VerifyEmailViaAPI(context.Background(), "user@example.com")
	if err == nil {
		t.Fatal("expected error for rejected request, got nil")
	}
	if !strings.Contains(err.Error(), "status=403") {
		t.Errorf("expected the status in the error, got: %v", err)
	}
}

func TestSendGridVerifier_VerifyEmailViaWhitelist(t *testing.T) {
	v := &SendGridVerifier{
		Whitelist: []string{"trusted.com", "allowed.org"},
	}
	ctx := context.Background()

	testCases := []struct {
		name        string
		address     string
		expectMatch bool
	}{
		{"whitelisted domain", "user@trusted.com", true},
		{"another whitelisted domain", "admin@allowed.org", true},
		{"mixed case domain", "user@Trusted.COM", true},
		{"non-whitelisted domain", "user@untrusted.com", false},
		{"subdomain not whitelisted", "user@sub.trusted.com", false},
		{"invalid email format", "not-an-email", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := v.VerifyEmailViaWhitelist(ctx, tc.address)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tc.expectMatch {
				if result == nil {
					t.Errorf("expected whitelist match for %q, got nil", tc.address)
				} else if !result.IsValid {
					t.Errorf("expected IsValid=true for whitelisted address")
				}
			} else {
				if result != nil {
					t.Errorf("expected no whitelist match for %q, got result", tc.address)
				}
			}
		})
	}
}

func TestSendGridVerifier_VerifyEmail_WhitelistSkipsAPI(t *testing.T) {
	apiCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalled = true
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AddressValidationResponse{
			Result: AddressValidationResult{
				Verdict: "Valid",
				Score:   0.9,
			},
		})
	}))
	defer server.Close()

	v := &SendGridVerifier{
		Whitelist: []string{"trusted.com"},
		APIHost:   server.URL,
		APIKey:    "test-api-key",
	}

	ctx := context.Background()

	result, err := v.VerifyEmail(ctx, "user@trusted.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if apiCalled {
		t.Error("API must not be called for whitelisted domains")
	}
	if !result.IsValid {
		t.Error("whitelisted address must be valid")
	}

	apiCalled = false
	if _, err = v.VerifyEmail(ctx, "user@other.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !apiCalled {
		t.Error("API must be called for non-whitelisted domains")
	}
}
