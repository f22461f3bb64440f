package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

const (
	BackendSendGrid = "sendgrid"
	BackendConsole  = "console"

	VerificationProviderOffline  = "offline"
	VerificationProviderSendGrid = "sendgrid"
)

type Config struct {
	DebugMode   bool
	AppLogLevel string

	AppEmailBackend string
	AppSendEnabled  bool
	AppFailSilently bool
	AppEchoToStdout bool

	// Payload defaults. Sandbox mode only ever turns on in debug mode.
	AppSandboxModeInDebug bool
	AppTrackEmailOpens    bool

	AppEmailVerificationEnabled   bool
	AppEmailVerificationProvider  string
	AppEmailVerificationWhitelist []string

	AppEmailFailoverEnabled  bool
	AppEmailFailoverBackends []string
	AppEmailFailoverCacheTTL time.Duration

	SendGridApiHost                 string
	SendGridApiKey                  string
	SendGridEmailVerificationApiKey string
}

func New() (*Config, error) {
	cfg := Config{
		DebugMode:                       os.Getenv("APP_DEBUG_MODE") == "true",
		AppLogLevel:                     os.Getenv("APP_LOG_LEVEL"),
		AppEmailBackend:                 os.Getenv("APP_EMAIL_BACKEND"),
		AppSendEnabled:                  true,
		AppFailSilently:                 os.Getenv("APP_FAIL_SILENTLY") == "true",
		AppEchoToStdout:                 os.Getenv("APP_ECHO_TO_STDOUT") == "true",
		AppSandboxModeInDebug:           os.Getenv("APP_SANDBOX_MODE_IN_DEBUG") != "false",
		AppTrackEmailOpens:              os.Getenv("APP_TRACK_EMAIL_OPENS") != "false",
		AppEmailVerificationEnabled:     os.Getenv("APP_EMAIL_VERIFICATION_ENABLED") == "true",
		AppEmailVerificationProvider:    os.Getenv("APP_EMAIL_VERIFICATION_PROVIDER"),
		AppEmailVerificationWhitelist:   []string{},
		AppEmailFailoverEnabled:         os.Getenv("APP_EMAIL_FAILOVER_ENABLED") == "true",
		AppEmailFailoverBackends:        []string{},
		AppEmailFailoverCacheTTL:        30 * time.Second,
		SendGridApiHost:                 os.Getenv("APP_SENDGRID_API_HOST"),
		SendGridApiKey:                  os.Getenv("APP_SENDGRID_API_KEY"),
		SendGridEmailVerificationApiKey: os.Getenv("APP_SENDGRID_EMAIL_VERIFICATION_API_KEY"),
	}

	// disable send in debug mode unless explicitly enabled
	if cfg.DebugMode && os.Getenv("APP_SEND_ENABLED") != "true" {
		cfg.AppSendEnabled = false
	}
	if !cfg.DebugMode && os.Getenv("APP_SEND_ENABLED") == "false" {
		cfg.AppSendEnabled = false
	}

	if cfg.AppLogLevel == "" {
		cfg.AppLogLevel = "info"
	}

	if cfg.AppEmailBackend == "" {
		cfg.AppEmailBackend = BackendSendGrid
	}

	if cfg.AppEmailVerificationProvider == "" {
		cfg.AppEmailVerificationProvider = VerificationProviderOffline
	}

	if cfg.SendGridApiHost == "" {
		cfg.SendGridApiHost = "https://api.sendgrid.com"
	}

	if cfg.SendGridEmailVerificationApiKey == "" {
		cfg.SendGridEmailVerificationApiKey = cfg.SendGridApiKey
	}

	cfg.AppEmailVerificationWhitelist = splitList(os.Getenv("APP_EMAIL_VERIFICATION_WHITELIST"))
	cfg.AppEmailFailoverBackends = splitList(os.Getenv("APP_EMAIL_FAILOVER_BACKENDS"))

	if ttlStr := os.Getenv("APP_EMAIL_FAILOVER_CACHE_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil {
			cfg.AppEmailFailoverCacheTTL = ttl
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and valid.
func (c *Config) Validate() error {
	validBackends := map[string]bool{BackendSendGrid: true, BackendConsole: true}

	if !validBackends[c.AppEmailBackend] {
		return errors.New("APP_EMAIL_BACKEND must be 'sendgrid' or 'console'")
	}

	if c.AppEmailVerificationProvider != VerificationProviderOffline &&
		c.AppEmailVerificationProvider != VerificationProviderSendGrid {
		return errors.New("APP_EMAIL_VERIFICATION_PROVIDER must be 'offline' or 'sendgrid'")
	}

	if c.AppEmailVerificationEnabled &&
		c.AppEmailVerificationProvider == VerificationProviderSendGrid &&
		c.SendGridEmailVerificationApiKey == "" {
		return errors.New("APP_SENDGRID_EMAIL_VERIFICATION_API_KEY is required when using sendgrid email verification")
	}

	if c.AppEmailFailoverEnabled && len(c.AppEmailFailoverBackends) == 0 {
		return errors.New("APP_EMAIL_FAILOVER_BACKENDS is required when failover is enabled")
	}

	sendGridInUse := c.AppEmailBackend == BackendSendGrid
	for _, b := range c.AppEmailFailoverBackends {
		if !validBackends[b] {
			return errors.New("invalid failover backend: " + b + " (must be 'sendgrid' or 'console')")
		}
		if b == BackendSendGrid {
			sendGridInUse = true
		}
	}

	if sendGridInUse && c.AppSendEnabled && c.SendGridApiKey == "" {
		return errors.New("APP_SENDGRID_API_KEY is required when sending through sendgrid")
	}

	return nil
}

// SandboxMode reports the effective sandbox_mode flag for outgoing
// payloads. Sandbox only applies in debug mode, and there only unless
// explicitly disabled.
func (c *Config) SandboxMode() bool {
	return c.DebugMode && c.AppSandboxModeInDebug
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
