package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/villaverde/sendgrid-backend/internal/config"
	"github.com/villaverde/sendgrid-backend/internal/email"
	"github.com/villaverde/sendgrid-backend/internal/logger"
	"github.com/villaverde/sendgrid-backend/internal/sender"
)

var dataPath string

func init() {
	flag.StringVar(&dataPath, "data", "", "path to JSON file with test messages")
	flag.Parse()
}

// NewDebugConfig loads the regular configuration forced into debug
// mode, so payloads are echoed instead of sent.
func NewDebugConfig() (*config.Config, error) {
	envpath := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(envpath); err == nil {
		_ = godotenv.Load(envpath)
	}

	os.Setenv("APP_DEBUG_MODE", "true")

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	cfg.AppEchoToStdout = true

	return cfg, nil
}

func main() {
	cfg, err := NewDebugConfig()
	if err != nil {
		log.Fatal("failed to load debug config", "error", err)
	}
	logLevel, _ := log.ParseLevel(cfg.AppLogLevel)
	log.SetLevel(logLevel)

	if dataPath == "" {
		dataPath = filepath.Join("..", "..", "fixtures", "debug-messages.json")
	}

	zl, err := logger.New(true, cfg.AppLogLevel)
	if err != nil {
		log.Fatal("failed to init logger", "error", err)
	}

	s, err := sender.New(cfg, zl)
	if err != nil {
		log.Fatal("failed to init sender", "error", err)
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		log.Fatal("failed to read data file", "path", dataPath, "error", err)
	}

	msgs := []*email.Message{}
	if err := json.Unmarshal(data, &msgs); err != nil {
		log.Fatal("failed to parse message file", "error", err)
	}

	for i, msg := range msgs {
		if err := s.SendMessage(context.Background(), msg); err != nil {
			log.Error("debug send failed", "index", i, "error", err)
			os.Exit(1)
		}
		log.Info("debug send passed", "index", i, "subject", msg.Subject)
	}

	log.Info("all debug sends passed")
}
