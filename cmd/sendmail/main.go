package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/villaverde/sendgrid-backend/internal/config"
	"github.com/villaverde/sendgrid-backend/internal/email"
	"github.com/villaverde/sendgrid-backend/internal/logger"
	"github.com/villaverde/sendgrid-backend/internal/sender"
)

var (
	dataPath string
	dryRun   bool
)

func init() {
	flag.StringVar(&dataPath, "data", "", "path to JSON file with messages to send")
	flag.BoolVar(&dryRun, "dry-run", false, "build payloads without calling the API")
	flag.Parse()
}

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	if dryRun {
		os.Setenv("APP_SEND_ENABLED", "false")
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	logLevel, _ := log.ParseLevel(cfg.AppLogLevel)
	log.SetLevel(logLevel)

	if dataPath == "" {
		log.Fatal("missing required -data flag")
	}

	zl, err := logger.New(cfg.DebugMode, cfg.AppLogLevel)
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
		log.Fatal("failed to parse data file", "error", err)
	}

	sent, err := s.SendMessages(context.Background(), msgs)
	if err != nil {
		log.Error("failed to send email", "sent", sent, "error", err)
		os.Exit(1)
	}

	log.Info("emails sent", "count", sent, "backend", s.Backend().Name())
}
