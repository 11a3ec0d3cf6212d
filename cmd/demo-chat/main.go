package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/wolfman30/appointment-ai-site/internal/app/bootstrap"
	appconfig "github.com/wolfman30/appointment-ai-site/internal/config"
	"github.com/wolfman30/appointment-ai-site/internal/tui"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := appconfig.Load()

	// The terminal belongs to the UI; logs go to a file.
	logFile, err := os.OpenFile(cfg.TUILogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := logging.NewWithWriter(cfg.LogLevel, logFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assistant, err := bootstrap.BuildAssistant(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "demo chat: %v\n", err)
		os.Exit(1)
	}
	sess := bootstrap.BuildSession(cfg, cfg.AssistantSessionID, assistant, nil, logger)
	logger.Info("starting demo chat", "session_id", sess.ID(), "assistant_endpoint", cfg.AssistantEndpoint)

	model := tui.New(sess,
		tui.WithContext(ctx),
		tui.WithGlamourStyle(cfg.TUIGlamourStyle),
		tui.WithLogger(logger),
	)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("demo chat exited", "error", err)
		fmt.Fprintf(os.Stderr, "demo chat: %v\n", err)
		os.Exit(1)
	}
}
