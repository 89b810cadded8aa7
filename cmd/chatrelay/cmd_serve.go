package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/chatrelay/internal/prompt"
	"github.com/user/chatrelay/internal/server"
	"github.com/user/chatrelay/internal/tokens"
	"github.com/user/chatrelay/pkg/llm"
	"github.com/user/chatrelay/pkg/llm/openai"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the completion relay",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "chatrelay.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	systemPrompt, err := prompt.Load(cfg.SystemPromptPath)
	if err != nil {
		return err
	}

	var estimator server.TokenEstimator
	if counter, err := tokens.New(cfg.Gateway.DefaultModel); err != nil {
		slog.Warn("token estimates disabled", "error", err)
	} else {
		estimator = counter
	}

	if cfg.Gateway.APIKey == "" {
		slog.Warn("no gateway API key configured; requests will be rejected upstream")
	}

	provider := openai.New(&llm.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		APIKey:      cfg.Gateway.APIKey,
		MaxTokens:   cfg.Gateway.MaxTokens,
		Temperature: cfg.Gateway.Temperature,
	})

	srv := server.New(provider, server.Options{
		DefaultModel:  cfg.Gateway.DefaultModel,
		SystemPrompt:  systemPrompt,
		MaxDuration:   cfg.MaxDuration(),
		MaxConcurrent: int64(cfg.MaxConcurrent),
		RatePerMinute: cfg.RateLimit.PerMinute,
		RateBurst:     cfg.RateLimit.Burst,
		Tokens:        estimator,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("chatrelay started",
		"listen", cfg.HTTP.Listen,
		"gateway", cfg.Gateway.BaseURL,
		"default_model", cfg.Gateway.DefaultModel,
		"max_concurrent", cfg.MaxConcurrent,
		"max_duration", cfg.MaxDuration(),
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				slog.Info("received SIGHUP, restarting")
				if err := reexec(httpServer, pidPath); err != nil {
					return fmt.Errorf("restart: %w", err)
				}
				continue
			}

			slog.Info("shutting down", "signal", sig)
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		}
	}
}

// reexec replaces the process with a fresh copy of itself. The listener is
// drained first so the new process can bind the same address, which means a
// failed exec leaves nothing serving and the caller has to exit.
func reexec(httpServer *http.Server, pidPath string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("get executable path: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Warn("shutdown before re-exec", "error", err)
	}

	os.Remove(pidPath)
	return syscall.Exec(execPath, os.Args, os.Environ())
}
