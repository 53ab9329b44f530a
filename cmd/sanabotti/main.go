// Package main provides the sanabotti binary entry point.
// Sanabotti validates moves in a turn-based word chain game: each word must
// differ from the previous one by exactly one letter, be unused, and be
// either a dictionary word or an LLM-confirmed proper noun.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/Dilaz/sanabotti/llm/providers"

	"github.com/Dilaz/sanabotti/config"
	"github.com/Dilaz/sanabotti/rules"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "sanabotti"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Word chain game validator",
		Long: `Sanabotti validates moves in a turn-based word chain game.

Each submitted word must:
- differ from the previous word by exactly one letter
  (substitution, insertion, or deletion)
- not have been played before in the current game
- be a known dictionary word, or a proper noun confirmed
  by an external LLM service

Words arrive over NATS and outcome indications are published
back for a chat adapter to render.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; real environment always wins.
			_ = godotenv.Load()
			configureLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(&configPath))
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the validation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			app := NewApp(cfg, slog.Default())

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := app.Start(ctx); err != nil {
				return err
			}

			slog.Info("Sanabotti ready", "version", Version)

			<-ctx.Done()
			slog.Info("Received shutdown signal")

			app.Shutdown(10 * time.Second)
			return nil
		},
	}
}

// checkCmd applies the one-edit rule to a word pair without any services.
// Useful for trying out moves and for debugging rule disputes.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <previous> <candidate>",
		Short: "Check a word pair against the one-edit rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			previous := rules.Normalize(args[0])
			candidate := rules.Normalize(args[1])

			engine := rules.NewEngine()
			engine.AddWord(previous)

			err := engine.ValidateMove(previous, candidate)
			switch {
			case err == nil:
				fmt.Printf("OK: %q -> %q is a legal move\n", previous, candidate)
				return nil
			case isRuleError(err):
				fmt.Printf("Rejected: %v\n", err)
				return nil
			default:
				return err
			}
		},
	}
}

func isRuleError(err error) bool {
	var rv *rules.RuleViolation
	var au *rules.AlreadyUsedError
	return errors.As(err, &rv) || errors.As(err, &au)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
