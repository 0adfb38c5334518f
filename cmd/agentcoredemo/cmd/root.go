package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logLevel string

const (
	logLevelDebug logLevel = "debug"
	logLevelInfo  logLevel = "info"
	logLevelWarn  logLevel = "warn"
	logLevelError logLevel = "error"
)

func (l logLevel) slogLevel() slog.Level {
	switch l {
	case logLevelDebug:
		return slog.LevelDebug
	case logLevelWarn:
		return slog.LevelWarn
	case logLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type globalOptions struct {
	LogLevel    string
	SessionsDSN string
	Model       string
	ProviderKey string
}

// NewRootCmd builds the agentcoredemo command tree: persistent flags for
// logging/session store/provider selection wired in PersistentPreRunE,
// mirroring frontend/cli/cmd/root.go's own PersistentPreRunE shape, scoped
// down to this repository's actual surface (no API client, no contexts).
func NewRootCmd() *cobra.Command {
	options := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "agentcoredemo",
		Short: "agentcoredemo drives the embeddable Agent Core runtime from a terminal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel(options.LogLevel).slogLevel(),
			})))

			if options.ProviderKey == "" {
				options.ProviderKey = os.Getenv("ANTHROPIC_API_KEY")
			}
			if options.ProviderKey == "" {
				if key, err := resolveAPIKeyFromSecretStore("anthropic"); err == nil {
					options.ProviderKey = key
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&options.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&options.SessionsDSN, "sessions-db", "", "SQLite DSN for session storage (empty uses an in-memory backend)")
	cmd.PersistentFlags().StringVar(&options.Model, "model", "claude-sonnet-4-20250514", "model id")
	cmd.PersistentFlags().StringVar(&options.ProviderKey, "api-key", "", "provider API key (defaults to $ANTHROPIC_API_KEY)")

	cmd.AddCommand(newChatCmd(options))
	cmd.AddCommand(newSessionsCmd(options))
	cmd.AddCommand(newSkillsCmd(options))
	return cmd
}
