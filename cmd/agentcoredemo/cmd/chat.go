package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/furisto/agentcore/backend/agent"
	"github.com/furisto/agentcore/backend/config"
	"github.com/furisto/agentcore/backend/eventstore"
	"github.com/furisto/agentcore/backend/session"
)

func newChatCmd(options *globalOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session against the Agent loop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			cfg := config.DefaultAgentCoreConfig()
			cfg.Provider.Kind = config.ProviderAnthropic
			cfg.Provider.Model = options.Model
			cfg.Provider.APIKey = options.ProviderKey
			cfg.SystemPrompt = "You are a helpful assistant running in a terminal demo."

			sessions, err := sessionBackend(options.SessionsDSN)
			if err != nil {
				return fmt.Errorf("open session backend: %w", err)
			}

			ag, _, err := config.BuildAgent(cfg, nil, agent.WithSessionBackend(sessions))
			if err != nil {
				return fmt.Errorf("build agent: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session %s — type a message, ctrl-d to exit\n", sessionID)
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Fprint(cmd.OutOrStdout(), "> ")
				if !scanner.Scan() {
					return nil
				}
				line := scanner.Text()
				if err := runTurn(cmd.Context(), ag, sessionID, line, cmd.OutOrStdout()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id to resume (generates a new one if empty)")
	return cmd
}

func runTurn(ctx context.Context, ag *agent.Agent, sessionID, text string, out io.Writer) error {
	seq, err := ag.StreamMessage(ctx, agent.UserInput{Text: text}, sessionID, "")
	if err != nil {
		return err
	}

	for event, err := range seq {
		if err != nil {
			return err
		}
		switch event.Kind {
		case eventstore.KindToken:
			var delta string
			if json.Unmarshal(event.Data, &delta) == nil {
				fmt.Fprint(out, delta)
			}
		case eventstore.KindDone:
			fmt.Fprintln(out)
		case eventstore.KindToolCall:
			var data agent.ToolCallData
			if json.Unmarshal(event.Data, &data) == nil {
				fmt.Fprintf(out, "\n[tool %s: %s]\n", data.Name, data.Status)
			}
		case eventstore.KindError:
			var data agent.ErrorData
			if json.Unmarshal(event.Data, &data) == nil {
				fmt.Fprintf(out, "\n[error %s: %s]\n", data.Type, data.Message)
			}
		}
	}
	return nil
}

func sessionBackend(dsn string) (session.Backend, error) {
	if dsn == "" {
		return session.NewMemoryBackend(), nil
	}
	return session.OpenSQLiteBackend(dsn)
}
