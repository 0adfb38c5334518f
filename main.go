package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/furisto/agentcore/backend/agent"
	"github.com/furisto/agentcore/backend/config"
	"github.com/furisto/agentcore/backend/eventstore"
	"github.com/furisto/agentcore/backend/session"
)

// main is a minimal embedding example; cmd/agentcoredemo is the full CLI.
func main() {
	cfg := config.DefaultAgentCoreConfig()
	cfg.Provider.Kind = config.ProviderAnthropic
	cfg.Provider.Model = "claude-sonnet-4-20250514"
	cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.SystemPrompt = "You are a helpful assistant."

	ag, prov, err := config.BuildAgent(cfg, nil, agent.WithSessionBackend(session.NewMemoryBackend()))
	if err != nil {
		slog.Error("failed to build agent", "error", err)
		os.Exit(1)
	}
	slog.Info("agent ready", "provider", prov.Name(), "model", cfg.Provider.Model)

	ctx := context.Background()
	sessionID := uuid.NewString()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		seq, err := ag.StreamMessage(ctx, agent.UserInput{Text: scanner.Text()}, sessionID, "")
		if err != nil {
			slog.Error("stream_message rejected input", "error", err)
			continue
		}

		for event, err := range seq {
			if err != nil {
				slog.Error("stream error", "error", err)
				break
			}
			if event.Kind == eventstore.KindToken {
				var delta string
				if json.Unmarshal(event.Data, &delta) == nil {
					fmt.Print(delta)
				}
			}
			if event.Kind == eventstore.KindDone {
				fmt.Println()
			}
		}
	}
}
