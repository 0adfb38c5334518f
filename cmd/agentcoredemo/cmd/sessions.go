package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newSessionsCmd(options *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect the session backend.",
	}
	cmd.AddCommand(newSessionsListCmd(options))
	return cmd
}

func newSessionsListCmd(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every known session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := sessionBackend(options.SessionsDSN)
			if err != nil {
				return fmt.Errorf("open session backend: %w", err)
			}

			summaries, err := sessions.ListSessions(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Session", "Messages", "Created", "Updated"})
			for _, s := range summaries {
				table.Append([]string{
					s.ID,
					fmt.Sprintf("%d", s.MessageCount),
					s.CreatedAt.Format("2006-01-02 15:04:05"),
					s.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			table.Render()
			return nil
		},
	}
}
