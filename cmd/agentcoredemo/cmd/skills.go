package cmd

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/furisto/agentcore/backend/skill"
)

func newSkillsCmd(options *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Discover and list SKILL.md packs.",
	}
	cmd.AddCommand(newSkillsListCmd())
	return cmd
}

func newSkillsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every SKILL.md discovered under the default scopes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			userConfigDir, err := os.UserConfigDir()
			if err != nil {
				userConfigDir = ""
			}

			discoverer := skill.NewDiscoverer(afero.NewOsFs(), userConfigDir)
			skills, err := discoverer.Discover(cwd)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Name", "Scope", "Description"})
			for _, s := range skills {
				table.Append([]string{s.Name, string(s.Scope), s.Description})
			}
			table.Render()
			return nil
		},
	}
}
