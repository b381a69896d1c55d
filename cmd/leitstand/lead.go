package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leitstand/leitstand/pkg/api"
	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/tui"
)

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Run the team-lead console",
	RunE:  runLead,
}

func init() {
	rootCmd.AddCommand(leadCmd)
}

func runLead(cmd *cobra.Command, args []string) error {
	return runConsole(client.RoleTeamLead, "",
		func(s *client.Session, c *api.Commands, _ string, _ *client.State, log logger.Logger) tea.Model {
			return tui.NewWatchModel(s, c, client.RoleTeamLead, log)
		})
}
