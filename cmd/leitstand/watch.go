package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leitstand/leitstand/pkg/api"
	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the dispatcher console",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	return runConsole(client.RoleDispatcher, "",
		func(s *client.Session, c *api.Commands, _ string, _ *client.State, log logger.Logger) tea.Model {
			return tui.NewWatchModel(s, c, client.RoleDispatcher, log)
		})
}
