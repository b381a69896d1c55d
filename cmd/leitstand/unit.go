package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leitstand/leitstand/pkg/api"
	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/tui"
)

var unitName string

var unitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Run the vehicle keypad console",
	RunE:  runUnit,
}

func init() {
	unitCmd.Flags().StringVarP(&unitName, "name", "n", "", "unit call sign, e.g. \"Florian 1\"")
	rootCmd.AddCommand(unitCmd)
}

func runUnit(cmd *cobra.Command, args []string) error {
	return runConsole(client.RoleUnit, unitName,
		func(s *client.Session, _ *api.Commands, identity string, st *client.State, log logger.Logger) tea.Model {
			return tui.NewUnitModel(s, identity, st.GetLastKurzstatus(), log)
		})
}
