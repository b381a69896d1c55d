// Package tui implements the terminal consoles: the unit keypad and the
// dispatcher and team-lead watch views.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/protocol"
)

// SnapshotMsg carries a freshly merged view state into the UI.
type SnapshotMsg struct {
	View client.ViewState
}

// TextMsg carries a free-text broadcast into the UI.
type TextMsg struct {
	Text protocol.FreeText
}

// ConnStateMsg carries a connection state change into the UI.
type ConnStateMsg struct {
	Update client.ConnStateUpdate
}

// tickMsg drives the recency timers. Nothing else depends on it.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// logLine is one entry of the message log kept by both console variants.
type logLine struct {
	At     time.Time
	Sender string
	Text   string
}

func appendLog(log []logLine, sender, text string, max int) []logLine {
	log = append(log, logLine{At: time.Now(), Sender: sender, Text: text})
	if len(log) > max {
		log = log[len(log)-max:]
	}
	return log
}

func connLabel(u client.ConnStateUpdate) string {
	switch u.State {
	case client.StateConnected:
		return "verbunden"
	case client.StateReconnecting:
		return "verbindet neu ..."
	default:
		if u.Err != nil {
			return "getrennt: " + u.Err.Error()
		}
		return "getrennt"
	}
}
