package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gen2brain/beeep"

	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/protocol"
)

// statusKeys is the keypad layout, lifecycle positions first.
var statusKeys = []string{"1", "2", "3", "4", "7", "8", "0", "5"}

const maxLogLines = 50

// UnitModel is the keypad console one unit runs in the vehicle.
type UnitModel struct {
	session  *client.Session
	identity string
	log      logger.Logger

	view client.ViewState
	conn client.ConnStateUpdate

	msgLog    []logLine
	kurzInput textinput.Model
	kurzOpen  bool

	// lastNoticeText tracks the pending notice we already notified for,
	// so a snapshot tick does not re-ring the bell.
	lastNoticeText string

	now    time.Time
	width  int
	height int
}

// NewUnitModel builds the unit console around a started session. lastKurz
// is the tag active when the client last shut down; it prefills the input
// so the crew can re-announce it with two keystrokes.
func NewUnitModel(session *client.Session, identity, lastKurz string, log logger.Logger) UnitModel {
	ti := textinput.New()
	ti.Placeholder = "Kurzstatus"
	ti.CharLimit = 40
	ti.SetValue(lastKurz)
	ti.CursorEnd()
	return UnitModel{
		session:   session,
		identity:  identity,
		log:       log,
		view:      client.NewViewState(),
		conn:      client.ConnStateUpdate{State: client.StateDisconnected},
		kurzInput: ti,
		now:       time.Now(),
	}
}

func (m UnitModel) Init() tea.Cmd {
	return tick()
}

func (m UnitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case SnapshotMsg:
		m.view = msg.View
		m.maybeRing()
		return m, nil

	case TextMsg:
		m.msgLog = appendLog(m.msgLog, msg.Text.Sender, msg.Text.Text, maxLogLines)
		return m, nil

	case ConnStateMsg:
		m.conn = msg.Update
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m UnitModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.kurzOpen {
		switch msg.Type {
		case tea.KeyEnter:
			m.session.SetKurzstatus(strings.TrimSpace(m.kurzInput.Value()))
			m.kurzOpen = false
			m.kurzInput.Blur()
			m.kurzInput.SetValue("")
			return m, nil
		case tea.KeyEsc:
			m.kurzOpen = false
			m.kurzInput.Blur()
			m.kurzInput.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.kurzInput, cmd = m.kurzInput.Update(msg)
		return m, cmd
	}

	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1", "2", "3", "4", "7", "8", "0", "5":
		m.session.PressStatus(key)
		return m, nil
	case "c":
		if m.pendingNotice() != nil {
			m.session.ConfirmNotice()
		}
		return m, nil
	case "t":
		m.session.ToggleTalking()
		return m, nil
	case "k":
		m.kurzOpen = true
		m.kurzInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// pendingNotice returns the unconfirmed notice addressed to this unit.
func (m UnitModel) pendingNotice() *protocol.Notice {
	n := m.view.Notice(m.identity)
	if n == nil || n.Confirmed() {
		return nil
	}
	return n
}

// maybeRing fires a desktop notification when a new pending notice appears.
func (m *UnitModel) maybeRing() {
	n := m.pendingNotice()
	if n == nil {
		m.lastNoticeText = ""
		return
	}
	if n.Text == m.lastNoticeText {
		return
	}
	m.lastNoticeText = n.Text
	// Best-effort; a vehicle terminal without a notification daemon
	// still shows the banner.
	if err := beeep.Notify("Sprechaufforderung", n.Text, ""); err != nil {
		m.log.Debugf("desktop notification failed: %v", err)
	}
}

func (m UnitModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Leitstand — %s", m.identity)))
	b.WriteString("  ")
	b.WriteString(StatusBarStyle.Render(connLabel(m.conn)))
	b.WriteString("\n\n")

	b.WriteString(m.renderKeypad())
	b.WriteString("\n\n")

	if n := m.view.Notice(m.identity); n != nil {
		if n.Confirmed() {
			b.WriteString(TalkingStyle.Render(fmt.Sprintf("Im Gespräch: %s", n.Text)))
		} else {
			b.WriteString(NoticeBannerStyle.Render(fmt.Sprintf("Sprechaufforderung: %s  [c] bestätigen", n.Text)))
		}
		b.WriteString("\n\n")
	}

	if m.kurzOpen {
		b.WriteString(m.kurzInput.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLog())
	b.WriteString("\n")
	b.WriteString(DimStyle.Render("[1-8] Status  [0] Blitz  [5] Sprechwunsch  [k] Kurzstatus  [t] Gespräch  [q] Ende"))
	return b.String()
}

func (m UnitModel) renderKeypad() string {
	status, special, kurz := m.session.Status()
	keys := make([]string, 0, len(statusKeys))
	for _, code := range statusKeys {
		label := StatusLabel(code)
		active := code == status ||
			(special != nil && *special == code)
		if active {
			keys = append(keys, KeypadActiveStyle.Render(label))
		} else {
			keys = append(keys, KeypadStyle.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, keys...)
	if kurz != nil && *kurz != "" {
		row += "\n" + DimStyle.Render("Kurzstatus: "+*kurz)
	}
	return row
}

func (m UnitModel) renderLog() string {
	if len(m.msgLog) == 0 {
		return DimStyle.Render("Keine Nachrichten")
	}
	// Show the newest lines that fit; the log is capped anyway.
	lines := m.msgLog
	limit := m.height - 12
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	var b strings.Builder
	b.WriteString(SectionHeaderStyle.Render("Nachrichten"))
	b.WriteString("\n")
	for _, l := range lines {
		sender := l.Sender
		if sender == "" {
			sender = "System"
		}
		b.WriteString(fmt.Sprintf("%s %s: %s\n",
			DimStyle.Render(l.At.Format("15:04")),
			lipgloss.NewStyle().Bold(true).Render(sender),
			l.Text))
	}
	return strings.TrimRight(b.String(), "\n")
}
