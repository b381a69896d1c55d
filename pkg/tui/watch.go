package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leitstand/leitstand/pkg/api"
	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/protocol"
)

// inputKind says what the single text input of the watch console is
// currently editing.
type inputKind int

const (
	inputNone inputKind = iota
	inputNote
	inputMessage
	inputNotice
)

// commandDoneMsg reports the outcome of one submitted operator command.
type commandDoneMsg struct {
	command string
	err     error
}

// WatchModel is the read-mostly console the dispatcher and the team lead
// run: the full unit listing plus operator commands over HTTP.
type WatchModel struct {
	session  *client.Session
	commands *api.Commands
	role     client.Role
	log      logger.Logger

	view client.ViewState
	conn client.ConnStateUpdate

	// rows is the flattened listing rebuilt on every snapshot and tick;
	// cursor indexes into it.
	rows   []row
	cursor int

	input     textinput.Model
	inputMode inputKind
	// inputTarget pins the unit an open input belongs to, so the cursor
	// can move without retargeting the edit.
	inputTarget string

	msgLog  []logLine
	lastErr string

	now    time.Time
	width  int
	height int
}

// row is one line of the flattened listing: either a section header or a
// unit.
type row struct {
	header string
	unit   *protocol.UnitStatus
}

// NewWatchModel builds the dispatcher or team-lead console.
func NewWatchModel(session *client.Session, commands *api.Commands, role client.Role, log logger.Logger) WatchModel {
	ti := textinput.New()
	ti.CharLimit = 200
	return WatchModel{
		session:  session,
		commands: commands,
		role:     role,
		log:      log,
		view:     client.NewViewState(),
		conn:     client.ConnStateUpdate{State: client.StateDisconnected},
		input:    ti,
		now:      time.Now(),
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		m.rebuildRows()
		return m, nil

	case TextMsg:
		m.msgLog = appendLog(m.msgLog, msg.Text.Sender, msg.Text.Text, maxLogLines)
		return m, nil

	case ConnStateMsg:
		m.conn = msg.Update
		return m, nil

	case commandDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.log.Warnf("command %s failed: %v", msg.command, msg.err)
		} else {
			m.lastErr = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != inputNone {
		return m.handleInputKey(msg)
	}

	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "enter":
		if u := m.selected(); u != nil {
			expanded := m.view.Local[u.Name].Expanded
			m.session.SetExpanded(u.Name, !expanded)
			m.view = m.session.View()
		}
		return m, nil
	case "n":
		if u := m.selected(); u != nil {
			m.openInput(inputNote, u.Name, m.displayedNote(u.Name), "Notiz")
			return m, textinput.Blink
		}
		return m, nil
	case "m":
		target := ""
		if u := m.selected(); u != nil {
			target = u.Name
		}
		m.openInput(inputMessage, target, m.view.Local[target].DraftMessage, "Nachricht")
		return m, textinput.Blink
	case "a":
		if u := m.selected(); u != nil && m.role == client.RoleTeamLead {
			m.openInput(inputNotice, u.Name, "", "Sprechaufforderung")
			return m, textinput.Blink
		}
		return m, nil
	case "x":
		if u := m.selected(); u != nil && m.role == client.RoleDispatcher && u.Special != nil {
			return m, m.submit("clear_special", func(ctx context.Context) error {
				return m.commands.ClearSpecial(ctx, u.Name)
			})
		}
		return m, nil
	case "backspace":
		if u := m.selected(); u != nil && m.role == client.RoleDispatcher && u.Kurzstatus != nil {
			return m, m.submit("clear_kurzstatus", func(ctx context.Context) error {
				return m.commands.ClearKurzstatus(ctx, u.Name)
			})
		}
		return m, nil
	case "g":
		if u := m.selected(); u != nil && m.role == client.RoleTeamLead {
			return m, m.submit("acknowledge", func(ctx context.Context) error {
				return m.commands.AcknowledgeNotice(ctx, u.Name)
			})
		}
		return m, nil
	case "1", "2", "3", "4", "7", "8":
		if u := m.selected(); u != nil && m.role == client.RoleDispatcher {
			return m, m.submit("set_status", func(ctx context.Context) error {
				return m.commands.SetStatus(ctx, u.Name, key)
			})
		}
		return m, nil
	}
	return m, nil
}

func (m *WatchModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		switch m.inputMode {
		case inputNote:
			m.session.ClearDraftNote(m.inputTarget)
		case inputMessage:
			m.session.SetDraftMessage(m.inputTarget, "")
		}
		m.view = m.session.View()
		m.closeInput()
		return *m, nil
	case tea.KeyEnter:
		mode, target, text := m.inputMode, m.inputTarget, m.input.Value()
		m.closeInput()
		switch mode {
		case inputNote:
			return *m, m.submit("update_note", func(ctx context.Context) error {
				return m.commands.UpdateNote(ctx, target, text)
			})
		case inputMessage:
			m.session.SetDraftMessage(target, "")
			m.view = m.session.View()
			return *m, m.submit("message", func(ctx context.Context) error {
				return m.commands.SendMessage(ctx, target, text)
			})
		case inputNotice:
			return *m, m.submit("notice", func(ctx context.Context) error {
				return m.commands.RaiseNotice(ctx, target, text)
			})
		}
		return *m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	switch m.inputMode {
	case inputNote:
		// Keep the draft in the view state so a snapshot tick mid-edit
		// cannot wipe the text.
		m.session.SetDraftNote(m.inputTarget, m.input.Value())
	case inputMessage:
		m.session.SetDraftMessage(m.inputTarget, m.input.Value())
	}
	m.view = m.session.View()
	return *m, cmd
}

func (m *WatchModel) openInput(kind inputKind, target, initial, placeholder string) {
	m.inputMode = kind
	m.inputTarget = target
	m.input.Placeholder = placeholder
	m.input.SetValue(initial)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *WatchModel) closeInput() {
	m.inputMode = inputNone
	m.inputTarget = ""
	m.input.Blur()
	m.input.SetValue("")
}

// submit runs one operator command off the UI goroutine.
func (m WatchModel) submit(name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return commandDoneMsg{command: name, err: fn(ctx)}
	}
}

func (m *WatchModel) rebuildRows() {
	m.rows = m.rows[:0]
	if m.role == client.RoleTeamLead {
		for _, u := range client.TeamLeadList(m.view.Units) {
			v := u
			m.rows = append(m.rows, row{unit: &v})
		}
	} else {
		b := client.ClassifyDispatcher(m.view.Units, m.view.Notices)
		m.appendSection("BLITZ", b.Blitz)
		m.appendSection("SPRECHWUNSCH", b.Sprechwunsch)
		m.appendSection("IM GESPRÄCH", b.Talking)
		m.appendSection("EINHEITEN", b.Default)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.snapCursor(1)
}

func (m *WatchModel) appendSection(header string, units []protocol.UnitStatus) {
	if len(units) == 0 {
		return
	}
	m.rows = append(m.rows, row{header: header})
	for _, u := range units {
		v := u
		m.rows = append(m.rows, row{unit: &v})
	}
}

func (m *WatchModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.snapCursor(delta)
}

// snapCursor skips header rows in the given direction.
func (m *WatchModel) snapCursor(direction int) {
	if direction == 0 {
		direction = 1
	}
	for m.cursor >= 0 && m.cursor < len(m.rows) && m.rows[m.cursor].unit == nil {
		m.cursor += direction
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	for m.cursor >= 0 && m.cursor < len(m.rows) && m.rows[m.cursor].unit == nil {
		m.cursor--
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// displayedNote is the annotation this console shows and edits: the draft
// when one is open, else the authoritative field the role owns. Dispatcher
// submits land in the note field, team-lead submits in sf_note.
func (m WatchModel) displayedNote(name string) string {
	if m.role != client.RoleTeamLead {
		return m.view.DisplayedNote(name)
	}
	if l, ok := m.view.Local[name]; ok && l.DraftNote != nil {
		return *l.DraftNote
	}
	if u, ok := m.view.Unit(name); ok {
		return u.TeamLeadNote
	}
	return ""
}

func (m WatchModel) selected() *protocol.UnitStatus {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].unit
}

func (m WatchModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	title := "Leitstand — Leitstelle"
	if m.role == client.RoleTeamLead {
		title = "Leitstand — Staffelführer"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("  ")
	b.WriteString(StatusBarStyle.Render(connLabel(m.conn)))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(DimStyle.Render("Keine Einheiten verbunden"))
		b.WriteString("\n")
	}
	for i, r := range m.rows {
		if r.unit == nil {
			b.WriteString(m.renderHeader(r.header))
			b.WriteString("\n")
			continue
		}
		b.WriteString(m.renderUnit(*r.unit, i == m.cursor))
		b.WriteString("\n")
	}

	if m.inputMode != inputNone {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s → %s: %s", m.input.Placeholder, m.inputTarget, m.input.View()))
		b.WriteString("\n")
	}
	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(ErrStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m WatchModel) renderHeader(name string) string {
	switch name {
	case "BLITZ":
		return BlitzStyle.Render(" " + name + " ")
	case "SPRECHWUNSCH":
		return SprechwunschStyle.Render(" " + name + " ")
	default:
		return SectionHeaderStyle.Render(name)
	}
}

func (m WatchModel) renderUnit(u protocol.UnitStatus, selected bool) string {
	age := client.FormatTimeSince(u.LastStatusUpdate, m.now)
	agePart := RecencyStyle(client.BandFor(u.LastStatusUpdate, m.now)).Render(age)

	name := u.Name
	if !u.IsOnline {
		name = OfflineStyle.Render(name)
	}

	var badges []string
	badges = append(badges, StatusLabel(u.Status))
	if u.Kurzstatus != nil && *u.Kurzstatus != "" {
		badges = append(badges, DimStyle.Render(*u.Kurzstatus))
	}
	conv := client.DeriveConversation(u, m.view.Notice(u.Name))
	switch {
	case conv.Pending:
		badges = append(badges, SprechwunschStyle.Render("angefragt: "+conv.Text))
	case conv.Active && conv.SelfInitiated:
		badges = append(badges, TalkingStyle.Render("im Gespräch"))
	case conv.Active:
		badges = append(badges, TalkingStyle.Render(fmt.Sprintf("im Gespräch seit %s",
			client.FormatTimeSince(conv.Since, m.now))))
	}

	line := fmt.Sprintf("%-20s %s  %s", name, agePart, strings.Join(badges, "  "))
	if selected {
		line = SelectedStyle.Render("▸ " + line)
	} else {
		line = "  " + line
	}

	if m.view.Local[u.Name].Expanded {
		note := m.displayedNote(u.Name)
		if note == "" {
			note = DimStyle.Render("keine Notiz")
		}
		line += "\n" + lipgloss.NewStyle().PaddingLeft(4).Render("Notiz: "+note)
	}
	return line
}

func (m WatchModel) renderHelp() string {
	if m.role == client.RoleTeamLead {
		return DimStyle.Render("[↑↓] wählen  [enter] Details  [n] Notiz  [m] Nachricht  [a] Sprechaufforderung  [g] erledigt  [q] Ende")
	}
	return DimStyle.Render("[↑↓] wählen  [enter] Details  [n] Notiz  [m] Nachricht  [1-8] Status setzen  [x] Blitz/SW quittieren  [q] Ende")
}
