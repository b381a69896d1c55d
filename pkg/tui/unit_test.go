package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/protocol"
)

func newTestUnitModel(t *testing.T) (UnitModel, *client.MockConn) {
	t.Helper()
	conn := client.NewMockConn()
	require.NoError(t, conn.Connect())
	session := client.NewSession(conn, client.SessionOpts{
		Role:     client.RoleUnit,
		Identity: "Florian 1",
	}, client.Handlers{})
	m := NewUnitModel(session, "Florian 1", "", logger.Nop{})
	m.width = 100
	m.height = 30
	return m, conn
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestUnitKeypadSendsStatus(t *testing.T) {
	m, conn := newTestUnitModel(t)

	_, _ = m.Update(key("3"))
	assert.Equal(t, []string{"status:3"}, conn.Sent())
}

func TestUnitKeypadRejectedPressSendsNothing(t *testing.T) {
	m, conn := newTestUnitModel(t)

	// 2 -> 4 is not a legal keypad step.
	_, _ = m.Update(key("4"))
	assert.Empty(t, conn.Sent())
}

func TestUnitSpecialKeySendsToggle(t *testing.T) {
	m, conn := newTestUnitModel(t)

	_, _ = m.Update(key("0"))
	assert.Equal(t, []string{"status:0"}, conn.Sent())
}

func TestUnitConfirmOnlyWithPendingNotice(t *testing.T) {
	m, conn := newTestUnitModel(t)

	_, _ = m.Update(key("c"))
	assert.Empty(t, conn.Sent(), "no notice, nothing to confirm")

	m.view = client.Merge(client.NewViewState(), &protocol.Snapshot{
		Connections: []protocol.UnitStatus{{Name: "Florian 1", Status: "2"}},
		Notices:     map[string]protocol.Notice{"Florian 1": {Text: "melden", Status: "pending"}},
	})
	_, _ = m.Update(key("c"))
	assert.Equal(t, []string{protocol.ConfirmNoticeCommand}, conn.Sent())
}

func TestUnitTalkingToggle(t *testing.T) {
	m, conn := newTestUnitModel(t)

	_, _ = m.Update(key("t"))
	assert.Equal(t, []string{protocol.ToggleTalkingCommand}, conn.Sent())
}

func TestUnitKurzstatusInputFlow(t *testing.T) {
	m, conn := newTestUnitModel(t)

	next, _ := m.Update(key("k"))
	m = next.(UnitModel)
	require.True(t, m.kurzOpen)

	next, _ = m.Update(key("Pause"))
	m = next.(UnitModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(UnitModel)

	assert.False(t, m.kurzOpen)
	assert.Equal(t, []string{"kurzstatus:Pause"}, conn.Sent())
}

func TestUnitKurzstatusPrefilledFromLastRun(t *testing.T) {
	conn := client.NewMockConn()
	require.NoError(t, conn.Connect())
	session := client.NewSession(conn, client.SessionOpts{
		Role:     client.RoleUnit,
		Identity: "Florian 1",
	}, client.Handlers{})
	m := NewUnitModel(session, "Florian 1", "Pause", logger.Nop{})
	m.width = 100
	m.height = 30

	next, _ := m.Update(key("k"))
	m = next.(UnitModel)
	require.True(t, m.kurzOpen)
	assert.Equal(t, "Pause", m.kurzInput.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(UnitModel)
	assert.Equal(t, []string{"kurzstatus:Pause"}, conn.Sent())
}

func TestUnitKurzstatusEscCancels(t *testing.T) {
	m, conn := newTestUnitModel(t)

	next, _ := m.Update(key("k"))
	m = next.(UnitModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(UnitModel)

	assert.False(t, m.kurzOpen)
	assert.Empty(t, conn.Sent())
}

func TestUnitViewShowsNoticeBanner(t *testing.T) {
	m, _ := newTestUnitModel(t)
	m.view = client.Merge(client.NewViewState(), &protocol.Snapshot{
		Connections: []protocol.UnitStatus{{Name: "Florian 1", Status: "2"}},
		Notices:     map[string]protocol.Notice{"Florian 1": {Text: "melden", Status: "pending"}},
	})

	out := m.View()
	assert.Contains(t, out, "Sprechaufforderung")
	assert.Contains(t, out, "melden")
}

func TestUnitViewLogsMessages(t *testing.T) {
	m, _ := newTestUnitModel(t)

	next, _ := m.Update(TextMsg{Text: protocol.FreeText{Sender: "LS", Text: "Treffpunkt Tor 3"}})
	m = next.(UnitModel)

	out := m.View()
	assert.Contains(t, out, "Treffpunkt Tor 3")
	assert.Contains(t, out, "LS")
}

func TestStatusLabelFallsBackToCode(t *testing.T) {
	assert.Equal(t, "2 Wache", StatusLabel("2"))
	assert.Equal(t, "6", StatusLabel("6"), "unknown codes render verbatim")
}

func TestAppendLogCaps(t *testing.T) {
	var log []logLine
	for i := 0; i < maxLogLines+10; i++ {
		log = appendLog(log, "LS", "x", maxLogLines)
	}
	assert.Len(t, log, maxLogLines)
}

func TestConnLabel(t *testing.T) {
	assert.Equal(t, "verbunden", connLabel(client.ConnStateUpdate{State: client.StateConnected}))
	assert.True(t, strings.HasPrefix(
		connLabel(client.ConnStateUpdate{State: client.StateReconnecting, Attempt: 3}),
		"verbindet"))
}
