package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leitstand/leitstand/pkg/protocol"
)

func startUnitSession(t *testing.T, handlers Handlers) (*Session, *MockConn) {
	t.Helper()
	conn := NewMockConn()
	s := NewSession(conn, SessionOpts{
		Role:     RoleUnit,
		Identity: "Florian 1",
	}, handlers)
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)
	return s, conn
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
	}
}

func TestSessionAnnouncesStatusOnOpen(t *testing.T) {
	seen := make(chan struct{}, 1)
	_, conn := startUnitSession(t, Handlers{
		OnState: func(ConnStateUpdate) { seen <- struct{}{} },
	})
	conn.SimulateState(ConnStateUpdate{State: StateConnected})
	waitFor(t, seen)

	sent := conn.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "status:2", sent[0], "initial keypad position is announced")
}

func TestSessionReannouncesAfterReconnect(t *testing.T) {
	seen := make(chan struct{}, 4)
	s, conn := startUnitSession(t, Handlers{
		OnState: func(ConnStateUpdate) { seen <- struct{}{} },
	})

	conn.SimulateState(ConnStateUpdate{State: StateConnected})
	waitFor(t, seen)
	s.PressStatus("3")

	conn.SimulateState(ConnStateUpdate{State: StateReconnecting, Attempt: 1})
	waitFor(t, seen)
	conn.SimulateState(ConnStateUpdate{State: StateConnected})
	waitFor(t, seen)

	sent := conn.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "status:3", sent[1])
	assert.Equal(t, "status:3", sent[2], "reconnect re-announces the current position")
}

func TestSessionPressStatusValidation(t *testing.T) {
	s, conn := startUnitSession(t, Handlers{})

	s.PressStatus("3") // 2 -> 3 is legal
	s.PressStatus("2") // 3 -> 2 is not; dropped silently
	s.PressStatus("4") // 3 -> 4 is legal

	assert.Equal(t, []string{"status:3", "status:4"}, conn.Sent())
	status, _, _ := s.Status()
	assert.Equal(t, "4", status)
}

func TestSessionSpecialMarkerToggle(t *testing.T) {
	s, conn := startUnitSession(t, Handlers{})

	s.PressStatus("0")
	_, special, _ := s.Status()
	require.NotNil(t, special)
	assert.Equal(t, "0", *special)

	s.PressStatus("0")
	_, special, _ = s.Status()
	assert.Nil(t, special, "second press clears the marker")

	// Both presses go out; the server owns the toggle semantics too.
	assert.Equal(t, []string{"status:0", "status:0"}, conn.Sent())

	status, _, _ := s.Status()
	assert.Equal(t, "2", status, "special markers never consume the lifecycle position")
}

func TestSessionKurzstatusToggle(t *testing.T) {
	s, conn := startUnitSession(t, Handlers{})

	s.SetKurzstatus("Lage erkundet")
	s.SetKurzstatus("Lage erkundet")
	s.SetKurzstatus("Pause")

	assert.Equal(t, []string{
		"kurzstatus:Lage erkundet",
		"kurzstatus:",
		"kurzstatus:Pause",
	}, conn.Sent())
}

func TestSessionAppliesSnapshotToOwnKeypad(t *testing.T) {
	applied := make(chan ViewState, 1)
	s, conn := startUnitSession(t, Handlers{
		OnSnapshot: func(v ViewState) { applied <- v },
	})

	special := "5"
	kurz := "Pause"
	conn.SimulateSnapshot(snapWith(protocol.UnitStatus{
		Name: "Florian 1", Status: "7", Special: &special, Kurzstatus: &kurz,
	}))

	select {
	case v := <-applied:
		_, ok := v.Unit("Florian 1")
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot handler not called")
	}

	status, sp, k := s.Status()
	assert.Equal(t, "7", status)
	require.NotNil(t, sp)
	assert.Equal(t, "5", *sp)
	require.NotNil(t, k)
	assert.Equal(t, "Pause", *k)
}

func TestSessionForwardsFreeText(t *testing.T) {
	texts := make(chan protocol.FreeText, 1)
	_, conn := startUnitSession(t, Handlers{
		OnText: func(ft protocol.FreeText) { texts <- ft },
	})

	conn.SimulateMessage(protocol.Message{Text: &protocol.FreeText{Sender: "SF", Text: "Treffpunkt Tor 3"}})

	select {
	case ft := <-texts:
		assert.Equal(t, "SF", ft.Sender)
		assert.Equal(t, "Treffpunkt Tor 3", ft.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("text handler not called")
	}
}

func TestSessionDraftsSurviveSnapshots(t *testing.T) {
	applied := make(chan ViewState, 2)
	s, conn := startUnitSession(t, Handlers{
		OnSnapshot: func(v ViewState) { applied <- v },
	})

	conn.SimulateSnapshot(snapWith(protocol.UnitStatus{Name: "Florian 1", Status: "2"}))
	<-applied
	s.SetDraftNote("Florian 1", "unterwegs")
	s.SetExpanded("Florian 1", true)

	conn.SimulateSnapshot(snapWith(protocol.UnitStatus{Name: "Florian 1", Status: "3"}))
	v := <-applied
	assert.Equal(t, "unterwegs", v.DisplayedNote("Florian 1"))
	assert.True(t, v.Local["Florian 1"].Expanded)
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "Florian 1", Identity(RoleUnit, "Florian 1"))

	d := Identity(RoleDispatcher, "")
	assert.Contains(t, d, protocol.DispatcherViewPrefix+"_")
	l := Identity(RoleTeamLead, "")
	assert.Contains(t, l, protocol.TeamLeadPrefix)
	assert.True(t, protocol.UnitStatus{Name: d}.IsViewer())
	assert.True(t, protocol.UnitStatus{Name: l}.IsViewer())
}
