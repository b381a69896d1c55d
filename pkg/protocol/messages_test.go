package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeartbeat(t *testing.T) {
	msg := Decode("heartbeat")
	assert.True(t, msg.Heartbeat)
	assert.Nil(t, msg.Snapshot)
	assert.Nil(t, msg.Text)
}

func TestDecodeSnapshot(t *testing.T) {
	raw := `{
		"type": "status_update",
		"connections": [
			{"name": "Florian 1", "status": "3", "special": "5",
			 "kurzstatus": "Lage erkundet",
			 "last_update": 1000.5, "last_status_update": 999.0,
			 "last_sprechwunsch_update": 1000.5,
			 "is_staffelfuehrer": false, "note": "", "sf_note": "",
			 "is_online": true, "talking_to_sf": false}
		],
		"notices": {
			"Florian 1": {"text": "SF Sprechwunsch", "status": "confirmed", "confirmed_at": 1001.0}
		}
	}`

	msg := Decode(raw)
	require.NotNil(t, msg.Snapshot)
	assert.False(t, msg.Heartbeat)
	assert.Nil(t, msg.Text)

	snap := msg.Snapshot
	require.Len(t, snap.Connections, 1)
	unit := snap.Connections[0]
	assert.Equal(t, "Florian 1", unit.Name)
	assert.Equal(t, "3", unit.Status)
	require.NotNil(t, unit.Special)
	assert.Equal(t, SpecialSprechwunsch, *unit.Special)
	require.NotNil(t, unit.Kurzstatus)
	assert.Equal(t, "Lage erkundet", *unit.Kurzstatus)
	require.NotNil(t, unit.LastSprechwunschUpdate)
	assert.Nil(t, unit.LastBlitzUpdate)

	notice, ok := snap.Notices["Florian 1"]
	require.True(t, ok)
	assert.True(t, notice.Confirmed())
	require.NotNil(t, notice.ConfirmedAt)
	assert.Equal(t, 1001.0, *notice.ConfirmedAt)
}

func TestDecodeSnapshotWithoutNoticesMap(t *testing.T) {
	msg := Decode(`{"type":"status_update","connections":[]}`)
	require.NotNil(t, msg.Snapshot)
	// Consumers index the notice map directly; it must never be nil.
	assert.NotNil(t, msg.Snapshot.Notices)
}

func TestDecodeFreeText(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantSender string
		wantText   string
	}{
		{"plain text", "Alle Einheiten zur Wache", "", "Alle Einheiten zur Wache"},
		{"dispatcher tag", "LS: Rückmeldung erbeten", "LS", "Rückmeldung erbeten"},
		{"team lead tag", "SF: Treffpunkt Tor 3", "SF", "Treffpunkt Tor 3"},
		{"tag without separator stays intact", "LS:no space", "", "LS:no space"},
		{"unknown tag stays intact", "XY: hello", "", "XY: hello"},
		{"malformed json is text", `{"type":"status_update"`, "", `{"type":"status_update"`},
		{"json of other type is text", `{"type":"error","message":"Invalid code"}`, "", `{"type":"error","message":"Invalid code"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Decode(tt.raw)
			require.NotNil(t, msg.Text)
			assert.Nil(t, msg.Snapshot)
			assert.False(t, msg.Heartbeat)
			assert.Equal(t, tt.wantSender, msg.Text.Sender)
			assert.Equal(t, tt.wantText, msg.Text.Text)
		})
	}
}

func TestCommandTokens(t *testing.T) {
	assert.Equal(t, "status:3", StatusCommand("3"))
	assert.Equal(t, "status:0", StatusCommand(SpecialBlitz))
	assert.Equal(t, "kurzstatus:Lage erkundet", KurzstatusCommand("Lage erkundet"))
	assert.Equal(t, "kurzstatus:", KurzstatusCommand(""))
	assert.Equal(t, "confirm_notice", ConfirmNoticeCommand)
	assert.Equal(t, "toggle_talking_to_sf", ToggleTalkingCommand)
}

func TestSessionURL(t *testing.T) {
	assert.Equal(t,
		"ws://host:8000/ws/ABCD?name=Florian+1",
		SessionURL("ws://host:8000/", "ABCD", "Florian 1"))
	assert.Equal(t,
		"wss://host/ws/EFGH?name=LEITSTELLE_VIEW_x1",
		SessionURL("wss://host", "EFGH", "LEITSTELLE_VIEW_x1"))
}

func TestIsViewer(t *testing.T) {
	assert.True(t, UnitStatus{Name: "LEITSTELLE_VIEW_abc"}.IsViewer())
	assert.True(t, UnitStatus{Name: "STAFFELFUEHRER_xyz"}.IsViewer())
	assert.False(t, UnitStatus{Name: "Florian 1"}.IsViewer())
}
