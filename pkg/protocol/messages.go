// Package protocol defines the wire model of a dispatch session: the
// full-state broadcast pushed by the server, the plain-text command tokens a
// unit sends upstream, and the decoding rules that sort inbound frames into
// heartbeats, snapshots and free-text messages.
package protocol

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Heartbeat is the literal exchanged in both directions to keep a session
// alive. It carries no payload and is never surfaced to message consumers.
const Heartbeat = "heartbeat"

// Status codes form an ordered operational sequence. They travel as strings
// because the special markers share the same keypad.
const (
	StatusAvailable  = "1"
	StatusAtStation  = "2"
	StatusDispatched = "3"
	StatusOnScene    = "4"
	StatusTransport  = "7"
	StatusAtTarget   = "8"
)

// Special markers are urgent flags orthogonal to the status sequence. At most
// one can be active per unit; pressing the active one again clears it.
const (
	SpecialBlitz        = "0"
	SpecialSprechwunsch = "5"
)

// Role prefixes identify viewer connections inside a shared session. Units
// connect under their bare name; console viewers carry a prefix so they can
// be filtered out of unit listings.
const (
	DispatcherViewPrefix = "LEITSTELLE_VIEW"
	TeamLeadPrefix       = "STAFFELFUEHRER_"
)

// Sender tags prepended to free-text messages for badging; stripped before
// display.
const (
	SenderDispatcher = "LS"
	SenderTeamLead   = "SF"
)

// UnitStatus is one unit's authoritative state as carried in a snapshot.
type UnitStatus struct {
	Name                   string   `json:"name"`
	Status                 string   `json:"status"`
	Special                *string  `json:"special"`
	Kurzstatus             *string  `json:"kurzstatus"`
	LastUpdate             float64  `json:"last_update"`
	LastStatusUpdate       float64  `json:"last_status_update"`
	LastBlitzUpdate        *float64 `json:"last_blitz_update"`
	LastSprechwunschUpdate *float64 `json:"last_sprechwunsch_update"`
	IsTeamLead             bool     `json:"is_staffelfuehrer"`
	Note                   string   `json:"note"`
	TeamLeadNote           string   `json:"sf_note"`
	IsOnline               bool     `json:"is_online"`
	TalkingToLead          bool     `json:"talking_to_sf"`
}

// IsViewer reports whether the connection is a console identity rather than a
// field unit.
func (u UnitStatus) IsViewer() bool {
	return strings.HasPrefix(u.Name, DispatcherViewPrefix) ||
		strings.HasPrefix(u.Name, TeamLeadPrefix)
}

// Notice states. Absence of a notice record means "none".
const (
	NoticePending   = "pending"
	NoticeConfirmed = "confirmed"
)

// Notice is a team-lead → unit conversation request.
type Notice struct {
	Text        string   `json:"text"`
	Status      string   `json:"status"`
	ConfirmedAt *float64 `json:"confirmed_at,omitempty"`
}

// Confirmed reports whether the notice has been acknowledged by either side.
func (n Notice) Confirmed() bool { return n.Status == NoticeConfirmed }

// Snapshot is the full authoritative broadcast. It supersedes all previously
// received unit state on arrival.
type Snapshot struct {
	Type        string            `json:"type"`
	Connections []UnitStatus      `json:"connections"`
	Notices     map[string]Notice `json:"notices"`
}

const snapshotType = "status_update"

// FreeText is an unstructured operator message received over the session
// channel. Sender is the stripped badge tag ("LS", "SF"), or empty when the
// message carried none.
type FreeText struct {
	Sender string
	Text   string
}

// Message is the decoded form of one inbound text frame. Exactly one field
// is set.
type Message struct {
	Heartbeat bool
	Snapshot  *Snapshot
	Text      *FreeText
}

// Decode sorts a raw inbound frame into its variant. Heartbeats are matched
// verbatim before any parsing. Structured broadcasts and ad-hoc operator text
// arrive over the same channel without an envelope, so input that does not
// parse as a snapshot is by definition a free-text message, never an error.
func Decode(raw string) Message {
	if raw == Heartbeat {
		return Message{Heartbeat: true}
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err == nil && snap.Type == snapshotType {
		if snap.Notices == nil {
			snap.Notices = map[string]Notice{}
		}
		return Message{Snapshot: &snap}
	}

	sender, text := splitSenderTag(raw)
	return Message{Text: &FreeText{Sender: sender, Text: text}}
}

func splitSenderTag(raw string) (sender, text string) {
	for _, tag := range []string{SenderDispatcher, SenderTeamLead} {
		if prefix := tag + ": "; strings.HasPrefix(raw, prefix) {
			return tag, raw[len(prefix):]
		}
	}
	return "", raw
}

// StatusCommand announces a status code or special-marker press.
func StatusCommand(code string) string { return "status:" + code }

// KurzstatusCommand sets the short free-text tag; empty text clears it.
func KurzstatusCommand(text string) string { return "kurzstatus:" + text }

// ConfirmNoticeCommand acknowledges the pending notice addressed to the
// sending unit.
const ConfirmNoticeCommand = "confirm_notice"

// ToggleTalkingCommand flips the unit's self-declared "talking to the team
// lead" flag.
const ToggleTalkingCommand = "toggle_talking_to_sf"

// SessionURL builds the websocket endpoint for an identity joining a session.
func SessionURL(base, code, identity string) string {
	return fmt.Sprintf("%s/ws/%s?name=%s",
		strings.TrimRight(base, "/"), code, url.QueryEscape(identity))
}
