package client

import "github.com/leitstand/leitstand/pkg/protocol"

// Conversation is the notice-derived display state of one unit, as seen by
// the consoles. Exactly one of the three activity kinds applies per render:
// a pending request, an active conversation, or neither.
type Conversation struct {
	// Active is true when the unit counts as "in conversation with the
	// team lead": either a confirmed notice exists or the unit declared
	// the conversation itself.
	Active bool
	// Pending is true when a notice exists that has not been confirmed.
	// Pending and Active are mutually exclusive.
	Pending bool
	// SelfInitiated marks an active conversation backed only by the
	// unit's own flag, with no notice record behind it.
	SelfInitiated bool
	// Text is the notice reason, empty for self-initiated conversations.
	Text string
	// Since is the timestamp shown next to the state: the notice's
	// confirmation time if one exists, else the unit's last activity.
	Since float64
}

// DeriveConversation computes the conversation state from a unit's own flag
// and its notice record, if any. A unit's talking_to_sf flag and a confirmed
// notice produce the same logical state. The flag also wins over a
// still-pending request: a unit that declared the conversation itself is
// active, not pending, so derivation always agrees with InConversation. The
// flag alone falls back to the unit's last_update for the displayed
// timestamp since no formal record backs it.
func DeriveConversation(unit protocol.UnitStatus, notice *protocol.Notice) Conversation {
	if notice != nil && notice.Confirmed() {
		since := unit.LastUpdate
		if notice.ConfirmedAt != nil {
			since = *notice.ConfirmedAt
		}
		return Conversation{Active: true, Text: notice.Text, Since: since}
	}
	if unit.TalkingToLead {
		return Conversation{Active: true, SelfInitiated: true, Since: unit.LastUpdate}
	}
	if notice != nil {
		return Conversation{Pending: true, Text: notice.Text, Since: unit.LastUpdate}
	}
	return Conversation{}
}

// InConversation is the predicate used for bucketing: true iff
// the unit has a confirmed notice or declared the conversation itself.
func InConversation(unit protocol.UnitStatus, notice *protocol.Notice) bool {
	return unit.TalkingToLead || (notice != nil && notice.Confirmed())
}
