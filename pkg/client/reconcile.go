package client

import "github.com/leitstand/leitstand/pkg/protocol"

// UnitLocal is the client-only state of one rendered unit. It never appears
// in a snapshot, and a snapshot must never overwrite it with absence: open
// detail panels and half-typed drafts survive every broadcast tick.
type UnitLocal struct {
	Expanded bool
	// DraftNote is the operator's uncommitted note text. Nil means "no
	// draft": the authoritative note is shown as-is.
	DraftNote *string
	// DraftMessage is an unsent private-message input.
	DraftMessage string
}

// ViewState is the merged view model one console renders from: the latest
// authoritative snapshot plus per-unit local state keyed by unit name.
type ViewState struct {
	Units   []protocol.UnitStatus
	Notices map[string]protocol.Notice
	Local   map[string]UnitLocal
}

// NewViewState returns an empty view state.
func NewViewState() ViewState {
	return ViewState{Notices: map[string]protocol.Notice{}, Local: map[string]UnitLocal{}}
}

// Unit looks up a unit by name in the current view state.
func (v ViewState) Unit(name string) (protocol.UnitStatus, bool) {
	for _, u := range v.Units {
		if u.Name == name {
			return u, true
		}
	}
	return protocol.UnitStatus{}, false
}

// Notice returns the unit's notice record, or nil if none exists.
func (v ViewState) Notice(name string) *protocol.Notice {
	if n, ok := v.Notices[name]; ok {
		return &n
	}
	return nil
}

// DisplayedNote is the note text the console shows and edits: the draft when
// one is open, else the authoritative value.
func (v ViewState) DisplayedNote(name string) string {
	if l, ok := v.Local[name]; ok && l.DraftNote != nil {
		return *l.DraftNote
	}
	if u, ok := v.Unit(name); ok {
		return u.Note
	}
	return ""
}

// Merge folds an authoritative snapshot into the previous view state.
//
// Authoritative fields are replaced wholesale; they are never mutated
// anywhere else. Local state is carried over by unit name: units absent from
// the new snapshot drop theirs (they disconnected), units newly present
// start collapsed with empty drafts. A draft note is dropped once the
// authoritative note catches up to the drafted text — that is the operator's
// own submitted edit echoing back, detected by value so a plain broadcast
// tick can never be mistaken for it.
//
// Merge is idempotent: applying the same snapshot twice yields the same
// view state.
func Merge(prev ViewState, snap *protocol.Snapshot) ViewState {
	next := ViewState{
		Units:   snap.Connections,
		Notices: snap.Notices,
		Local:   make(map[string]UnitLocal, len(prev.Local)),
	}
	if next.Notices == nil {
		next.Notices = map[string]protocol.Notice{}
	}

	for _, u := range snap.Connections {
		local, ok := prev.Local[u.Name]
		if !ok {
			continue
		}
		// Either annotation catching up is the operator's own submit
		// echoing back: the dispatcher writes note, the lead sf_note.
		if local.DraftNote != nil && (*local.DraftNote == u.Note || *local.DraftNote == u.TeamLeadNote) {
			local.DraftNote = nil
		}
		if local == (UnitLocal{}) {
			continue
		}
		next.Local[u.Name] = local
	}
	return next
}

// SetExpanded records whether a unit's detail panel is open.
func (v *ViewState) SetExpanded(name string, expanded bool) {
	l := v.Local[name]
	l.Expanded = expanded
	v.storeLocal(name, l)
}

// SetDraftNote opens or updates the note draft for a unit.
func (v *ViewState) SetDraftNote(name, text string) {
	l := v.Local[name]
	l.DraftNote = &text
	v.Local[name] = l
}

// ClearDraftNote discards the note draft, reverting the display to the
// authoritative value.
func (v *ViewState) ClearDraftNote(name string) {
	l := v.Local[name]
	l.DraftNote = nil
	v.storeLocal(name, l)
}

// SetDraftMessage records unsent private-message input for a unit.
func (v *ViewState) SetDraftMessage(name, text string) {
	l := v.Local[name]
	l.DraftMessage = text
	v.storeLocal(name, l)
}

// storeLocal writes back a local entry, dropping it when it equals the zero
// value so departed drafts do not linger as empty map entries.
func (v *ViewState) storeLocal(name string, l UnitLocal) {
	if l == (UnitLocal{}) {
		delete(v.Local, name)
		return
	}
	v.Local[name] = l
}
