package client

import "github.com/leitstand/leitstand/pkg/protocol"

// TransitionAllowed decides whether a unit may move from its current status
// code to the requested one. It is advisory only: a rejected press is dropped
// client-side without sending a command, and the authoritative state always
// comes back in the next snapshot.
//
// The special markers "0" and "5" toggle the orthogonal special field and
// never consume the lifecycle position, so they are always allowed. Codes
// outside the enumerated set fall through to "allowed": the keypad only
// offers known codes, and the server is free to introduce new ones without
// stranding older clients.
func TransitionAllowed(current, requested string) bool {
	switch requested {
	case protocol.SpecialBlitz, protocol.SpecialSprechwunsch:
		return true
	case protocol.StatusAvailable:
		return in(current, "2", "3", "4", "8")
	case protocol.StatusAtStation:
		return current == "1"
	case protocol.StatusDispatched:
		return in(current, "1", "2")
	case protocol.StatusOnScene:
		return current == "3"
	case protocol.StatusTransport:
		return current == "4"
	case protocol.StatusAtTarget:
		return current == "7"
	default:
		return true
	}
}

func in(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ToggleSpecial applies a special-marker press to the currently active
// marker: pressing the active marker clears it, pressing the other replaces
// it. A nil result means no marker is active.
func ToggleSpecial(active *string, pressed string) *string {
	if active != nil && *active == pressed {
		return nil
	}
	p := pressed
	return &p
}

// IsSpecial reports whether a keypad code addresses the special field rather
// than the status sequence.
func IsSpecial(code string) bool {
	return code == protocol.SpecialBlitz || code == protocol.SpecialSprechwunsch
}
