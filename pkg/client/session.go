package client

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/metrics"
	"github.com/leitstand/leitstand/pkg/protocol"
)

// Role selects the console variant a session identity joins as.
type Role int

const (
	RoleUnit Role = iota
	RoleDispatcher
	RoleTeamLead
)

// Identity builds the session name for a role. Units join under their own
// name; console viewers get a prefixed throwaway identity so several can
// watch the same session.
func Identity(role Role, unitName string) string {
	switch role {
	case RoleDispatcher:
		return fmt.Sprintf("%s_%s", protocol.DispatcherViewPrefix, randomSuffix())
	case RoleTeamLead:
		return fmt.Sprintf("%s%s", protocol.TeamLeadPrefix, randomSuffix())
	default:
		return unitName
	}
}

func randomSuffix() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 9)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// SessionConn is the connection surface a Session drives. *Conn implements
// it; tests substitute a mock.
type SessionConn interface {
	Connect() error
	Close()
	Send(payload string)
	IsOpen() bool
	Incoming() <-chan protocol.Message
	States() <-chan ConnStateUpdate
}

// Handlers receive session events. All callbacks run on the session's event
// loop, one at a time, and may read the view state passed to them without
// further synchronization.
type Handlers struct {
	OnSnapshot func(ViewState)
	OnText     func(protocol.FreeText)
	OnState    func(ConnStateUpdate)
}

// Session is the client-side state owner for one console: it holds the
// connection, the merged view state and, for a unit, the unit's own keypad
// state. All mutation is serialized through one event loop plus a mutex
// guarding user-action entry points; nothing else writes the view state.
type Session struct {
	role     Role
	identity string
	conn     SessionConn
	handlers Handlers
	log      logger.Logger
	metrics  *metrics.Set

	mu         sync.Mutex
	view       ViewState
	status     string
	special    *string
	kurzstatus *string

	done chan struct{}
}

// SessionOpts configures a Session.
type SessionOpts struct {
	Role     Role
	Identity string
	// InitialStatus is the unit's keypad position before the first
	// snapshot arrives. Defaults to "2" (at station).
	InitialStatus string
	Logger        logger.Logger
	Metrics       *metrics.Set
}

// NewSession wires a session around an established connection manager.
func NewSession(conn SessionConn, opts SessionOpts, handlers Handlers) *Session {
	if opts.InitialStatus == "" {
		opts.InitialStatus = protocol.StatusAtStation
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	return &Session{
		role:     opts.Role,
		identity: opts.Identity,
		conn:     conn,
		handlers: handlers,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		view:     NewViewState(),
		status:   opts.InitialStatus,
		done:     make(chan struct{}),
	}
}

// Start connects and runs the event loop until Stop.
func (s *Session) Start() error {
	if err := s.conn.Connect(); err != nil {
		return err
	}
	go s.loop()
	return nil
}

// Stop ends the session intentionally.
func (s *Session) Stop() {
	s.conn.Close()
	<-s.done
}

func (s *Session) loop() {
	defer close(s.done)
	incoming := s.conn.Incoming()
	states := s.conn.States()
	for incoming != nil || states != nil {
		select {
		case msg, ok := <-incoming:
			if !ok {
				incoming = nil
				continue
			}
			s.handleMessage(msg)
		case u, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			s.handleState(u)
		}
	}
}

func (s *Session) handleMessage(msg protocol.Message) {
	switch {
	case msg.Snapshot != nil:
		s.applySnapshot(msg.Snapshot)
	case msg.Text != nil:
		s.metrics.MessagesReceived.Inc()
		if s.handlers.OnText != nil {
			s.handlers.OnText(*msg.Text)
		}
	}
}

func (s *Session) handleState(u ConnStateUpdate) {
	if u.State == StateConnected && s.role == RoleUnit {
		// Announce the keypad position on every (re)open so the server
		// learns it even after a silent reconnect.
		s.mu.Lock()
		status := s.status
		s.mu.Unlock()
		s.conn.Send(protocol.StatusCommand(status))
	}
	if s.handlers.OnState != nil {
		s.handlers.OnState(u)
	}
}

func (s *Session) applySnapshot(snap *protocol.Snapshot) {
	s.mu.Lock()
	s.view = Merge(s.view, snap)
	if s.role == RoleUnit {
		if me, ok := s.view.Unit(s.identity); ok {
			s.status = me.Status
			s.special = me.Special
			s.kurzstatus = me.Kurzstatus
		}
	}
	view := s.view
	s.mu.Unlock()

	if s.handlers.OnSnapshot != nil {
		s.handlers.OnSnapshot(view)
	}
}

// View returns the current view state.
func (s *Session) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Status returns the unit's current keypad state.
func (s *Session) Status() (status string, special *string, kurzstatus *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.special, s.kurzstatus
}

// PressStatus handles a keypad press. Special markers toggle and are always
// sent; status codes are validated against the transition table and a
// rejected press is dropped silently — no command goes out, the UI simply
// does not change, and the next snapshot remains authoritative either way.
func (s *Session) PressStatus(code string) {
	s.mu.Lock()
	if IsSpecial(code) {
		s.special = ToggleSpecial(s.special, code)
	} else {
		if !TransitionAllowed(s.status, code) {
			s.mu.Unlock()
			s.log.Debugf("transition %s -> %s rejected", s.status, code)
			return
		}
		s.status = code
	}
	s.mu.Unlock()
	s.conn.Send(protocol.StatusCommand(code))
}

// SetKurzstatus toggles the short free-text tag: selecting the active tag
// clears it, anything else replaces it.
func (s *Session) SetKurzstatus(text string) {
	s.mu.Lock()
	if s.kurzstatus != nil && *s.kurzstatus == text {
		s.kurzstatus = nil
		text = ""
	} else {
		t := text
		s.kurzstatus = &t
	}
	s.mu.Unlock()
	s.conn.Send(protocol.KurzstatusCommand(text))
}

// ConfirmNotice acknowledges the pending notice addressed to this unit.
func (s *Session) ConfirmNotice() {
	s.conn.Send(protocol.ConfirmNoticeCommand)
}

// ToggleTalking flips the self-declared conversation flag.
func (s *Session) ToggleTalking() {
	s.conn.Send(protocol.ToggleTalkingCommand)
}

// SetExpanded, SetDraftNote and SetDraftMessage record local-only view
// state; snapshots can never overwrite these with absence.

func (s *Session) SetExpanded(name string, expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetExpanded(name, expanded)
}

func (s *Session) SetDraftNote(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetDraftNote(name, text)
}

func (s *Session) ClearDraftNote(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.ClearDraftNote(name)
}

func (s *Session) SetDraftMessage(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetDraftMessage(name, text)
}
