// Package widget implements the visitor side of the relay chat: a stable session
// identifier, an open/closed panel, optimistic sends and two polling loops, one
// for operator replies and one for operator availability.
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/i18n"
	"github.com/vovakirdan/wirechat-widget/internal/store"
)

const (
	DefaultPollInterval   = 5 * time.Second
	DefaultStatusInterval = 30 * time.Second
)

var (
	ErrClosed = errors.New("session closed")
)

// Relay is the remote side the session talks to.
type Relay interface {
	Send(ctx context.Context, sessionID, text string) error
	Poll(ctx context.Context, sessionID string) ([]string, error)
	Status(ctx context.Context) (bool, error)
}

// Options tune a Session. Zero values fall back to defaults.
type Options struct {
	PollInterval   time.Duration
	StatusInterval time.Duration
	Clock          clock.Clock
	Strings        i18n.Translations
	Logger         *zerolog.Logger
	// NewSuffix generates the random part of a fresh session identifier.
	NewSuffix func() string
}

// Session owns the chat state of one visitor for the lifetime of the process.
type Session struct {
	relay Relay
	view  View
	kv    store.KVStore

	pollInterval   time.Duration
	statusInterval time.Duration
	clock          clock.Clock
	strings        i18n.Translations
	newSuffix      func() string
	log            *zerolog.Logger

	mu          sync.Mutex
	sessionID   string
	visible     bool
	status      PeerAvailability
	messages    []ChatMessage
	initialized bool
	closed      bool

	pollTask   *RepeatingTask
	statusTask *RepeatingTask

	// bg scopes background work (ticks, out-of-cycle polls) to the session lifetime.
	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an uninitialized session.
func New(relay Relay, view View, kv store.KVStore, opts Options) *Session {
	if view == nil {
		view = NopView{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultStatusInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Strings == (i18n.Translations{}) {
		opts.Strings = i18n.Get(i18n.EN)
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	bg, cancel := context.WithCancel(context.Background())
	return &Session{
		relay:          relay,
		view:           view,
		kv:             kv,
		pollInterval:   opts.PollInterval,
		statusInterval: opts.StatusInterval,
		clock:          opts.Clock,
		strings:        opts.Strings,
		newSuffix:      opts.NewSuffix,
		log:            opts.Logger,
		bg:             bg,
		cancel:         cancel,
	}
}

// Initialize loads or creates the session identifier, renders the panel closed,
// starts the reply and status loops and checks operator status once right away.
// Later calls on a live session do nothing.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.initialized {
		s.mu.Unlock()
		return nil
	}

	id, err := LoadOrCreateSessionID(ctx, s.kv, s.newSuffix)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.sessionID = id
	s.visible = false
	s.initialized = true
	s.view.SetVisible(false)

	s.pollTask = Every(s.clock, s.pollInterval, func() { s.PollForReplies(s.bg) })
	s.statusTask = Every(s.clock, s.statusInterval, func() { s.CheckPeerStatus(s.bg) })
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", id).
		Dur("poll_interval", s.pollInterval).
		Dur("status_interval", s.statusInterval).
		Msg("chat session initialized")

	s.CheckPeerStatus(ctx)
	return nil
}

// ToggleVisibility opens or closes the panel and returns the new state.
// Opening starts one poll right away instead of waiting for the next tick.
func (s *Session) ToggleVisibility() bool {
	s.mu.Lock()
	s.visible = !s.visible
	visible := s.visible
	s.view.SetVisible(visible)

	if visible && s.initialized && !s.closed {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.PollForReplies(s.bg)
		}()
	}
	s.mu.Unlock()

	s.log.Debug().Bool("visible", visible).Msg("chat panel toggled")
	return visible
}

// SendMessage appends the trimmed text as a visitor message, clears the input and
// posts it to the relay. Blank input is ignored. A failed post appends one notice;
// the optimistic message stays in the log either way.
func (s *Session) SendMessage(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		s.log.Warn().Msg("send before session initialized")
		return
	}
	s.appendLocked(ChatMessage{Text: text, Origin: SenderUser})
	s.view.ClearInput()
	id := s.sessionID
	s.mu.Unlock()

	if err := s.relay.Send(ctx, id, text); err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("send message failed")

		s.mu.Lock()
		s.appendLocked(ChatMessage{Text: s.strings.SendError, Origin: SenderPeer})
		s.mu.Unlock()
		return
	}
	s.log.Debug().Str("session_id", id).Msg("message sent")
}

// PollForReplies fetches queued operator replies while the panel is open.
// Failures are logged and leave the log untouched.
func (s *Session) PollForReplies(ctx context.Context) {
	s.mu.Lock()
	if !s.visible || !s.initialized {
		s.mu.Unlock()
		return
	}
	id := s.sessionID
	s.mu.Unlock()

	replies, err := s.relay.Poll(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("poll for replies failed")
		return
	}
	if len(replies) == 0 {
		return
	}

	s.mu.Lock()
	for _, text := range replies {
		s.appendLocked(ChatMessage{Text: text, Origin: SenderPeer})
	}
	s.mu.Unlock()

	s.log.Debug().Str("session_id", id).Int("count", len(replies)).Msg("received replies")
}

// CheckPeerStatus refreshes the operator availability indicator.
// Any failure degrades it to unknown.
func (s *Session) CheckPeerStatus(ctx context.Context) {
	online, err := s.relay.Status(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("status check failed")
	}
	status := availabilityFrom(online, err)

	s.mu.Lock()
	s.status = status
	s.view.SetPeerStatus(status, status.Label(s.strings))
	s.mu.Unlock()
}

// Close stops both loops and waits for background work. In-flight requests are cancelled.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pollTask, statusTask := s.pollTask, s.statusTask
	s.mu.Unlock()

	s.cancel()
	if pollTask != nil {
		pollTask.Stop()
	}
	if statusTask != nil {
		statusTask.Stop()
	}
	s.wg.Wait()
}

// SessionID returns the identifier, empty before Initialize.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Visible reports whether the panel is open.
func (s *Session) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// PeerStatus returns the last known operator availability.
func (s *Session) PeerStatus() PeerAvailability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Messages returns a copy of the conversation log.
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) appendLocked(msg ChatMessage) {
	s.messages = append(s.messages, msg)
	s.view.AppendMessage(msg)
}
