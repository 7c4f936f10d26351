package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-widget/internal/i18n"
)

var errRelayDown = errors.New("relay down")

// fakeRelay records calls and serves canned answers.
type fakeRelay struct {
	mu sync.Mutex

	sends      []string
	sendErr    error
	sendGate   chan struct{} // when set, Send blocks until it is closed
	sendCalled chan struct{} // when set, receives a value once Send is entered

	polls       int
	pollGate    chan struct{} // when set, Poll blocks until it is closed
	pollCalled  chan struct{} // when set, receives a value once Poll is entered
	pollIDs     []string
	pollQueue   [][]string
	pollErr     error
	statusCalls int
	online      bool
	statusErr   error
}

func (f *fakeRelay) Send(ctx context.Context, sessionID, text string) error {
	f.mu.Lock()
	f.sends = append(f.sends, text)
	gate, called, err := f.sendGate, f.sendCalled, f.sendErr
	f.mu.Unlock()

	if called != nil {
		called <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeRelay) Poll(ctx context.Context, sessionID string) ([]string, error) {
	f.mu.Lock()
	f.polls++
	f.pollIDs = append(f.pollIDs, sessionID)
	gate, called := f.pollGate, f.pollCalled
	f.mu.Unlock()

	if called != nil {
		called <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if len(f.pollQueue) == 0 {
		return nil, nil
	}
	next := f.pollQueue[0]
	f.pollQueue = f.pollQueue[1:]
	return next, nil
}

func (f *fakeRelay) Status(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	return f.online, f.statusErr
}

func (f *fakeRelay) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeRelay) statusCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *fakeRelay) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeRelay) set(fn func(f *fakeRelay)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// recordingView mirrors everything the session renders.
type recordingView struct {
	mu       sync.Mutex
	messages []ChatMessage
	visible  bool
	status   PeerAvailability
	label    string
	clears   int
}

func (v *recordingView) AppendMessage(msg ChatMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, msg)
}

func (v *recordingView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clears++
}

func (v *recordingView) SetVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = visible
}

func (v *recordingView) SetPeerStatus(status PeerAvailability, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
	v.label = label
}

func (v *recordingView) snapshot() []ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]ChatMessage, len(v.messages))
	copy(out, v.messages)
	return out
}

// memKV is an in-memory store.KVStore.
type memKV struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemKV() *memKV { return &memKV{values: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

type harness struct {
	session *Session
	relay   *fakeRelay
	view    *recordingView
	kv      *memKV
	clock   *clock.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		relay: &fakeRelay{},
		view:  &recordingView{},
		kv:    newMemKV(),
		clock: clock.NewMock(),
	}
	h.session = New(h.relay, h.view, h.kv, Options{
		PollInterval:   5 * time.Second,
		StatusInterval: 30 * time.Second,
		Clock:          h.clock,
		Strings:        i18n.Get(i18n.EN),
		NewSuffix:      func() string { return "fixed" },
	})
	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) init(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.Initialize(context.Background()))
}

// open toggles the panel open and waits for the out-of-cycle poll it triggers.
func (h *harness) open(t *testing.T) {
	t.Helper()
	before := h.relay.pollCount()
	require.True(t, h.session.ToggleVisibility())
	require.Eventually(t, func() bool { return h.relay.pollCount() == before+1 }, time.Second, 5*time.Millisecond)
}
