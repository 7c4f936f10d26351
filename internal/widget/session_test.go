package widget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-widget/internal/i18n"
)

func TestInitializeStartsClosedAndChecksStatus(t *testing.T) {
	h := newHarness(t)
	h.relay.online = true

	h.init(t)

	assert.Equal(t, "visitor_fixed", h.session.SessionID())
	assert.False(t, h.session.Visible())
	assert.False(t, h.view.visible)
	assert.Equal(t, 1, h.relay.statusCount())
	assert.Equal(t, PeerOnline, h.session.PeerStatus())
	assert.Equal(t, "Online", h.view.label)
	assert.Zero(t, h.relay.pollCount())
}

func TestInitializeTwiceKeepsIdentifier(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	first := h.session.SessionID()

	require.NoError(t, h.session.Initialize(context.Background()))

	assert.Equal(t, first, h.session.SessionID())
	assert.Equal(t, 1, h.relay.statusCount(), "second call starts nothing")
	h.clock.Add(30 * time.Second)
	require.Eventually(t, func() bool { return h.relay.statusCount() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, h.relay.statusCount(), "one status loop only")
}

func TestInitializeAfterClose(t *testing.T) {
	h := newHarness(t)
	h.session.Close()

	require.ErrorIs(t, h.session.Initialize(context.Background()), ErrClosed)
}

func TestInitializeReportsStorageFailure(t *testing.T) {
	h := newHarness(t)
	h.kv.err = errRelayDown

	require.Error(t, h.session.Initialize(context.Background()))
	assert.Zero(t, h.relay.statusCount())
}

func TestSendAppendsBeforeNetworkResolves(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	gate := make(chan struct{})
	called := make(chan struct{}, 1)
	h.relay.set(func(f *fakeRelay) {
		f.sendGate = gate
		f.sendCalled = called
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.session.SendMessage(context.Background(), "hello")
	}()

	<-called
	assert.Equal(t, []ChatMessage{{Text: "hello", Origin: SenderUser}}, h.session.Messages())
	assert.Equal(t, 1, h.view.clears)

	close(gate)
	<-done
	assert.Equal(t, []ChatMessage{{Text: "hello", Origin: SenderUser}}, h.session.Messages())
}

func TestSendTrimsInput(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	h.session.SendMessage(context.Background(), "  hi there \n")

	assert.Equal(t, []ChatMessage{{Text: "hi there", Origin: SenderUser}}, h.session.Messages())
	assert.Equal(t, []string{"hi there"}, h.relay.sends)
}

func TestSendIgnoresBlankInput(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	for _, input := range []string{"", "   ", "\t\n"} {
		h.session.SendMessage(context.Background(), input)
	}

	assert.Empty(t, h.session.Messages())
	assert.Empty(t, h.view.snapshot())
	assert.Zero(t, h.relay.sendCount())
	assert.Zero(t, h.view.clears)
}

func TestSendFailureAppendsSingleNotice(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)

	h.relay.set(func(f *fakeRelay) { f.sendErr = errRelayDown })
	h.session.SendMessage(context.Background(), "hello")

	want := []ChatMessage{
		{Text: "hello", Origin: SenderUser},
		{Text: i18n.Get(i18n.EN).SendError, Origin: SenderPeer},
	}
	assert.Equal(t, want, h.session.Messages())
	assert.Equal(t, want, h.view.snapshot())
}

func TestSendSuccessAppendsNothingElse(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)

	h.session.SendMessage(context.Background(), "hello")

	assert.Equal(t, []ChatMessage{{Text: "hello", Origin: SenderUser}}, h.session.Messages())
	assert.Equal(t, []string{"hello"}, h.relay.sends)
}

func TestSendBeforeInitializeIsIgnored(t *testing.T) {
	h := newHarness(t)

	h.session.SendMessage(context.Background(), "hello")

	assert.Empty(t, h.session.Messages())
	assert.Zero(t, h.relay.sendCount())
}

func TestPollAppendsRepliesInOrder(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)

	h.relay.set(func(f *fakeRelay) { f.pollQueue = [][]string{{"A", "B"}} })
	h.session.PollForReplies(context.Background())

	want := []ChatMessage{
		{Text: "A", Origin: SenderPeer},
		{Text: "B", Origin: SenderPeer},
	}
	assert.Equal(t, want, h.session.Messages())
	assert.Equal(t, want, h.view.snapshot())
	assert.Equal(t, "visitor_fixed", h.relay.pollIDs[len(h.relay.pollIDs)-1])
}

func TestPollWhileClosedSkipsNetwork(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	h.session.PollForReplies(context.Background())
	assert.Zero(t, h.relay.pollCount())
}

func TestPollFailureLeavesLogUnchanged(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)
	h.session.SendMessage(context.Background(), "hello")

	h.relay.set(func(f *fakeRelay) { f.pollErr = errRelayDown })
	h.session.PollForReplies(context.Background())

	assert.Equal(t, []ChatMessage{{Text: "hello", Origin: SenderUser}}, h.session.Messages())
}

func TestPollInFlightIsAppliedAfterClosing(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)

	gate := make(chan struct{})
	called := make(chan struct{}, 1)
	h.relay.set(func(f *fakeRelay) {
		f.pollGate = gate
		f.pollCalled = called
		f.pollQueue = [][]string{{"late"}}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.session.PollForReplies(context.Background())
	}()
	<-called

	require.False(t, h.session.ToggleVisibility())
	close(gate)
	<-done

	want := []ChatMessage{{Text: "late", Origin: SenderPeer}}
	assert.Equal(t, want, h.session.Messages())
	assert.Equal(t, want, h.view.snapshot())
	assert.False(t, h.session.Visible())
}

func TestDuplicateRepliesAreRenderedTwice(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)

	h.relay.set(func(f *fakeRelay) { f.pollQueue = [][]string{{"same"}, {"same"}} })
	h.session.PollForReplies(context.Background())
	h.session.PollForReplies(context.Background())

	assert.Len(t, h.session.Messages(), 2)
}

func TestOpeningPollsImmediately(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.relay.set(func(f *fakeRelay) { f.pollQueue = [][]string{{"welcome back"}} })

	require.True(t, h.session.ToggleVisibility())
	assert.True(t, h.view.visible)

	require.Eventually(t, func() bool {
		return len(h.session.Messages()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ChatMessage{Text: "welcome back", Origin: SenderPeer}, h.session.Messages()[0])
}

func TestClosingDoesNotPoll(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)

	require.False(t, h.session.ToggleVisibility())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, h.relay.pollCount())
}

func TestTicksDriveBothLoops(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)

	h.clock.Add(5 * time.Second)
	require.Eventually(t, func() bool { return h.relay.pollCount() == 2 }, time.Second, 5*time.Millisecond)

	h.relay.set(func(f *fakeRelay) { f.statusErr = errRelayDown })
	for i := 0; i < 5; i++ {
		h.clock.Add(5 * time.Second)
	}
	require.Eventually(t, func() bool {
		return h.relay.statusCount() == 2 && h.session.PeerStatus() == PeerUnknown
	}, time.Second, 5*time.Millisecond)
}

func TestTicksWhileClosedSkipNetwork(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	for i := 0; i < 6; i++ {
		h.clock.Add(5 * time.Second)
	}
	require.Eventually(t, func() bool { return h.relay.statusCount() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, h.relay.pollCount())
}

func TestCheckPeerStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		online bool
		err    error
		want   PeerAvailability
		label  string
	}{
		{"online", true, nil, PeerOnline, "Online"},
		{"offline", false, nil, PeerOffline, "Offline"},
		{"failure", true, errRelayDown, PeerUnknown, "Status unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.relay.online = tc.online
			h.relay.statusErr = tc.err

			h.session.CheckPeerStatus(context.Background())

			assert.Equal(t, tc.want, h.session.PeerStatus())
			assert.Equal(t, tc.want, h.view.status)
			assert.Equal(t, tc.label, h.view.label)
		})
	}
}

func TestLocalizedStrings(t *testing.T) {
	relay := &fakeRelay{sendErr: errRelayDown}
	view := &recordingView{}
	s := New(relay, view, newMemKV(), Options{Strings: i18n.Get(i18n.FA)})
	defer s.Close()
	require.NoError(t, s.Initialize(context.Background()))

	s.SendMessage(context.Background(), "سلام")

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, i18n.Get(i18n.FA).SendError, msgs[1].Text)
	assert.Equal(t, i18n.Get(i18n.FA).StatusOffline, view.label)
}

func TestScenarioOpenSendFail(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.open(t)

	gate := make(chan struct{})
	called := make(chan struct{}, 1)
	h.relay.set(func(f *fakeRelay) {
		f.sendGate = gate
		f.sendCalled = called
		f.sendErr = errRelayDown
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.session.SendMessage(context.Background(), "hello")
	}()

	<-called
	assert.Equal(t, []ChatMessage{{Text: "hello", Origin: SenderUser}}, h.session.Messages())

	close(gate)
	<-done
	assert.Equal(t, []ChatMessage{
		{Text: "hello", Origin: SenderUser},
		{Text: i18n.Get(i18n.EN).SendError, Origin: SenderPeer},
	}, h.session.Messages())
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	h.session.Close()
	h.session.Close()

	h.clock.Add(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, h.relay.statusCount())
}
