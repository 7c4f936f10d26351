package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/store"
)

// Hub coordinates connected operators. It fans visitor messages out to every
// operator and persists the replies they send back for the visitor's next poll.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	store store.MessageStore
	log   *zerolog.Logger

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	publish    chan *Event
	done       chan struct{}

	operators *Room
	online    atomic.Int64
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a hub. A nil store makes every reply fail with an internal error.
func NewHub(st store.MessageStore, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		store:      st,
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 32),
		publish:    make(chan *Event, 64),
		done:       make(chan struct{}),
		operators:  NewRoom("operators"),
	}
}

// Run processes registrations, commands and published events until ctx is done.
// On exit every remaining client has its Events channel closed.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.operators.clients {
			h.operators.RemoveClient(c)
			release(c)
		}
		h.online.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			if h.operators.AddClient(c) {
				h.online.Store(int64(h.operators.Len()))
				go h.forward(c)
				h.log.Info().Str("room", h.operators.Name).Str("client_id", c.ID).Int("operators", h.operators.Len()).Msg("operator connected")
			}
		case c := <-h.unregister:
			if h.operators.RemoveClient(c) {
				h.online.Store(int64(h.operators.Len()))
				release(c)
				h.log.Info().Str("room", h.operators.Name).Str("client_id", c.ID).Int("operators", h.operators.Len()).Msg("operator disconnected")
				if h.operators.Empty() {
					h.log.Info().Str("room", h.operators.Name).Msg("no operators online")
				}
			}
		case cc := <-h.commands:
			h.handleCommand(ctx, cc.client, cc.cmd)
		case ev := <-h.publish:
			if dropped := h.operators.Broadcast(ev); dropped > 0 {
				h.log.Warn().Int("dropped", dropped).Str("event", ev.Kind.String()).Msg("slow operators skipped")
			}
		}
	}
}

// RegisterClient adds an operator. It is a no-op once the hub has stopped.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient removes an operator and closes its Events channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish broadcasts a relayed message to all operators. Visitor messages become
// EventVisitorMessage, operator replies EventReplyQueued.
func (h *Hub) Publish(msg Message) {
	kind := EventVisitorMessage
	if msg.Direction == store.DirectionOperator {
		kind = EventReplyQueued
	}
	select {
	case h.publish <- &Event{Kind: kind, Message: msg}:
	case <-h.done:
	}
}

// OnlineOperators reports how many operators are connected right now.
func (h *Hub) OnlineOperators() int {
	return int(h.online.Load())
}

// SaveReply validates and persists an operator reply. It is safe to call from
// any goroutine; broadcasting the result is left to the caller.
func (h *Hub) SaveReply(ctx context.Context, sessionID, text, from string) (Message, error) {
	msg := Message{
		SessionID: strings.TrimSpace(sessionID),
		Direction: store.DirectionOperator,
		From:      from,
		Text:      strings.TrimSpace(text),
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	if h.store == nil {
		return Message{}, fmt.Errorf("save reply: %w", errNoStore)
	}

	rec := &store.Message{
		SessionID: msg.SessionID,
		Direction: store.DirectionOperator,
		Body:      msg.Text,
	}
	if err := h.store.SaveMessage(ctx, rec); err != nil {
		return Message{}, fmt.Errorf("save reply: %w", err)
	}
	msg.ID = rec.ID
	msg.CreatedAt = rec.CreatedAt
	return msg, nil
}

var errNoStore = errors.New("no message store configured")

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	if _, ok := h.operators.clients[c]; !ok {
		// Commands still buffered from a client that already left.
		return
	}
	switch cmd.Kind {
	case CommandReply:
		msg, err := h.SaveReply(ctx, cmd.Message.SessionID, cmd.Message.Text, c.Name)
		if err != nil {
			h.log.Warn().Err(err).Str("client_id", c.ID).Msg("reply rejected")
			deliver(c, &Event{Kind: EventError, Error: replyError(err)})
			return
		}
		h.log.Info().Str("session_id", msg.SessionID).Str("client_id", c.ID).Msg("reply queued")
		h.operators.Broadcast(&Event{Kind: EventReplyQueued, Message: msg})
	default:
		deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

// forward moves commands from a client into the hub loop until either side stops.
func (h *Hub) forward(c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-h.done:
				return
			}
		case <-c.done:
			return
		case <-h.done:
			return
		}
	}
}

func release(c *Client) {
	close(c.done)
	close(c.Events)
}

func replyError(err error) *CoreError {
	switch {
	case errors.Is(err, ErrEmptyReply), errors.Is(err, ErrMissingSession):
		return coreError(ErrCodeBadRequest, err.Error())
	default:
		return coreError(ErrCodeInternal, "internal server error")
	}
}
