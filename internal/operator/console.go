// Package operator is a line-oriented console for answering visitors over the
// relay websocket.
package operator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	pkgerrors "github.com/pkg/errors"

	"github.com/vovakirdan/wirechat-widget/internal/proto"
	transporthttp "github.com/vovakirdan/wirechat-widget/internal/transport/http"
)

const (
	loginPath = "/api/login"
	wsPath    = "/api/ws"
)

var (
	ErrUnknownCommand = errors.New("unknown command, use /reply <session> <text> or /quit")
	ErrReplyUsage     = errors.New("usage: /reply <session> <text>")
	errQuit           = errors.New("quit")
)

// Frame is an outbound relay frame with its payload left raw.
type Frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// Login exchanges the operator password for a token.
func Login(ctx context.Context, client *http.Client, baseURL, password string) (string, error) {
	if client == nil {
		client = &http.Client{}
	}
	body, err := json.Marshal(transporthttp.LoginRequest{Password: password})
	if err != nil {
		return "", pkgerrors.Wrap(err, "marshal login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+loginPath, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(err, "build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(err, "login")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var problem transporthttp.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&problem) == nil && problem.Error != "" {
			return "", fmt.Errorf("login: %s (status %d)", problem.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}

	var out transporthttp.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", pkgerrors.Wrap(err, "decode login response")
	}
	return out.Token, nil
}

// WebSocketURL turns the relay base URL into the operator websocket address.
func WebSocketURL(baseURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", pkgerrors.Wrap(err, "parse base url")
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += wsPath
	q := u.Query()
	q.Set(transporthttp.QueryToken, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens the operator websocket.
func Dial(ctx context.Context, baseURL, token string) (*websocket.Conn, error) {
	addr, err := WebSocketURL(baseURL, token)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

// ParseReply reads a "/reply <session> <text>" line.
func ParseReply(line string) (proto.ReplyData, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "/reply")
	if !ok {
		return proto.ReplyData{}, ErrUnknownCommand
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return proto.ReplyData{}, ErrUnknownCommand
	}
	session, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
	text = strings.TrimSpace(text)
	if session == "" || text == "" {
		return proto.ReplyData{}, ErrReplyUsage
	}
	return proto.ReplyData{SessionID: session, Text: text}, nil
}

// Format renders a frame as one console line.
func Format(f Frame) string {
	if f.Type == proto.OutboundTypeError {
		if f.Error == nil {
			return "error: unknown"
		}
		return fmt.Sprintf("error %s: %s", f.Error.Code, f.Error.Msg)
	}

	switch f.Event {
	case proto.EventNameReady:
		var evt proto.EventReady
		if err := json.Unmarshal(f.Data, &evt); err != nil {
			return "ready"
		}
		return fmt.Sprintf("connected as %s (protocol %d)", evt.Operator, evt.Protocol)
	case proto.EventNameVisitorMessage, proto.EventNameReplyQueued:
		var evt proto.EventMessage
		if err := json.Unmarshal(f.Data, &evt); err != nil {
			return "event=" + f.Event
		}
		who := "visitor"
		if f.Event == proto.EventNameReplyQueued {
			who = evt.From
			if who == "" {
				who = "operator"
			}
		}
		return fmt.Sprintf("[%s] %s: %s", evt.SessionID, who, evt.Text)
	default:
		return fmt.Sprintf("event=%s data=%s", f.Event, f.Data)
	}
}

// Run announces the protocol, prints every frame to out and turns input lines
// into replies. It returns when in is exhausted, /quit is entered, the relay
// closes the connection or ctx is done.
func Run(ctx context.Context, conn *websocket.Conn, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hello, err := json.Marshal(proto.HelloData{Protocol: proto.ProtocolVersion})
	if err != nil {
		return pkgerrors.Wrap(err, "marshal hello")
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: hello}); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	readErr := make(chan error, 1)
	go func() {
		defer cancel()
		readErr <- readLoop(ctx, conn, out)
	}()

	writeErr := writeLoop(ctx, conn, in, out)
	cancel()
	if err := <-readErr; err != nil {
		return err
	}
	if errors.Is(writeErr, errQuit) {
		return nil
	}
	return writeErr
}

func readLoop(ctx context.Context, conn *websocket.Conn, out io.Writer) error {
	for {
		var frame Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		fmt.Fprintln(out, Format(frame))
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "/quit" {
				return errQuit
			}

			reply, err := ParseReply(line)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			payload, err := json.Marshal(reply)
			if err != nil {
				return pkgerrors.Wrap(err, "marshal reply")
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeReply, Data: payload}); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("send reply: %w", err)
			}
		}
	}
}
