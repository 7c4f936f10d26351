// Package relay talks to the chat relay over plain HTTP: one POST to send, one GET to
// poll for operator replies and one GET for operator availability.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/vovakirdan/wirechat-widget/internal/proto"
)

// StatusError reports a non-2xx answer from the relay.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay %s: unexpected status %d", e.Endpoint, e.Code)
}

// Client is an HTTP client for the relay endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL. A nil httpClient uses a zero http.Client,
// which means no timeout beyond the transport defaults.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL returns the relay root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send posts a visitor message. The response body is ignored.
func (c *Client) Send(ctx context.Context, sessionID, text string) error {
	body, err := json.Marshal(proto.SendRequest{Message: text, SessionID: sessionID})
	if err != nil {
		return errors.Wrap(err, "marshal send request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+proto.PathSend, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build send request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send message")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !isSuccess(resp.StatusCode) {
		return &StatusError{Endpoint: proto.PathSend, Code: resp.StatusCode}
	}
	return nil
}

// Poll fetches operator replies queued for the session, in relay order.
func (c *Client) Poll(ctx context.Context, sessionID string) ([]string, error) {
	q := url.Values{}
	q.Set(proto.QuerySessionID, sessionID)

	var out proto.PollResponse
	if err := c.getJSON(ctx, proto.PathPoll+"?"+q.Encode(), proto.PathPoll, &out); err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(out.Replies))
	for _, r := range out.Replies {
		texts = append(texts, r.Text)
	}
	return texts, nil
}

// Status reports whether the operator is available.
func (c *Client) Status(ctx context.Context) (bool, error) {
	var out proto.StatusResponse
	if err := c.getJSON(ctx, proto.PathStatus, proto.PathStatus, &out); err != nil {
		return false, err
	}
	return out.Online, nil
}

// Probe issues a HEAD request against the relay root and returns the response headers.
// Edge proxies such as Cloudflare annotate them with the visitor's country.
func (c *Client) Probe(ctx context.Context) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build probe request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "probe relay")
	}
	defer resp.Body.Close()
	return resp.Header, nil
}

func (c *Client) getJSON(ctx context.Context, path, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "build %s request", endpoint)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s", endpoint)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s response", endpoint)
	}
	return nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
