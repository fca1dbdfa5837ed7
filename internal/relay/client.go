package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"axolotl/internal/domain"
	"axolotl/internal/keys"
)

// ErrNotFound matches a 404 from the relay: an unknown user or an empty
// prekey pool.
var ErrNotFound = errors.New("relay: not found")

// StatusError is a non-2xx relay response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("relay %s %s: %s: %s", e.Method, e.URL, e.Status, e.Detail)
	}
	return fmt.Sprintf("relay %s %s: %s", e.Method, e.URL, e.Status)
}

// Is makes a 404 match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client talks to a relay over HTTP.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// NewClient returns a Client for the relay at base. A nil hc means
// http.DefaultClient.
func NewClient(base string, hc *http.Client, logger zerolog.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: base, http: hc, log: logger}
}

var _ domain.RelayClient = (*Client)(nil)

func userPath(u domain.Username, rest string) string {
	return "/v1/users/" + url.PathEscape(u.String()) + rest
}

// RegisterPreKeyBundles replaces the bundles published for username.
func (c *Client) RegisterPreKeyBundles(ctx context.Context, username domain.Username, bundles []*keys.PreKeyBundle) error {
	req := uploadRequest{PreKeys: make([]domain.PublishedPreKey, 0, len(bundles))}
	for _, b := range bundles {
		raw, err := b.Serialise()
		if err != nil {
			return err
		}
		req.PreKeys = append(req.PreKeys, domain.PublishedPreKey{ID: b.PreKeyID, Bundle: raw})
	}
	return c.do(ctx, http.MethodPut, userPath(username, "/prekeys"), req, nil)
}

// FetchPreKeyBundle takes one bundle for username.
func (c *Client) FetchPreKeyBundle(ctx context.Context, username domain.Username) (*keys.PreKeyBundle, error) {
	var p domain.PublishedPreKey
	if err := c.do(ctx, http.MethodGet, userPath(username, "/prekey"), nil, &p); err != nil {
		return nil, err
	}
	b, err := keys.DeserialisePreKeyBundle(p.Bundle)
	if err != nil {
		return nil, fmt.Errorf("relay: bundle for %s: %w", username, err)
	}
	return b, nil
}

// SendMessage queues envelope for envelope.To.
func (c *Client) SendMessage(ctx context.Context, envelope domain.Envelope) error {
	return c.do(ctx, http.MethodPost, userPath(envelope.To, "/messages"), envelope, &sendResponse{})
}

// FetchMessages lists up to limit queued envelopes; 0 means all.
func (c *Client) FetchMessages(ctx context.Context, username domain.Username, limit int) ([]domain.Envelope, error) {
	p := userPath(username, "/messages")
	if limit > 0 {
		p += "?limit=" + strconv.Itoa(limit)
	}
	var envs []domain.Envelope
	if err := c.do(ctx, http.MethodGet, p, nil, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// AckMessages drops the first count envelopes queued for username.
func (c *Client) AckMessages(ctx context.Context, username domain.Username, count int) error {
	return c.do(ctx, http.MethodPost, userPath(username, "/messages/ack"), ackRequest{Count: count}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	u := c.base + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.log.Debug().Str("method", method).Str("url", u).Msg("relay request")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		se := &StatusError{Method: method, URL: u, Code: resp.StatusCode, Status: resp.Status}
		var er errorResponse
		if json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er) == nil {
			se.Detail = er.Error
		}
		return se
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
