package broker

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
)

var ErrEmptyURL = errors.New("broker: empty gateway url")

// Config holds the gateway credentials and endpoint. It is read-only
// once the client is built.
type Config struct {
	Login    string
	Password string
	Sender   string
	URL      string
	// Port is accepted for configuration compatibility only; the URL
	// carries the port actually used.
	Port         string
	Timeout      time.Duration
	MaxRedirects int
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Timeout and
// redirect policy of the given client are kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithIDSource replaces the identifier collaborator used for message-ids.
func WithIDSource(src IDSource) Option {
	return func(c *Client) { c.ids = src }
}

// Client posts single SMS messages to the broker gateway. It holds no
// mutable state and is safe for concurrent use.
type Client struct {
	cfg    Config
	auth   string
	ids    IDSource
	client *http.Client
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}

	c := &Client{
		cfg:    cfg,
		auth:   BasicAuth(cfg.Login, cfg.Password),
		ids:    UUIDSource{},
		client: newHTTPClient(cfg.Timeout, cfg.MaxRedirects),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// newHTTPClient returns an HTTP/1.1-only client with a total timeout
// and a bounded redirect chain.
func newHTTPClient(timeout time.Duration, maxRedirects int) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ForceAttemptHTTP2 = false
	tr.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// BasicAuth returns the value of the Authorization header for login/password.
func BasicAuth(login, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+password))
}

func (c *Client) Sender() string { return c.cfg.Sender }

// Send performs exactly one POST to the gateway. Any HTTP response,
// whatever its status, is returned as a Result with a nil error; only
// failures below HTTP produce a *TransportError.
func (c *Client) Send(ctx context.Context, phone, text string) (Result, error) {
	res := Result{MessageID: MessageID(c.ids.NewID())}

	body, err := json.Marshal(NewRequest(c.cfg.Sender, phone, res.MessageID, text))
	if err != nil {
		return res, fmt.Errorf("marshal broker request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("build broker request: %w", err)
	}

	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return res, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, &TransportError{Err: err}
	}
	res.Body = string(raw)

	return res, nil
}

// SendText is the legacy text-only contract: it returns the transport
// error description on failure and the raw response body otherwise,
// regardless of the HTTP status.
func (c *Client) SendText(phone, text string) string {
	res, err := c.Send(context.Background(), phone, text)
	if err != nil {
		return err.Error()
	}
	return res.Body
}
