package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/getmockd/httpseq/pkg/logging"
)

// DefaultTimeout bounds a request that declares no timeout.
const DefaultTimeout = 30 * time.Second

// maxRedirects matches the limit of a redirect-following test.
const maxRedirects = 5

// Version is reported in the default User-Agent.
var Version = "dev"

// Verbose output modes.
const (
	VerboseAll     = "all"
	VerboseHeaders = "headers"
	VerboseBody    = "body"
)

// Request is one HTTP request of a test.
type Request struct {
	Method string
	URL    string
	// Header values are sent as given; names are canonicalized.
	Header map[string]string
	Body   []byte

	// Redirects enables following up to five redirects.
	Redirects bool
	// CertValidate enables TLS certificate verification.
	CertValidate bool
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	// Verbose is "", VerboseAll, VerboseHeaders or VerboseBody.
	Verbose string
	// Caption heads the verbose output.
	Caption string
}

// Response is the outcome of a Request.
type Response struct {
	Status int
	Reason string
	// Header holds the last value of each header, keyed by lower-case
	// name, plus "status" and "reason".
	Header map[string]string
	// SetCookies holds every Set-Cookie value.
	SetCookies []string
	Body       []byte
	// URL is the final URL after redirects.
	URL string
}

// ContentType returns the response media type.
func (r *Response) ContentType() string {
	return r.Header["content-type"]
}

// Client sends requests. The zero value is not usable; use New.
type Client struct {
	intercept http.Handler
	verbose   io.Writer
	logger    *slog.Logger
	userAgent string

	mu         sync.Mutex
	transports map[bool]*http.Transport
}

// Option configures a Client.
type Option func(*Client)

// WithIntercept routes every request to h in process instead of the network.
func WithIntercept(h http.Handler) Option {
	return func(c *Client) { c.intercept = h }
}

// WithVerboseOutput sets where verbose request traces are written.
func WithVerboseOutput(w io.Writer) Option {
	return func(c *Client) { c.verbose = w }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent replaces the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		verbose:    io.Discard,
		logger:     logging.Nop(),
		userAgent:  fmt.Sprintf("httpseq/%s (Go net/http)", Version),
		transports: make(map[bool]*http.Transport),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req and reads the whole response body.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range req.Header {
		if strings.EqualFold(k, "Host") {
			hreq.Host = v
			continue
		}
		hreq.Header.Set(k, v)
	}
	if hreq.Header.Get("User-Agent") == "" {
		hreq.Header.Set("User-Agent", c.userAgent)
	}

	out := newTracer(c.verbose, req.Verbose)
	out.request(req.Caption, hreq, req.Body)

	hc := &http.Client{
		Transport: c.transport(req.CertValidate),
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if !req.Redirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	start := time.Now()
	hresp, err := hc.Do(hreq)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "url", req.URL, "error", err)
		return nil, err
	}
	defer func() { _ = hresp.Body.Close() }()

	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		Status:     hresp.StatusCode,
		Reason:     reason(hresp),
		Header:     normalize(hresp.Header),
		SetCookies: hresp.Header.Values("Set-Cookie"),
		Body:       data,
		URL:        hresp.Request.URL.String(),
	}
	resp.Header["status"] = strconv.Itoa(resp.Status)
	resp.Header["reason"] = resp.Reason

	c.logger.Debug("request complete",
		"method", method,
		"url", req.URL,
		"status", resp.Status,
		"duration", time.Since(start),
	)
	out.response(hresp, data)
	return resp, nil
}

// transport returns the shared transport for a certificate validation
// setting, or the intercept transport.
func (c *Client) transport(certValidate bool) http.RoundTripper {
	if c.intercept != nil {
		return &interceptTransport{handler: c.intercept}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.transports[certValidate]; ok {
		return t
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	if !certValidate {
		//nolint:gosec // G402: tests may opt out of certificate validation
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	c.transports[certValidate] = t
	return t
}

// Close releases idle connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.transports {
		t.CloseIdleConnections()
	}
}

// IsConnectionRefused reports whether err was caused by a refused
// connection, the typical sign of a server that is not running.
func IsConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// normalize lower-cases header names and joins repeated values with ", ".
// Set-Cookie keeps its last value; every value is in Response.SetCookies.
func normalize(h http.Header) map[string]string {
	out := make(map[string]string, len(h)+2)
	for k, vs := range h {
		if len(vs) == 0 {
			continue
		}
		name := strings.ToLower(k)
		if name == "set-cookie" {
			out[name] = vs[len(vs)-1]
			continue
		}
		out[name] = strings.Join(vs, ", ")
	}
	return out
}

// reason extracts the reason phrase from the status line.
func reason(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if r := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); r != "" {
		return r
	}
	return http.StatusText(resp.StatusCode)
}
