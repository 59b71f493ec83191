// Package fetch is the network leaf of the validation pipeline: it retrieves
// the well-known profile document and probes capability/transport URLs.
//
// Every network failure is reported as data (a failed Result or ProbeResult),
// never as an error escaping to the pipeline. The only error surface is
// NormalizeDomain, which rejects input the caller should not have passed.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ucpkit/ucpcheck/internal/profile"
)

// WellKnownPath is the canonical profile location under a merchant domain.
const WellKnownPath = "/.well-known/ucp"

// maxBodyBytes caps how much of any response we read. Profiles and schemas
// are small documents; anything larger is treated as malformed.
const maxBodyBytes = 4 << 20

// DefaultProbeTimeout bounds a single URL probe so one slow transport cannot
// exhaust the run budget.
const DefaultProbeTimeout = 5 * time.Second

// Client performs the HTTPS reads the pipeline needs. The zero value is not
// usable; construct with NewClient.
type Client struct {
	http         *http.Client
	probeTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithProbeTimeout overrides the per-probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) { c.probeTimeout = d }
}

// WithLogger sets the client logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client. Tests use this to point
// the fetcher at httptest servers.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a probing client. Redirect chains are refused: the profile
// must live at the canonical location, and a redirecting endpoint probe is
// still a response (handled by the status check, not the transport layer).
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		probeTimeout: DefaultProbeTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of one profile fetch. OK is true only when the
// document was retrieved with HTTP 200, a JSON content type, and parsed as a
// JSON object. When parsing failed but bytes were retrieved, Raw is still
// populated and ParseFailed is set so the validator can emit UCP_INVALID_JSON
// while downstream stages degrade to skip.
type Result struct {
	URL         string
	Raw         []byte
	Doc         *profile.Document
	OK          bool
	ParseFailed bool
	Detail      string // failure cause when not OK
}

// FetchProfile retrieves https://{domain}/.well-known/ucp. The domain must
// already be normalized (see NormalizeDomain). Network and protocol failures
// are folded into the Result, never returned.
func (c *Client) FetchProfile(ctx context.Context, domain string) *Result {
	url := "https://" + domain + WellKnownPath
	res := &Result{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Detail = fmt.Sprintf("building request: %v", err)
		return res
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		res.Detail = connFailureDetail(err)
		c.logger.Debug("profile fetch failed", "url", url, "error", err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			res.Detail = fmt.Sprintf("profile redirected (HTTP %d); it must be served at %s", resp.StatusCode, WellKnownPath)
		} else {
			res.Detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return res
	}

	ct := resp.Header.Get("Content-Type")
	if !isJSONContentType(ct) {
		res.Detail = fmt.Sprintf("content type %q is not JSON", ct)
		return res
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res.Detail = fmt.Sprintf("reading body: %v", err)
		return res
	}
	res.Raw = raw

	doc, err := profile.Parse(raw)
	if err != nil {
		res.ParseFailed = true
		res.Detail = err.Error()
		return res
	}
	res.Doc = doc
	res.OK = true
	return res
}

// Get retrieves a small document (schema, spec) from an HTTPS URL.
// Used by the schema checks; probes use Probe instead.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "https://") {
		return nil, errors.New("https required")
	}
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func isJSONContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

// connFailureDetail renders a transport-level failure cause. Timeouts are
// called out explicitly since they are the most actionable case.
func connFailureDetail(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return fmt.Sprintf("connection failed: %v", err)
}
