package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ProbeResult reports the reachability of a single URL.
//
// Reachable means the server produced any HTTP response. An error status
// (401, 404, ...) still counts as reachable: an agent facing a 401 can start
// an authentication flow, while a connection, DNS or TLS failure means there
// is nothing to talk to.
type ProbeResult struct {
	Reachable  bool
	StatusCode int
	Detail     string // failure cause when not reachable, or "HTTP n" context
}

// OK reports whether the probe both reached the server and got a success
// status. Schema and spec URLs must be OK to count as accessible; live
// endpoints only need Reachable.
func (p ProbeResult) OK() bool {
	return p.Reachable && p.StatusCode >= 200 && p.StatusCode < 400
}

// Probe issues a HEAD request against an HTTPS URL, falling back to GET when
// the server rejects HEAD. Each probe carries its own timeout; failures
// degrade to a not-reachable result, never an error.
func (c *Client) Probe(ctx context.Context, url string) ProbeResult {
	if url == "" {
		return ProbeResult{Detail: "no URL declared"}
	}
	if !strings.HasPrefix(url, "https://") {
		return ProbeResult{Detail: "https required"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	res := c.probeOnce(ctx, http.MethodHead, url)
	if res.Reachable && (res.StatusCode == http.StatusMethodNotAllowed || res.StatusCode == http.StatusNotImplemented) {
		res = c.probeOnce(ctx, http.MethodGet, url)
	}
	return res
}

func (c *Client) probeOnce(ctx context.Context, method, url string) ProbeResult {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return ProbeResult{Detail: fmt.Sprintf("building request: %v", err)}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("probe failed", "url", url, "error", err)
		return ProbeResult{Detail: connFailureDetail(err)}
	}
	resp.Body.Close()
	return ProbeResult{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		Detail:     fmt.Sprintf("HTTP %d", resp.StatusCode),
	}
}
