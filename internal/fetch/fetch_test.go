package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteTransport sends every request to the test server regardless of the
// https host the client built, so fetch code keeps its https-only URLs.
type rewriteTransport struct {
	target *url.URL
	inner  http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return t.inner.RoundTrip(req)
}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	httpClient := &http.Client{
		Transport: &rewriteTransport{target: target, inner: http.DefaultTransport},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return NewClient(WithHTTPClient(httpClient), WithProbeTimeout(2*time.Second))
}

func TestFetchProfileOK(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, WellKnownPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ucp": {"version": "2026-01-11", "services": {}, "capabilities": []}}`))
	}))

	res := c.FetchProfile(context.Background(), "shop.example.com")
	assert.True(t, res.OK)
	assert.False(t, res.ParseFailed)
	require.NotNil(t, res.Doc)
	assert.Equal(t, "2026-01-11", res.Doc.UCP.Version)
	assert.Equal(t, "https://shop.example.com/.well-known/ucp", res.URL)
}

func TestFetchProfileNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	res := c.FetchProfile(context.Background(), "shop.example.com")
	assert.False(t, res.OK)
	assert.Contains(t, res.Detail, "HTTP 404")
}

func TestFetchProfileRedirectRefused(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://elsewhere.example/ucp", http.StatusMovedPermanently)
	}))

	res := c.FetchProfile(context.Background(), "shop.example.com")
	assert.False(t, res.OK)
	assert.Contains(t, res.Detail, "redirected")
}

func TestFetchProfileWrongContentType(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html></html>`))
	}))

	res := c.FetchProfile(context.Background(), "shop.example.com")
	assert.False(t, res.OK)
	assert.Contains(t, res.Detail, "not JSON")
}

func TestFetchProfileParseFailure(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ucp": `))
	}))

	res := c.FetchProfile(context.Background(), "shop.example.com")
	assert.False(t, res.OK)
	assert.True(t, res.ParseFailed)
	assert.NotEmpty(t, res.Raw)
}

func TestFetchProfileConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close() // nothing listening anymore

	c := NewClient(WithHTTPClient(&http.Client{
		Transport: &rewriteTransport{target: target, inner: http.DefaultTransport},
	}))
	res := c.FetchProfile(context.Background(), "shop.example.com")
	assert.False(t, res.OK)
	assert.False(t, res.ParseFailed)
	assert.Contains(t, res.Detail, "connection failed")
}

func TestProbeHeadWithGetFallback(t *testing.T) {
	var sawGet bool
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet = true
		w.WriteHeader(http.StatusOK)
	}))

	p := c.Probe(context.Background(), "https://shop.example.com/schema.json")
	assert.True(t, p.Reachable)
	assert.True(t, p.OK())
	assert.True(t, sawGet)
}

func TestProbeErrorStatusStillReachable(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	p := c.Probe(context.Background(), "https://api.shop.example.com/v1")
	assert.True(t, p.Reachable)
	assert.Equal(t, http.StatusUnauthorized, p.StatusCode)
	assert.False(t, p.OK())
}

func TestProbeRejectsNonHTTPS(t *testing.T) {
	c := NewClient()

	p := c.Probe(context.Background(), "http://shop.example.com/schema.json")
	assert.False(t, p.Reachable)
	assert.Equal(t, "https required", p.Detail)

	p = c.Probe(context.Background(), "")
	assert.False(t, p.Reachable)
	assert.Equal(t, "no URL declared", p.Detail)
}

func TestGet(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"type": "object"}`))
	}))

	body, err := c.Get(context.Background(), "https://shop.example.com/schema.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "object"}`, string(body))

	_, err = c.Get(context.Background(), "https://shop.example.com/missing")
	require.Error(t, err)

	_, err = c.Get(context.Background(), "http://shop.example.com/schema.json")
	require.Error(t, err)
}
