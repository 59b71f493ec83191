package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/profile"
)

type stubProber struct {
	reachable map[string]int // url -> status code; absent means unreachable
}

func (s *stubProber) Probe(_ context.Context, url string) fetch.ProbeResult {
	if status, ok := s.reachable[url]; ok {
		return fetch.ProbeResult{Reachable: true, StatusCode: status}
	}
	return fetch.ProbeResult{Detail: "connection failed"}
}

func TestProbeAllStableOrder(t *testing.T) {
	doc := &profile.Document{UCP: profile.UCP{Services: map[string]profile.ServiceBinding{
		"zeta": {
			REST: &profile.TransportBinding{Endpoint: "https://z.example/v1", Schema: "https://z.example/s.json"},
		},
		"alpha": {
			MCP:      &profile.TransportBinding{Endpoint: "https://a.example/mcp", Schema: "https://a.example/mcp.json"},
			REST:     &profile.TransportBinding{Endpoint: "https://a.example/v1", Schema: "https://a.example/s.json"},
			Embedded: &profile.TransportBinding{Schema: "https://a.example/e.json"},
		},
	}}}
	prober := &stubProber{reachable: map[string]int{}}

	res := ProbeAll(context.Background(), doc, prober)
	require.Len(t, res.Probes, 4)

	// Services sorted by name, transports in declaration-kind order.
	assert.Equal(t, "alpha", res.Probes[0].Service)
	assert.Equal(t, profile.TransportREST, res.Probes[0].Transport)
	assert.Equal(t, profile.TransportMCP, res.Probes[1].Transport)
	assert.Equal(t, profile.TransportEmbedded, res.Probes[2].Transport)
	assert.Equal(t, "zeta", res.Probes[3].Service)
}

func TestProbeUsableRequiresSchemaAndEndpoint(t *testing.T) {
	doc := &profile.Document{UCP: profile.UCP{Services: map[string]profile.ServiceBinding{
		"shop": {REST: &profile.TransportBinding{
			Endpoint: "https://shop.example/v1",
			Schema:   "https://shop.example/openapi.json",
		}},
	}}}

	prober := &stubProber{reachable: map[string]int{
		"https://shop.example/v1":           401, // auth-gated endpoints still count
		"https://shop.example/openapi.json": 200,
	}}
	res := ProbeAll(context.Background(), doc, prober)
	require.Len(t, res.Probes, 1)
	p := res.Probes[0]
	assert.True(t, p.SchemaOK)
	assert.True(t, p.EndpointReachable)
	assert.True(t, p.Usable)
	assert.True(t, res.AnyUsable(profile.TransportREST))
}

func TestProbeSchemaErrorStatusNotOK(t *testing.T) {
	doc := &profile.Document{UCP: profile.UCP{Services: map[string]profile.ServiceBinding{
		"shop": {REST: &profile.TransportBinding{
			Endpoint: "https://shop.example/v1",
			Schema:   "https://shop.example/openapi.json",
		}},
	}}}

	// A 404 schema is reachable but not OK; the binding is unusable.
	prober := &stubProber{reachable: map[string]int{
		"https://shop.example/v1":           200,
		"https://shop.example/openapi.json": 404,
	}}
	res := ProbeAll(context.Background(), doc, prober)
	p := res.Probes[0]
	assert.False(t, p.SchemaOK)
	assert.False(t, p.Usable)
	assert.Contains(t, p.Detail, "schema not fetchable")
}

func TestProbeEmbeddedIsSchemaOnly(t *testing.T) {
	doc := &profile.Document{UCP: profile.UCP{Services: map[string]profile.ServiceBinding{
		"shop": {Embedded: &profile.TransportBinding{Schema: "https://shop.example/embedded.json"}},
	}}}
	prober := &stubProber{reachable: map[string]int{
		"https://shop.example/embedded.json": 200,
	}}

	res := ProbeAll(context.Background(), doc, prober)
	require.Len(t, res.Probes, 1)
	p := res.Probes[0]
	assert.True(t, p.Usable)
	assert.False(t, p.EndpointReachable)
}

func TestProbeMissingURLs(t *testing.T) {
	doc := &profile.Document{UCP: profile.UCP{Services: map[string]profile.ServiceBinding{
		"shop": {REST: &profile.TransportBinding{}},
	}}}
	prober := &stubProber{reachable: map[string]int{}}

	res := ProbeAll(context.Background(), doc, prober)
	require.Len(t, res.Probes, 1)
	p := res.Probes[0]
	assert.False(t, p.Usable)
	assert.Equal(t, "no schema URL declared", p.Detail)
}

func TestProbeNoBindings(t *testing.T) {
	doc := &profile.Document{UCP: profile.UCP{Services: map[string]profile.ServiceBinding{"shop": {}}}}
	res := ProbeAll(context.Background(), doc, &stubProber{})
	assert.Empty(t, res.Probes)
	assert.Nil(t, res.Binding(profile.TransportREST))
	assert.False(t, res.AnyUsable(profile.TransportREST))
}
