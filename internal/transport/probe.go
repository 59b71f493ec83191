// Package transport probes the declared service transport bindings the way
// an agent would reach them: schema document first, then the live endpoint.
package transport

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/profile"
)

// Prober probes a URL for reachability. Satisfied by *fetch.Client.
type Prober interface {
	Probe(ctx context.Context, url string) fetch.ProbeResult
}

// Probe is the outcome for one service × transport binding.
//
// Usable means an agent can start using the transport: its schema is
// fetchable and, where the transport defines a live endpoint, the endpoint
// responds at the connection level. HTTP error statuses (401, 403, ...) still
// count as reachable; only connection, DNS or TLS failures do not.
type Probe struct {
	Service   string            `json:"service"`
	Transport profile.Transport `json:"transport"`

	SchemaURL   string `json:"schemaUrl,omitempty"`
	EndpointURL string `json:"endpointUrl,omitempty"`

	SchemaOK          bool   `json:"schemaOk"`
	EndpointReachable bool   `json:"endpointReachable"`
	Usable            bool   `json:"usable"`
	Detail            string `json:"detail,omitempty"` // failure cause when not usable
}

// Result lists probes in a stable order: services sorted by name, transports
// in declaration-kind order.
type Result struct {
	Probes []Probe `json:"probes"`
}

// AnyUsable reports whether at least one probed transport of the given kind
// is usable.
func (r *Result) AnyUsable(t profile.Transport) bool {
	for _, p := range r.Probes {
		if p.Transport == t && p.Usable {
			return true
		}
	}
	return false
}

// Binding returns the first probe of the given kind, or nil.
func (r *Result) Binding(t profile.Transport) *Probe {
	for i := range r.Probes {
		if r.Probes[i].Transport == t {
			return &r.Probes[i]
		}
	}
	return nil
}

// probeConcurrency bounds parallel URL probes within one run.
const probeConcurrency = 4

// ProbeAll probes every declared transport binding. Individual probe
// failures degrade to unusable entries; ProbeAll itself never fails.
func ProbeAll(ctx context.Context, doc *profile.Document, prober Prober) *Result {
	type target struct {
		service string
		kind    profile.Transport
		binding profile.TransportBinding
	}

	var targets []target
	for _, name := range sortedServiceNames(doc) {
		svc := doc.UCP.Services[name]
		for _, t := range profile.Transports {
			if b := svc.Binding(t); b != nil {
				targets = append(targets, target{service: name, kind: t, binding: *b})
			}
		}
	}

	probes := make([]Probe, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for i, tgt := range targets {
		g.Go(func() error {
			probes[i] = probeBinding(gctx, prober, tgt.service, tgt.kind, tgt.binding)
			return nil
		})
	}
	// Workers only record outcomes; no error can surface here.
	_ = g.Wait()

	return &Result{Probes: probes}
}

func probeBinding(ctx context.Context, prober Prober, service string, kind profile.Transport, b profile.TransportBinding) Probe {
	p := Probe{
		Service:     service,
		Transport:   kind,
		SchemaURL:   b.Schema,
		EndpointURL: b.Endpoint,
	}

	if b.Schema == "" {
		p.Detail = "no schema URL declared"
	} else {
		sp := prober.Probe(ctx, b.Schema)
		p.SchemaOK = sp.OK()
		if !p.SchemaOK {
			p.Detail = fmt.Sprintf("schema not fetchable: %s", sp.Detail)
		}
	}

	if kind.NeedsEndpoint() {
		if b.Endpoint == "" {
			p.EndpointReachable = false
			if p.Detail == "" {
				p.Detail = "no endpoint URL declared"
			}
		} else {
			ep := prober.Probe(ctx, b.Endpoint)
			p.EndpointReachable = ep.Reachable
			if !ep.Reachable && p.Detail == "" {
				p.Detail = fmt.Sprintf("endpoint unreachable: %s", ep.Detail)
			}
		}
		p.Usable = p.SchemaOK && p.EndpointReachable
	} else {
		p.Usable = p.SchemaOK
	}
	return p
}

func sortedServiceNames(doc *profile.Document) []string {
	names := make([]string, 0, len(doc.UCP.Services))
	for name := range doc.UCP.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
