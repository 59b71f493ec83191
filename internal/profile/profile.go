// Package profile models the UCP commerce profile document a merchant
// publishes at /.well-known/ucp.
//
// The document is represented as a strongly-typed core plus a residual map of
// vendor-extension top-level fields. Residual fields are preserved byte-for-byte
// across a parse/marshal round trip but are never interpreted.
package profile

import (
	"encoding/json"
	"fmt"
)

// CheckoutCapability is the mandatory baseline capability of the protocol.
// A profile without it cannot serve autonomous shopping agents.
const CheckoutCapability = "dev.ucp.shopping.checkout"

// Well-known optional capability names.
const (
	OrderCapability       = "dev.ucp.shopping.order"
	FulfillmentCapability = "dev.ucp.shopping.fulfillment"
	DiscountCapability    = "dev.ucp.shopping.discount"
)

// OfficialPrefix is the namespace reserved for capabilities defined by the
// protocol itself. Anything outside it is a vendor extension.
const OfficialPrefix = "dev.ucp."

// Transport identifies a service transport binding kind.
type Transport string

const (
	TransportREST     Transport = "rest"
	TransportMCP      Transport = "mcp"
	TransportA2A      Transport = "a2a"
	TransportEmbedded Transport = "embedded"
)

// Transports lists the transport kinds a ServiceBinding may declare, in the
// order probes report them.
var Transports = []Transport{TransportREST, TransportMCP, TransportA2A, TransportEmbedded}

// Document is a parsed profile. Immutable once fetched; owned by the pipeline
// run that fetched it.
type Document struct {
	UCP         UCP      `json:"ucp"`
	Payment     *Payment `json:"payment,omitempty"`
	SigningKeys []JWK    `json:"signing_keys,omitempty"`

	// Extra preserves vendor-extension top-level fields verbatim.
	// Never interpreted by the pipeline.
	Extra map[string]json.RawMessage `json:"-"`
}

// UCP is the protocol envelope: version, named services and the ordered
// capability list.
type UCP struct {
	Version      string                    `json:"version"`
	Services     map[string]ServiceBinding `json:"services"`
	Capabilities []CapabilityDecl          `json:"capabilities"`
}

// ServiceBinding describes one named service and its transport sub-bindings.
type ServiceBinding struct {
	Version  string            `json:"version,omitempty"`
	Spec     string            `json:"spec,omitempty"`
	REST     *TransportBinding `json:"rest,omitempty"`
	MCP      *TransportBinding `json:"mcp,omitempty"`
	A2A      *TransportBinding `json:"a2a,omitempty"`
	Embedded *TransportBinding `json:"embedded,omitempty"`
}

// Binding returns the sub-binding for a transport kind, or nil when the
// service does not declare it.
func (s ServiceBinding) Binding(t Transport) *TransportBinding {
	switch t {
	case TransportREST:
		return s.REST
	case TransportMCP:
		return s.MCP
	case TransportA2A:
		return s.A2A
	case TransportEmbedded:
		return s.Embedded
	}
	return nil
}

// TransportBinding carries the URLs an agent needs to reach one transport.
// Endpoint is the live service URL; Schema points at its machine-readable
// description (OpenAPI for rest, JSON Schema otherwise).
type TransportBinding struct {
	Endpoint string `json:"endpoint,omitempty"`
	Schema   string `json:"schema,omitempty"`
}

// NeedsEndpoint reports whether a transport kind defines a live endpoint.
// Embedded bindings are schema-only.
func (t Transport) NeedsEndpoint() bool {
	return t != TransportEmbedded
}

// CapabilityDecl declares one transactional capability. Extends is a
// non-owning back-reference to a parent capability name, resolved by lookup
// against the same document; a dangling reference is a validation error, not
// a crash.
type CapabilityDecl struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Spec    string `json:"spec,omitempty"`
	Schema  string `json:"schema,omitempty"`
	Extends string `json:"extends,omitempty"`
}

// Payment holds the declared payment handler list.
type Payment struct {
	Handlers []PaymentHandler `json:"handlers,omitempty"`
}

// PaymentHandler is a declared payment collection strategy. Config is
// handler-specific and passed through untouched.
type PaymentHandler struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Version string          `json:"version,omitempty"`
	Spec    string          `json:"spec,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// JWK is a JSON Web Key as declared under signing_keys. Only the structural
// fields the readiness checker inspects are typed.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`

	// EC fields.
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`

	// RSA fields.
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
}

var knownTopLevel = map[string]struct{}{
	"ucp":          {},
	"payment":      {},
	"signing_keys": {},
}

// Parse decodes a profile document from raw bytes. Unknown top-level fields
// land in Extra; they survive Marshal unchanged.
func Parse(raw []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("profile is not a JSON object: %w", err)
	}

	var doc Document
	if ucpRaw, ok := fields["ucp"]; ok {
		if err := json.Unmarshal(ucpRaw, &doc.UCP); err != nil {
			return nil, fmt.Errorf("decoding ucp envelope: %w", err)
		}
	}
	if payRaw, ok := fields["payment"]; ok {
		if err := json.Unmarshal(payRaw, &doc.Payment); err != nil {
			return nil, fmt.Errorf("decoding payment: %w", err)
		}
	}
	if keysRaw, ok := fields["signing_keys"]; ok {
		if err := json.Unmarshal(keysRaw, &doc.SigningKeys); err != nil {
			return nil, fmt.Errorf("decoding signing_keys: %w", err)
		}
	}

	for k, v := range fields {
		if _, known := knownTopLevel[k]; known {
			continue
		}
		if doc.Extra == nil {
			doc.Extra = map[string]json.RawMessage{}
		}
		doc.Extra[k] = v
	}
	return &doc, nil
}

// MarshalJSON merges the typed core with the preserved vendor fields.
// Typed fields win on key collision.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+3)
	for k, v := range d.Extra {
		out[k] = v
	}

	ucpRaw, err := json.Marshal(d.UCP)
	if err != nil {
		return nil, err
	}
	out["ucp"] = ucpRaw

	if d.Payment != nil {
		payRaw, err := json.Marshal(d.Payment)
		if err != nil {
			return nil, err
		}
		out["payment"] = payRaw
	}
	if d.SigningKeys != nil {
		keysRaw, err := json.Marshal(d.SigningKeys)
		if err != nil {
			return nil, err
		}
		out["signing_keys"] = keysRaw
	}
	return json.Marshal(out)
}

// Capability returns the first declared capability with the given name, or
// nil when the document does not declare it.
func (d *Document) Capability(name string) *CapabilityDecl {
	for i := range d.UCP.Capabilities {
		if d.UCP.Capabilities[i].Name == name {
			return &d.UCP.Capabilities[i]
		}
	}
	return nil
}

// HasCapability reports whether a capability name is declared.
func (d *Document) HasCapability(name string) bool {
	return d.Capability(name) != nil
}
