// Package capability resolves the declared capability list: namespaces,
// extends relationships and the reachability of each capability's schema and
// spec documents.
package capability

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/profile"
	"github.com/ucpkit/ucpcheck/internal/validate"
)

// Prober probes a URL for reachability. Satisfied by *fetch.Client.
type Prober interface {
	Probe(ctx context.Context, url string) fetch.ProbeResult
}

// Resolved is the per-capability resolution outcome.
type Resolved struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`

	// Official is true for the canonical dev.ucp. namespace; Extension marks
	// a vendor namespace. Extensions are informational, never errors.
	Official  bool `json:"official"`
	Extension bool `json:"extension,omitempty"`

	// Extends carries the declared parent name; ExtendsOK is false when the
	// reference dangles (which is also reported as an issue).
	Extends   string `json:"extends,omitempty"`
	ExtendsOK bool   `json:"extendsOk,omitempty"`

	// Reachability of the capability's own documents. Network failures
	// degrade to false, never abort the run.
	SchemaAccessible bool `json:"schemaAccessible"`
	SpecAccessible   bool `json:"specAccessible"`
}

// Result is the resolver output: one record per declared capability, in
// declaration order, plus the issues found along the way.
type Result struct {
	Capabilities []Resolved       `json:"capabilities"`
	Issues       []validate.Issue `json:"issues,omitempty"`
}

// Clean reports whether a named capability resolved without issues attached
// to it: declared, well-formed, and no dangling extends. Reachability is
// judged separately by the simulation stages.
func (r *Result) Clean(name string) bool {
	for _, c := range r.Capabilities {
		if c.Name != name {
			continue
		}
		return c.Extends == "" || c.ExtendsOK
	}
	return false
}

// dotted namespace: at least two lower-case labels.
var namespaceRE = regexp.MustCompile(`^[a-z0-9_-]+(\.[a-z0-9_-]+)+$`)

// Resolve walks the declared capability list. Unknown namespaces are flagged
// as extensions; malformed names, duplicates and dangling extends references
// become issues. schema/spec URLs are probed individually and degrade to
// not-accessible on any network failure.
func Resolve(ctx context.Context, doc *profile.Document, prober Prober) *Result {
	res := &Result{}
	report := &validate.Report{}

	declared := make(map[string]struct{}, len(doc.UCP.Capabilities))
	for _, c := range doc.UCP.Capabilities {
		if c.Name != "" {
			declared[c.Name] = struct{}{}
		}
	}

	seen := map[string]struct{}{}
	for i, c := range doc.UCP.Capabilities {
		rc := Resolved{Name: c.Name, Version: c.Version, Extends: c.Extends}

		switch {
		case c.Name == "":
			report.AddError(validate.CodeMalformedCapability,
				fmt.Sprintf("ucp.capabilities[%d] has no name", i), "")
		case !namespaceRE.MatchString(c.Name):
			report.AddError(validate.CodeMalformedCapability,
				fmt.Sprintf("ucp.capabilities[%d] name %q is not a dotted namespace", i, c.Name),
				"capability names are reverse-domain identifiers like "+profile.CheckoutCapability)
		case strings.HasPrefix(c.Name, profile.OfficialPrefix):
			rc.Official = true
		default:
			// Vendor namespace: informational only.
			rc.Extension = true
		}

		if _, dup := seen[c.Name]; dup && c.Name != "" {
			report.AddError(validate.CodeDuplicateCapability,
				fmt.Sprintf("capability %q is declared more than once", c.Name), "")
		}
		seen[c.Name] = struct{}{}

		if c.Extends != "" {
			// Resolved against the declared set, not the known-capability
			// list: extending somebody else's vendor capability is fine as
			// long as it is in the same document.
			if _, ok := declared[c.Extends]; ok {
				rc.ExtendsOK = true
			} else {
				report.AddError(validate.CodeDanglingExtends,
					fmt.Sprintf("capability %q extends %q, which is not declared in this profile", c.Name, c.Extends),
					"extends must reference another declared capability name")
			}
		}

		if prober != nil {
			if c.Schema != "" {
				rc.SchemaAccessible = prober.Probe(ctx, c.Schema).OK()
			}
			if c.Spec != "" {
				rc.SpecAccessible = prober.Probe(ctx, c.Spec).OK()
			}
		}

		res.Capabilities = append(res.Capabilities, rc)
	}

	res.Issues = report.Issues
	return res
}
