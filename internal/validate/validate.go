package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ucpkit/ucpcheck/internal/keys"
	"github.com/ucpkit/ucpcheck/internal/profile"
)

// CurrentVersion is the protocol revision this checker tracks.
const CurrentVersion = "2026-01-11"

// knownVersions are the date-stamped revisions we fully understand. A
// well-formed version outside this set is a warning, not an error: profiles
// published against a newer revision should still validate (forward
// compatibility).
var knownVersions = map[string]struct{}{
	"2025-09-29":   {},
	CurrentVersion: {},
}

var dateVersion = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Run checks a parsed document and returns the ordered issue report.
// raw, when non-nil, additionally runs the schema shape check against the
// original bytes. Every check runs regardless of what earlier checks found.
func Run(doc *profile.Document, raw []byte) *Report {
	r := &Report{}

	checkVersion(r, doc)
	checkServices(r, doc)
	checkCapabilities(r, doc)
	checkEndpoints(r, doc)
	checkSigningKeys(r, doc)
	if raw != nil {
		r.Issues = append(r.Issues, CheckShape(raw)...)
	}
	return r
}

func checkVersion(r *Report, doc *profile.Document) {
	v := doc.UCP.Version
	switch {
	case v == "":
		r.AddError(CodeMissingVersion,
			"ucp.version is required",
			fmt.Sprintf("declare the protocol revision, e.g. %q", CurrentVersion))
	case !dateVersion.MatchString(v):
		r.AddError(CodeInvalidVersion,
			fmt.Sprintf("ucp.version %q is not a date-stamped revision (YYYY-MM-DD)", v),
			fmt.Sprintf("use a published revision such as %q", CurrentVersion))
	default:
		if _, ok := knownVersions[v]; !ok {
			r.AddWarning(CodeUnknownVersion,
				fmt.Sprintf("ucp.version %q is not a revision this checker knows", v),
				"newer revisions validate best-effort; pin a published revision if possible")
		}
	}
}

func checkServices(r *Report, doc *profile.Document) {
	if len(doc.UCP.Services) == 0 {
		r.AddError(CodeMissingServices,
			"ucp.services must declare at least one service",
			"agents resolve transports through the service map")
	}
}

func checkCapabilities(r *Report, doc *profile.Document) {
	if len(doc.UCP.Capabilities) == 0 {
		r.AddError(CodeMissingCapabilities,
			"ucp.capabilities must be a non-empty list",
			"declare at least "+profile.CheckoutCapability)
	}
	if !doc.HasCapability(profile.CheckoutCapability) {
		r.AddError(CodeMissingCheckout,
			profile.CheckoutCapability+" is not declared",
			"checkout is the mandatory baseline capability; agents cannot transact without it")
	}
}

func checkEndpoints(r *Report, doc *profile.Document) {
	// Service names are sorted so issue order is stable across runs.
	names := make([]string, 0, len(doc.UCP.Services))
	for name := range doc.UCP.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc := doc.UCP.Services[name]
		for _, t := range profile.Transports {
			b := svc.Binding(t)
			if b == nil {
				continue
			}
			checkURL := func(field, url string) {
				if url == "" || strings.HasPrefix(url, "https://") {
					return
				}
				r.AddError(CodeEndpointNotHTTPS,
					fmt.Sprintf("services[%q].%s.%s %q does not use HTTPS", name, t, field, url),
					"agents refuse plaintext transports")
			}
			checkURL("endpoint", b.Endpoint)
			checkURL("schema", b.Schema)
		}
	}
}

func checkSigningKeys(r *Report, doc *profile.Document) {
	if doc.HasCapability(profile.OrderCapability) && len(doc.SigningKeys) == 0 {
		r.AddError(CodeMissingSigningKeys,
			"signing_keys is required when "+profile.OrderCapability+" is declared",
			"order webhooks must be signature-verifiable; publish at least one public JWK")
	}
	for i, k := range doc.SigningKeys {
		if err := keys.ValidateJWK(k); err != nil {
			r.AddError(CodeInvalidSigningKey,
				fmt.Sprintf("signing_keys[%d]: %v", i, err),
				"regenerate the key with the ucpcheck keygen utility")
		}
	}
}
