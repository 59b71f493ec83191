// Package keys carries the signing-key rules shared between the key
// generation utility and the payment-readiness checker: what a structurally
// valid webhook-verification JWK looks like, and how to mint one.
package keys

import (
	"fmt"
	"strings"

	"github.com/ucpkit/ucpcheck/internal/profile"
)

// supportedCurves lists the EC curves webhook verifiers are required to
// understand.
var supportedCurves = map[string]struct{}{
	"P-256": {},
	"P-384": {},
	"P-521": {},
}

// ValidationError reports every structural problem found in one JWK.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "invalid signing key"
	}
	return "invalid signing key: " + strings.Join(e.Problems, "; ")
}

// ValidateJWK checks the structural shape of a declared signing key.
// EC keys need crv, x and y with a supported curve; RSA keys need n and e.
// Returns nil for a valid key, otherwise a *ValidationError listing every
// problem at once.
func ValidateJWK(k profile.JWK) error {
	var problems []string

	switch k.Kty {
	case "":
		problems = append(problems, "kty: required")
	case "EC":
		if k.Crv == "" {
			problems = append(problems, "crv: required for kty=EC")
		} else if _, ok := supportedCurves[k.Crv]; !ok {
			problems = append(problems, fmt.Sprintf("crv: unsupported curve %q", k.Crv))
		}
		if k.X == "" {
			problems = append(problems, "x: required for kty=EC")
		}
		if k.Y == "" {
			problems = append(problems, "y: required for kty=EC")
		}
	case "RSA":
		if k.N == "" {
			problems = append(problems, "n: required for kty=RSA")
		}
		if k.E == "" {
			problems = append(problems, "e: required for kty=RSA")
		}
	default:
		problems = append(problems, fmt.Sprintf("kty: unsupported key type %q", k.Kty))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
