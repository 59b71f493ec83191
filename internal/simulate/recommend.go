package simulate

import "github.com/ucpkit/ucpcheck/internal/validate"

// recommendationRules is the fixed rule table that turns findings into
// actionable suggestions. Rules are data: each pairs a predicate over the
// finished result with its text, evaluated in order. Extending the advice
// means adding a row, not threading conditionals through the stages.
var recommendationRules = []struct {
	when func(*Result) bool
	text string
}{
	{
		when: func(r *Result) bool { return !r.Discovery.Success },
		text: "Serve the profile as application/json at https://{domain}/.well-known/ucp - nothing else can be checked until discovery works.",
	},
	{
		when: hasErrorIssue,
		text: "Fix all validation errors before going live; agents refuse profiles that fail structural validation.",
	},
	{
		when: hasIssue(validate.CodeMissingCheckout),
		text: "Declare dev.ucp.shopping.checkout - it is the mandatory baseline capability of the protocol.",
	},
	{
		when: hasIssue(validate.CodeEndpointNotHTTPS),
		text: "Move every declared endpoint and schema URL to HTTPS; agents refuse plaintext transports.",
	},
	{
		when: hasIssue(validate.CodeMissingSigningKeys),
		text: "Publish at least one public signing key (ucpcheck keygen) so order webhooks can be signature-verified.",
	},
	{
		when: hasIssue(validate.CodeDanglingExtends),
		text: "Every extends reference must name another capability declared in the same profile.",
	},
	{
		when: func(r *Result) bool {
			return r.Discovery.Success && !r.RestAPI.Disabled && !r.RestAPI.Success
		},
		text: "Make the declared transport schemas fetchable and their endpoints reachable; an agent needs at least one usable transport.",
	},
	{
		when: func(r *Result) bool {
			return r.Checkout.OrderFlowSupported && !r.Payment.WebhookVerifiable
		},
		text: "Order flow is declared but webhooks are not verifiable; publish a valid signing key and declare a payment handler.",
	},
	{
		when: func(r *Result) bool { return r.OverallScore == 100 && len(r.Issues) == 0 },
		text: "Profile looks agent-ready. Keep schemas versioned and re-run checks after every profile change.",
	},
}

// recommend evaluates the rule table against a finished result.
func recommend(r *Result) []string {
	out := []string{}
	for _, rule := range recommendationRules {
		if rule.when(r) {
			out = append(out, rule.text)
		}
	}
	return out
}

func hasErrorIssue(r *Result) bool {
	for _, is := range r.Issues {
		if is.Severity == validate.SeverityError {
			return true
		}
	}
	return false
}

func hasIssue(code string) func(*Result) bool {
	return func(r *Result) bool {
		for _, is := range r.Issues {
			if is.Code == code {
				return true
			}
		}
		return false
	}
}
