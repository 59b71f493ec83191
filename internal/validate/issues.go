// Package validate checks the structure and semantics of a fetched profile
// document and turns what it finds into an ordered list of categorized issues.
//
// All checks are independent: a malformed field never short-circuits detection
// of other malformed fields, so one pass reports everything it can. Issue
// order is the order checks ran, not significance order.
package validate

// Severity classifies an issue. Errors gate go-live; warnings do not.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Stable machine-readable issue codes. These are part of the output contract;
// renaming one is a breaking change for consumers keying on them.
const (
	CodeInvalidJSON         = "UCP_INVALID_JSON"
	CodeMissingVersion      = "UCP_MISSING_VERSION"
	CodeInvalidVersion      = "UCP_INVALID_VERSION"
	CodeUnknownVersion      = "UCP_UNKNOWN_VERSION"
	CodeMissingServices     = "UCP_MISSING_SERVICES"
	CodeMissingCapabilities = "UCP_MISSING_CAPABILITIES"
	CodeMissingCheckout     = "UCP_MISSING_CHECKOUT_CAPABILITY"
	CodeEndpointNotHTTPS    = "UCP_ENDPOINT_NOT_HTTPS"
	CodeMissingSigningKeys  = "UCP_MISSING_SIGNING_KEYS"
	CodeInvalidSigningKey   = "UCP_INVALID_SIGNING_KEY"
	CodeDuplicateCapability = "UCP_DUPLICATE_CAPABILITY"
	CodeMalformedCapability = "UCP_MALFORMED_CAPABILITY"
	CodeDanglingExtends     = "UCP_DANGLING_EXTENDS"
	CodeSchemaInvalid       = "UCP_SCHEMA_INVALID"
)

// Issue is one categorized finding. Issues are value objects; once appended
// to a report they are never mutated.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitempty"`
}

// Report is an ordered accumulation of issues plus the error/warning-weighted
// score derived from them.
type Report struct {
	Issues []Issue `json:"issues"`
}

// AddError appends an error issue.
func (r *Report) AddError(code, message, hint string) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityError, Code: code, Message: message, Hint: hint})
}

// AddWarning appends a warning issue.
func (r *Report) AddWarning(code, message, hint string) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityWarn, Code: code, Message: message, Hint: hint})
}

// ErrorCount returns the number of error-severity issues.
func (r *Report) ErrorCount() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warn-severity issues.
func (r *Report) WarningCount() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityWarn {
			n++
		}
	}
	return n
}

// Has reports whether any issue with the given code is present.
func (r *Report) Has(code string) bool {
	for _, is := range r.Issues {
		if is.Code == code {
			return true
		}
	}
	return false
}

// InvalidJSONIssue is the issue the fetcher's parse failure maps to. The run
// is not aborted; downstream stages see an absent document and skip.
func InvalidJSONIssue(detail string) Issue {
	return Issue{
		Severity: SeverityError,
		Code:     CodeInvalidJSON,
		Message:  "profile document is not valid JSON: " + detail,
		Hint:     "serve a JSON object with an ucp envelope at /.well-known/ucp",
	}
}
