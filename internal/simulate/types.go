// Package simulate drives the step-by-step interaction an autonomous
// shopping agent would perform against a merchant profile - discovery,
// capability resolution, transport probing, a mock checkout and a
// payment-readiness check - and aggregates the outcomes into one score.
//
// The guiding policy: a bad merchant profile produces a low score, not a
// crashed run. Every invocation with a usable domain returns a complete
// Result; the only rejected input is a domain that cannot be normalized.
package simulate

import (
	"time"

	"github.com/ucpkit/ucpcheck/internal/capability"
	"github.com/ucpkit/ucpcheck/internal/transport"
	"github.com/ucpkit/ucpcheck/internal/validate"
)

// StepStatus is the terminal outcome of one simulated action.
type StepStatus string

const (
	StatusPass StepStatus = "pass"
	StatusFail StepStatus = "fail"
	StatusWarn StepStatus = "warn"
	StatusSkip StepStatus = "skip"
)

// Step records one discrete checked action. Never mutated after creation.
type Step struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// StageResult is the common shape of one pipeline stage. A stage whose
// prerequisite failed reports all steps as skip with success=false - it is
// never absent, so callers need no missing-stage case.
type StageResult struct {
	Success bool   `json:"success"`
	Steps   []Step `json:"steps"`

	// Disabled marks a stage the caller opted out of. Disabled stages are
	// excluded from scoring; prerequisite-failed stages are not.
	Disabled bool `json:"disabled,omitempty"`
}

func (s *StageResult) add(name string, status StepStatus, detail string) {
	s.Steps = append(s.Steps, Step{Name: name, Status: status, Detail: detail})
}

// skipAll records the stage's full intended checklist as skipped, preserving
// step identity in the output.
func (s *StageResult) skipAll(detail string, names ...string) {
	for _, name := range names {
		s.add(name, StatusSkip, detail)
	}
	s.Success = false
}

// settle derives Success from the recorded steps: a stage succeeds when it
// ran (at least one non-skip step) and nothing failed.
func (s *StageResult) settle() {
	ran := false
	for _, st := range s.Steps {
		switch st.Status {
		case StatusFail:
			s.Success = false
			return
		case StatusPass, StatusWarn:
			ran = true
		}
	}
	s.Success = ran
}

// DiscoveryStage reports the well-known profile fetch.
type DiscoveryStage struct {
	StageResult
	ProfileURL   string `json:"profileUrl,omitempty"`
	ProfileFound bool   `json:"profileFound"`
}

// CapabilitiesStage reports capability resolution.
type CapabilitiesStage struct {
	StageResult
	Capabilities []capability.Resolved `json:"capabilities,omitempty"`
}

// RestAPIStage reports transport probing. SchemaAccessible and
// EndpointReachable describe the REST binding specifically.
type RestAPIStage struct {
	StageResult
	Probes            []transport.Probe `json:"probes,omitempty"`
	SchemaAccessible  bool              `json:"schemaAccessible"`
	EndpointReachable bool              `json:"endpointReachable"`
}

// CheckoutStage reports the scripted checkout attempt. The order,
// fulfillment and discount flags derive from whether those capabilities are
// declared and resolve cleanly, not from re-running their own probe chains.
type CheckoutStage struct {
	StageResult
	CanCreateCheckout    bool `json:"canCreateCheckout"`
	OrderFlowSupported   bool `json:"orderFlowSupported"`
	FulfillmentSupported bool `json:"fulfillmentSupported"`
	DiscountSupported    bool `json:"discountSupported"`
}

// PaymentStage reports payment readiness. Entirely offline once the document
// is parsed.
type PaymentStage struct {
	StageResult
	HandlersFound     int  `json:"handlersFound"`
	WebhookVerifiable bool `json:"webhookVerifiable"`
}

// Summary counts step outcomes across all stages.
// passed+failed+warnings+skipped always equals total.
type Summary struct {
	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	WarningSteps int `json:"warningSteps"`
	SkippedSteps int `json:"skippedSteps"`
}

// Result is the aggregate outcome of one simulation run. Created once per
// invocation, immutable after the aggregator returns it; persisting it is the
// directory collaborator's job, never this package's.
type Result struct {
	Domain       string `json:"domain"`
	OverallScore int    `json:"overallScore"`
	Grade        string `json:"grade"`

	// ProfileHash is the canonical fingerprint of the fetched document,
	// empty when discovery failed.
	ProfileHash string `json:"profileHash,omitempty"`

	Summary         Summary  `json:"summary"`
	Recommendations []string `json:"recommendations"`

	Discovery    DiscoveryStage    `json:"discovery"`
	Capabilities CapabilitiesStage `json:"capabilities"`
	RestAPI      RestAPIStage      `json:"restApi"`
	Checkout     CheckoutStage     `json:"checkout"`
	Payment      PaymentStage      `json:"payment"`

	// Issues carries the structural validator's and resolver's findings so
	// report consumers see why steps failed without a second validation run.
	Issues []validate.Issue `json:"issues"`

	SimulatedAt time.Time `json:"simulatedAt"`
	DurationMs  int64     `json:"durationMs"`
}

// stages returns the stage results in reporting order, paired with their
// scoring keys.
func (r *Result) stages() []struct {
	key   string
	stage *StageResult
} {
	return []struct {
		key   string
		stage *StageResult
	}{
		{"discovery", &r.Discovery.StageResult},
		{"capabilities", &r.Capabilities.StageResult},
		{"restApi", &r.RestAPI.StageResult},
		{"checkout", &r.Checkout.StageResult},
		{"payment", &r.Payment.StageResult},
	}
}

// summarize recounts the step totals from the recorded stages.
func (r *Result) summarize() {
	var s Summary
	for _, st := range r.stages() {
		for _, step := range st.stage.Steps {
			s.TotalSteps++
			switch step.Status {
			case StatusPass:
				s.PassedSteps++
			case StatusFail:
				s.FailedSteps++
			case StatusWarn:
				s.WarningSteps++
			case StatusSkip:
				s.SkippedSteps++
			}
		}
	}
	r.Summary = s
}
