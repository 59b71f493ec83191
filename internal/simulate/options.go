package simulate

import "time"

// DefaultTimeout bounds a whole run when the caller does not set one.
const DefaultTimeout = 30 * time.Second

// Options is the recognized options bag for one run. Zero value means
// defaults: full run, 30s budget.
type Options struct {
	// TimeoutMs is the budget for the whole run in milliseconds.
	TimeoutMs int `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`

	// SkipRestAPITest disables transport probing.
	SkipRestAPITest bool `json:"skipRestApiTest,omitempty" yaml:"skipRestApiTest,omitempty"`

	// SkipSchemaValidation disables the checkout schema-fetch and
	// mock-checkout steps.
	SkipSchemaValidation bool `json:"skipSchemaValidation,omitempty" yaml:"skipSchemaValidation,omitempty"`

	// TestCheckoutFlow controls the checkout simulation stage. Absent means
	// true; it is a pointer so callers who never set it are distinguishable
	// from callers who set it to false.
	TestCheckoutFlow *bool `json:"testCheckoutFlow,omitempty" yaml:"testCheckoutFlow,omitempty"`

	// Verbose widens step detail text. It never changes a pass/fail outcome.
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

func (o Options) timeout() time.Duration {
	if o.TimeoutMs <= 0 {
		return DefaultTimeout
	}
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

func (o Options) testCheckoutFlow() bool {
	return o.TestCheckoutFlow == nil || *o.TestCheckoutFlow
}
