package simulate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ucpkit/ucpcheck/internal/capability"
	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/keys"
	"github.com/ucpkit/ucpcheck/internal/profile"
	"github.com/ucpkit/ucpcheck/internal/schemacheck"
	"github.com/ucpkit/ucpcheck/internal/transport"
	"github.com/ucpkit/ucpcheck/internal/validate"
)

// NetClient is the network surface the runner consumes. *fetch.Client
// satisfies it; tests substitute stubs.
type NetClient interface {
	FetchProfile(ctx context.Context, domain string) *fetch.Result
	Probe(ctx context.Context, url string) fetch.ProbeResult
	Get(ctx context.Context, url string) ([]byte, error)
}

// Runner executes simulation runs. Runs share no mutable state: one Runner
// may serve concurrent runs for different domains without synchronization.
type Runner struct {
	client NetClient
	logger *slog.Logger
	now    func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the run logger. Defaults to discard.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithClock replaces the wall clock. Tests use a fixed clock so simulatedAt
// and durationMs are deterministic.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner builds a runner around a network client.
func NewRunner(client NetClient, opts ...RunnerOption) *Runner {
	r := &Runner{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the full pipeline for one domain and always returns a
// complete Result - every stage present, skipped where prerequisites failed.
// The only error return is an invalid domain (fetch.ErrInvalidDomain): that
// is a caller contract violation, not a merchant problem.
func (r *Runner) Run(ctx context.Context, domain string, opts Options) (*Result, error) {
	norm, err := fetch.NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	start := r.now()
	res := &Result{
		Domain:          norm,
		Recommendations: []string{},
		Issues:          []validate.Issue{},
		SimulatedAt:     start.UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	r.logger.Info("simulation started", "domain", norm, "timeout", opts.timeout())

	// Stage 1: the only strictly sequential network read.
	fres := r.client.FetchProfile(ctx, norm)
	r.runDiscovery(res, fres)

	// Structural validation plus the fan-out stages. Capability resolution
	// and transport probing only read the parsed document, so they run
	// concurrently and join before checkout/payment.
	report := &validate.Report{}
	var capres *capability.Result
	var tres *transport.Result
	switch {
	case fres.OK:
		if hash, err := profile.Fingerprint(fres.Raw); err == nil {
			res.ProfileHash = hash
		}
		report = validate.Run(fres.Doc, fres.Raw)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			capres = capability.Resolve(gctx, fres.Doc, r.client)
			return nil
		})
		if !opts.SkipRestAPITest {
			g.Go(func() error {
				tres = transport.ProbeAll(gctx, fres.Doc, r.client)
				return nil
			})
		}
		// Workers fold failures into their results; nothing to propagate.
		_ = g.Wait()
	case fres.ParseFailed:
		report.Issues = append(report.Issues, validate.InvalidJSONIssue(fres.Detail))
	}

	r.runCapabilities(ctx, res, opts, capres)
	r.runRestAPI(ctx, res, opts, tres)

	// Checkout and payment share the same prerequisites and are independent
	// of each other.
	var doc *profile.Document
	if fres.OK {
		doc = fres.Doc
	}
	g2, g2ctx := errgroup.WithContext(ctx)
	g2.Go(func() error {
		r.runCheckout(g2ctx, res, opts, fres, doc, capres)
		return nil
	})
	g2.Go(func() error {
		r.runPayment(g2ctx, res, doc)
		return nil
	})
	_ = g2.Wait()

	// Aggregate. Issues first (validator order, then resolver order), then
	// counts, score, grade and the recommendation table.
	res.Issues = append(res.Issues, report.Issues...)
	if capres != nil {
		res.Issues = append(res.Issues, capres.Issues...)
	}
	res.summarize()
	res.OverallScore = overallScore(res)
	res.Grade = validate.GradeFor(res.OverallScore)
	res.Recommendations = recommend(res)
	res.DurationMs = r.now().Sub(start).Milliseconds()

	r.logger.Info("simulation finished",
		"domain", norm,
		"score", res.OverallScore,
		"grade", res.Grade,
		"steps", res.Summary.TotalSteps,
	)
	return res, nil
}

func (r *Runner) runDiscovery(res *Result, fres *fetch.Result) {
	st := &res.Discovery
	st.ProfileURL = fres.URL

	switch {
	case fres.OK:
		st.add("fetch-profile", StatusPass, "")
		st.add("parse-profile", StatusPass, "")
		st.ProfileFound = true
	case fres.ParseFailed:
		st.add("fetch-profile", StatusPass, "")
		st.add("parse-profile", StatusFail, fres.Detail)
	default:
		st.add("fetch-profile", StatusFail, fres.Detail)
		st.add("parse-profile", StatusSkip, "nothing to parse")
	}
	st.settle()
}

func (r *Runner) runCapabilities(ctx context.Context, res *Result, opts Options, capres *capability.Result) {
	st := &res.Capabilities
	checklist := []string{"declared-capabilities", "resolve-capabilities"}

	switch {
	case ctx.Err() != nil:
		st.skipAll("run budget exhausted", checklist...)
		return
	case capres == nil:
		st.skipAll("profile unavailable", checklist...)
		return
	}
	st.Capabilities = capres.Capabilities

	if n := len(capres.Capabilities); n > 0 {
		st.add("declared-capabilities", StatusPass, fmt.Sprintf("%d capability(ies) declared", n))
	} else {
		st.add("declared-capabilities", StatusFail, "ucp.capabilities is empty")
	}

	if len(capres.Issues) > 0 {
		st.add("resolve-capabilities", StatusFail, issueCodes(capres.Issues))
	} else {
		detail := ""
		if opts.Verbose {
			detail = fmt.Sprintf("%d official, %d vendor extensions",
				countOfficial(capres.Capabilities), countExtensions(capres.Capabilities))
		}
		st.add("resolve-capabilities", StatusPass, detail)
	}
	st.settle()
}

func (r *Runner) runRestAPI(ctx context.Context, res *Result, opts Options, tres *transport.Result) {
	st := &res.RestAPI

	switch {
	case opts.SkipRestAPITest:
		st.Disabled = true
		st.skipAll("transport probing disabled", "probe-transports")
		return
	case ctx.Err() != nil:
		st.skipAll("run budget exhausted", "probe-transports")
		return
	case tres == nil:
		st.skipAll("profile unavailable", "probe-transports")
		return
	}

	if len(tres.Probes) == 0 {
		st.add("probe-transports", StatusFail, "no transport bindings declared")
		st.settle()
		return
	}

	st.Probes = tres.Probes
	for _, p := range tres.Probes {
		name := fmt.Sprintf("probe:%s.%s", p.Service, p.Transport)
		if p.Usable {
			detail := ""
			if opts.Verbose {
				detail = p.Detail
			}
			st.add(name, StatusPass, detail)
		} else {
			st.add(name, StatusFail, p.Detail)
		}
	}

	if rest := tres.Binding(profile.TransportREST); rest != nil {
		st.SchemaAccessible = rest.SchemaOK
		st.EndpointReachable = rest.EndpointReachable
	}

	// An agent needs one usable transport, not all of them.
	st.Success = false
	for _, p := range tres.Probes {
		if p.Usable {
			st.Success = true
			break
		}
	}
}

func (r *Runner) runCheckout(ctx context.Context, res *Result, opts Options, fres *fetch.Result, doc *profile.Document, capres *capability.Result) {
	st := &res.Checkout
	checklist := []string{"discovery", "capability-check", "schema-fetch", "mock-checkout"}

	if !opts.testCheckoutFlow() {
		st.Disabled = true
		st.skipAll("checkout flow test disabled", checklist...)
		return
	}
	if ctx.Err() != nil {
		st.skipAll("run budget exhausted", checklist...)
		return
	}

	// Supported-flow flags derive from resolution, not from the step chain.
	if capres != nil {
		st.OrderFlowSupported = capres.Clean(profile.OrderCapability)
		st.FulfillmentSupported = capres.Clean(profile.FulfillmentCapability)
		st.DiscountSupported = capres.Clean(profile.DiscountCapability)
	}

	// Step 1: discovery, re-recorded so the stage is self-contained.
	if doc == nil {
		st.add("discovery", StatusFail, fres.Detail)
		st.skipAll("profile unavailable", checklist[1:]...)
		return
	}
	st.add("discovery", StatusPass, "")

	// Step 2: the checkout capability must resolve cleanly.
	capOK := capres != nil && capres.Clean(profile.CheckoutCapability)
	if capOK {
		st.add("capability-check", StatusPass, "")
	} else {
		st.add("capability-check", StatusFail, profile.CheckoutCapability+" is missing or did not resolve cleanly")
		st.skipAll("prerequisite failed", checklist[2:]...)
		return
	}

	// Step 3: the checkout JSON Schema must itself be valid schema JSON.
	schemaOK := false
	switch {
	case opts.SkipSchemaValidation:
		st.add("schema-fetch", StatusSkip, "schema validation disabled")
		schemaOK = true // not contradicted
	default:
		decl := doc.Capability(profile.CheckoutCapability)
		if decl == nil || decl.Schema == "" {
			st.add("schema-fetch", StatusFail, "checkout capability declares no schema URL")
		} else if err := schemacheck.CheckJSONSchema(ctx, r.client, decl.Schema); err != nil {
			st.add("schema-fetch", StatusFail, err.Error())
		} else {
			st.add("schema-fetch", StatusPass, "")
			schemaOK = true
		}
	}

	// Step 4: read the REST schema far enough to find the checkout
	// operation. Never a real checkout: no state-mutating request leaves
	// this process.
	mockOK := false
	restSchema := restSchemaURL(doc)
	switch {
	case opts.SkipSchemaValidation:
		st.add("mock-checkout", StatusSkip, "schema validation disabled")
		mockOK = schemaOK
	case restSchema == "":
		st.add("mock-checkout", StatusSkip, "no REST transport declared")
		mockOK = schemaOK
	default:
		rep := schemacheck.InspectOpenAPI(ctx, r.client, restSchema)
		switch {
		case rep.HasCheckoutCreate:
			detail := ""
			if opts.Verbose {
				detail = "checkout operation at " + rep.CheckoutPath
			}
			st.add("mock-checkout", StatusPass, detail)
			mockOK = true
		case rep.Parsed:
			st.add("mock-checkout", StatusWarn, rep.Detail)
		default:
			st.add("mock-checkout", StatusFail, rep.Detail)
		}
	}

	st.CanCreateCheckout = capOK && schemaOK && mockOK
	st.settle()
}

func (r *Runner) runPayment(ctx context.Context, res *Result, doc *profile.Document) {
	st := &res.Payment
	checklist := []string{"payment-handlers", "signing-keys", "webhook-verification"}

	if ctx.Err() != nil {
		st.skipAll("run budget exhausted", checklist...)
		return
	}
	if doc == nil {
		st.skipAll("profile unavailable", checklist...)
		return
	}

	var handlers []profile.PaymentHandler
	if doc.Payment != nil {
		handlers = doc.Payment.Handlers
	}
	st.HandlersFound = len(handlers)
	if len(handlers) > 0 {
		st.add("payment-handlers", StatusPass, fmt.Sprintf("%d handler(s) declared", len(handlers)))
	} else {
		st.add("payment-handlers", StatusWarn, "no payment handlers declared")
	}

	validKeys := 0
	switch {
	case len(doc.SigningKeys) == 0:
		st.add("signing-keys", StatusWarn, "no signing keys declared")
	default:
		var bad []string
		for i, k := range doc.SigningKeys {
			if err := keys.ValidateJWK(k); err != nil {
				bad = append(bad, fmt.Sprintf("signing_keys[%d]: %v", i, err))
			} else {
				validKeys++
			}
		}
		if len(bad) > 0 {
			st.add("signing-keys", StatusFail, strings.Join(bad, "; "))
		} else {
			st.add("signing-keys", StatusPass, fmt.Sprintf("%d key(s) valid", validKeys))
		}
	}

	st.WebhookVerifiable = validKeys > 0 && st.HandlersFound > 0
	switch {
	case st.WebhookVerifiable:
		st.add("webhook-verification", StatusPass, "")
	case doc.HasCapability(profile.OrderCapability):
		st.add("webhook-verification", StatusFail, "order capability requires a valid signing key and a payment handler")
	default:
		st.add("webhook-verification", StatusWarn, "webhooks are not verifiable without a valid signing key and a payment handler")
	}
	st.settle()
}

// restSchemaURL returns the first declared REST schema URL, services in name
// order.
func restSchemaURL(doc *profile.Document) string {
	names := make([]string, 0, len(doc.UCP.Services))
	for name := range doc.UCP.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if rest := doc.UCP.Services[name].REST; rest != nil && rest.Schema != "" {
			return rest.Schema
		}
	}
	return ""
}

func issueCodes(issues []validate.Issue) string {
	codes := make([]string, len(issues))
	for i, is := range issues {
		codes[i] = is.Code
	}
	return strings.Join(codes, ", ")
}

func countOfficial(caps []capability.Resolved) int {
	n := 0
	for _, c := range caps {
		if c.Official {
			n++
		}
	}
	return n
}

func countExtensions(caps []capability.Resolved) int {
	n := 0
	for _, c := range caps {
		if c.Extension {
			n++
		}
	}
	return n
}
