package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/simulate"
	"github.com/ucpkit/ucpcheck/internal/store"
)

type checkOptions struct {
	TimeoutMs   int
	SkipRestAPI bool
	SkipSchema  bool
	NoCheckout  bool
	Save        bool
	DBPath      string
}

// NewCheckCommand creates the check command: the full fetch, validate and
// agent-simulation pipeline for one merchant domain.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <domain>",
		Short: "Run the full agent-readiness check against a merchant domain",
		Long: `Fetch https://<domain>/.well-known/ucp, validate the profile, probe the
declared transports, simulate a checkout and report a 0-100 score with an
A-F grade and recommendations.

A broken or missing profile is a low score, not a command failure; only an
unusable domain argument rejects the run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.TimeoutMs, "timeout", 0, "overall run budget in milliseconds (default 30000)")
	cmd.Flags().BoolVar(&opts.SkipRestAPI, "skip-rest-api", false, "skip transport probing")
	cmd.Flags().BoolVar(&opts.SkipSchema, "skip-schema-validation", false, "skip schema fetch and checkout simulation detail")
	cmd.Flags().BoolVar(&opts.NoCheckout, "no-checkout", false, "disable the checkout simulation stage")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "persist the report to the merchant directory")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the directory database (default from config)")

	return cmd
}

func runCheck(rootOpts *RootOptions, opts *checkOptions, domain string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	simOpts := simulate.Options{
		TimeoutMs:            opts.TimeoutMs,
		SkipRestAPITest:      opts.SkipRestAPI || rootOpts.Config.SkipRestAPITest,
		SkipSchemaValidation: opts.SkipSchema || rootOpts.Config.SkipSchemaValidation,
		Verbose:              rootOpts.Verbose,
	}
	if simOpts.TimeoutMs == 0 {
		simOpts.TimeoutMs = rootOpts.Config.TimeoutMs
	}
	if opts.NoCheckout {
		f := false
		simOpts.TestCheckoutFlow = &f
	}

	runner := simulate.NewRunner(fetch.NewClient(), simulate.WithLogger(commandLogger(rootOpts, cmd)))

	formatter.VerboseLog("Checking %s ...", domain)
	result, err := runner.Run(cmd.Context(), domain, simOpts)
	if err != nil {
		if errors.Is(err, fetch.ErrInvalidDomain) {
			_ = formatter.Error(ErrCodeInvalidDomain, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "check", err)
	}

	if opts.Save {
		if err := saveReport(rootOpts, opts, cmd, result); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "saving report", err)
		}
		formatter.VerboseLog("Report for %s saved", result.Domain)
	}

	if formatter.Format == "json" {
		if err := formatter.SuccessJSON(result); err != nil {
			return err
		}
	} else {
		renderReport(formatter, result)
	}

	// A failing grade is a merchant problem worth signaling to scripts.
	if result.Grade == "F" {
		return NewExitError(ExitFailure, fmt.Sprintf("%s scored %d (grade F)", result.Domain, result.OverallScore))
	}
	return nil
}

func saveReport(rootOpts *RootOptions, opts *checkOptions, cmd *cobra.Command, result *simulate.Result) error {
	path := opts.DBPath
	if path == "" {
		path = rootOpts.Config.DBPath
	}
	if path == "" {
		return errors.New("no database configured: pass --db or set db in the config file")
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	_, err = st.SaveReport(cmd.Context(), result, result.ProfileHash)
	return err
}

// commandLogger returns a logger that is silent unless verbose is on.
func commandLogger(rootOpts *RootOptions, cmd *cobra.Command) *slog.Logger {
	if !rootOpts.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var statusMarks = map[simulate.StepStatus]string{
	simulate.StatusPass: "✓",
	simulate.StatusFail: "✗",
	simulate.StatusWarn: "!",
	simulate.StatusSkip: "-",
}

// renderReport prints the human-readable report.
func renderReport(f *OutputFormatter, r *simulate.Result) {
	fmt.Fprintf(f.Writer, "UCP check: %s\n", r.Domain)
	fmt.Fprintf(f.Writer, "Score: %d/100 (grade %s)\n\n", r.OverallScore, r.Grade)

	stages := []struct {
		title string
		steps []simulate.Step
	}{
		{"Discovery", r.Discovery.Steps},
		{"Capabilities", r.Capabilities.Steps},
		{"REST API", r.RestAPI.Steps},
		{"Checkout", r.Checkout.Steps},
		{"Payment", r.Payment.Steps},
	}
	for _, st := range stages {
		fmt.Fprintf(f.Writer, "%s\n", st.title)
		for _, step := range st.steps {
			mark := statusMarks[step.Status]
			if step.Detail != "" {
				fmt.Fprintf(f.Writer, "  %s %s: %s\n", mark, step.Name, step.Detail)
			} else {
				fmt.Fprintf(f.Writer, "  %s %s\n", mark, step.Name)
			}
		}
	}

	if len(r.Issues) > 0 {
		fmt.Fprintf(f.Writer, "\nIssues (%d)\n", len(r.Issues))
		for _, issue := range r.Issues {
			fmt.Fprintf(f.Writer, "  [%s] %s: %s\n", strings.ToUpper(string(issue.Severity)), issue.Code, issue.Message)
			if issue.Hint != "" && f.Verbose {
				fmt.Fprintf(f.Writer, "      hint: %s\n", issue.Hint)
			}
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(f.Writer, "\nRecommendations\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(f.Writer, "  • %s\n", rec)
		}
	}

	fmt.Fprintf(f.Writer, "\n%d steps: %d passed, %d failed, %d warnings, %d skipped (%s)\n",
		r.Summary.TotalSteps, r.Summary.PassedSteps, r.Summary.FailedSteps,
		r.Summary.WarningSteps, r.Summary.SkippedSteps,
		time.Duration(r.DurationMs)*time.Millisecond)
}
