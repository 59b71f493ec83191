package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/simulate"
	"github.com/ucpkit/ucpcheck/internal/validate"
)

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Domain     string           `json:"domain"`
	ProfileURL string           `json:"profileUrl"`
	Valid      bool             `json:"valid"`
	Score      int              `json:"score"`
	Grade      string           `json:"grade"`
	Issues     []validate.Issue `json:"issues"`
}

// NewValidateCommand creates the validate command: structural validation of
// the profile document without transport probing or simulation.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var timeoutMs int

	cmd := &cobra.Command{
		Use:   "validate <domain>",
		Short: "Validate a merchant's UCP profile structure",
		Long: `Fetch https://<domain>/.well-known/ucp and run structural validation only.

Faster than a full check: no transport probing, no checkout simulation.
Exit code 1 when the profile has error-severity issues.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateProfile(rootOpts, args[0], timeoutMs, cmd)
		},
	}

	cmd.Flags().IntVar(&timeoutMs, "timeout", int(simulate.DefaultTimeout.Milliseconds()), "fetch budget in milliseconds")

	return cmd
}

func runValidateProfile(rootOpts *RootOptions, domain string, timeoutMs int, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	norm, err := fetch.NormalizeDomain(domain)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidDomain, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	ctx, cancel := contextWithBudget(cmd.Context(), timeoutMs)
	defer cancel()

	client := fetch.NewClient(fetch.WithLogger(commandLogger(rootOpts, cmd)))
	fres := client.FetchProfile(ctx, norm)

	report := &validate.Report{}
	switch {
	case fres.OK:
		formatter.VerboseLog("Fetched %s (%d bytes)", fres.URL, len(fres.Raw))
		report = validate.Run(fres.Doc, fres.Raw)
	case fres.ParseFailed:
		report.Issues = append(report.Issues, validate.InvalidJSONIssue(fres.Detail))
	default:
		_ = formatter.Error(ErrCodeFetch, fmt.Sprintf("could not fetch %s: %s", fres.URL, fres.Detail), nil)
		return NewExitError(ExitFailure, "profile not found")
	}

	result := ValidationResult{
		Domain:     norm,
		ProfileURL: fres.URL,
		Valid:      report.ErrorCount() == 0,
		Score:      report.Score(),
		Grade:      report.Grade(),
		Issues:     report.Issues,
	}

	if formatter.Format == "json" {
		if err := formatter.SuccessJSON(result); err != nil {
			return err
		}
	} else {
		renderValidation(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", report.ErrorCount()))
	}
	return nil
}

func contextWithBudget(ctx context.Context, timeoutMs int) (context.Context, context.CancelFunc) {
	if timeoutMs <= 0 {
		return context.WithTimeout(ctx, simulate.DefaultTimeout)
	}
	return context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
}

func renderValidation(f *OutputFormatter, res ValidationResult) {
	if res.Valid {
		fmt.Fprintf(f.Writer, "✓ %s: profile valid, score %d (grade %s)\n", res.Domain, res.Score, res.Grade)
	} else {
		fmt.Fprintf(f.Writer, "✗ %s: profile invalid, score %d (grade %s)\n", res.Domain, res.Score, res.Grade)
	}
	for _, issue := range res.Issues {
		fmt.Fprintf(f.Writer, "  %s %s: %s\n", issue.Severity, issue.Code, issue.Message)
		if issue.Hint != "" {
			fmt.Fprintf(f.Writer, "      hint: %s\n", issue.Hint)
		}
	}
}
