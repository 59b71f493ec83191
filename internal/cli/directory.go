package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/store"
)

// DirectoryListResult is the JSON payload of directory list.
type DirectoryListResult struct {
	Merchants []store.Merchant `json:"merchants"`
	Total     int              `json:"total"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
}

// NewDirectoryCommand creates the directory command group for the local
// merchant registry.
func NewDirectoryCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Manage the local merchant directory",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the directory database (default from config)")

	cmd.AddCommand(newDirectoryAddCommand(rootOpts, &dbPath))
	cmd.AddCommand(newDirectoryListCommand(rootOpts, &dbPath))
	cmd.AddCommand(newDirectoryShowCommand(rootOpts, &dbPath))

	return cmd
}

func openDirectory(rootOpts *RootOptions, dbPath string) (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = rootOpts.Config.DBPath
	}
	if path == "" {
		return nil, errors.New("no database configured: pass --db or set db in the config file")
	}
	return store.Open(path)
}

func newDirectoryAddCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:           "add <domain>",
		Short:         "Register a merchant domain in the directory",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			domain, err := fetch.NormalizeDomain(args[0])
			if err != nil {
				_ = formatter.Error(ErrCodeInvalidDomain, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			st, err := openDirectory(rootOpts, *dbPath)
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "opening directory", err)
			}
			defer st.Close()

			m, err := st.UpsertMerchant(cmd.Context(), domain, name)
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "adding merchant", err)
			}

			if formatter.Format == "json" {
				return formatter.SuccessJSON(m)
			}
			fmt.Fprintf(formatter.Writer, "✓ %s registered (id %s)\n", m.Domain, m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name for the merchant")
	return cmd
}

func newDirectoryListCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	var (
		query  string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List registered merchants",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			st, err := openDirectory(rootOpts, *dbPath)
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "opening directory", err)
			}
			defer st.Close()

			merchants, err := st.ListMerchants(cmd.Context(), query, limit, offset)
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "listing merchants", err)
			}
			total, err := st.CountMerchants(cmd.Context(), query)
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "counting merchants", err)
			}

			if formatter.Format == "json" {
				return formatter.SuccessJSON(DirectoryListResult{
					Merchants: merchants,
					Total:     total,
					Limit:     limit,
					Offset:    offset,
				})
			}

			if len(merchants) == 0 {
				fmt.Fprintln(formatter.Writer, "No merchants registered")
				return nil
			}
			for _, m := range merchants {
				if m.Name != "" {
					fmt.Fprintf(formatter.Writer, "%s\t%s\n", m.Domain, m.Name)
				} else {
					fmt.Fprintln(formatter.Writer, m.Domain)
				}
			}
			fmt.Fprintf(formatter.Writer, "%d of %d merchant(s)\n", len(merchants), total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by domain substring")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func newDirectoryShowCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <domain>",
		Short:         "Show the latest saved report for a merchant",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			domain, err := fetch.NormalizeDomain(args[0])
			if err != nil {
				_ = formatter.Error(ErrCodeInvalidDomain, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			st, err := openDirectory(rootOpts, *dbPath)
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "opening directory", err)
			}
			defer st.Close()

			rep, err := st.LatestReport(cmd.Context(), domain)
			if errors.Is(err, store.ErrNotFound) {
				_ = formatter.Error(ErrCodeStore, fmt.Sprintf("no report for %s", domain), nil)
				return NewExitError(ExitFailure, "report not found")
			}
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "reading report", err)
			}

			if formatter.Format == "json" {
				return formatter.SuccessJSON(rep)
			}
			fmt.Fprintf(formatter.Writer, "%s: score %d (grade %s), simulated %s\n",
				domain, rep.Score, rep.Grade, rep.SimulatedAt.Format("2006-01-02 15:04:05 MST"))
			var pretty json.RawMessage = rep.Result
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err == nil {
				fmt.Fprintf(formatter.Writer, "%s\n", out)
			}
			return nil
		},
	}
	return cmd
}

func newFormatter(rootOpts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}
}
