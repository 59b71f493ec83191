package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/httpapi"
	"github.com/ucpkit/ucpcheck/internal/simulate"
	"github.com/ucpkit/ucpcheck/internal/store"
)

// NewServeCommand creates the serve command: the HTTP API in front of the
// checker and the merchant directory.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		addr   string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checker and directory over HTTP",
		Long: `Start the HTTP API.

Endpoints: GET /healthz, POST /api/check, GET /api/directory,
GET /api/directory/{domain}. Without a database the directory endpoints
respond 404 and check results are not persisted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, addr, dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080 or config listen)")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the directory database (default from config)")

	return cmd
}

func runServe(rootOpts *RootOptions, addr, dbPath string, cmd *cobra.Command) error {
	logger := commandLogger(rootOpts, cmd)

	if addr == "" {
		addr = rootOpts.Config.Listen
	}
	if addr == "" {
		addr = ":8080"
	}
	if dbPath == "" {
		dbPath = rootOpts.Config.DBPath
	}

	var st *store.Store
	if dbPath != "" {
		var err error
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening directory", err)
		}
		defer st.Close()
	}

	runner := simulate.NewRunner(fetch.NewClient(), simulate.WithLogger(logger))
	api := httpapi.New(runner, st, logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "serving", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitCommandError, "shutting down", err)
		}
	}
	return nil
}
