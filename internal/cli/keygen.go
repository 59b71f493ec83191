package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ucpkit/ucpcheck/internal/keys"
	"github.com/ucpkit/ucpcheck/internal/profile"
)

// KeygenResult is the JSON payload of the keygen command. The private key is
// only included when no output directory was given, so it is never both
// printed and written to disk.
type KeygenResult struct {
	Public      profile.JWK `json:"public"`
	PrivatePEM  string      `json:"privatePem,omitempty"`
	PrivatePath string      `json:"privatePath,omitempty"`
}

// NewKeygenCommand creates the keygen command: mints a webhook signing key
// pair ready to publish under payment.signing_keys.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		kty    string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a webhook signing key pair",
		Long: `Generate a signing key pair for webhook verification.

The public half is printed as a JWK to paste into the profile's
payment.signing_keys array. The private half is PEM-encoded; with --out it
is written to <dir>/<kid>.pem with mode 0600, otherwise printed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(rootOpts, kty, outDir, cmd)
		},
	}

	cmd.Flags().StringVar(&kty, "type", "EC", "key type (EC|RSA)")
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write the private key PEM into")

	return cmd
}

func runKeygen(rootOpts *RootOptions, kty, outDir string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	key, err := keys.Generate(kty)
	if err != nil {
		_ = formatter.Error(ErrCodeKeygen, err.Error(), nil)
		return WrapExitError(ExitCommandError, "keygen", err)
	}

	result := KeygenResult{Public: key.Public}
	if outDir != "" {
		path := filepath.Join(outDir, key.Public.Kid+".pem")
		if err := os.WriteFile(path, []byte(key.PrivatePEM), 0o600); err != nil {
			_ = formatter.Error(ErrCodeKeygen, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing private key", err)
		}
		result.PrivatePath = path
	} else {
		result.PrivatePEM = key.PrivatePEM
	}

	if formatter.Format == "json" {
		return formatter.SuccessJSON(result)
	}

	pub, err := json.MarshalIndent(key.Public, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "Public JWK (add to payment.signing_keys):\n%s\n", pub)
	if result.PrivatePath != "" {
		fmt.Fprintf(formatter.Writer, "\nPrivate key written to %s\n", result.PrivatePath)
	} else {
		fmt.Fprintf(formatter.Writer, "\nPrivate key (keep secret):\n%s", key.PrivatePEM)
	}
	return nil
}
