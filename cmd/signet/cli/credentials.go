package cli

import (
	"encoding/json"
	"os"

	"github.com/majorcontext/signet/internal/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(credentialsCmd)
}

// credentialProcessOutput is the AWS credential_process format.
// See: https://docs.aws.amazon.com/cli/latest/userguide/cli-configure-sourcing-external.html
type credentialProcessOutput struct {
	Version         int    `json:"Version"`
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken,omitempty"`
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Resolve credentials and print them in credential_process format",
	Long: `Resolve AWS credentials (environment, then credentials file, then
instance metadata) and print them as credential_process JSON on stdout, for
use as an external credential source in AWS CLI/SDK config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if isatty.IsTerminal(os.Stdout.Fd()) {
			log.Warn("printing secret credentials to a terminal; pipe this into tooling instead")
		}

		creds, err := newResolver().Resolve(cmd.Context())
		if err != nil {
			return err
		}

		out := credentialProcessOutput{
			Version:         1,
			AccessKeyID:     creds.AccessKeyID,
			SecretAccessKey: creds.SecretKey,
			SessionToken:    creds.SessionToken,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}
