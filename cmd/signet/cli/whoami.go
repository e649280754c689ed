package cli

import (
	"encoding/json"
	"fmt"

	"github.com/majorcontext/signet/internal/log"
	"github.com/majorcontext/signet/sts"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the caller identity for the resolved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := newResolver().Resolve(cmd.Context())
		if err != nil {
			return err
		}

		client := sts.New(creds,
			sts.WithRegion(region),
			sts.WithLogger(log.Logger()),
		)

		arn, err := creds.UserARN(cmd.Context(), client)
		if err != nil {
			return err
		}
		account, err := creds.AccountNumber(cmd.Context(), client)
		if err != nil {
			return err
		}

		if jsonOut {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"Arn":     arn,
				"Account": account,
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ARN:     %s\nAccount: %s\n", arn, account)
		return nil
	},
}
