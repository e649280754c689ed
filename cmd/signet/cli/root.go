// Package cli implements the signet command-line interface using Cobra.
// It provides commands for resolving AWS credentials, looking up the caller
// identity, and signing requests for inspection.
package cli

import (
	"os"

	"github.com/majorcontext/signet/credentials"
	"github.com/majorcontext/signet/internal/config"
	"github.com/majorcontext/signet/internal/log"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	jsonOut bool
	profile string
	region  string
)

// globalCfg is loaded once in PersistentPreRunE and read by the commands.
var globalCfg *config.GlobalConfig

var rootCmd = &cobra.Command{
	Use:   "signet",
	Short: "Signet - AWS credential resolution and request signing",
	Long: `Signet resolves AWS credentials from the environment, the shared
credentials file, or EC2 instance metadata, and signs API requests with
Signature Version 4 (or Version 2 for the legacy services that still
require it).

Secrets are printed only where the command's purpose is to print them;
diagnostic output always redacts them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		globalCfg, err = config.LoadGlobal()
		if err != nil {
			return err
		}

		// Resolve profile: --profile flag > config file default
		if profile == "" {
			profile = globalCfg.Profile
		}
		if profile != "" {
			os.Setenv(credentials.EnvProfile, profile)
		}
		if region == "" {
			region = globalCfg.Region
		}

		return log.Init(log.Options{
			Verbose:    verbose,
			JSONFormat: jsonOut,
		})
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "credentials file profile to use (env: AWS_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region for signing (env: SIGNET_REGION)")
}
