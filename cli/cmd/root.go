package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lendline/lendline-stack/common/config"
)

var cfg *config.CLIConfig

var rootCmd = &cobra.Command{
	Use:   "lendctl",
	Short: "Lendline Stack CLI",
	Long: `lendctl is the command-line interface for the Lendline lending stack.

Score applications offline, seed demo data into origination, review loan
applications and inspect the dead-letter queues of every service.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("profile", "", "profile to use (default: current profile)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format: table, json, yaml")
}

func initConfig() {
	var err error
	cfg, err = config.LoadCLI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.DefaultCLI()
	}
}

// endpoints resolves the service URLs of the selected profile.
func endpoints(cmd *cobra.Command) config.CLIProfile {
	if cfg == nil {
		cfg = config.DefaultCLI()
	}
	profile, _ := cmd.Flags().GetString("profile")
	return cfg.Resolve(profile)
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return format
}
