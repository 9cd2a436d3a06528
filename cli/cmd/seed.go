package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lendline/lendline-stack/cli/internal/client"
	"github.com/lendline/lendline-stack/cli/internal/seeder"
	"github.com/lendline/lendline-stack/cli/pkg/output"
)

var seedCfgFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed origination with generated borrowers and loans",
	Long: `Generate realistic borrowers, loan applications and documents and submit
them through the origination API, so scoring and review receive the events.

Configuration cascade (priority order):
  1. Command-line flags
  2. ./seeder.yaml (project directory)
  3. ~/.lendctl/seeder.yaml (user directory)
  4. Built-in defaults

Examples:
  lendctl seed --borrowers 100
  lendctl seed --seed 42 --applications-max 5`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedCfgFile, "config", "", "seeder config file")
	seedCmd.Flags().Int("borrowers", 0, "number of borrowers")
	seedCmd.Flags().Int("applications-min", 0, "minimum applications per borrower")
	seedCmd.Flags().Int("applications-max", 0, "maximum applications per borrower")
	seedCmd.Flags().Int("documents", 0, "documents per application")
	seedCmd.Flags().Int64("seed", 0, "random seed for reproducible data")
	seedCmd.Flags().Duration("interval", 0, "pause between borrowers")
	seedCmd.Flags().Bool("verbose", false, "print progress for every borrower")
}

func runSeed(cmd *cobra.Command, args []string) error {
	config, err := seeder.LoadConfig(seedCfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("borrowers") {
		config.Borrowers, _ = flags.GetInt("borrowers")
	}
	if flags.Changed("applications-min") {
		config.ApplicationsMin, _ = flags.GetInt("applications-min")
	}
	if flags.Changed("applications-max") {
		config.ApplicationsMax, _ = flags.GetInt("applications-max")
	}
	if flags.Changed("documents") {
		config.DocumentsPer, _ = flags.GetInt("documents")
	}
	if flags.Changed("seed") {
		config.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("interval") {
		config.Interval, _ = flags.GetDuration("interval")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	url := endpoints(cmd).OriginationURL
	output.Info("Seeding %s with %d borrowers", url, config.Borrowers)

	runner := seeder.NewRunner(config, client.NewOriginationClient(url))
	if verbose, _ := flags.GetBool("verbose"); verbose {
		runner.Progress = output.Info
	}

	res, err := runner.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("seeding interrupted after %s: %w", res, err)
	}
	if res.Failed > 0 {
		output.Warn("Seeded %s", res)
		return nil
	}
	output.Success("Seeded %s", res)
	return nil
}
