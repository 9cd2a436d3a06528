package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lendline/lendline-stack/cli/pkg/output"
	"github.com/lendline/lendline-stack/common/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage service endpoint profiles",
}

var profileSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a profile and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &config.CLIProfile{}
		if existing, err := cfg.GetProfile(args[0]); err == nil {
			*p = *existing
		}
		flags := cmd.Flags()
		if flags.Changed("origination-url") {
			p.OriginationURL, _ = flags.GetString("origination-url")
		}
		if flags.Changed("scoring-url") {
			p.ScoringURL, _ = flags.GetString("scoring-url")
		}
		if flags.Changed("review-url") {
			p.ReviewURL, _ = flags.GetString("review-url")
		}
		if flags.Changed("weights") {
			p.WeightsFile, _ = flags.GetString("weights")
		}
		if err := cfg.SetProfile(args[0], p); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		output.Success("Profile %s saved and selected", args[0])
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the endpoints lendctl will use",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := endpoints(cmd)
		return output.Render(outputFormat(cmd), e, func() {
			table := output.NewTable([]string{"Setting", "Value"})
			table.AddRow([]string{"profile", cfg.CurrentProfile})
			table.AddRow([]string{"origination_url", e.OriginationURL})
			table.AddRow([]string{"scoring_url", e.ScoringURL})
			table.AddRow([]string{"review_url", e.ReviewURL})
			table.AddRow([]string{"weights_file", e.WeightsFile})
			table.Render()
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd)

	profileSetCmd.Flags().String("origination-url", "", "origination service URL")
	profileSetCmd.Flags().String("scoring-url", "", "scoring service URL")
	profileSetCmd.Flags().String("review-url", "", "review service URL")
	profileSetCmd.Flags().String("weights", "", "default weights file for offline scoring")
}
