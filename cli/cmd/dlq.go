package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lendline/lendline-stack/cli/internal/client"
	"github.com/lendline/lendline-stack/cli/pkg/output"
)

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect dead-lettered events",
	Long: `Inspect and purge the dead-letter queue of a service.

Every consumer dead-letters events it cannot apply: undecodable payloads,
updates for unknown entities, ownership mismatches and scoring failures.`,
}

var dlqListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List dead-lettered events",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dlqClient(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := c.List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to list dead letters: %w", err)
		}

		return output.Render(outputFormat(cmd), entries, func() {
			if len(entries) == 0 {
				output.Success("No dead-lettered events")
				return
			}
			table := output.NewTable([]string{"Time", "Class", "Channel", "Key", "Offset", "Error"})
			for _, e := range entries {
				table.AddRow([]string{
					e.Timestamp.Format("2006-01-02 15:04:05"),
					e.Class,
					e.Channel,
					e.Key,
					strconv.FormatInt(e.Offset, 10),
					e.Error,
				})
			}
			table.Render()
		})
	},
}

var dlqStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dead-letter backend statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dlqClient(cmd)
		if err != nil {
			return err
		}
		stats, err := c.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get dead-letter stats: %w", err)
		}
		return output.Render(outputFormat(cmd), stats, func() {
			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			table := output.NewTable([]string{"Key", "Value"})
			for _, k := range keys {
				table.AddRow([]string{k, fmt.Sprint(stats[k])})
			}
			table.Render()
		})
	},
}

var dlqPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every dead-lettered event",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to purge without --yes")
		}
		c, err := dlqClient(cmd)
		if err != nil {
			return err
		}
		if err := c.Purge(cmd.Context()); err != nil {
			return fmt.Errorf("failed to purge dead letters: %w", err)
		}
		output.Success("Dead-letter queue purged")
		return nil
	},
}

func dlqClient(cmd *cobra.Command) (*client.DLQClient, error) {
	service, _ := cmd.Flags().GetString("service")
	e := endpoints(cmd)
	switch service {
	case "origination":
		return client.NewDLQClient(e.OriginationURL), nil
	case "scoring":
		return client.NewDLQClient(e.ScoringURL), nil
	case "review":
		return client.NewDLQClient(e.ReviewURL), nil
	}
	return nil, fmt.Errorf("unknown service %q (want origination, scoring or review)", service)
}

func init() {
	rootCmd.AddCommand(dlqCmd)
	dlqCmd.AddCommand(dlqListCmd, dlqStatsCmd, dlqPurgeCmd)

	dlqCmd.PersistentFlags().String("service", "scoring", "service whose queue to inspect: origination, scoring, review")
	dlqListCmd.Flags().Int("limit", 100, "maximum entries to show")
	dlqPurgeCmd.Flags().Bool("yes", false, "confirm the purge")
}
