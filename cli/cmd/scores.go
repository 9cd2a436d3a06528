package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lendline/lendline-stack/cli/internal/client"
	"github.com/lendline/lendline-stack/cli/pkg/output"
	"github.com/lendline/lendline-stack/common/models"
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Query computed loan scores",
	Long:  "List and inspect the scores computed by the scoring service",
}

var scoresListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List loan scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		f := client.ScoreFilter{}
		f.BorrowerID, _ = flags.GetInt64("borrower")
		f.Grade, _ = flags.GetString("grade")
		f.Risk, _ = flags.GetString("risk")
		f.Page, _ = flags.GetInt("page")
		f.Limit, _ = flags.GetInt("limit")
		if flags.Changed("min-score") {
			v, _ := flags.GetInt("min-score")
			f.MinScore = &v
		}
		if flags.Changed("max-score") {
			v, _ := flags.GetInt("max-score")
			f.MaxScore = &v
		}

		scores, p, err := client.NewScoringClient(endpoints(cmd).ScoringURL).ListScores(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("failed to list scores: %w", err)
		}

		return output.Render(outputFormat(cmd), scores, func() {
			if len(scores) == 0 {
				output.Info("No scores found")
				return
			}
			renderScores(scores)
			output.Info("Page %d of %d (%d scores)", p.Page, p.TotalPages, p.Total)
		})
	},
}

var scoresGetCmd = &cobra.Command{
	Use:   "get <application-id>",
	Short: "Show the score of one application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		score, err := client.NewScoringClient(endpoints(cmd).ScoringURL).GetScore(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get score: %w", err)
		}
		return output.Render(outputFormat(cmd), score, func() {
			renderScores([]*models.LoanScore{score})
			output.Info("Rationale: %s", score.Rationale)
		})
	},
}

func renderScores(scores []*models.LoanScore) {
	table := output.NewTable([]string{"Application", "Borrower", "Score", "Grade", "Risk", "DTI", "Calculated"})
	for _, s := range scores {
		table.AddRow([]string{
			strconv.FormatInt(s.ApplicationID, 10),
			strconv.FormatInt(s.BorrowerID, 10),
			strconv.Itoa(s.TotalScore),
			output.Colorize(string(s.Grade)),
			output.Colorize(string(s.Risk)),
			strconv.FormatFloat(s.DebtToIncomeRatio, 'f', 4, 64),
			s.CalculatedAt.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(scoresCmd)
	scoresCmd.AddCommand(scoresListCmd, scoresGetCmd)

	scoresListCmd.Flags().Int64("borrower", 0, "only scores of this borrower")
	scoresListCmd.Flags().String("grade", "", "filter by grade (EXCELLENT, GOOD, FAIR, POOR)")
	scoresListCmd.Flags().String("risk", "", "filter by risk (LOW, MEDIUM, HIGH)")
	scoresListCmd.Flags().Int("min-score", 0, "minimum total score")
	scoresListCmd.Flags().Int("max-score", 0, "maximum total score")
	scoresListCmd.Flags().Int("page", 1, "page number")
	scoresListCmd.Flags().Int("limit", 20, "results per page")
}
