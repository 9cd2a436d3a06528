package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lendline/lendline-stack/cli/pkg/output"
	"github.com/lendline/lendline-stack/common/models"
	"github.com/lendline/lendline-stack/origination/pkg/payment"
	"github.com/lendline/lendline-stack/scoring/pkg/engine"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a loan offline",
	Long: `Run the scoring engine locally against the given borrower and loan terms.

The monthly payment is derived from amount, rate and term the same way
origination computes it. Use --weights to audit a weights file before
rolling it out to the scoring service.

Examples:
  lendctl score --income 50000 --employment employed --years 5 \
      --amount 10000 --term 36 --rate 5.5

  lendctl score --income 0 --employment unemployed --amount 2000 --term 12 --rate 9 -o json`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Float64("income", 0, "annual income")
	scoreCmd.Flags().String("employment", "employed", "employment status")
	scoreCmd.Flags().Int("years", -1, "years in employment (omit for none)")
	scoreCmd.Flags().Float64("amount", 0, "loan amount")
	scoreCmd.Flags().Int("term", 0, "term in months")
	scoreCmd.Flags().Float64("rate", 0, "annual interest rate in percent")
	scoreCmd.Flags().String("weights", "", "weights file (default: profile weights_file or built-in weights)")
	_ = scoreCmd.MarkFlagRequired("amount")
	_ = scoreCmd.MarkFlagRequired("term")
}

func runScore(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	income, _ := flags.GetFloat64("income")
	employment, _ := flags.GetString("employment")
	years, _ := flags.GetInt("years")
	amount, _ := flags.GetFloat64("amount")
	term, _ := flags.GetInt("term")
	rate, _ := flags.GetFloat64("rate")
	weightsFile, _ := flags.GetString("weights")
	if weightsFile == "" {
		weightsFile = endpoints(cmd).WeightsFile
	}

	if amount <= 0 || term <= 0 {
		return fmt.Errorf("--amount and --term must be positive")
	}

	weights := engine.DefaultWeights()
	if weightsFile != "" {
		w, err := engine.LoadWeights(weightsFile)
		if err != nil {
			return err
		}
		weights = w
	}
	eng, err := engine.New(weights)
	if err != nil {
		return err
	}

	borrower := &models.Borrower{ID: 1, AnnualIncome: income, EmploymentStatus: employment}
	if years >= 0 {
		borrower.EmploymentYears = &years
	}
	schedule := payment.Amortized(amount, rate, term)
	app := &models.LoanApplication{
		ID:             1,
		BorrowerID:     1,
		LoanAmount:     amount,
		TermMonths:     term,
		InterestRate:   rate,
		MonthlyPayment: schedule.Monthly,
		TotalPayment:   schedule.Total,
	}

	score, err := eng.Score(borrower, app)
	if err != nil {
		return err
	}

	return output.Render(outputFormat(cmd), score, func() {
		table := output.NewTable([]string{"Factor", "Points"})
		table.AddRow([]string{"employment", strconv.Itoa(score.EmploymentScore)})
		table.AddRow([]string{"income", strconv.Itoa(score.IncomeScore)})
		table.AddRow([]string{"loan ratio", strconv.Itoa(score.LoanRatioScore)})
		table.AddRow([]string{"interest rate", strconv.Itoa(score.InterestRateScore)})
		table.AddRow([]string{"employment years", strconv.Itoa(score.EmploymentYearsScore)})
		table.AddRow([]string{"loan term", strconv.Itoa(score.LoanTermScore)})
		table.Render()

		fmt.Fprintln(output.Stdout)
		output.Info("Monthly payment: %.2f (total %.2f)", schedule.Monthly, schedule.Total)
		output.Info("Total score: %d  Grade: %s  Risk: %s  DTI: %.4f",
			score.TotalScore, output.Colorize(string(score.Grade)), output.Colorize(string(score.Risk)), score.DebtToIncomeRatio)
		output.Info("Rationale: %s", score.Rationale)
	})
}
