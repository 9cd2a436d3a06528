package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lendline/lendline-stack/cli/internal/client"
	"github.com/lendline/lendline-stack/cli/pkg/output"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Officer review of loan applications and documents",
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <application-id>",
	Short: "Show an application with its documents and decision history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		d, err := reviewClient(cmd).GetApplication(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get application: %w", err)
		}

		return output.Render(outputFormat(cmd), d, func() {
			a := d.Application
			output.Info("Application %d (borrower %d): %s", a.ID, a.BorrowerID, output.Colorize(string(a.Status)))
			output.Info("  %.2f over %d months at %.2f%%, %.2f per month", a.LoanAmount, a.TermMonths, a.InterestRate, a.MonthlyPayment)
			if a.RejectionReason != nil {
				output.Info("  Rejected: %s", *a.RejectionReason)
			}

			if len(d.Documents) > 0 {
				fmt.Fprintln(output.Stdout)
				table := output.NewTable([]string{"Document", "Type", "File", "Status"})
				for _, doc := range d.Documents {
					table.AddRow([]string{strconv.FormatInt(doc.ID, 10), doc.DocumentType, doc.FileName, output.Colorize(string(doc.Status))})
				}
				table.Render()
			}

			if len(d.History) > 0 {
				fmt.Fprintln(output.Stdout)
				table := output.NewTable([]string{"When", "From", "To", "By", "Reason"})
				for _, h := range d.History {
					reason := ""
					if h.RejectionReason != nil {
						reason = *h.RejectionReason
					}
					table.AddRow([]string{h.ChangedAt.Format("2006-01-02 15:04"), h.OldStatus, output.Colorize(h.NewStatus), h.UpdatedBy, reason})
				}
				table.Render()
			}
		})
	},
}

var reviewDecideCmd = &cobra.Command{
	Use:   "decide <application-id> <status>",
	Short: "Move an application to a new status",
	Long: `Record an officer decision on a loan application.

Examples:
  lendctl review decide 1042 UNDER_REVIEW
  lendctl review decide 1042 REJECTED --reason "income could not be verified"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		a, err := reviewClient(cmd).SetApplicationStatus(cmd.Context(), id, args[1], reason)
		if err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		return output.Render(outputFormat(cmd), a, func() {
			output.Success("Application %d is now %s", a.ID, output.Colorize(string(a.Status)))
		})
	},
}

var reviewDocumentCmd = &cobra.Command{
	Use:   "document <document-id> <status>",
	Short: "Move a document to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		d, err := reviewClient(cmd).SetDocumentStatus(cmd.Context(), id, args[1], reason)
		if err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return output.Render(outputFormat(cmd), d, func() {
			output.Success("Document %d is now %s", d.ID, output.Colorize(string(d.Status)))
		})
	},
}

func reviewClient(cmd *cobra.Command) *client.ReviewClient {
	actor, _ := cmd.Flags().GetString("actor")
	return client.NewReviewClient(endpoints(cmd).ReviewURL, actor)
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewShowCmd, reviewDecideCmd, reviewDocumentCmd)

	reviewCmd.PersistentFlags().String("actor", "", "officer name recorded with the decision")
	for _, c := range []*cobra.Command{reviewDecideCmd, reviewDocumentCmd} {
		c.Flags().String("reason", "", "rejection reason (required for REJECTED)")
	}
}
