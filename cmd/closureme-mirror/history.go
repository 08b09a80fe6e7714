package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/closureme/closureme"
)

var (
	historyJob    string
	historyStatus string
	historyPrefix string
	historyLimit  int
	historyCursor string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded transfers, newest first",
	Long: `List transfers recorded in the ledger. Requires ledger.enabled.

Use --cursor with the value printed after a page to continue listing.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyJob, "job", "", "filter by job name")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "filter by status: done, skipped, failed")
	historyCmd.Flags().StringVar(&historyPrefix, "prefix", "", "filter by object key prefix")
	historyCmd.Flags().IntVar(&historyLimit, "limit", closureme.DefaultListLimit, "maximum number of entries")
	historyCmd.Flags().StringVar(&historyCursor, "cursor", "", "continue after a previous page")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	q := closureme.TransferQuery{
		Job:       historyJob,
		Status:    closureme.TransferStatus(historyStatus),
		KeyPrefix: historyPrefix,
		Limit:     historyLimit,
		Cursor:    historyCursor,
	}
	if q.Status != "" && !q.Status.IsValid() {
		return fmt.Errorf("%w: status %q (valid: done, skipped, failed)", closureme.ErrInvalidInput, historyStatus)
	}

	m, closeFn, err := newMirror(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	page, err := m.History(ctx, q)
	if err != nil {
		return err
	}
	return printHistory(os.Stdout, page)
}
