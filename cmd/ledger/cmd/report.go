package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/report"
)

var (
	reportMonth string
	reportUntil string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the ledger for a month",
	Long: `Print income and expense rows for a month together with the
opening balance carried from earlier months and the closing balance.

Rows whose date, amount or kind cannot be read are listed separately and
left out of every total.

Example:
  ledger report --month 2025-02
  ledger report --month 2025-01 --until 2025-03`,
	RunE: withApp(runReport),
}

func init() {
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "month to report, YYYY-MM (default current month)")
	reportCmd.Flags().StringVar(&reportUntil, "until", "", "last month of a range, YYYY-MM")
}

func parseMonthFlag(s string, fallback core.Month) (core.Month, error) {
	if s == "" {
		return fallback, nil
	}
	return core.ParseMonth(s)
}

func runReport(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	from, err := parseMonthFlag(reportMonth, core.MonthOf(core.DateOf(time.Now())))
	if err != nil {
		return err
	}
	to, err := parseMonthFlag(reportUntil, from)
	if err != nil {
		return err
	}
	if from.After(to) {
		return fmt.Errorf("--until %s is before --month %s", to, from)
	}

	snap, err := a.engine.Snapshot(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, period := range snap.LedgerRange(from, to) {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := report.Ledger(out, period); err != nil {
			return err
		}
	}
	return nil
}
