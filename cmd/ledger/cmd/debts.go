package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/report"
)

var debtsCmd = &cobra.Command{
	Use:   "debts",
	Short: "Print what the company owes each payer",
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		groups, err := a.engine.Debts(cmd.Context())
		if err != nil {
			return err
		}
		return report.Debts(cmd.OutOrStdout(), groups)
	}),
}

var settleCmd = &cobra.Command{
	Use:   "settle <payer>",
	Short: "Settle a payer's out-of-pocket expenses",
	Long: `Mark every unsettled out-of-pocket expense of the payer as settled and
record the company's payout as a cash expense.

If the payout cannot be recorded after the expenses were marked, the
command reports a partial failure and leaves a pending marker; see
"ledger pending".`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runSettle),
}

func runSettle(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	snap, err := a.engine.Snapshot(ctx)
	if err != nil {
		return err
	}
	group := snap.DebtFor(args[0])
	if len(group.MemberIDs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing owed to %s.\n", args[0])
		return nil
	}

	payout, err := a.settlement.SettleGroup(ctx, group)
	var partial *core.SettlementPartialFailure
	if errors.As(err, &partial) {
		fmt.Fprintf(cmd.OutOrStdout(), "Expenses marked settled but payout not recorded (pending #%d).\n", partial.PendingID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Settled %d expenses for %s: payout #%d of %s.\n",
		len(group.MemberIDs), group.Payer, payout.ID, payout.Amount.StringFixed(2))
	return nil
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List writes left unfinished by partial failures",
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		pending, err := a.engine.Pending(cmd.Context())
		if err != nil {
			return err
		}
		return report.Pending(cmd.OutOrStdout(), pending)
	}),
}
