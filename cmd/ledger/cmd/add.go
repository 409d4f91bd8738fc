package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

var addFlags struct {
	date        string
	kind        string
	category    string
	amount      string
	description string
	payer       string
	method      string
	project     int64
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a transaction",
	Long: `Record one income or expense row.

A wire transfer expense also gets its bank commission recorded as a second
expense. If that second write fails the transaction itself stays saved and
a warning is printed.

Example:
  ledger add --kind expense --category software --amount 1000 \
    --method wire_transfer --description "annual licence"`,
	RunE: withApp(runAdd),
}

func init() {
	f := addCmd.Flags()
	f.StringVar(&addFlags.date, "date", "", "transaction date, YYYY-MM-DD (default today)")
	f.StringVar(&addFlags.kind, "kind", "", "income or expense")
	f.StringVar(&addFlags.category, "category", "", "category")
	f.StringVar(&addFlags.amount, "amount", "", "amount, e.g. 1234.50")
	f.StringVar(&addFlags.description, "description", "", "description")
	f.StringVar(&addFlags.payer, "payer", core.DefaultPayer, "who paid")
	f.StringVar(&addFlags.method, "method", string(core.MethodCash), "cash, card, wire_transfer or out_of_pocket")
	f.Int64Var(&addFlags.project, "project", 0, "linked project id")
	_ = addCmd.MarkFlagRequired("kind")
	_ = addCmd.MarkFlagRequired("amount")
}

func draftFromFlags() (core.DraftRow, error) {
	date := core.DateOf(time.Now())
	if addFlags.date != "" {
		d, err := core.ParseDate(addFlags.date)
		if err != nil {
			return core.DraftRow{}, err
		}
		date = d
	}
	amount, err := core.ParseAmount(addFlags.amount)
	if err != nil {
		return core.DraftRow{}, fmt.Errorf("--amount %q: %w", addFlags.amount, err)
	}
	tx := core.Transaction{
		Date:        date,
		Kind:        core.ParseKind(addFlags.kind),
		Category:    addFlags.category,
		Amount:      amount,
		Description: addFlags.description,
		Payer:       addFlags.payer,
		Method:      core.ParseMethod(addFlags.method),
	}
	if addFlags.project != 0 {
		id := addFlags.project
		tx.ProjectID = &id
	}
	return core.NewDraft(tx), nil
}

func runAdd(cmd *cobra.Command, _ []string, a *app) error {
	draft, err := draftFromFlags()
	if err != nil {
		return err
	}
	res, err := a.ledger.Save(cmd.Context(), draft)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tx := res.Row.Tx
	fmt.Fprintf(out, "Recorded #%d: %s %s on %s.\n", tx.ID, tx.Kind, tx.Amount.StringFixed(2), tx.Date)
	if res.Commission != nil {
		fmt.Fprintf(out, "Commission #%d: %s.\n", res.Commission.ID, res.Commission.Amount.StringFixed(2))
	}
	if res.Warning != nil {
		fmt.Fprintf(out, "Warning: %v\n", res.Warning)
	}
	return nil
}

var collectFlags struct {
	date        string
	method      string
	description string
}

var collectCmd = &cobra.Command{
	Use:   "collect <client-id> <amount>",
	Short: "Record a payment received from a client",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		clientID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("client id %q: %w", args[0], err)
		}
		amount, err := core.ParseAmount(args[1])
		if err != nil {
			return fmt.Errorf("amount %q: %w", args[1], err)
		}
		var date core.Date
		if collectFlags.date != "" {
			if date, err = core.ParseDate(collectFlags.date); err != nil {
				return err
			}
		}
		tx, err := a.collections.Collect(cmd.Context(), clientID, amount, date,
			core.ParseMethod(collectFlags.method), collectFlags.description)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded collection #%d from %s: %s.\n", tx.ID, tx.Payer, tx.Amount.StringFixed(2))
		return nil
	}),
}

func init() {
	f := collectCmd.Flags()
	f.StringVar(&collectFlags.date, "date", "", "payment date, YYYY-MM-DD (default today)")
	f.StringVar(&collectFlags.method, "method", string(core.MethodWireTransfer), "payment method")
	f.StringVar(&collectFlags.description, "description", "", "description")
}
