// Package report renders engine projections as aligned plain text.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/matching"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func projectRef(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

// Ledger writes one month: opening balance, both row lists with totals,
// the closing balance, then drafts and excluded rows.
func Ledger(w io.Writer, p core.LedgerPeriod) error {
	fmt.Fprintf(w, "Ledger %s\n", p.Month)
	fmt.Fprintf(w, "Opening balance: %s\n\n", money(p.OpeningBalance))

	tw := newTable(w)
	section := func(title string, rows []core.Transaction, total decimal.Decimal) {
		fmt.Fprintf(tw, "%s\n", title)
		fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tPAYER\tMETHOD\tPROJECT\tAMOUNT\tDESCRIPTION")
		for _, t := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.Date, t.Category, t.Payer, t.Method, projectRef(t.ProjectID), money(t.Amount), t.Description)
		}
		fmt.Fprintf(tw, "\t\t\t\t\tTotal\t%s\t\n\n", money(total))
	}
	section("Income", p.IncomeRows, p.IncomeTotal)
	section("Expenses", p.ExpenseRows, p.ExpenseTotal)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Closing balance: %s\n", money(p.ClosingBalance))

	if len(p.Drafts) > 0 {
		fmt.Fprintf(w, "\nDrafts (not counted)\n")
		tw = newTable(w)
		for _, d := range p.Drafts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.LocalID, d.Tx.Date, d.Tx.Kind, money(d.Tx.Amount), d.Tx.Description)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return Issues(w, p.Issues)
}

// Issues lists rows kept out of every sum.
func Issues(w io.Writer, issues []core.DataQualityIssue) error {
	if len(issues) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\nExcluded rows\n")
	tw := newTable(w)
	for _, i := range issues {
		fmt.Fprintf(tw, "%d\t%s\t%q\t%s\n", i.TransactionID, i.Field, i.Raw, i.Reason)
	}
	return tw.Flush()
}

// Balances writes agreed/paid/remaining per client followed by the income
// that could not be attributed.
func Balances(w io.Writer, r matching.Report) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "CLIENT\tAGREED\tPAID\tREMAINING\tBY PROJECT\tBY NAME")
	for _, b := range r.Balances {
		byName := len(b.NameMatches())
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			b.ClientName, money(b.AgreedTotal), money(b.PaidTotal), money(b.Remaining),
			len(b.Matches)-byName, byName)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Ambiguous) > 0 {
		fmt.Fprintf(w, "\nAmbiguous payers (link a project to attribute)\n")
		tw = newTable(w)
		for _, a := range r.Ambiguous {
			fmt.Fprintf(tw, "%d\t%s\tclients %s\n", a.TransactionID, a.Payer, joinIDs(a.ClientIDs))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(r.Unmatched) > 0 {
		fmt.Fprintf(w, "\nUnattributed income: %s\n", joinIDs(r.Unmatched))
	}
	if len(r.NearMisses) > 0 {
		fmt.Fprintf(w, "\nPossible matches (not counted)\n")
		tw = newTable(w)
		for _, n := range r.NearMisses {
			fmt.Fprintf(tw, "%d\t%s\t~ %s\tdistance %d\n", n.TransactionID, n.Payer, n.ClientName, n.Distance)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return Issues(w, r.Issues)
}

// Debts writes what is owed to each payer.
func Debts(w io.Writer, groups []core.DebtGroup) error {
	if len(groups) == 0 {
		fmt.Fprintln(w, "Nothing owed.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "PAYER\tOWED\tEXPENSES")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Payer, money(g.OwedTotal), joinIDs(g.MemberIDs))
	}
	return tw.Flush()
}

// Pending writes saga markers that were never resolved.
func Pending(w io.Writer, pending []core.PendingWrite) error {
	if len(pending) == 0 {
		fmt.Fprintln(w, "No pending writes.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSAGA\tORIGIN\tPAYER\tAMOUNT\tMEMBERS\tCREATED")
	for _, p := range pending {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Saga, p.OriginID, p.Payer, money(p.Amount), joinIDs(p.MemberIDs), p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
