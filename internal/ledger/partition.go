// Package ledger turns a flat transaction set into month-bounded ledger
// periods with carried-forward balances.
//
// Every function here is a pure projection: it recomputes from the rows it
// is given and keeps no state between calls.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

// Partition computes the ledger period for month m.
//
// Only persisted rows are summed. Drafts dated inside m are returned in
// Drafts. Rows with an unparseable date or amount, or an unknown kind, are
// excluded from the opening, in-period and closing sums and listed in
// Issues instead.
func Partition(rows []core.Row, m core.Month) core.LedgerPeriod {
	period := core.LedgerPeriod{
		Month:          m,
		OpeningBalance: decimal.Zero,
		IncomeTotal:    decimal.Zero,
		ExpenseTotal:   decimal.Zero,
	}
	start := m.Start()

	for _, row := range rows {
		switch r := row.(type) {
		case core.DraftRow:
			if m.Contains(r.Tx.Date) {
				period.Drafts = append(period.Drafts, r)
			}
		case core.PersistedRow:
			tx := r.Tx
			if issue := tx.Defect(); issue != nil {
				period.Issues = append(period.Issues, *issue)
				continue
			}
			switch {
			case tx.Date.Before(start):
				period.OpeningBalance = period.OpeningBalance.Add(signed(tx))
			case m.Contains(tx.Date):
				if tx.Kind == core.KindIncome {
					period.IncomeRows = append(period.IncomeRows, tx)
					period.IncomeTotal = period.IncomeTotal.Add(tx.Amount)
				} else {
					period.ExpenseRows = append(period.ExpenseRows, tx)
					period.ExpenseTotal = period.ExpenseTotal.Add(tx.Amount)
				}
			}
		}
	}

	sortRows(period.IncomeRows)
	sortRows(period.ExpenseRows)
	period.ClosingBalance = period.OpeningBalance.Add(period.IncomeTotal).Sub(period.ExpenseTotal)
	return period
}

// PartitionTransactions is Partition for rows that all come from the store.
func PartitionTransactions(txs []core.Transaction, m core.Month) core.LedgerPeriod {
	return Partition(core.PersistedRows(txs), m)
}

// Range returns consecutive periods from..to inclusive. It returns nil when
// to is before from.
func Range(rows []core.Row, from, to core.Month) []core.LedgerPeriod {
	if from.After(to) {
		return nil
	}
	var periods []core.LedgerPeriod
	for m := from; !m.After(to); m = m.Next() {
		periods = append(periods, Partition(rows, m))
	}
	return periods
}

func signed(tx core.Transaction) decimal.Decimal {
	if tx.Kind == core.KindExpense {
		return tx.Amount.Neg()
	}
	return tx.Amount
}

func sortRows(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}
