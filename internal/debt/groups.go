// Package debt groups unsettled out-of-pocket expenses by the staff
// member who paid them.
package debt

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

// Groups partitions unsettled pocket expenses by payer. Groups are ordered
// by payer; member ids are ascending. Rows with data quality defects are
// skipped.
func Groups(txs []core.Transaction) []core.DebtGroup {
	byPayer := map[string]*core.DebtGroup{}
	for _, tx := range txs {
		if !tx.IsPocketDebt() || tx.Defect() != nil {
			continue
		}
		payer := strings.TrimSpace(tx.Payer)
		g, ok := byPayer[payer]
		if !ok {
			g = &core.DebtGroup{Payer: payer, OwedTotal: decimal.Zero}
			byPayer[payer] = g
		}
		g.OwedTotal = g.OwedTotal.Add(tx.Amount)
		g.MemberIDs = append(g.MemberIDs, tx.ID)
	}

	groups := make([]core.DebtGroup, 0, len(byPayer))
	for _, g := range byPayer {
		sort.Slice(g.MemberIDs, func(i, j int) bool { return g.MemberIDs[i] < g.MemberIDs[j] })
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Payer < groups[j].Payer })
	return groups
}

// GroupFor returns the group of one payer. A payer with nothing owed gets
// an empty group with a zero total.
func GroupFor(txs []core.Transaction, payer string) core.DebtGroup {
	payer = strings.TrimSpace(payer)
	for _, g := range Groups(txs) {
		if g.Payer == payer {
			return g
		}
	}
	return core.DebtGroup{Payer: payer, OwedTotal: decimal.Zero}
}

// TotalOwed sums every group.
func TotalOwed(groups []core.DebtGroup) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.OwedTotal)
	}
	return total
}
