package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

func tx(id int64, date core.Date, kind core.Kind, amount string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Date:     date,
		Kind:     kind,
		Amount:   core.MustAmount(amount),
		Category: "general",
		Method:   core.MethodCash,
	}
}

func month(y int, m time.Month) core.Month { return core.Month{Year: y, Month: m} }

func TestPartitionCarriesOpeningBalance(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.NewDate(2025, time.January, 5), core.KindIncome, "1000"),
		tx(2, core.NewDate(2025, time.February, 10), core.KindExpense, "300"),
	}

	p := PartitionTransactions(txs, month(2025, time.February))

	if !p.OpeningBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("opening = %s, want 1000", p.OpeningBalance)
	}
	if len(p.IncomeRows) != 0 {
		t.Errorf("income rows = %v, want none", p.IncomeRows)
	}
	if len(p.ExpenseRows) != 1 || !p.ExpenseRows[0].Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expense rows = %v, want [300]", p.ExpenseRows)
	}
	if !p.ClosingBalance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("closing = %s, want 700", p.ClosingBalance)
	}
}

func TestPartitionMonthBoundaries(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.NewDate(2025, time.January, 31), core.KindIncome, "10"),
		tx(2, core.NewDate(2025, time.February, 1), core.KindIncome, "20"),
		tx(3, core.NewDate(2025, time.February, 28), core.KindExpense, "5"),
		tx(4, core.NewDate(2025, time.March, 1), core.KindIncome, "1000"),
	}
	p := PartitionTransactions(txs, month(2025, time.February))

	if !p.OpeningBalance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("opening = %s, want 10", p.OpeningBalance)
	}
	if len(p.IncomeRows) != 1 || p.IncomeRows[0].ID != 2 {
		t.Errorf("income rows = %v, want [2]", p.IncomeRows)
	}
	if len(p.ExpenseRows) != 1 || p.ExpenseRows[0].ID != 3 {
		t.Errorf("expense rows = %v, want [3]", p.ExpenseRows)
	}
	if !p.ClosingBalance.Equal(decimal.NewFromInt(25)) {
		t.Errorf("closing = %s, want 25", p.ClosingBalance)
	}
}

func TestPartitionReportsBadRows(t *testing.T) {
	good := tx(1, core.NewDate(2025, time.February, 3), core.KindIncome, "100")
	badDate := core.Transaction{ID: 2, Kind: core.KindIncome, Amount: core.MustAmount("999"), Raw: core.RawFields{Date: "31/02/2025"}}
	badAmount := tx(3, core.NewDate(2025, time.January, 3), core.KindExpense, "0")
	badAmount.Raw.Amount = "12,3,4"
	badKind := tx(4, core.NewDate(2025, time.February, 4), core.KindUnknown, "50")

	p := PartitionTransactions([]core.Transaction{good, badDate, badAmount, badKind}, month(2025, time.February))

	if len(p.Issues) != 3 {
		t.Fatalf("issues = %v, want 3", p.Issues)
	}
	fields := map[string]int64{}
	for _, is := range p.Issues {
		fields[is.Field] = is.TransactionID
	}
	if fields["date"] != 2 || fields["amount"] != 3 || fields["kind"] != 4 {
		t.Errorf("unexpected issues: %+v", p.Issues)
	}
	if !p.OpeningBalance.IsZero() || !p.ClosingBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("bad rows leaked into sums: opening=%s closing=%s", p.OpeningBalance, p.ClosingBalance)
	}
}

func TestPartitionKeepsDraftsOutOfSums(t *testing.T) {
	persisted := tx(1, core.NewDate(2025, time.February, 3), core.KindIncome, "100")
	inMonth := core.NewDraft(tx(0, core.NewDate(2025, time.February, 9), core.KindExpense, "40"))
	otherMonth := core.NewDraft(tx(0, core.NewDate(2025, time.March, 9), core.KindExpense, "40"))

	rows := []core.Row{core.PersistedRow{Tx: persisted}, inMonth, otherMonth}
	p := Partition(rows, month(2025, time.February))

	if len(p.Drafts) != 1 || p.Drafts[0].LocalID != inMonth.LocalID {
		t.Fatalf("drafts = %v, want only the February draft", p.Drafts)
	}
	if len(p.ExpenseRows) != 0 || !p.ClosingBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("draft was summed: expenses=%v closing=%s", p.ExpenseRows, p.ClosingBalance)
	}
}

func TestPartitionSortsRowsByDateThenID(t *testing.T) {
	d1 := core.NewDate(2025, time.May, 1)
	d2 := core.NewDate(2025, time.May, 2)
	txs := []core.Transaction{
		tx(9, d2, core.KindIncome, "1"),
		tx(7, d1, core.KindIncome, "1"),
		tx(3, d2, core.KindIncome, "1"),
	}
	p := PartitionTransactions(txs, month(2025, time.May))
	got := []int64{p.IncomeRows[0].ID, p.IncomeRows[1].ID, p.IncomeRows[2].ID}
	if got[0] != 7 || got[1] != 3 || got[2] != 9 {
		t.Fatalf("order = %v, want [7 3 9]", got)
	}
}

func TestLedgerIdentityHoldsForRandomSets(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := core.NewDate(2024, time.January, 1)

	for round := 0; round < 50; round++ {
		var txs []core.Transaction
		for i := 0; i < 60; i++ {
			kind := core.KindIncome
			if rng.Intn(2) == 0 {
				kind = core.KindExpense
			}
			row := core.Transaction{
				ID:     int64(i + 1),
				Date:   core.Date{Time: base.AddDate(0, 0, rng.Intn(365))},
				Kind:   kind,
				Amount: decimal.New(int64(rng.Intn(100000)), -2),
			}
			if rng.Intn(15) == 0 {
				row.Date = core.Date{}
			}
			txs = append(txs, row)
		}

		periods := Range(core.PersistedRows(txs), month(2024, time.January), month(2024, time.December))
		if len(periods) != 12 {
			t.Fatalf("round %d: got %d periods", round, len(periods))
		}
		for i, p := range periods {
			want := p.OpeningBalance.Add(core.Sum(p.IncomeRows)).Sub(core.Sum(p.ExpenseRows))
			if !p.ClosingBalance.Equal(want) {
				t.Fatalf("round %d %s: closing %s != opening+income-expense %s", round, p.Month, p.ClosingBalance, want)
			}
			if i > 0 && !p.OpeningBalance.Equal(periods[i-1].ClosingBalance) {
				t.Fatalf("round %d %s: opening %s != previous closing %s", round, p.Month, p.OpeningBalance, periods[i-1].ClosingBalance)
			}
		}
	}
}

func TestRangeEmptyWhenReversed(t *testing.T) {
	if got := Range(nil, month(2025, time.March), month(2025, time.February)); got != nil {
		t.Fatalf("Range reversed = %v, want nil", got)
	}
}
