package debt

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

func pocket(id int64, payer, amount string, settled bool) core.Transaction {
	return core.Transaction{
		ID:       id,
		Date:     core.NewDate(2025, time.April, 2),
		Kind:     core.KindExpense,
		Category: "travel",
		Amount:   core.MustAmount(amount),
		Payer:    payer,
		Method:   core.MethodOutOfPocket,
		Settled:  settled,
	}
}

func TestGroupsByPayer(t *testing.T) {
	card := pocket(5, "Ali", "999", false)
	card.Method = core.MethodCard
	incomeRow := pocket(6, "Ali", "999", false)
	incomeRow.Kind = core.KindIncome

	txs := []core.Transaction{
		pocket(2, "Ali", "150", false),
		pocket(1, "Ali ", "100", false),
		pocket(3, "Ayşe", "40.50", false),
		pocket(4, "Ali", "70", true),
		card,
		incomeRow,
	}

	groups := Groups(txs)
	if len(groups) != 2 {
		t.Fatalf("groups = %+v, want 2", groups)
	}
	ali := groups[0]
	if ali.Payer != "Ali" || !ali.OwedTotal.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("Ali group = %+v, want owed 250", ali)
	}
	if len(ali.MemberIDs) != 2 || ali.MemberIDs[0] != 1 || ali.MemberIDs[1] != 2 {
		t.Fatalf("Ali members = %v, want [1 2]", ali.MemberIDs)
	}
	if groups[1].Payer != "Ayşe" || !groups[1].OwedTotal.Equal(core.MustAmount("40.50")) {
		t.Fatalf("Ayşe group = %+v", groups[1])
	}
	if got := TotalOwed(groups); !got.Equal(core.MustAmount("290.50")) {
		t.Fatalf("TotalOwed = %s, want 290.50", got)
	}
}

func TestGroupsSkipDefects(t *testing.T) {
	bad := pocket(1, "Ali", "0", false)
	bad.Raw.Amount = "??"
	if groups := Groups([]core.Transaction{bad}); len(groups) != 0 {
		t.Fatalf("defective row produced a group: %+v", groups)
	}
}

func TestGroupForUnknownPayerIsZero(t *testing.T) {
	g := GroupFor([]core.Transaction{pocket(1, "Ali", "10", false)}, "Veli")
	if g.Payer != "Veli" || !g.OwedTotal.IsZero() || len(g.MemberIDs) != 0 {
		t.Fatalf("GroupFor(Veli) = %+v, want empty", g)
	}
	g = GroupFor([]core.Transaction{pocket(1, "Ali", "10", false)}, " Ali")
	if !g.OwedTotal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("GroupFor(Ali) = %+v", g)
	}
}
