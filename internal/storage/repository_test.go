package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample() core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2025, time.March, 14),
		Kind:        core.KindExpense,
		Category:    "software",
		Amount:      core.MustAmount("1000"),
		Description: "annual licence",
		Payer:       "company",
		Method:      core.MethodWireTransfer,
	}
}

func TestInsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	saved, err := repo.Insert(ctx, sample())
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("Insert did not assign an id")
	}

	got, err := repo.List(ctx, store.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List returned %d rows, want 1", len(got))
	}
	row := got[0]
	if row.ID != saved.ID || !row.Amount.Equal(decimal.NewFromInt(1000)) || row.Date != saved.Date {
		t.Errorf("row = %+v, want %+v", row, saved)
	}
	if row.Kind != core.KindExpense || row.Method != core.MethodWireTransfer || row.ProjectID != nil {
		t.Errorf("row = %+v, kind/method/project mismatch", row)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	income := sample()
	income.Kind = core.KindIncome
	income.Date = core.NewDate(2025, time.April, 2)
	for _, tx := range []core.Transaction{sample(), income} {
		if _, err := repo.Insert(ctx, tx); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	kind := core.KindIncome
	got, err := repo.List(ctx, store.ListFilter{Kind: &kind})
	if err != nil || len(got) != 1 || got[0].Kind != core.KindIncome {
		t.Fatalf("kind filter = %+v, %v", got, err)
	}

	got, err = repo.List(ctx, store.ListFilter{From: core.NewDate(2025, time.March, 1), To: core.NewDate(2025, time.March, 31)})
	if err != nil || len(got) != 1 || got[0].Kind != core.KindExpense {
		t.Fatalf("date filter = %+v, %v", got, err)
	}
}

func TestLegacyRowsAreCoerced(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO transactions (date, kind, category, amount, description, payer, method, settled)
		VALUES ('2025-02-31', 'Gelir', 'collection', 'abc', '', '  ', 'Havale/EFT', 0),
		       ('2025-02-03T00:00:00Z', 'expense', 'rent', '1.234,50', '', 'ali', 'Out of pocket', 0)`)
	if err != nil {
		t.Fatalf("seed legacy rows: %v", err)
	}

	got, err := repo.List(ctx, store.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d rows, want 2", len(got))
	}

	bad := got[0]
	if bad.Kind != core.KindIncome || bad.Payer != core.DefaultPayer {
		t.Errorf("bad row kind/payer = %s/%q", bad.Kind, bad.Payer)
	}
	if bad.Raw.Date != "2025-02-31" || bad.Raw.Amount != "abc" {
		t.Errorf("bad row raw = %+v", bad.Raw)
	}
	if issue := bad.Defect(); issue == nil || issue.Field != "amount" {
		t.Errorf("Defect() = %v, want amount issue", issue)
	}

	good := got[1]
	if good.Date != core.NewDate(2025, time.February, 3) || !good.Amount.Equal(core.MustAmount("1234.50")) {
		t.Errorf("good row = %+v", good)
	}
	if good.Method != core.MethodOutOfPocket || !good.IsPocketDebt() {
		t.Errorf("good row method = %s, want out_of_pocket debt", good.Method)
	}
}

func TestUpdatePreservesUntouchedRawFields(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO transactions (date, kind, category, amount, method)
		VALUES ('2025-03-01', 'expense', 'misc', 'twelve', 'cash')`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	desc := "renamed"
	if err := repo.Update(ctx, 1, store.TransactionPatch{Description: &desc}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := repo.List(ctx, store.ListFilter{})
	if got[0].Description != "renamed" || got[0].Raw.Amount != "twelve" {
		t.Fatalf("row = %+v, want renamed with raw amount kept", got[0])
	}

	amount := core.MustAmount("12")
	if err := repo.Update(ctx, 1, store.TransactionPatch{Amount: &amount}); err != nil {
		t.Fatalf("Update amount: %v", err)
	}
	got, _ = repo.List(ctx, store.ListFilter{})
	if got[0].Raw.Amount != "" || !got[0].Amount.Equal(amount) {
		t.Fatalf("row = %+v, want repaired amount", got[0])
	}
}

func TestUpdateKeepsEmptyLegacyAmount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO transactions (date, kind, category, amount, method)
		VALUES ('2025-03-01', 'income', 'misc', '', 'cash')`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, _ := repo.List(ctx, store.ListFilter{})
	if !got[0].Raw.AmountMissing || got[0].Raw.Amount != "" {
		t.Fatalf("raw = %+v, want missing amount", got[0].Raw)
	}
	if issue := got[0].Defect(); issue == nil || issue.Field != "amount" {
		t.Fatalf("Defect() = %v, want amount issue", issue)
	}

	category := "x"
	if err := repo.Update(ctx, got[0].ID, store.TransactionPatch{Category: &category}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	var stored string
	if err := repo.db.QueryRowContext(ctx, `SELECT amount FROM transactions WHERE id = ?`, got[0].ID).Scan(&stored); err != nil {
		t.Fatalf("read amount: %v", err)
	}
	if stored != "" {
		t.Fatalf("stored amount after category patch = %q, want empty", stored)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	repo := newTestRepo(t)
	desc := "x"
	err := repo.Update(context.Background(), 42, store.TransactionPatch{Description: &desc})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestMarkSettledIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	debt := sample()
	debt.Method = core.MethodOutOfPocket
	debt.Payer = "ali"
	a, _ := repo.Insert(ctx, debt)
	b, _ := repo.Insert(ctx, debt)

	if err := repo.MarkSettled(ctx, []int64{a.ID, 999}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("MarkSettled with unknown id = %v, want ErrNotFound", err)
	}
	got, _ := repo.List(ctx, store.ListFilter{})
	for _, tx := range got {
		if tx.Settled {
			t.Fatalf("transaction %d settled after failed batch", tx.ID)
		}
	}

	if err := repo.MarkSettled(ctx, []int64{a.ID, b.ID}); err != nil {
		t.Fatalf("MarkSettled: %v", err)
	}
	if err := repo.MarkSettled(ctx, []int64{a.ID, b.ID}); err != nil {
		t.Fatalf("MarkSettled twice: %v", err)
	}

	unsettle := false
	if err := repo.Update(ctx, a.ID, store.TransactionPatch{Settled: &unsettle}); !errors.Is(err, store.ErrSettledIrreversible) {
		t.Fatalf("clearing settled = %v, want ErrSettledIrreversible", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	saved, _ := repo.Insert(ctx, sample())
	if err := repo.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	acme, err := repo.CreateClient(ctx, core.Client{Name: "Acme"})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	globex, _ := repo.CreateClient(ctx, core.Client{Name: "Globex"})
	for _, p := range []core.Project{
		{ClientID: acme.ID, Name: "site", AgreedPrice: core.MustAmount("5000")},
		{ClientID: globex.ID, Name: "app", AgreedPrice: core.MustAmount("1250.50")},
	} {
		if _, err := repo.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
	}

	clients, err := repo.ListClients(ctx)
	if err != nil || len(clients) != 2 || clients[0].Status != "active" {
		t.Fatalf("ListClients = %+v, %v", clients, err)
	}
	all, _ := repo.ListProjects(ctx, nil)
	if len(all) != 2 {
		t.Fatalf("ListProjects(nil) = %d projects, want 2", len(all))
	}
	mine, _ := repo.ListProjects(ctx, &globex.ID)
	if len(mine) != 1 || !mine[0].AgreedPrice.Equal(core.MustAmount("1250.50")) {
		t.Fatalf("ListProjects(globex) = %+v", mine)
	}

	linked := sample()
	linked.Kind = core.KindIncome
	linked.ProjectID = &mine[0].ID
	saved, err := repo.Insert(ctx, linked)
	if err != nil {
		t.Fatalf("Insert linked: %v", err)
	}
	got, _ := repo.List(ctx, store.ListFilter{})
	if got[0].ID != saved.ID || got[0].ProjectID == nil || *got[0].ProjectID != mine[0].ID {
		t.Fatalf("project link lost: %+v", got[0])
	}
}

func TestPendingLog(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	w, err := repo.RecordPending(ctx, core.PendingWrite{
		Saga:      core.SagaSettlement,
		Payer:     "ali",
		Amount:    core.MustAmount("80"),
		MemberIDs: []int64{3, 5},
	})
	if err != nil {
		t.Fatalf("RecordPending: %v", err)
	}

	pending, err := repo.ListPending(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPending = %+v, %v", pending, err)
	}
	got := pending[0]
	if got.ID != w.ID || got.Saga != core.SagaSettlement || got.Payer != "ali" || !got.Amount.Equal(decimal.NewFromInt(80)) {
		t.Errorf("pending = %+v", got)
	}
	if len(got.MemberIDs) != 2 || got.MemberIDs[0] != 3 || got.MemberIDs[1] != 5 {
		t.Errorf("member ids = %v, want [3 5]", got.MemberIDs)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created at not stored")
	}

	if err := repo.ResolvePending(ctx, w.ID); err != nil {
		t.Fatalf("ResolvePending: %v", err)
	}
	if err := repo.ResolvePending(ctx, w.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second ResolvePending = %v, want ErrNotFound", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &Repository{dialect: DialectPostgres}
	if got := pg.rebind("UPDATE t SET a = ? WHERE id = ?"); got != "UPDATE t SET a = $1 WHERE id = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &Repository{dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}
