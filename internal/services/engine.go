package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/debt"
	"github.com/taneryldrm/bugless-crm-sub000/internal/ledger"
	"github.com/taneryldrm/bugless-crm-sub000/internal/log"
	"github.com/taneryldrm/bugless-crm-sub000/internal/matching"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store"
)

// Snapshot is one consistent-enough read of the store. Every projection is
// recomputed from it in full.
type Snapshot struct {
	Transactions []core.Transaction
	Clients      []core.Client
	Projects     []core.Project
	Pending      []core.PendingWrite
	LoadedAt     time.Time
}

// Ledger partitions the snapshot for month m. Drafts are shown but never
// summed.
func (s Snapshot) Ledger(m core.Month, drafts ...core.DraftRow) core.LedgerPeriod {
	return ledger.Partition(s.rows(drafts), m)
}

// LedgerRange partitions consecutive months from..to inclusive.
func (s Snapshot) LedgerRange(from, to core.Month) []core.LedgerPeriod {
	return ledger.Range(core.PersistedRows(s.Transactions), from, to)
}

// Balances attributes income to clients.
func (s Snapshot) Balances() matching.Report {
	return matching.NewMatcher(s.Clients, s.Projects).Match(s.Transactions)
}

// Debts groups unsettled out-of-pocket expenses by payer.
func (s Snapshot) Debts() []core.DebtGroup {
	return debt.Groups(s.Transactions)
}

// DebtFor returns one payer's group.
func (s Snapshot) DebtFor(payer string) core.DebtGroup {
	return debt.GroupFor(s.Transactions, payer)
}

func (s Snapshot) rows(drafts []core.DraftRow) []core.Row {
	rows := core.PersistedRows(s.Transactions)
	for _, d := range drafts {
		rows = append(rows, d)
	}
	return rows
}

// Engine is the read side: it loads snapshots and hands out projections.
type Engine struct {
	store  store.Store
	clock  Clock
	logger *log.Logger
}

func NewEngine(st store.Store, clock Clock, logger *log.Logger) *Engine {
	if clock == nil {
		clock = systemClock
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Engine{store: st, clock: clock, logger: logger.WithComponent(log.ComponentLedger)}
}

// Snapshot loads transactions, directory and pending markers in parallel.
// The reads are independent; any failure fails the snapshot.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := e.store.List(gctx, store.ListFilter{})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		clients, err := e.store.ListClients(gctx)
		if err != nil {
			return fmt.Errorf("list clients: %w", err)
		}
		snap.Clients = clients
		return nil
	})
	g.Go(func() error {
		projects, err := e.store.ListProjects(gctx, nil)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		snap.Projects = projects
		return nil
	})
	g.Go(func() error {
		pending, err := e.store.ListPending(gctx)
		if err != nil {
			return fmt.Errorf("list pending writes: %w", err)
		}
		snap.Pending = pending
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.LoadedAt = e.clock()

	e.logger.DebugContext(ctx, "Snapshot loaded",
		"transactions", len(snap.Transactions),
		"clients", len(snap.Clients),
		"projects", len(snap.Projects),
		"pending", len(snap.Pending))
	return snap, nil
}

// Ledger loads a snapshot and partitions month m.
func (e *Engine) Ledger(ctx context.Context, m core.Month, drafts ...core.DraftRow) (core.LedgerPeriod, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return core.LedgerPeriod{}, err
	}
	period := snap.Ledger(m, drafts...)
	if len(period.Issues) > 0 {
		e.logger.WarnContext(ctx, "Rows excluded from ledger",
			log.FieldMonth, m.String(),
			"issues", len(period.Issues))
	}
	return period, nil
}

// Balances loads a snapshot and attributes income to clients.
func (e *Engine) Balances(ctx context.Context) (matching.Report, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return matching.Report{}, err
	}
	return snap.Balances(), nil
}

// Debts loads a snapshot and groups what is owed to each payer.
func (e *Engine) Debts(ctx context.Context) ([]core.DebtGroup, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Debts(), nil
}

// Pending lists saga markers left by partial failures.
func (e *Engine) Pending(ctx context.Context) ([]core.PendingWrite, error) {
	pending, err := e.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending writes: %w", err)
	}
	return pending, nil
}
