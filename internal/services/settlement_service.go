package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/events"
	"github.com/taneryldrm/bugless-crm-sub000/internal/log"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store"
)

// PayoutCategory is the category of the expense recording a reimbursement.
const PayoutCategory = "debt settlement"

var (
	ErrNoMembers  = errors.New("settlement needs at least one member transaction")
	ErrEmptyPayer = errors.New("settlement needs a payer")
	// ErrNotPayerDebt rejects a member that is not an unsettled
	// out-of-pocket expense of the settling payer.
	ErrNotPayerDebt = errors.New("transaction is not an open pocket expense of the payer")
)

// SettlementService pays back out-of-pocket expenses in two writes: mark
// the members settled, then record the company payout.
type SettlementService struct {
	store  store.Store
	clock  Clock
	notify notifier
	logger *log.Logger
}

func NewSettlementService(st store.Store, publisher events.Publisher, clock Clock, logger *log.Logger) *SettlementService {
	if clock == nil {
		clock = systemClock
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SettlementService{
		store:  st,
		clock:  clock,
		notify: notifier{publisher: publisher, logger: logger.WithComponent(log.ComponentEvents)},
		logger: logger.WithComponent(log.ComponentSettlement),
	}
}

// Settle marks memberIDs settled and records a payout of amount to payer.
// The two writes are not atomic. If the payout insert fails the members
// stay settled and a *core.SettlementPartialFailure is returned.
func (s *SettlementService) Settle(ctx context.Context, payer string, amount decimal.Decimal, memberIDs []int64) (core.Transaction, error) {
	payer = strings.TrimSpace(payer)
	switch {
	case payer == "":
		return core.Transaction{}, ErrEmptyPayer
	case len(memberIDs) == 0:
		return core.Transaction{}, ErrNoMembers
	case !amount.IsPositive():
		return core.Transaction{}, ErrNonPositiveAmount
	}
	members := append([]int64(nil), memberIDs...)
	logger := s.logger.With(log.FieldPayer, payer, log.FieldAmount, amount.StringFixed(2))

	if err := s.checkMembers(ctx, payer, members); err != nil {
		logger.WarnContext(ctx, "Settlement rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldMembers, members,
			log.FieldError, err)
		return core.Transaction{}, err
	}

	marker, err := s.store.RecordPending(ctx, core.PendingWrite{
		Saga:      core.SagaSettlement,
		Payer:     payer,
		Amount:    amount,
		MemberIDs: members,
	})
	if err != nil {
		logger.WarnContext(ctx, "Failed to record pending settlement marker", log.FieldError, err)
		marker = core.PendingWrite{}
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	if err := s.store.MarkSettled(ctx, members); err != nil {
		// the store applies all ids or none, so nothing changed
		s.resolve(ctx, logger, marker.ID)
		return core.Transaction{}, &core.StoreCommandError{
			Intent: core.IntentMarkSettled,
			Op:     log.OpSettle,
			Err:    err,
		}
	}
	ctx = context.WithoutCancel(ctx)

	payout := core.Transaction{
		Date:        core.DateOf(s.clock()),
		Kind:        core.KindExpense,
		Category:    PayoutCategory,
		Amount:      amount,
		Description: fmt.Sprintf("settlement for %s", payer),
		Payer:       core.DefaultPayer,
		Method:      core.MethodCash,
		Settled:     true,
	}
	saved, err := s.store.Insert(ctx, payout)
	if err != nil {
		failure := &core.SettlementPartialFailure{
			Payer:     payer,
			Amount:    amount,
			MemberIDs: members,
			PendingID: marker.ID,
			Err: &core.StoreCommandError{
				Intent: core.IntentRecordPayout,
				Op:     log.OpInsert,
				Err:    err,
			},
		}
		logger.ErrorContext(ctx, "Members settled but payout not recorded",
			log.FieldMembers, members,
			log.FieldPendingID, marker.ID,
			log.FieldError, err)
		e := events.New(events.SettlementPartialFailure)
		e.RelatedIDs = members
		e.Payer = payer
		e.Amount = amount
		e.Error = err.Error()
		s.notify.publish(ctx, e)
		return core.Transaction{}, failure
	}

	s.resolve(ctx, logger, marker.ID)

	logger.InfoContext(ctx, "Debt settled",
		log.FieldTransactionID, saved.ID,
		log.FieldMembers, members)
	e := events.New(events.DebtSettled)
	e.TransactionID = saved.ID
	e.RelatedIDs = members
	e.Payer = payer
	e.Amount = amount
	s.notify.publish(ctx, e)

	return saved, nil
}

// checkMembers makes sure every id is an unsettled, readable pocket expense
// whose trimmed payer is payer.
func (s *SettlementService) checkMembers(ctx context.Context, payer string, ids []int64) error {
	txs, err := s.store.List(ctx, store.ListFilter{})
	if err != nil {
		return fmt.Errorf("load settlement members: %w", err)
	}
	byID := make(map[int64]core.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}
	for _, id := range ids {
		tx, ok := byID[id]
		switch {
		case !ok:
			return fmt.Errorf("transaction %d: %w", id, store.ErrNotFound)
		case !tx.IsPocketDebt() || tx.Defect() != nil || strings.TrimSpace(tx.Payer) != payer:
			return fmt.Errorf("transaction %d: %w", id, ErrNotPayerDebt)
		}
	}
	return nil
}

// SettleGroup settles a whole debt group for its owed total.
func (s *SettlementService) SettleGroup(ctx context.Context, g core.DebtGroup) (core.Transaction, error) {
	return s.Settle(ctx, g.Payer, g.OwedTotal, g.MemberIDs)
}

func (s *SettlementService) resolve(ctx context.Context, logger *log.Logger, id int64) {
	if id == 0 {
		return
	}
	if err := s.store.ResolvePending(ctx, id); err != nil {
		logger.WarnContext(ctx, "Failed to resolve pending settlement marker",
			log.FieldPendingID, id,
			log.FieldError, err)
	}
}
