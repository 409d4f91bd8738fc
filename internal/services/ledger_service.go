package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/events"
	"github.com/taneryldrm/bugless-crm-sub000/internal/log"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store"
)

var (
	ErrMissingID  = errors.New("persisted row has no id")
	ErrUnknownRow = errors.New("unknown row variant")
)

// SaveResult is what a successful Save returns. Commission is set when a
// fee row was derived; Warning when deriving it failed.
type SaveResult struct {
	Row        core.PersistedRow
	Commission *core.Transaction
	Warning    *core.DerivationWarning
}

// LedgerService saves and deletes ledger rows and derives bank commissions
// for new wire transfer expenses.
type LedgerService struct {
	store  store.Store
	fees   FeePolicy
	notify notifier
	logger *log.Logger
}

func NewLedgerService(st store.Store, publisher events.Publisher, fees FeePolicy, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		store:  st,
		fees:   fees,
		notify: notifier{publisher: publisher, logger: logger.WithComponent(log.ComponentEvents)},
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// Save inserts a draft or rewrites a persisted row. Only a draft insert can
// derive a commission; edits never do.
func (s *LedgerService) Save(ctx context.Context, row core.Row) (SaveResult, error) {
	switch r := row.(type) {
	case core.DraftRow:
		return s.insertDraft(ctx, r)
	case core.PersistedRow:
		return s.update(ctx, r)
	default:
		return SaveResult{}, fmt.Errorf("save %T: %w", row, ErrUnknownRow)
	}
}

func (s *LedgerService) insertDraft(ctx context.Context, d core.DraftRow) (SaveResult, error) {
	fields := d.Tx.Normalize()
	fields.ID = 0
	if err := fields.Validate(); err != nil {
		return SaveResult{}, fmt.Errorf("validate draft %s: %w", d.LocalID, err)
	}

	saved, err := s.store.Insert(ctx, fields)
	if err != nil {
		return SaveResult{}, &core.StoreCommandError{
			Intent:  core.IntentSaveDraft,
			Op:      log.OpInsert,
			LocalID: d.LocalID,
			Err:     err,
		}
	}
	// the row exists now; what follows must not be abandoned halfway
	ctx = context.WithoutCancel(ctx)

	s.logger.InfoContext(ctx, "Transaction saved",
		log.FieldTransactionID, saved.ID,
		log.FieldLocalID, d.LocalID.String(),
		log.FieldAmount, saved.Amount.StringFixed(2))
	e := events.New(events.TransactionCreated)
	e.TransactionID = saved.ID
	e.Payer = saved.Payer
	e.Amount = saved.Amount
	s.notify.publish(ctx, e)

	result := SaveResult{Row: core.PersistedRow{Tx: saved}}
	if s.fees.Applies(saved) {
		result.Commission, result.Warning = s.deriveFee(ctx, saved)
	}
	return result, nil
}

func (s *LedgerService) update(ctx context.Context, p core.PersistedRow) (SaveResult, error) {
	fields := p.Tx.Normalize()
	if !fields.IsPersisted() {
		return SaveResult{}, ErrMissingID
	}
	if err := fields.Validate(); err != nil {
		return SaveResult{}, fmt.Errorf("validate transaction %d: %w", fields.ID, err)
	}

	if err := s.store.Update(ctx, fields.ID, store.FullPatch(fields)); err != nil {
		return SaveResult{}, &core.StoreCommandError{
			Intent:        core.IntentEditPersisted,
			Op:            log.OpUpdate,
			TransactionID: fields.ID,
			Err:           err,
		}
	}

	s.logger.InfoContext(ctx, "Transaction updated", log.FieldTransactionID, fields.ID)
	e := events.New(events.TransactionUpdated)
	e.TransactionID = fields.ID
	e.Payer = fields.Payer
	e.Amount = fields.Amount
	s.notify.publish(ctx, e)

	return SaveResult{Row: core.PersistedRow{Tx: fields}}, nil
}

// deriveFee inserts the commission row for origin. Failures come back as a
// warning; the origin row stays saved either way.
func (s *LedgerService) deriveFee(ctx context.Context, origin core.Transaction) (*core.Transaction, *core.DerivationWarning) {
	logger := s.logger.WithComponent(log.ComponentFees).With(log.FieldOriginID, origin.ID)

	fee, ok := s.fees.derive(origin)
	if !ok {
		logger.DebugContext(ctx, "Commission rounds to zero, nothing derived")
		return nil, nil
	}

	marker, err := s.store.RecordPending(ctx, core.PendingWrite{
		Saga:     core.SagaFeeDerivation,
		OriginID: origin.ID,
		Payer:    fee.Payer,
		Amount:   fee.Amount,
	})
	if err != nil {
		logger.WarnContext(ctx, "Failed to record pending fee marker", log.FieldError, err)
		marker = core.PendingWrite{}
	}

	saved, err := s.store.Insert(ctx, fee)
	if err != nil {
		warning := &core.DerivationWarning{
			OriginID:   origin.ID,
			Commission: fee.Amount,
			PendingID:  marker.ID,
			Err: &core.StoreCommandError{
				Intent: core.IntentDeriveFee,
				Op:     log.OpInsert,
				Err:    err,
			},
		}
		logger.WarnContext(ctx, "Fee derivation failed",
			log.FieldAmount, fee.Amount.StringFixed(2),
			log.FieldPendingID, marker.ID,
			log.FieldError, err)
		e := events.New(events.FeeDerivationFailed)
		e.TransactionID = origin.ID
		e.Amount = fee.Amount
		e.Error = err.Error()
		s.notify.publish(ctx, e)
		return nil, warning
	}

	if marker.ID != 0 {
		if err := s.store.ResolvePending(ctx, marker.ID); err != nil {
			logger.WarnContext(ctx, "Failed to resolve pending fee marker",
				log.FieldPendingID, marker.ID,
				log.FieldError, err)
		}
	}

	logger.InfoContext(ctx, "Commission derived",
		log.FieldTransactionID, saved.ID,
		log.FieldAmount, saved.Amount.StringFixed(2))
	e := events.New(events.FeeDerived)
	e.TransactionID = saved.ID
	e.RelatedIDs = []int64{origin.ID}
	e.Payer = saved.Payer
	e.Amount = saved.Amount
	s.notify.publish(ctx, e)

	return &saved, nil
}

// Delete removes a persisted row from the store. A draft has nothing to
// remove there; the caller drops it. Derived commission rows are not
// touched.
func (s *LedgerService) Delete(ctx context.Context, row core.Row) error {
	switch r := row.(type) {
	case core.DraftRow:
		s.logger.DebugContext(ctx, "Draft discarded", log.FieldLocalID, r.LocalID.String())
		return nil
	case core.PersistedRow:
		id := r.Tx.ID
		if id == 0 {
			return ErrMissingID
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return &core.StoreCommandError{
				Intent:        core.IntentDeletePersisted,
				Op:            log.OpDelete,
				TransactionID: id,
				Err:           err,
			}
		}
		s.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id)
		e := events.New(events.TransactionDeleted)
		e.TransactionID = id
		s.notify.publish(ctx, e)
		return nil
	default:
		return fmt.Errorf("delete %T: %w", row, ErrUnknownRow)
	}
}
