package core

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Intent names what a store command was trying to achieve, so callers can
// tell an unsaved draft from a lost edit to a persisted row.
type Intent string

const (
	IntentSaveDraft        Intent = "save_draft"
	IntentEditPersisted    Intent = "edit_persisted"
	IntentDeletePersisted  Intent = "delete_persisted"
	IntentDeriveFee        Intent = "derive_fee"
	IntentRecordCollection Intent = "record_collection"
	IntentMarkSettled      Intent = "mark_settled"
	IntentRecordPayout     Intent = "record_payout"
)

// DataQualityIssue describes a row excluded from aggregation.
type DataQualityIssue struct {
	TransactionID int64
	LocalID       uuid.UUID
	Field         string
	Raw           string
	Reason        string
}

func (e *DataQualityIssue) Error() string {
	return fmt.Sprintf("transaction %d: %s %q: %s", e.TransactionID, e.Field, e.Raw, e.Reason)
}

// StoreCommandError wraps a failed insert/update/delete with its intent.
type StoreCommandError struct {
	Intent        Intent
	Op            string
	TransactionID int64     // zero for inserts
	LocalID       uuid.UUID // set when a draft was being saved
	Err           error
}

func (e *StoreCommandError) Error() string {
	if e.TransactionID != 0 {
		return fmt.Sprintf("%s: %s transaction %d: %v", e.Intent, e.Op, e.TransactionID, e.Err)
	}
	return fmt.Sprintf("%s: %s transaction: %v", e.Intent, e.Op, e.Err)
}

func (e *StoreCommandError) Unwrap() error { return e.Err }

// DerivationWarning reports a commission row that could not be inserted
// after its originating expense was saved. It is not fatal.
type DerivationWarning struct {
	OriginID   int64
	Commission decimal.Decimal
	PendingID  int64 // saga marker left for reconciliation, zero if none
	Err        error
}

func (w *DerivationWarning) Error() string {
	return fmt.Sprintf("fee derivation for transaction %d (commission %s) failed: %v",
		w.OriginID, w.Commission.StringFixed(2), w.Err)
}

func (w *DerivationWarning) Unwrap() error { return w.Err }

// SettlementPartialFailure means members were marked settled but the payout
// record could not be written. Persisted state needs manual reconciliation.
type SettlementPartialFailure struct {
	Payer     string
	Amount    decimal.Decimal
	MemberIDs []int64
	PendingID int64
	Err       error
}

func (e *SettlementPartialFailure) Error() string {
	return fmt.Sprintf("settlement for %q marked %d transactions settled but payout of %s was not recorded: %v",
		e.Payer, len(e.MemberIDs), e.Amount.StringFixed(2), e.Err)
}

func (e *SettlementPartialFailure) Unwrap() error { return e.Err }
