// Package store declares the narrow persistence boundary the engine
// consumes. Implementations live in store/memory and storage.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrSettledIrreversible = errors.New("settled flag cannot be cleared")
)

// ListFilter narrows List. Zero values mean no constraint; From and To are
// inclusive.
type ListFilter struct {
	Kind *core.Kind
	From core.Date
	To   core.Date
}

// Matches reports whether t satisfies the filter. Rows with an unparseable
// date only match when no date range is set.
func (f ListFilter) Matches(t core.Transaction) bool {
	if f.Kind != nil && t.Kind != *f.Kind {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if t.Date.IsZero() {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && f.To.Before(t.Date) {
		return false
	}
	return true
}

// TransactionPatch carries the fields an update sets. Nil means unchanged.
type TransactionPatch struct {
	Date        *core.Date
	Kind        *core.Kind
	Category    *string
	Amount      *decimal.Decimal
	Description *string
	Payer       *string
	Method      *core.Method
	ProjectID   **int64
	Settled     *bool
}

// FullPatch sets every editable field of t.
func FullPatch(t core.Transaction) TransactionPatch {
	projectID := t.ProjectID
	return TransactionPatch{
		Date:        &t.Date,
		Kind:        &t.Kind,
		Category:    &t.Category,
		Amount:      &t.Amount,
		Description: &t.Description,
		Payer:       &t.Payer,
		Method:      &t.Method,
		ProjectID:   &projectID,
		Settled:     &t.Settled,
	}
}

// Apply returns t with the patch applied. Clearing an already set settled
// flag is refused.
func (p TransactionPatch) Apply(t core.Transaction) (core.Transaction, error) {
	if p.Settled != nil && t.Settled && !*p.Settled {
		return t, ErrSettledIrreversible
	}
	if p.Date != nil {
		t.Date = *p.Date
		t.Raw.Date = ""
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
		t.Raw.Amount = ""
		t.Raw.AmountMissing = false
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Payer != nil {
		t.Payer = *p.Payer
	}
	if p.Method != nil {
		t.Method = *p.Method
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.Settled != nil {
		t.Settled = *p.Settled
	}
	return t, nil
}

// Ports for outbound adapters.
type (
	TransactionReader interface {
		List(ctx context.Context, filter ListFilter) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		// Insert stores t and returns it with its assigned id.
		Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)
		Update(ctx context.Context, id int64, patch TransactionPatch) error
		// MarkSettled flips the settled flag on every id. It never clears it.
		MarkSettled(ctx context.Context, ids []int64) error
		Delete(ctx context.Context, id int64) error
	}

	DirectoryReader interface {
		// ListProjects returns all projects, or those of one client.
		ListProjects(ctx context.Context, clientID *int64) ([]core.Project, error)
		ListClients(ctx context.Context) ([]core.Client, error)
	}

	// PendingLog persists saga markers between the two writes of a
	// non-atomic command.
	PendingLog interface {
		RecordPending(ctx context.Context, w core.PendingWrite) (core.PendingWrite, error)
		ResolvePending(ctx context.Context, id int64) error
		ListPending(ctx context.Context) ([]core.PendingWrite, error)
	}

	Store interface {
		TransactionReader
		TransactionWriter
		DirectoryReader
		PendingLog
	}
)
