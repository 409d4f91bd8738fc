package core

import "github.com/google/uuid"

// Row is a transaction as the caller's working set holds it: either a
// draft that only exists locally, or a row the store knows about.
type Row interface {
	// Fields returns the transaction values the row currently carries.
	Fields() Transaction
	isRow()
}

// DraftRow is a newly entered transaction with no store identity yet.
type DraftRow struct {
	LocalID uuid.UUID
	Tx      Transaction
}

// PersistedRow is a transaction the store has assigned an id to.
type PersistedRow struct {
	Tx Transaction
}

// NewDraft starts a draft with a fresh local id. Any id on fields is dropped.
func NewDraft(fields Transaction) DraftRow {
	fields.ID = 0
	return DraftRow{LocalID: uuid.New(), Tx: fields}
}

func (d DraftRow) Fields() Transaction     { return d.Tx }
func (p PersistedRow) Fields() Transaction { return p.Tx }

func (DraftRow) isRow()     {}
func (PersistedRow) isRow() {}

// PersistedRows wraps store results for code that works on rows.
func PersistedRows(txs []Transaction) []Row {
	rows := make([]Row, len(txs))
	for i, t := range txs {
		rows[i] = PersistedRow{Tx: t}
	}
	return rows
}
