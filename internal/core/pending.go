package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Saga names a multi-step write that is not atomic at the store.
type Saga string

const (
	SagaFeeDerivation Saga = "fee_derivation"
	SagaSettlement    Saga = "settlement"
)

// PendingWrite is a durable marker recorded before the second write of a
// saga and resolved once it succeeded. A marker that outlives its saga
// points at a partial failure.
type PendingWrite struct {
	ID        int64
	Saga      Saga
	OriginID  int64 // originating transaction for fee derivation
	Payer     string
	Amount    decimal.Decimal
	MemberIDs []int64
	CreatedAt time.Time
}
