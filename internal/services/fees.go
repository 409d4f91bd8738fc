package services

import (
	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

// FeePolicy describes the bank commission derived from wire transfer
// expenses.
type FeePolicy struct {
	Rate     decimal.Decimal
	Category string
	Payer    string
}

// DefaultFeePolicy returns a 6.29% commission booked as "bank fee" paid by
// "bank".
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		Rate:     decimal.RequireFromString("0.0629"),
		Category: "bank fee",
		Payer:    "bank",
	}
}

// Applies reports whether saving t derives a commission.
func (p FeePolicy) Applies(t core.Transaction) bool {
	return t.Kind == core.KindExpense && t.Method == core.MethodWireTransfer
}

// Commission returns amount × rate rounded to cents.
func (p FeePolicy) Commission(amount decimal.Decimal) decimal.Decimal {
	return core.RoundMoney(amount.Mul(p.Rate))
}

// Suffix is appended to the origin description, e.g. " (commission 6.29%)".
func (p FeePolicy) Suffix() string {
	return " (commission " + p.Rate.Shift(2).String() + "%)"
}

// derive builds the commission row for origin. ok is false when the
// commission rounds to zero.
func (p FeePolicy) derive(origin core.Transaction) (fee core.Transaction, ok bool) {
	commission := p.Commission(origin.Amount)
	if commission.IsZero() {
		return core.Transaction{}, false
	}
	return core.Transaction{
		Date:        origin.Date,
		Kind:        core.KindExpense,
		Category:    p.Category,
		Amount:      commission,
		Description: origin.Description + p.Suffix(),
		Payer:       p.Payer,
		Method:      origin.Method,
		ProjectID:   origin.ProjectID,
	}, true
}
