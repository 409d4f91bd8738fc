package core

import "github.com/shopspring/decimal"

// LedgerPeriod is the month-bounded view of the ledger.
type LedgerPeriod struct {
	Month          Month
	OpeningBalance decimal.Decimal
	IncomeRows     []Transaction
	ExpenseRows    []Transaction
	IncomeTotal    decimal.Decimal
	ExpenseTotal   decimal.Decimal
	ClosingBalance decimal.Decimal
	// Drafts dated within the month. They are shown, never summed.
	Drafts []DraftRow
	// Issues lists rows kept out of every sum.
	Issues []DataQualityIssue
}

// MatchTier says how a transaction was attributed to a client.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierProject
	TierName
)

func (t MatchTier) String() string {
	switch t {
	case TierProject:
		return "project"
	case TierName:
		return "name"
	default:
		return "none"
	}
}

// Match records one transaction counted towards a client's paid total.
type Match struct {
	TransactionID int64
	Tier          MatchTier
	Amount        decimal.Decimal
}

// ClientBalance is the agreed/paid position of one client.
type ClientBalance struct {
	ClientID    int64
	ClientName  string
	AgreedTotal decimal.Decimal
	PaidTotal   decimal.Decimal
	// Remaining is not clamped: negative means overpaid.
	Remaining decimal.Decimal
	Matches   []Match
}

// NameMatches returns the matches that relied on the payer name.
func (b ClientBalance) NameMatches() []Match {
	var out []Match
	for _, m := range b.Matches {
		if m.Tier == TierName {
			out = append(out, m)
		}
	}
	return out
}

// DebtGroup is what the company owes one payer for pocket expenses.
type DebtGroup struct {
	Payer     string
	OwedTotal decimal.Decimal
	MemberIDs []int64
}
