package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
	KindUnknown Kind = "unknown"
)

const (
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodWireTransfer Method = "wire_transfer"
	MethodOutOfPocket  Method = "out_of_pocket"
	MethodUnknown      Method = "unknown"
)

// DefaultPayer is used when a transaction arrives without a payer.
const DefaultPayer = "company"

const dateLayout = "2006-01-02"

type (
	Kind   string
	Method string

	// Date is a calendar day. The zero value means the day is absent or
	// could not be parsed.
	Date struct {
		time.Time
	}

	// RawFields keeps the original text of fields the store adapter could
	// not parse. Empty strings mean the field parsed fine, except that
	// AmountMissing marks a stored amount that was empty.
	RawFields struct {
		Date          string
		Amount        string
		AmountMissing bool
	}

	Transaction struct {
		ID          int64
		Date        Date
		Kind        Kind
		Category    string
		Amount      decimal.Decimal
		Description string
		Payer       string
		Method      Method
		ProjectID   *int64
		Settled     bool // meaningful only for out-of-pocket expenses
		Raw         RawFields
	}

	Client struct {
		ID     int64
		Name   string
		Status string
	}

	Project struct {
		ID          int64
		ClientID    int64
		Name        string
		AgreedPrice decimal.Decimal
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidKind   = errors.New("invalid transaction kind")
	ErrInvalidMethod = errors.New("invalid payment method")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD day. A trailing time component, as some
// drivers return for DATE columns, is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) && (s[len(dateLayout)] == 'T' || s[len(dateLayout)] == ' ') {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// AmountInvalid reports whether the stored amount could not be used.
func (r RawFields) AmountInvalid() bool {
	return r.Amount != "" || r.AmountMissing
}

// ParseKind coerces a loosely typed kind string. Anything unrecognised
// becomes KindUnknown.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "in", "gelir", "credit":
		return KindIncome
	case "expense", "out", "gider", "debit":
		return KindExpense
	default:
		return KindUnknown
	}
}

func (k Kind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

// ParseMethod coerces a loosely typed payment method string. Anything
// unrecognised becomes MethodUnknown.
func ParseMethod(s string) Method {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(n)
	switch n {
	case "cash", "nakit":
		return MethodCash
	case "card", "creditcard", "kart", "kredikarti":
		return MethodCard
	case "wiretransfer", "wire", "transfer", "banktransfer", "eft", "havale", "havaleeft":
		return MethodWireTransfer
	case "outofpocket", "pocket", "cepten":
		return MethodOutOfPocket
	default:
		return MethodUnknown
	}
}

func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodWireTransfer, MethodOutOfPocket:
		return true
	default:
		return false
	}
}

// IsPersisted reports whether the store has assigned an id.
func (t Transaction) IsPersisted() bool {
	return t.ID != 0
}

// IsPocketDebt reports whether t is an unsettled expense a staff member
// paid personally.
func (t Transaction) IsPocketDebt() bool {
	return t.Kind == KindExpense && t.Method == MethodOutOfPocket && !t.Settled
}

// Defect returns the first data quality problem that keeps t out of
// aggregation, or nil.
func (t Transaction) Defect() *DataQualityIssue {
	switch {
	case t.Raw.AmountMissing:
		return &DataQualityIssue{TransactionID: t.ID, Field: "amount", Reason: "missing amount"}
	case t.Raw.Amount != "":
		return &DataQualityIssue{TransactionID: t.ID, Field: "amount", Raw: t.Raw.Amount, Reason: "non-numeric amount"}
	case t.Date.IsZero():
		return &DataQualityIssue{TransactionID: t.ID, Field: "date", Raw: t.Raw.Date, Reason: "unparseable date"}
	case !t.Kind.IsValid():
		return &DataQualityIssue{TransactionID: t.ID, Field: "kind", Raw: string(t.Kind), Reason: "unknown kind"}
	default:
		return nil
	}
}

// Validate checks the fields a save command requires.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if !t.Method.IsValid() {
		return ErrInvalidMethod
	}
	if t.Raw.AmountInvalid() || t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

// Normalize fills boundary defaults.
func (t Transaction) Normalize() Transaction {
	t.Payer = strings.TrimSpace(t.Payer)
	if t.Payer == "" {
		t.Payer = DefaultPayer
	}
	t.Category = strings.TrimSpace(t.Category)
	return t
}
