package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingPrefix marks ids generated on the client for rows that were never persisted.
const PendingPrefix = "pending-"

type (
	// Transaction is a dated monetary record scoped to an account.
	Transaction struct {
		ID              string
		Name            string
		Amount          decimal.Decimal
		Category        string
		Criticality     string
		TransactionDate time.Time
		Account         string
		PaymentMethod   string
		Cleared         bool
		// Pending is true until the first successful create.
		Pending bool
	}

	// Field names a single editable column of a Transaction.
	Field string

	// FieldKind is the closed set of input kinds a Field can be edited with.
	FieldKind int

	// Patch holds raw per-field text as produced by an input control.
	Patch map[Field]string

	// Page is the single response contract of a list call.
	Page struct {
		Records []Transaction
		Total   int
		Count   int
	}
)

const (
	FieldName          Field = "name"
	FieldAmount        Field = "amount"
	FieldCategory      Field = "category"
	FieldCriticality   Field = "criticality"
	FieldDate          Field = "transactionDate"
	FieldAccount       Field = "account"
	FieldPaymentMethod Field = "paymentMethod"
	FieldCleared       Field = "cleared"
)

const (
	KindText FieldKind = iota
	KindMoney
	KindDate
	KindEnumDropdown
	KindEnumAutocomplete
	KindToggle
)

// Fields lists every editable field in grid column order.
var Fields = []Field{
	FieldDate,
	FieldName,
	FieldAmount,
	FieldCategory,
	FieldCriticality,
	FieldAccount,
	FieldPaymentMethod,
	FieldCleared,
}

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrEmptyID       = errors.New("empty transaction id")
	ErrPendingRecord = errors.New("pending transaction in server response")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidPeriod = errors.New("invalid period")
)

// Kind returns the input kind used to edit f.
func (f Field) Kind() FieldKind {
	switch f {
	case FieldName:
		return KindText
	case FieldAmount:
		return KindMoney
	case FieldDate:
		return KindDate
	case FieldCriticality:
		return KindEnumDropdown
	case FieldCategory, FieldAccount, FieldPaymentMethod:
		return KindEnumAutocomplete
	case FieldCleared:
		return KindToggle
	default:
		return KindText
	}
}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// NewPendingID returns a fresh client-side id carrying the pending marker.
func NewPendingID() string {
	return PendingPrefix + uuid.NewString()
}

// IsPendingID reports whether id was generated by NewPendingID.
func IsPendingID(id string) bool {
	return strings.HasPrefix(id, PendingPrefix)
}

// FormatField renders the value of f as the text an input control would hold.
func FormatField(t Transaction, f Field) string {
	switch f {
	case FieldName:
		return t.Name
	case FieldAmount:
		return t.Amount.StringFixed(2)
	case FieldCategory:
		return t.Category
	case FieldCriticality:
		return t.Criticality
	case FieldDate:
		if t.TransactionDate.IsZero() {
			return ""
		}
		return t.TransactionDate.Format(DateLayout)
	case FieldAccount:
		return t.Account
	case FieldPaymentMethod:
		return t.PaymentMethod
	case FieldCleared:
		return strconv.FormatBool(t.Cleared)
	default:
		return ""
	}
}

// PatchFrom renders every field of t into a full Patch.
func PatchFrom(t Transaction) Patch {
	p := make(Patch, len(Fields))
	for _, f := range Fields {
		p[f] = FormatField(t, f)
	}
	return p
}

// Clone returns an independent copy of p.
func (p Patch) Clone() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ApplyPatch merges p into t. Amounts that do not parse become zero; dates
// that do not parse leave the current value in place.
func ApplyPatch(t Transaction, p Patch) Transaction {
	for f, raw := range p {
		switch f {
		case FieldName:
			t.Name = raw
		case FieldAmount:
			t.Amount = ParseAmountOrZero(raw)
		case FieldCategory:
			t.Category = raw
		case FieldCriticality:
			t.Criticality = raw
		case FieldDate:
			if d, err := ParseDate(raw); err == nil {
				t.TransactionDate = d
			}
		case FieldAccount:
			t.Account = raw
		case FieldPaymentMethod:
			t.PaymentMethod = raw
		case FieldCleared:
			if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
				t.Cleared = b
			}
		}
	}
	return t
}

// Validate checks a list response before it reaches the grid.
func (p *Page) Validate() error {
	for i, r := range p.Records {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("record %d: %w", i, ErrEmptyID)
		}
		if r.Pending || IsPendingID(r.ID) {
			return fmt.Errorf("record %s: %w", r.ID, ErrPendingRecord)
		}
	}
	if p.Count == 0 {
		p.Count = len(p.Records)
	}
	if p.Total < p.Count {
		p.Total = p.Count
	}
	return nil
}
