// Package domain holds the ledger entity and the small value types shared by
// the matcher, the aggregator and the conversation engine.
package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the day/month/year form stored in the date column.
	DateLayout = "02/01/2006"
	// TimestampLayout is used when a record is stamped at creation time.
	TimestampLayout = "02/01/2006 15:04"
)

// Row column order shared by every store backend.
const (
	ColDate = iota
	ColAmount
	ColReimbursed
	ColDescription
	ColCategory
	ColPaymentMethod
	NumColumns
)

// ColumnNames is the header row written by exports and migrations.
var ColumnNames = []string{"Data", "Valor", "Reembolsado", "Descrição", "Tags", "Método"}

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Row is the raw text form of a record as held by a store.
type Row []string

// Record is one ledger line. Amount is negative for expenses and positive for
// income. Position is the 1-based store location and the only update key.
type Record struct {
	Date          string
	Amount        decimal.Decimal
	Reimbursed    decimal.Decimal
	Description   string
	Category      string
	PaymentMethod string
	Position      int
}

// NetValue is amount plus reimbursed amount.
func (r Record) NetValue() decimal.Decimal {
	return r.Amount.Add(r.Reimbursed)
}

func (r Record) IsExpense() bool { return r.Amount.IsNegative() }

func (r Record) IsIncome() bool { return r.Amount.IsPositive() }

// FullyReimbursed reports whether nothing of the expense is left to settle.
func (r Record) FullyReimbursed() bool {
	return r.Reimbursed.GreaterThanOrEqual(r.Amount.Abs())
}

// Day parses the calendar date part of the record's date text.
func (r Record) Day() (civil.Date, error) {
	return ParseDay(r.Date)
}

// DatePart returns the date text without any time-of-day suffix.
func (r Record) DatePart() string {
	fields := strings.Fields(r.Date)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Row renders the record in canonical column order.
func (r Record) Row() Row {
	return Row{
		r.Date,
		FormatAmount(r.Amount),
		FormatAmount(r.Reimbursed),
		r.Description,
		r.Category,
		r.PaymentMethod,
	}
}

// RecordFromRow parses a stored row. Short rows are padded and unparsable
// amounts read as zero so a single bad cell never hides the rest of the ledger.
func RecordFromRow(row Row, position int) Record {
	cells := make([]string, NumColumns)
	copy(cells, row)

	amount, err := ParseAmount(cells[ColAmount])
	if err != nil {
		amount = decimal.Zero
	}
	reimbursed, err := ParseAmount(cells[ColReimbursed])
	if err != nil {
		reimbursed = decimal.Zero
	}

	return Record{
		Date:          strings.TrimSpace(cells[ColDate]),
		Amount:        amount,
		Reimbursed:    reimbursed,
		Description:   strings.TrimSpace(cells[ColDescription]),
		Category:      strings.TrimSpace(cells[ColCategory]),
		PaymentMethod: strings.TrimSpace(cells[ColPaymentMethod]),
		Position:      position,
	}
}

// dotThousands matches amounts such as "1.500" or "12.000.000" that use dots
// only as thousands separators.
var dotThousands = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// ParseAmount accepts "12.5", "12,50", "1.234,56", "1.500", "R$ 10" and an
// empty cell (zero).
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return decimal.Zero, nil
	}
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case dotThousands.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount writes a decimal with two places and a comma separator.
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// FormatBRL renders an amount for chat replies, e.g. "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, b.String(), frac)
}

// ParseDay reads the first whitespace-separated token as day/month/year.
func ParseDay(s string) (civil.Date, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return civil.Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	t, err := time.Parse("2/1/2006", fields[0])
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, fields[0])
	}
	return civil.DateOf(t), nil
}

// FormatDay renders a civil date in the stored day/month/year form.
func FormatDay(d civil.Date) string {
	return d.In(time.UTC).Format(DateLayout)
}
