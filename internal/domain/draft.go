package domain

import "github.com/shopspring/decimal"

// Draft is a transaction that has not been written yet.
type Draft struct {
	Amount        decimal.Decimal
	Description   string
	Category      string
	PaymentMethod string
	Date          string
}

// MissingField returns the first required field still empty, checking
// description, category and payment method in that order.
func (d Draft) MissingField() (Field, bool) {
	switch {
	case d.Description == "":
		return FieldDescription, true
	case d.Category == "":
		return FieldCategory, true
	case d.PaymentMethod == "":
		return FieldPaymentMethod, true
	}
	return "", false
}

// Set fills a text field of the draft.
func (d *Draft) Set(f Field, value string) {
	switch f {
	case FieldDescription:
		d.Description = value
	case FieldCategory:
		d.Category = value
	case FieldPaymentMethod:
		d.PaymentMethod = value
	case FieldDate:
		d.Date = value
	}
}

// Kind is the category set a draft's tag belongs to.
func (d Draft) Kind() CategoryKind {
	if d.Amount.IsPositive() {
		return KindIncome
	}
	return KindExpense
}
