package ledger

import (
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// SurplusCategory tags the income record created for an overpayment.
	SurplusCategory = "Reembolso"
	// SurplusPaymentMethod is the transfer-style method used for surplus income.
	SurplusPaymentMethod = "Pix"
	surplusPrefix        = "Reembolso Excedente: "
)

// Settlement is the outcome of applying a reimbursement to one record.
type Settlement struct {
	Position    int
	Description string
	PurchaseAbs decimal.Decimal
	Received    decimal.Decimal
	// Capped is the value written to the record's reimbursed column.
	Capped decimal.Decimal
	// Delta is received minus purchase; negative when a part is still open.
	Delta     decimal.Decimal
	IsSurplus bool
	Surplus   decimal.Decimal
	// SurplusRecord is the income record to append when IsSurplus is set.
	SurplusRecord   *domain.Record
	SurplusPosition int
}

// Shortfall is what remains unreimbursed after a partial settlement.
func (s Settlement) Shortfall() decimal.Decimal {
	if s.Delta.IsNegative() {
		return s.Delta.Abs()
	}
	return decimal.Zero
}

// PlanReimbursement computes a settlement without touching the store. Any
// excess over the purchase becomes a separate income record so that the
// reimbursed column never exceeds the expense.
func PlanReimbursement(rec domain.Record, received decimal.Decimal, date string) Settlement {
	purchaseAbs := rec.Amount.Abs()
	delta := received.Sub(purchaseAbs)

	s := Settlement{
		Position:    rec.Position,
		Description: rec.Description,
		PurchaseAbs: purchaseAbs,
		Received:    received,
		Delta:       delta,
		Capped:      received,
	}
	if delta.IsPositive() {
		s.Capped = purchaseAbs
		s.IsSurplus = true
		s.Surplus = delta
		s.SurplusRecord = &domain.Record{
			Date:          date,
			Amount:        delta,
			Reimbursed:    decimal.Zero,
			Description:   surplusPrefix + rec.Description,
			Category:      SurplusCategory,
			PaymentMethod: SurplusPaymentMethod,
		}
	}
	return s
}
