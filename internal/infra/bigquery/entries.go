package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/telegrana/internal/domain"
)

// EntryRow is one ledger line. Cells are stored as the text the ledger
// shows, so the amount columns keep the "-50,00" format.
type EntryRow struct {
	Position      int64  `bigquery:"position"` // REQUIRED, 1-based
	EntryDate     string `bigquery:"entry_date"`
	Amount        string `bigquery:"amount"`
	Reimbursed    string `bigquery:"reimbursed"`
	Description   string `bigquery:"description"`
	Tags          string `bigquery:"tags"`
	PaymentMethod string `bigquery:"payment_method"`

	CreatedTS time.Time              `bigquery:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

// Row converts the stored line to the ledger cell order.
func (r EntryRow) Row() domain.Row {
	row := make(domain.Row, domain.NumColumns)
	row[domain.ColDate] = r.EntryDate
	row[domain.ColAmount] = r.Amount
	row[domain.ColReimbursed] = r.Reimbursed
	row[domain.ColDescription] = r.Description
	row[domain.ColCategory] = r.Tags
	row[domain.ColPaymentMethod] = r.PaymentMethod
	return row
}

func entryFromRow(position int64, row domain.Row) EntryRow {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return EntryRow{
		Position:      position,
		EntryDate:     cell(domain.ColDate),
		Amount:        cell(domain.ColAmount),
		Reimbursed:    cell(domain.ColReimbursed),
		Description:   cell(domain.ColDescription),
		Tags:          cell(domain.ColCategory),
		PaymentMethod: cell(domain.ColPaymentMethod),
	}
}

// entryColumns maps editable fields to their column names.
var entryColumns = map[domain.Field]string{
	domain.FieldDate:          "entry_date",
	domain.FieldAmount:        "amount",
	domain.FieldReimbursed:    "reimbursed",
	domain.FieldDescription:   "description",
	domain.FieldCategory:      "tags",
	domain.FieldPaymentMethod: "payment_method",
}
