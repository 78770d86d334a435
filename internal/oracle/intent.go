// Package oracle turns free text into one structured intent per message.
package oracle

import (
	"cloud.google.com/go/civil"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/shopspring/decimal"
)

// Kind is the wire name of an intent.
type Kind string

const (
	KindNewTransaction Kind = "insert"
	KindReimbursement  Kind = "reimburse"
	KindQuery          Kind = "query"
	KindPastEdit       Kind = "edit"
	KindEditLast       Kind = "edit_last"
	KindTagAction      Kind = "tags"
	KindOther          Kind = "other"
)

// Intent is one of NewTransaction, Reimbursement, Query, PastEdit, EditLast,
// TagAction or Other.
type Intent interface {
	Kind() Kind
	sealed()
}

// NewTransaction records money spent (negative) or received (positive).
type NewTransaction struct {
	Amount        decimal.Decimal
	Description   string
	Category      string
	PaymentMethod string
	Date          string
}

// Draft converts the intent into a ledger draft.
func (n NewTransaction) Draft() domain.Draft {
	return domain.Draft{
		Amount:        n.Amount,
		Description:   n.Description,
		Category:      n.Category,
		PaymentMethod: n.PaymentMethod,
		Date:          n.Date,
	}
}

// Reimbursement reports money returned for an earlier purchase.
type Reimbursement struct {
	Amount              decimal.Decimal
	PurchaseDate        string
	PurchaseDescription string
}

// QueryType selects which totals a query reply emphasises.
type QueryType string

const (
	QuerySpent   QueryType = "spent"
	QueryGain    QueryType = "gain"
	QuerySummary QueryType = "summary"
)

// Query asks for totals over a date range. End is exclusive.
type Query struct {
	Start   *civil.Date
	End     *civil.Date
	Type    QueryType
	Include []string
	Exclude []string
}

// Ledger converts the intent into an aggregator query.
func (q Query) Ledger() ledger.Query {
	return ledger.Query{Start: q.Start, End: q.End, Include: q.Include, Exclude: q.Exclude}
}

// PastEdit changes fields of an earlier record found by search criteria.
type PastEdit struct {
	Search  ledger.Criteria
	Updates ledger.Updates
}

// EditLast changes one field of the record saved in the previous turn.
// Field is the raw name returned by the model.
type EditLast struct {
	Field string
	Value string
}

// TagActionType is list or create.
type TagActionType string

const (
	TagList   TagActionType = "list"
	TagCreate TagActionType = "create"
)

// TagAction lists or creates categories.
type TagAction struct {
	Action TagActionType
	Name   string
	// Set is empty when the model did not say which set to use.
	Set domain.CategoryKind
}

// Other is any message without an actionable intent. Reason is set when a
// recognised intent carried an unusable field.
type Other struct {
	Reason string
}

func (NewTransaction) Kind() Kind { return KindNewTransaction }
func (Reimbursement) Kind() Kind  { return KindReimbursement }
func (Query) Kind() Kind          { return KindQuery }
func (PastEdit) Kind() Kind       { return KindPastEdit }
func (EditLast) Kind() Kind       { return KindEditLast }
func (TagAction) Kind() Kind      { return KindTagAction }
func (Other) Kind() Kind          { return KindOther }

func (NewTransaction) sealed() {}
func (Reimbursement) sealed()  {}
func (Query) sealed()          {}
func (PastEdit) sealed()       {}
func (EditLast) sealed()       {}
func (TagAction) sealed()      {}
func (Other) sealed()          {}
