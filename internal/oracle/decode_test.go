package oracle

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanModelJSON(tt.in))
	}
}

func TestDecode_NewTransaction(t *testing.T) {
	got, err := Decode("```json\n" + `{"intent":"insert","amount":400,"kind":"expense","description":"Mercado","category":"Mercado","payment_method":"pix","date":null}` + "\n```")
	require.NoError(t, err)

	n, ok := got.(NewTransaction)
	require.True(t, ok, "got %T", got)
	assert.True(t, n.Amount.Equal(decimal.NewFromInt(-400)))
	assert.Equal(t, "Mercado", n.Description)
	assert.Equal(t, "pix", n.PaymentMethod)
	assert.Empty(t, n.Date)

	d := n.Draft()
	assert.Equal(t, domain.KindExpense, d.Kind())
}

func TestDecode_NewTransaction_Income(t *testing.T) {
	got, err := Decode(`{"intent":"insert","amount":"1.500,00","kind":"income","description":"Salário"}`)
	require.NoError(t, err)

	n := got.(NewTransaction)
	assert.True(t, n.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Empty(t, n.Category)
}

func TestDecode_Reimbursement(t *testing.T) {
	got, err := Decode(`{"intent":"reimburse","amount":60.5,"purchase_date":"10/01","purchase_description":"jantar"}`)
	require.NoError(t, err)

	r := got.(Reimbursement)
	assert.True(t, r.Amount.Equal(decimal.RequireFromString("60.5")))
	assert.Equal(t, "10/01", r.PurchaseDate)
	assert.Equal(t, "jantar", r.PurchaseDescription)
}

func TestDecode_Query(t *testing.T) {
	got, err := Decode(`{"intent":"query","start_date":"01/01/2026","end_date":"2026-01-11","query_type":"spent","include_methods":["Crédito"],"exclude_methods":"Pix"}`)
	require.NoError(t, err)

	q := got.(Query)
	assert.Equal(t, civil.Date{Year: 2026, Month: 1, Day: 1}, *q.Start)
	assert.Equal(t, civil.Date{Year: 2026, Month: 1, Day: 11}, *q.End)
	assert.Equal(t, QuerySpent, q.Type)
	assert.Equal(t, []string{"Crédito"}, q.Include)
	assert.Equal(t, []string{"Pix"}, q.Exclude)

	lq := q.Ledger()
	assert.Equal(t, q.Start, lq.Start)
}

func TestDecode_PastEdit(t *testing.T) {
	got, err := Decode(`{"intent":"edit","search":{"date":"ontem","amount":30,"description":"farmácia"},"updates":{"amount":45,"category":"Farmácia"}}`)
	require.NoError(t, err)

	e := got.(PastEdit)
	assert.Equal(t, "ontem", e.Search.Date)
	require.NotNil(t, e.Search.Amount)
	assert.True(t, e.Search.Amount.Equal(decimal.NewFromInt(30)))
	require.NotNil(t, e.Updates.Amount)
	assert.True(t, e.Updates.Amount.Equal(decimal.NewFromInt(45)))
	require.NotNil(t, e.Updates.Category)
	assert.Equal(t, "Farmácia", *e.Updates.Category)
	assert.Nil(t, e.Updates.Description)
}

func TestDecode_EditLastAndTags(t *testing.T) {
	got, err := Decode(`{"intent":"edit_last","field":"valor","value":45}`)
	require.NoError(t, err)
	assert.Equal(t, EditLast{Field: "valor", Value: "45"}, got)

	got, err = Decode(`{"intent":"tags","action":"create","tag_name":" Pets ","tag_kind":"despesa"}`)
	require.NoError(t, err)
	assert.Equal(t, TagAction{Action: TagCreate, Name: "Pets", Set: domain.KindExpense}, got)

	got, err = Decode(`{"intent":"tags","action":"list"}`)
	require.NoError(t, err)
	assert.Equal(t, TagAction{Action: TagList}, got)
}

func TestDecode_Degrades(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantReason bool
	}{
		{"no match", `{"intent":"reimburse","is_match":false}`, false},
		{"unknown intent", `{"intent":"weather"}`, false},
		{"explicit other", `{"intent":"other"}`, false},
		{"zero amount", `{"intent":"insert","amount":0}`, true},
		{"text amount", `{"intent":"insert","amount":"muito"}`, true},
		{"negative reimbursement", `{"intent":"reimburse","amount":-5}`, true},
		{"bad date", `{"intent":"query","start_date":"semana que vem"}`, true},
		{"edit without updates", `{"intent":"edit","search":{"description":"x"},"updates":{}}`, true},
		{"tag create without name", `{"intent":"tags","action":"create"}`, true},
		{"intent not a string", `{"intent":5}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			require.NoError(t, err)
			other, ok := got.(Other)
			require.True(t, ok, "got %T", got)
			assert.Equal(t, tt.wantReason, other.Reason != "", other.Reason)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not json", "[1,2]", "null"} {
		_, err := Decode(raw)
		assert.ErrorIs(t, err, ErrMalformedResponse, raw)
	}
}
