package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrMalformedResponse is returned when the model output is not a JSON object.
var ErrMalformedResponse = errors.New("malformed model response")

// cleanModelJSON strips markdown fences the model sometimes wraps around JSON.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// Decode parses a model response into an intent. Payloads of a known kind
// with unusable fields decode to Other with a Reason.
func Decode(raw string) (Intent, error) {
	dec := json.NewDecoder(strings.NewReader(cleanModelJSON(raw)))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("Decode: %w: %v", ErrMalformedResponse, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("Decode: %w: null", ErrMalformedResponse)
	}

	if match, ok := obj["is_match"].(bool); ok && !match {
		return Other{}, nil
	}

	kind, err := getStringField(obj, "intent", false)
	if err != nil {
		return Other{Reason: err.Error()}, nil
	}

	var intent Intent
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindNewTransaction:
		intent, err = decodeNewTransaction(obj)
	case KindReimbursement:
		intent, err = decodeReimbursement(obj)
	case KindQuery:
		intent, err = decodeQuery(obj)
	case KindPastEdit:
		intent, err = decodePastEdit(obj)
	case KindEditLast:
		intent, err = decodeEditLast(obj)
	case KindTagAction:
		intent, err = decodeTagAction(obj)
	default:
		return Other{}, nil
	}
	if err != nil {
		return Other{Reason: err.Error()}, nil
	}
	return intent, nil
}

func decodeNewTransaction(obj map[string]interface{}) (Intent, error) {
	amount, err := getDecimalField(obj, "amount", true)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		return nil, fmt.Errorf("field %q must be non-zero", "amount")
	}
	v := *amount

	kind, err := getOptionalStringField(obj, "kind")
	if err != nil {
		return nil, err
	}
	if kind != nil {
		switch strings.ToLower(*kind) {
		case "income":
			v = v.Abs()
		case "expense":
			v = v.Abs().Neg()
		}
	}

	n := NewTransaction{Amount: v}
	if n.Description, err = optionalString(obj, "description"); err != nil {
		return nil, err
	}
	if n.Category, err = optionalString(obj, "category"); err != nil {
		return nil, err
	}
	if n.PaymentMethod, err = optionalString(obj, "payment_method"); err != nil {
		return nil, err
	}
	if n.Date, err = optionalString(obj, "date"); err != nil {
		return nil, err
	}
	if n.Date != "" {
		if _, err := parseDateField(n.Date); err != nil {
			return nil, fmt.Errorf("field %q: %w", "date", err)
		}
	}
	return n, nil
}

func decodeReimbursement(obj map[string]interface{}) (Intent, error) {
	amount, err := getDecimalField(obj, "amount", true)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("field %q must be positive", "amount")
	}

	r := Reimbursement{Amount: *amount}
	if r.PurchaseDate, err = optionalString(obj, "purchase_date"); err != nil {
		return nil, err
	}
	if r.PurchaseDescription, err = optionalString(obj, "purchase_description"); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeQuery(obj map[string]interface{}) (Intent, error) {
	q := Query{Type: QuerySummary}

	for key, dst := range map[string]**civil.Date{"start_date": &q.Start, "end_date": &q.End} {
		s, err := optionalString(obj, key)
		if err != nil {
			return nil, err
		}
		if s == "" {
			continue
		}
		d, err := parseDateField(s)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		*dst = &d
	}

	qt, err := optionalString(obj, "query_type")
	if err != nil {
		return nil, err
	}
	switch QueryType(strings.ToLower(qt)) {
	case QuerySpent:
		q.Type = QuerySpent
	case QueryGain:
		q.Type = QueryGain
	}

	if q.Include, err = getStringListField(obj, "include_methods"); err != nil {
		return nil, err
	}
	if q.Exclude, err = getStringListField(obj, "exclude_methods"); err != nil {
		return nil, err
	}
	return q, nil
}

func decodePastEdit(obj map[string]interface{}) (Intent, error) {
	search, err := getObjectField(obj, "search")
	if err != nil {
		return nil, err
	}
	updates, err := getObjectField(obj, "updates")
	if err != nil {
		return nil, err
	}

	var e PastEdit
	if e.Search.Date, err = optionalString(search, "date"); err != nil {
		return nil, err
	}
	if e.Search.Amount, err = getDecimalField(search, "amount", false); err != nil {
		return nil, err
	}
	if e.Search.Description, err = optionalString(search, "description"); err != nil {
		return nil, err
	}

	if e.Updates.Amount, err = getDecimalField(updates, "amount", false); err != nil {
		return nil, err
	}
	if e.Updates.Amount != nil && e.Updates.Amount.IsZero() {
		return nil, fmt.Errorf("field %q must be non-zero", "updates.amount")
	}
	if e.Updates.Description, err = getOptionalStringField(updates, "description"); err != nil {
		return nil, err
	}
	if e.Updates.Category, err = getOptionalStringField(updates, "category"); err != nil {
		return nil, err
	}
	if e.Updates.PaymentMethod, err = getOptionalStringField(updates, "payment_method"); err != nil {
		return nil, err
	}
	if e.Updates.Empty() {
		return nil, fmt.Errorf("no field to update")
	}
	return e, nil
}

func decodeEditLast(obj map[string]interface{}) (Intent, error) {
	field, err := getStringField(obj, "field", true)
	if err != nil {
		return nil, err
	}
	value, err := getScalarString(obj, "value")
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, fmt.Errorf("required field %q is empty", "value")
	}
	return EditLast{Field: strings.TrimSpace(field), Value: value}, nil
}

func decodeTagAction(obj map[string]interface{}) (Intent, error) {
	action, err := getStringField(obj, "action", true)
	if err != nil {
		return nil, err
	}

	t := TagAction{}
	switch TagActionType(strings.ToLower(action)) {
	case TagList:
		t.Action = TagList
	case TagCreate:
		t.Action = TagCreate
		if t.Name, err = getStringField(obj, "tag_name", true); err != nil {
			return nil, err
		}
		t.Name = strings.TrimSpace(t.Name)
	default:
		return nil, fmt.Errorf("unknown tag action %q", action)
	}

	set, err := optionalString(obj, "tag_kind")
	if err != nil {
		return nil, err
	}
	if set != "" {
		if t.Set, err = domain.ParseCategoryKind(set); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// parseDateField accepts day/month/year and ISO dates.
func parseDateField(s string) (civil.Date, error) {
	if d, err := domain.ParseDay(s); err == nil {
		return d, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	return civil.DateOf(t), nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

func optionalString(m map[string]interface{}, key string) (string, error) {
	s, err := getOptionalStringField(m, key)
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// getScalarString reads a string, number or bool as text.
func getScalarString(m map[string]interface{}, key string) (string, error) {
	switch val := m[key].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case json.Number:
		return val.String(), nil
	case bool:
		return fmt.Sprint(val), nil
	default:
		return "", fmt.Errorf("field %q has type %T, want scalar", key, val)
	}
}

// getDecimalField reads a JSON number or a numeric string such as "12,50".
func getDecimalField(m map[string]interface{}, key string, required bool) (*decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return nil, fmt.Errorf("missing required field %q", key)
		}
		return nil, nil
	}

	var d decimal.Decimal
	var err error
	switch val := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	case float64:
		d = decimal.NewFromFloat(val)
	case string:
		if strings.TrimSpace(val) == "" {
			if required {
				return nil, fmt.Errorf("required field %q is empty", key)
			}
			return nil, nil
		}
		d, err = domain.ParseAmount(val)
	default:
		return nil, fmt.Errorf("field %q has type %T, want number", key, v)
	}
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, domain.ErrInvalidAmount)
	}
	return &d, nil
}

func getStringListField(m map[string]interface{}, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}, nil
		}
		return nil, nil
	case []interface{}:
		var out []string
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("field %q element %d has type %T, want string", key, i, item)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want list of strings", key, v)
	}
}

func getObjectField(m map[string]interface{}, key string) (map[string]interface{}, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return map[string]interface{}{}, nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("field %q has type %T, want object", key, v)
	}
	return obj, nil
}
