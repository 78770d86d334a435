package domain

import "fmt"

// CategoryKind selects one of the two category sets.
type CategoryKind string

const (
	KindExpense CategoryKind = "expense"
	KindIncome  CategoryKind = "income"
)

// ParseCategoryKind accepts "expense"/"income" and their Portuguese forms.
func ParseCategoryKind(s string) (CategoryKind, error) {
	switch Normalize(s) {
	case "expense", "despesa", "gasto", "saida":
		return KindExpense, nil
	case "income", "receita", "entrada", "ganho":
		return KindIncome, nil
	}
	return "", fmt.Errorf("unknown category kind %q", s)
}

// Catalog holds the known category and payment method labels. It is owned by
// the caller and updated in place when a category is registered.
type Catalog struct {
	Expense        []string
	Income         []string
	PaymentMethods []string
}

// NewCatalog copies the given lists into a new catalog.
func NewCatalog(expense, income, methods []string) *Catalog {
	c := &Catalog{PaymentMethods: append([]string(nil), methods...)}
	for _, name := range expense {
		c.Add(KindExpense, name)
	}
	for _, name := range income {
		c.Add(KindIncome, name)
	}
	return c
}

// Tags returns the set for kind.
func (c *Catalog) Tags(kind CategoryKind) []string {
	if kind == KindIncome {
		return c.Income
	}
	return c.Expense
}

// Known is the union of both sets in insertion order, expenses first.
func (c *Catalog) Known() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range append(append([]string(nil), c.Expense...), c.Income...) {
		key := Normalize(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// Lookup finds a known tag ignoring case and accents and returns its stored
// spelling.
func (c *Catalog) Lookup(name string) (string, bool) {
	key := Normalize(name)
	for _, known := range c.Known() {
		if Normalize(known) == key {
			return known, true
		}
	}
	return "", false
}

// Has reports whether name is in the set for kind.
func (c *Catalog) Has(kind CategoryKind, name string) bool {
	key := Normalize(name)
	for _, known := range c.Tags(kind) {
		if Normalize(known) == key {
			return true
		}
	}
	return false
}

// Add appends name to the set for kind. It returns false when the tag was
// already present.
func (c *Catalog) Add(kind CategoryKind, name string) bool {
	if name == "" || c.Has(kind, name) {
		return false
	}
	if kind == KindIncome {
		c.Income = append(c.Income, name)
	} else {
		c.Expense = append(c.Expense, name)
	}
	return true
}

// PaymentMethod resolves a free-text method against the configured labels,
// falling back to CanonicalPaymentMethod for unknown ones.
func (c *Catalog) PaymentMethod(s string) string {
	canon := CanonicalPaymentMethod(s)
	key := Normalize(canon)
	for _, m := range c.PaymentMethods {
		if Normalize(m) == key {
			return m
		}
	}
	return canon
}
