package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned for edit field names outside the supported set.
var ErrUnknownField = errors.New("unknown field")

// Field names a single editable record column.
type Field string

const (
	FieldDate          Field = "date"
	FieldAmount        Field = "amount"
	FieldReimbursed    Field = "reimbursed"
	FieldDescription   Field = "description"
	FieldCategory      Field = "category"
	FieldPaymentMethod Field = "payment_method"
)

var fieldAliases = map[string]Field{
	"date":             FieldDate,
	"data":             FieldDate,
	"amount":           FieldAmount,
	"valor":            FieldAmount,
	"value":            FieldAmount,
	"reimbursed":       FieldReimbursed,
	"reembolsado":      FieldReimbursed,
	"description":      FieldDescription,
	"descricao":        FieldDescription,
	"category":         FieldCategory,
	"tag":              FieldCategory,
	"tags":             FieldCategory,
	"categoria":        FieldCategory,
	"payment_method":   FieldPaymentMethod,
	"metodo":           FieldPaymentMethod,
	"metodo_pagamento": FieldPaymentMethod,
}

// ParseField resolves an English or Portuguese field name.
func ParseField(name string) (Field, error) {
	if f, ok := fieldAliases[Normalize(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Column is the row index holding the field.
func (f Field) Column() int {
	switch f {
	case FieldDate:
		return ColDate
	case FieldAmount:
		return ColAmount
	case FieldReimbursed:
		return ColReimbursed
	case FieldDescription:
		return ColDescription
	case FieldCategory:
		return ColCategory
	case FieldPaymentMethod:
		return ColPaymentMethod
	}
	return -1
}

// Label is the Portuguese name used in chat replies.
func (f Field) Label() string {
	switch f {
	case FieldDate:
		return "data"
	case FieldAmount:
		return "valor"
	case FieldReimbursed:
		return "reembolso"
	case FieldDescription:
		return "descrição"
	case FieldCategory:
		return "categoria"
	case FieldPaymentMethod:
		return "método de pagamento"
	}
	return string(f)
}
