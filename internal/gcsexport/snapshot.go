package gcsexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
)

// Encode writes rows as CSV with the ledger header.
func Encode(w io.Writer, rows []domain.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.ColumnNames); err != nil {
		return fmt.Errorf("Encode: header: %w", err)
	}
	for i, row := range rows {
		cells := make([]string, domain.NumColumns)
		copy(cells, row)
		if err := cw.Write(cells); err != nil {
			return fmt.Errorf("Encode: row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a snapshot written by Encode. The header row is optional and
// short rows are padded.
func Decode(r io.Reader) ([]domain.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var rows []domain.Row
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Decode: %w", err)
		}
		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}
		row := make(domain.Row, domain.NumColumns)
		copy(row, record)
		rows = append(rows, row)
	}
	return rows, nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	return domain.Normalize(record[0]) == domain.Normalize(domain.ColumnNames[domain.ColDate])
}

// Categories derives the tag sets used by rows, split by sign, in first-seen
// order.
func Categories(rows []domain.Row) (expense, income []string) {
	catalog := domain.NewCatalog(nil, nil, nil)
	for _, rec := range ledger.Records(rows) {
		if rec.Category == "" {
			continue
		}
		kind := domain.KindExpense
		if rec.IsIncome() {
			kind = domain.KindIncome
		}
		catalog.Add(kind, rec.Category)
	}
	return catalog.Expense, catalog.Income
}

func encodeBytes(rows []domain.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
