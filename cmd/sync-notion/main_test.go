package main

import (
	"testing"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("01/01/2026", "31/01/2026")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", start.String())
	assert.Equal(t, "2026-01-31", end.String())

	start, end, err = parseRange("", "")
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)

	_, _, err = parseRange("31/01/2026", "01/01/2026")
	assert.Error(t, err)

	_, _, err = parseRange("ontem", "")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestInRange(t *testing.T) {
	records := []domain.Record{
		{Position: 1, Date: "31/12/2025 10:00"},
		{Position: 2, Date: "01/01/2026 08:00"},
		{Position: 3, Date: "31/01/2026 23:59"},
		{Position: 4, Date: "01/02/2026"},
		{Position: 5, Date: "?"},
	}

	start, end, err := parseRange("01/01/2026", "31/01/2026")
	require.NoError(t, err)

	var got []int
	for _, r := range inRange(records, start, end) {
		got = append(got, r.Position)
	}
	assert.Equal(t, []int{2, 3}, got)

	assert.Len(t, inRange(records, nil, nil), 5)
}
