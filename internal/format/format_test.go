package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBRL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "R$\u00a00,00"},
		{"40", "R$\u00a040,00"},
		{"12500", "R$\u00a012.500,00"},
		{"1234567.891", "R$\u00a01.234.567,89"},
		{"0.005", "R$\u00a00,01"},
		{"999.999", "R$\u00a01.000,00"},
		{"-60", "-R$\u00a060,00"},
		{"-0.001", "R$\u00a00,00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BRL(decimal.RequireFromString(tc.in)), tc.in)
	}
}

func TestDates(t *testing.T) {
	d := time.Date(2022, 3, 8, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "08/03/22", ShortDate(d))
	assert.Equal(t, "8 de março", DayMonth(d))
	assert.Equal(t, "março, 2022", MonthYear(d))
	assert.Equal(t, "dezembro", MonthName(time.December))
	assert.Equal(t, "", MonthName(time.Month(13)))
}

func TestPercent(t *testing.T) {
	p := func(a, b int64) string { return Percent(decimal.NewFromInt(a), decimal.NewFromInt(b)) }
	assert.Equal(t, "75%", p(30, 40))
	assert.Equal(t, "25%", p(10, 40))
	assert.Equal(t, "100%", p(40, 40))
	assert.Equal(t, "33%", p(1, 3))
	assert.Equal(t, "67%", p(2, 3))
	assert.Equal(t, "50%", p(1, 2))
	assert.Equal(t, "0%", p(5, 0))
}

func TestAddMonths(t *testing.T) {
	jan31 := time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2022, 2, 28, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 1))
	assert.Equal(t, time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), AddMonths(jan31, -1))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), -1))
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2022, 12, 15, 0, 0, 0, 0, time.UTC), 1))
}

func TestSameMonth(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 01:00 UTC on 1 April is still 31 March in São Paulo.
	utc := time.Date(2022, 4, 1, 1, 0, 0, 0, time.UTC)
	ref := time.Date(2022, 3, 15, 0, 0, 0, 0, sp)
	assert.True(t, SameMonth(utc, ref, sp))
	assert.False(t, SameMonth(utc, ref, time.UTC))
}
