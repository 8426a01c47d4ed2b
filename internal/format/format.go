// Package format renders amounts and dates the way the app displays them:
// Brazilian Real currency and Portuguese (Brazil) month names.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NoTransactions is shown in place of a date when a partition is empty.
const NoTransactions = "Não há transações"

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var hundred = decimal.NewFromInt(100)

// MonthName returns the lowercase pt-BR month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// BRL formats an amount as Brazilian Real, e.g. "R$ 12.500,00".
// The space after the symbol is a no-break space.
func BRL(d decimal.Decimal) string {
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg && fixed != "0.00" {
		b.WriteByte('-')
	}
	b.WriteString("R$\u00a0")
	b.WriteString(groupThousands(intPart))
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ShortDate renders dd/mm/yy.
func ShortDate(t time.Time) string {
	return t.Format("02/01/06")
}

// DayMonth renders "8 de março".
func DayMonth(t time.Time) string {
	return fmt.Sprintf("%d de %s", t.Day(), MonthName(t.Month()))
}

// MonthYear renders "março, 2022".
func MonthYear(t time.Time) string {
	return fmt.Sprintf("%s, %d", MonthName(t.Month()), t.Year())
}

// Percent renders part/whole as a whole-number percentage, rounding half
// away from zero. A zero whole yields "0%".
func Percent(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "0%"
	}
	return part.Mul(hundred).Div(whole).Round(0).String() + "%"
}

// AddMonths moves t by n months, clamping the day to the last day of the
// target month (31 Jan + 1 month = 28/29 Feb).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// SameMonth reports whether a and b fall in the same calendar month of loc.
func SameMonth(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.Month() == b.Month()
}
