package services

import (
	"time"

	"github.com/shopspring/decimal"

	"gofinances/internal/core"
	"gofinances/internal/format"
)

type aggregateOptions struct {
	loc        *time.Location
	categories []core.Category
}

// AggregateOption customises Aggregate.
type AggregateOption func(*aggregateOptions)

// WithLocation sets the time zone used to decide which calendar day and
// month a stored timestamp belongs to. Defaults to the reference time's
// location.
func WithLocation(loc *time.Location) AggregateOption {
	return func(o *aggregateOptions) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// partition accumulates one Kind of transaction.
type partition struct {
	total decimal.Decimal
	last  time.Time
	seen  bool
}

func (p *partition) add(amount decimal.Decimal, date time.Time, ok bool) {
	p.total = p.total.Add(amount)
	if !ok {
		return
	}
	// >= so that ties resolve to the last record encountered.
	if !p.seen || !date.Before(p.last) {
		p.last = date
		p.seen = true
	}
}

// Aggregate reduces a user's stored transactions into the display-ready
// summary: the formatted list, the three highlights, and the category view
// for the month containing ref.
//
// It never fails: malformed amounts count as zero, malformed dates are
// ignored for "last transaction" and month scoping, and empty partitions
// report format.NoTransactions.
func Aggregate(records []core.Transaction, ref time.Time, opts ...AggregateOption) core.Summary {
	o := aggregateOptions{loc: ref.Location(), categories: core.Categories}
	for _, opt := range opts {
		opt(&o)
	}
	ref = ref.In(o.loc)

	var entries, expenses partition
	list := make([]core.DisplayTransaction, 0, len(records))
	known := make(map[string]struct{}, len(o.categories))
	for _, c := range o.categories {
		known[c.Key] = struct{}{}
	}
	byCategory := make(map[string]decimal.Decimal, len(o.categories))
	var uncategorized decimal.Decimal
	inMonth := 0

	for _, r := range records {
		amount := core.ParseAmount(r.Amount)
		date, dateOK := r.Time(o.loc)

		switch r.Kind() {
		case core.Entry:
			entries.add(amount, date, dateOK)
		default:
			expenses.add(amount, date, dateOK)
			if dateOK && format.SameMonth(date, ref, o.loc) {
				inMonth++
				if _, ok := known[r.Category]; ok {
					byCategory[r.Category] = byCategory[r.Category].Add(amount)
				} else {
					uncategorized = uncategorized.Add(amount)
				}
			}
		}

		display := core.DisplayTransaction{
			ID:       r.ID,
			Name:     r.Name,
			Amount:   format.BRL(amount),
			Type:     r.Type,
			Category: r.Category,
		}
		if dateOK {
			display.Date = format.ShortDate(date)
		}
		list = append(list, display)
	}

	return core.Summary{
		Transactions: list,
		Highlights:   highlights(entries, expenses),
		Overview:     overview(ref, o.categories, byCategory, uncategorized, inMonth),
	}
}

func highlights(entries, expenses partition) core.Highlights {
	net := entries.total.Sub(expenses.total)

	h := core.Highlights{
		Entries: core.Highlight{
			Total:           entries.total,
			Amount:          format.BRL(entries.total),
			LastTransaction: format.NoTransactions,
		},
		Expenses: core.Highlight{
			Total:           expenses.total,
			Amount:          format.BRL(expenses.total),
			LastTransaction: format.NoTransactions,
		},
		Total: core.Highlight{
			Total:           net,
			Amount:          format.BRL(net),
			LastTransaction: format.NoTransactions,
		},
	}
	if entries.seen {
		h.Entries.LastTransaction = "Última entrada dia " + format.DayMonth(entries.last)
	}
	if expenses.seen {
		h.Expenses.LastTransaction = "Última saída dia " + format.DayMonth(expenses.last)
		h.Total.LastTransaction = "01 a " + format.DayMonth(expenses.last)
	}
	return h
}

func overview(ref time.Time, table []core.Category, byCategory map[string]decimal.Decimal, uncategorized decimal.Decimal, n int) core.MonthOverview {
	ov := core.MonthOverview{
		Year:          ref.Year(),
		Month:         int(ref.Month()),
		Label:         format.MonthYear(ref),
		Uncategorized: uncategorized,
		Categories:    make([]core.CategoryTotal, 0, len(table)),
	}
	if n == 0 {
		return ov
	}

	for _, c := range table {
		ov.ExpensesTotal = ov.ExpensesTotal.Add(byCategory[c.Key])
	}

	for _, c := range table {
		sum := byCategory[c.Key]
		if !sum.IsPositive() {
			continue
		}
		ov.Categories = append(ov.Categories, core.CategoryTotal{
			Key:            c.Key,
			Name:           c.Name,
			Color:          c.Color,
			Total:          sum,
			TotalFormatted: format.BRL(sum),
			Percent:        format.Percent(sum, ov.ExpensesTotal),
		})
	}
	return ov
}
