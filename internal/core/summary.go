package core

import "github.com/shopspring/decimal"

// DisplayTransaction is a stored transaction with amount and date rendered
// for display.
type DisplayTransaction struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   string          `json:"amount"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
}

// Highlight is one of the three top-level summaries.
type Highlight struct {
	Total           decimal.Decimal `json:"total"`
	Amount          string          `json:"amount"`
	LastTransaction string          `json:"lastTransaction"`
}

type Highlights struct {
	Entries  Highlight `json:"entries"`
	Expenses Highlight `json:"expenses"`
	Total    Highlight `json:"total"`
}

// CategoryTotal is the sum of one category's expenses within a month.
type CategoryTotal struct {
	Key            string          `json:"key"`
	Name           string          `json:"name"`
	Color          string          `json:"color"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"totalFormatted"`
	Percent        string          `json:"percent"`
}

// MonthOverview is the category view for a specific year+month.
type MonthOverview struct {
	Year  int    `json:"year"`
	Month int    `json:"month"` // 1-12
	Label string `json:"label"`
	// ExpensesTotal covers expenses in the month whose category is in the table.
	ExpensesTotal decimal.Decimal `json:"expensesTotal"`
	// Uncategorized covers expenses in the month with an unknown category key.
	Uncategorized decimal.Decimal `json:"uncategorized"`
	Categories    []CategoryTotal `json:"categories"`
}

// Summary is recomputed on every load and never persisted.
type Summary struct {
	Transactions []DisplayTransaction `json:"transactions"`
	Highlights   Highlights           `json:"highlights"`
	Overview     MonthOverview        `json:"overview"`
}
