package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Positive TransactionType = "positive"
	Negative TransactionType = "negative"
)

const (
	Entry Kind = iota
	Expense
)

type (
	// TransactionType is the stored sign of a transaction.
	TransactionType string

	// Kind is the partition a transaction falls into for aggregation.
	Kind int

	// Transaction is the record persisted per user. Amount and Date are kept
	// as the raw text the client wrote; use ParseAmount and ParseDate to read them.
	Transaction struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Amount   string          `json:"amount"`
		Type     TransactionType `json:"type"`
		Category string          `json:"category"`
		Date     string          `json:"date"`
	}

	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Photo string `json:"photo,omitempty"`
	}

	Category struct {
		Key   string `json:"key"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long (max 200 characters)")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyUserID     = errors.New("empty user id")
)

// Categories is the fixed category table, in display order.
var Categories = []Category{
	{Key: "purchases", Name: "Compras", Color: "#5636D3"},
	{Key: "food", Name: "Alimentação", Color: "#FF872C"},
	{Key: "salary", Name: "Salário", Color: "#12A454"},
	{Key: "car", Name: "Carro", Color: "#E83F5B"},
	{Key: "leisure", Name: "Lazer", Color: "#26195C"},
	{Key: "studies", Name: "Estudos", Color: "#9C001A"},
}

// LookupCategory returns the table entry for key.
func LookupCategory(key string) (Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// UnmarshalJSON also accepts a numeric amount, which some clients write
// instead of text.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var aux struct {
		plain
		Amount json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Transaction(aux.plain)

	raw := bytes.TrimSpace(aux.Amount)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		t.Amount = ""
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &t.Amount); err != nil {
			return err
		}
	default:
		t.Amount = string(raw)
	}
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Positive || t == Negative
}

// Kind partitions the transaction. Only "positive" counts as an entry;
// "negative" and any unrecognised type are expenses.
func (t Transaction) Kind() Kind {
	if t.Type == Positive {
		return Entry
	}
	return Expense
}

// Time returns the stored date in loc, or false when it is malformed.
// Timestamps are converted to loc; plain dates are read as that calendar
// day in loc.
func (t Transaction) Time(loc *time.Location) (time.Time, bool) {
	d, err := ParseDateIn(t.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Validate checks a transaction before it is appended to a user's list.
func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Name)) == 0 {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return ErrNameTooLong
	}
	amount, err := ParseAmountStrict(t.Amount)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if _, ok := LookupCategory(t.Category); !ok {
		return ErrUnknownCategory
	}
	if _, err := ParseDate(t.Date); err != nil {
		return err
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyUserID
	}
	return nil
}

// IsZero reports whether no user is signed in.
func (u User) IsZero() bool {
	return u.ID == ""
}

// ParseDate accepts RFC 3339 timestamps (what clients store) and plain
// YYYY-MM-DD dates, the latter at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, time.UTC)
}

// ParseDateIn is ParseDate with plain dates taken as midnight in loc and
// timestamps converted to loc. A nil loc means UTC.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}
