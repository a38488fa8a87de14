package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/warera-trades/internal/transactions"
)

// TimeLayout is the updatedAt format of the export (DD/MM/YYYY HH:MM).
const TimeLayout = "02/01/2006 15:04"

var (
	// ErrInvalidMoney is returned when a money value is present but not numeric.
	ErrInvalidMoney = errors.New("invalid money value")

	// ErrInvalidTimestamp is returned when updatedAt cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid updatedAt timestamp")
)

// NameSource maps an ID to its resolved name. *resolver.Cache satisfies it.
type NameSource interface {
	Lookup(id string) (string, bool)
}

// timestamp layouts accepted for updatedAt, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Transform derives the export rows from c. Names come from users and
// countries; IDs they do not know become missing cells. Unparsable quantities
// become missing, while unparsable money or timestamps fail the whole
// transform.
func Transform(c transactions.Collection, users, countries NameSource) ([]Row, error) {
	rows := make([]Row, 0, len(c))
	for i, tx := range c {
		money, err := parseNumber(tx.Money)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %v", i, ErrInvalidMoney, err)
		}
		quantity, err := parseNumber(tx.Quantity)
		if err != nil {
			quantity = Number{}
		}

		updated, err := FormatTimestamp(tx.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		rows = append(rows, Row{
			SellerCountry: name(countries, tx.SellerCountryID),
			SellBy:        name(users, tx.SellerID),
			ItemCode:      tx.ItemCode,
			Quantity:      quantity,
			MoneyPerUnit:  perUnit(money, quantity),
			BuyerCountry:  name(countries, tx.BuyerCountryID),
			BuyerBy:       name(users, tx.BuyerID),
			TotalMoney:    money,
			UpdatedAt:     updated,
		})
	}
	return rows, nil
}

func name(src NameSource, id string) string {
	if id == "" || src == nil {
		return ""
	}
	n, _ := src.Lookup(id)
	return n
}

func perUnit(money, quantity Number) Number {
	if !money.Valid || !quantity.Valid || quantity.Value == 0 {
		return Number{}
	}
	return Num(money.Value / quantity.Value)
}

// parseNumber reads a JSON number or numeric string. null, absent and empty
// strings are missing without error; NaN and infinities are errors.
func parseNumber(raw json.RawMessage) (Number, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Number{}, nil
	}

	var s string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &s); err != nil {
			return Number{}, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return Number{}, nil
		}
	default:
		s = string(raw)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}, fmt.Errorf("parse %q: not a finite number", s)
	}
	return Num(v), nil
}

// FormatTimestamp renders an ISO-8601 timestamp as TimeLayout, keeping the
// timestamp's own offset. An empty input is a missing value.
func FormatTimestamp(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
