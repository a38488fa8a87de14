package export

import (
	"math"
	"strconv"
)

// Columns is the fixed header of both export files.
var Columns = []string{
	"sellerCountry",
	"sellBy",
	"itemCode",
	"quantity",
	"moneyPerUnit",
	"buyerCountry",
	"buyerBy",
	"totalMoney",
	"updatedAt",
}

// Number is a numeric cell that may be missing.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// csv renders the cell with four decimals; integral values use no decimals
// when asInt is set.
func (n Number) csv(asInt bool) string {
	if !n.Valid {
		return ""
	}
	if asInt && n.Value == math.Trunc(n.Value) && math.Abs(n.Value) < 1e15 {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return strconv.FormatFloat(n.Value, 'f', 4, 64)
}

func (n Number) cell() any {
	if !n.Valid {
		return nil
	}
	return n.Value
}

// Row is one exported transaction. Empty strings are missing values.
type Row struct {
	SellerCountry string
	SellBy        string
	ItemCode      string
	Quantity      Number
	MoneyPerUnit  Number
	BuyerCountry  string
	BuyerBy       string
	TotalMoney    Number
	UpdatedAt     string
}

// Record returns the CSV fields of r in Columns order.
func (r Row) Record() []string {
	return []string{
		r.SellerCountry,
		r.SellBy,
		r.ItemCode,
		r.Quantity.csv(true),
		r.MoneyPerUnit.csv(false),
		r.BuyerCountry,
		r.BuyerBy,
		r.TotalMoney.csv(false),
		r.UpdatedAt,
	}
}

// Cells returns the XLSX cell values of r in Columns order; nil is blank.
func (r Row) Cells() []any {
	return []any{
		text(r.SellerCountry),
		text(r.SellBy),
		text(r.ItemCode),
		r.Quantity.cell(),
		r.MoneyPerUnit.cell(),
		text(r.BuyerCountry),
		text(r.BuyerBy),
		r.TotalMoney.cell(),
		text(r.UpdatedAt),
	}
}

func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}
