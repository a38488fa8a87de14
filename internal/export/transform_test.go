package export

import (
	"encoding/json"
	"testing"

	"github.com/Sternrassler/warera-trades/internal/transactions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type names map[string]string

func (n names) Lookup(id string) (string, bool) {
	v, ok := n[id]
	return v, ok
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

var (
	testUsers     = names{"A": "alice", "B": "bob"}
	testCountries = names{"X": "Chile", "Y": "Peru"}
)

func TestTransform_Scenario(t *testing.T) {
	c := transactions.Collection{
		{SellerID: "A", BuyerID: "B", SellerCountryID: "X", BuyerCountryID: "Y", ItemCode: "iron",
			Quantity: raw(`4`), Money: raw(`100`), UpdatedAt: "2025-06-01T12:34:56.000Z"},
		{SellerID: "B", BuyerID: "A", SellerCountryID: "Y", BuyerCountryID: "X", ItemCode: "grain",
			Quantity: raw(`0`), Money: raw(`"50"`), UpdatedAt: "2025-06-02T08:05:00Z"},
		{SellerID: "A", BuyerID: "Z", SellerCountryID: "X", BuyerCountryID: "Q", ItemCode: "steel",
			Quantity: raw(`null`), Money: raw(`7.5`), UpdatedAt: "2025-12-31T23:59:00+02:00"},
	}

	rows, err := Transform(c, testUsers, testCountries)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{
		SellerCountry: "Chile", SellBy: "alice", ItemCode: "iron",
		Quantity: Num(4), MoneyPerUnit: Num(25), BuyerCountry: "Peru", BuyerBy: "bob",
		TotalMoney: Num(100), UpdatedAt: "01/06/2025 12:34",
	}, rows[0])

	assert.False(t, rows[1].MoneyPerUnit.Valid, "zero quantity must give a missing per-unit value")
	assert.Equal(t, Num(50), rows[1].TotalMoney)
	assert.Equal(t, "02/06/2025 08:05", rows[1].UpdatedAt)

	assert.False(t, rows[2].Quantity.Valid)
	assert.False(t, rows[2].MoneyPerUnit.Valid)
	assert.Equal(t, "", rows[2].BuyerBy, "unknown user id must be missing")
	assert.Equal(t, "", rows[2].BuyerCountry, "unknown country id must be missing")
	assert.Equal(t, "31/12/2025 23:59", rows[2].UpdatedAt, "offset of the timestamp is kept")
}

func TestTransform_QuantityCoercion(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		want     Number
	}{
		{"number", `3`, Num(3)},
		{"numeric string", `"2.5"`, Num(2.5)},
		{"garbage string", `"lots"`, Number{}},
		{"empty string", `""`, Number{}},
		{"null", `null`, Number{}},
		{"absent", ``, Number{}},
		{"bool", `true`, Number{}},
		{"nan string", `"NaN"`, Number{}},
		{"inf string", `"Inf"`, Number{}},
		{"negative infinity string", `"-Infinity"`, Number{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := transactions.Collection{{Quantity: raw(tt.quantity), Money: raw(`10`)}}
			rows, err := Transform(c, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows[0].Quantity)
		})
	}
}

func TestTransform_MissingMoney(t *testing.T) {
	c := transactions.Collection{{Quantity: raw(`2`), Money: raw(`null`)}}

	rows, err := Transform(c, nil, nil)
	require.NoError(t, err)
	assert.False(t, rows[0].TotalMoney.Valid)
	assert.False(t, rows[0].MoneyPerUnit.Valid)
}

func TestTransform_InvalidMoneyIsFatal(t *testing.T) {
	for _, money := range []string{`"ten"`, `"NaN"`, `"Infinity"`, `"-inf"`} {
		c := transactions.Collection{{Quantity: raw(`2`), Money: raw(money)}}

		_, err := Transform(c, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidMoney, money)
	}
}

func TestTransform_NonFiniteQuantityLeavesCellsEmpty(t *testing.T) {
	c := transactions.Collection{{Quantity: raw(`"NaN"`), Money: raw(`10`)}}

	rows, err := Transform(c, nil, nil)
	require.NoError(t, err)
	record := rows[0].Record()
	assert.Equal(t, "", record[3], "quantity")
	assert.Equal(t, "", record[4], "moneyPerUnit")
	assert.Equal(t, "10.0000", record[7])
	assert.Nil(t, rows[0].Cells()[3])
	assert.Nil(t, rows[0].Cells()[4])
}

func TestTransform_InvalidTimestampIsFatal(t *testing.T) {
	c := transactions.Collection{{Money: raw(`1`), UpdatedAt: "yesterday"}}

	_, err := Transform(c, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestTransform_Empty(t *testing.T) {
	rows, err := Transform(nil, testUsers, testCountries)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFormatTimestamp(t *testing.T) {
	tests := map[string]string{
		"2025-06-01T12:34:56.789Z":  "01/06/2025 12:34",
		"2025-06-01T12:34:56-04:00": "01/06/2025 12:34",
		"2025-06-01T07:00:00":       "01/06/2025 07:00",
		"2025-06-01":                "01/06/2025 00:00",
		"":                          "",
	}

	for in, want := range tests {
		got, err := FormatTimestamp(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestRow_Record(t *testing.T) {
	r := Row{
		SellerCountry: "Chile", SellBy: "alice", ItemCode: "iron",
		Quantity: Num(4), MoneyPerUnit: Num(2.5), TotalMoney: Num(10),
		UpdatedAt: "01/06/2025 12:34",
	}

	assert.Equal(t,
		[]string{"Chile", "alice", "iron", "4", "2.5000", "", "", "10.0000", "01/06/2025 12:34"},
		r.Record())
	assert.Equal(t, "2.5000", Num(2.5).csv(true), "fractional quantity keeps decimals")
}
