package transactions

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestTransaction_DecodeIgnoresExtraFields(t *testing.T) {
	raw := `{"_id":"t1","sellerId":"A","buyerId":null,"sellerCountryId":"X","buyerCountryId":"Y",
		"itemCode":"iron","quantity":"4","money":100.5,"updatedAt":"2025-06-01T12:34:56.000Z","extra":{"nested":true}}`

	var tx Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if tx.SellerID != "A" || tx.BuyerID != "" {
		t.Errorf("ids = %q/%q", tx.SellerID, tx.BuyerID)
	}
	if string(tx.Quantity) != `"4"` || string(tx.Money) != `100.5` {
		t.Errorf("raw numbers = %s/%s", tx.Quantity, tx.Money)
	}
}

func TestUniqueIDs(t *testing.T) {
	c := Collection{
		{SellerID: "A", BuyerID: "B", SellerCountryID: "X", BuyerCountryID: "Y"},
		{SellerID: "B", BuyerID: "C", SellerCountryID: "Y", BuyerCountryID: "X"},
		{SellerID: "", BuyerID: "A", SellerCountryID: "Z", BuyerCountryID: ""},
	}

	if got := fmt.Sprint(UserIDs(c)); got != "[A B C]" {
		t.Errorf("UserIDs() = %s", got)
	}
	if got := fmt.Sprint(CountryIDs(c)); got != "[X Y Z]" {
		t.Errorf("CountryIDs() = %s", got)
	}
}

func TestUniqueIDs_Empty(t *testing.T) {
	if ids := UserIDs(nil); len(ids) != 0 {
		t.Errorf("UserIDs(nil) = %v", ids)
	}
}
