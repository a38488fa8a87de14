// Package transactions fetches trading transactions page by page.
package transactions

import "encoding/json"

// Transaction is one trade event as returned by the API. Fields the exporter
// does not use are dropped on decode. Empty strings mean the API sent null
// or omitted the field.
type Transaction struct {
	SellerID        string `json:"sellerId"`
	BuyerID         string `json:"buyerId"`
	SellerCountryID string `json:"sellerCountryId"`
	BuyerCountryID  string `json:"buyerCountryId"`
	ItemCode        string `json:"itemCode"`

	// Quantity and Money are kept raw: the API may send numbers, numeric
	// strings or null, and coercion rules belong to the export step.
	Quantity json.RawMessage `json:"quantity"`
	Money    json.RawMessage `json:"money"`

	UpdatedAt string `json:"updatedAt"`
}

// Collection is the ordered result of a fetch, in API arrival order.
type Collection []Transaction

// UserIDs returns the distinct non-empty seller and buyer IDs in first-seen order.
func UserIDs(c Collection) []string {
	return uniqueIDs(c, func(t Transaction) (string, string) { return t.SellerID, t.BuyerID })
}

// CountryIDs returns the distinct non-empty seller and buyer country IDs in
// first-seen order.
func CountryIDs(c Collection) []string {
	return uniqueIDs(c, func(t Transaction) (string, string) { return t.SellerCountryID, t.BuyerCountryID })
}

func uniqueIDs(c Collection, pick func(Transaction) (string, string)) []string {
	seen := make(map[string]struct{}, len(c))
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, t := range c {
		a, b := pick(t)
		add(a)
		add(b)
	}
	return ids
}
