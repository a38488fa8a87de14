// Package export turns fetched transactions into the final CSV and XLSX
// files and runs the cleanup pass over them.
//
// Columns, in order:
//
//	sellerCountry, sellBy, itemCode, quantity, moneyPerUnit,
//	buyerCountry, buyerBy, totalMoney, updatedAt
//
// Missing values are written as empty CSV fields and blank XLSX cells.
package export
