// Package ledger holds the reference sales transactions that candidate
// records are reconciled against. Entries are normalized at load time and
// treated as read-only afterwards.
package ledger

import "time"

// Entry is one reference sales transaction. Date is optional; Product is
// required (rows without one are dropped during ingestion).
type Entry struct {
	Date    *time.Time `json:"date,omitempty"`
	Product string     `json:"product"`
	Qty     float64    `json:"qty"`
	Price   float64    `json:"price"`
	Revenue float64    `json:"revenue"`
	Region  string     `json:"region"`
}
