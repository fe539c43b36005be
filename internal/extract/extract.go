// Package extract turns raw recognized invoice text into a structured
// candidate record. All extractors are pure, deterministic and total: a value
// the heuristics cannot find is expressed as an absent field, never as an
// error. Input text may be noisy, bilingual (Arabic/Latin) and garbled.
package extract

import "time"

// Candidate is the structured output of extraction. Every field is
// independently optional; an absent field is meaningful on its own (the
// matcher treats it as non-disqualifying). Product uses the empty string for
// absence since extracted labels are never empty.
type Candidate struct {
	Date    *time.Time `json:"date,omitempty"`
	Amount  *float64   `json:"amount,omitempty"`
	Price   *float64   `json:"price,omitempty"`
	Product string     `json:"product,omitempty"`
}

// BuildCandidate normalizes raw recognized text once and runs the four field
// extractors over it.
func BuildCandidate(raw string) Candidate {
	text := Normalize(raw)

	var c Candidate
	if d, ok := ExtractDate(text); ok {
		c.Date = &d
	}
	if v, ok := ExtractAmount(text); ok {
		c.Amount = &v
	}
	if v, ok := ExtractPrice(text); ok {
		c.Price = &v
	}
	c.Product = ExtractProduct(text)
	return c
}
