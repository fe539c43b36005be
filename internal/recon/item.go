package recon

import (
	"time"

	"github.com/hfarag/ledgerscan/internal/extract"
	"github.com/hfarag/ledgerscan/internal/ledger"
)

// Status is the lifecycle state of an invoice item. Done and Error are
// terminal; an item never leaves a terminal state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Item is one invoice tracked by the pipeline. Matched is tri-state: nil
// until a verdict exists, then true or false. Candidate and MatchedEntry are
// populated together with StatusDone and never mutated afterwards.
type Item struct {
	ID           string             `json:"id"`
	SourceName   string             `json:"source_name"`
	Status       Status             `json:"status"`
	Progress     int                `json:"progress"`
	RawText      string             `json:"raw_text,omitempty"`
	Candidate    *extract.Candidate `json:"candidate,omitempty"`
	Matched      *bool              `json:"matched,omitempty"`
	MatchedEntry *ledger.Entry      `json:"matched_entry,omitempty"`
	Error        string             `json:"error,omitempty"`
	Filename     string             `json:"filename,omitempty"`
	ContentType  string             `json:"content_type,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Summary is the derived batch aggregate; every field is a pure projection
// over the current item set.
type Summary struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
	Errors     int `json:"errors"`
}
