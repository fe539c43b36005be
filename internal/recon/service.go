package recon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hfarag/ledgerscan/internal/ledger"
)

// IDGenerator generates unique IDs for invoice items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Upload is one invoice file received from the caller.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service ties the reconciliation pipeline to persistence and file storage
// and owns the current ledger snapshot.
type Service struct {
	db          DB
	storage     Storage
	pipeline    *Pipeline
	idGenerator IDGenerator

	ledgerMu sync.RWMutex
	entries  []ledger.Entry
}

// NewService creates a new Service with a default ID generator
func NewService(db DB, storage Storage, pipeline *Pipeline) *Service {
	return NewServiceWithDeps(db, storage, pipeline, &defaultIDGenerator{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, pipeline *Pipeline, idGen IDGenerator) *Service {
	s := &Service{
		db:          db,
		storage:     storage,
		pipeline:    pipeline,
		idGenerator: idGen,
	}
	pipeline.OnTerminal(s.persistItem)
	return s
}

// persistItem saves an item that reached a terminal state. Persistence
// failures are logged, not propagated; the in-memory state stays
// authoritative for the running process.
func (s *Service) persistItem(item Item) {
	if err := s.db.SaveItem(&item); err != nil {
		slog.Error("Failed to persist item", "item", item.ID, "error", err)
	}
}

// RestoreState reloads the persisted ledger and finished items, typically at
// startup.
func (s *Service) RestoreState() error {
	entries, err := s.db.LoadLedger()
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	s.ledgerMu.Lock()
	s.entries = entries
	s.ledgerMu.Unlock()

	items, err := s.db.ListItems()
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	s.pipeline.Restore(items)

	slog.Info("State restored", "ledger_entries", len(entries), "items", len(items))
	return nil
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "invoice"
	}

	return base + ext
}

// SubmitInvoices stores the uploaded files and submits them to the pipeline
// as one batch against a snapshot of the current ledger. Returns the created
// item IDs in submission order.
func (s *Service) SubmitInvoices(ctx context.Context, uploads []Upload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("at least one file is required")
	}

	snapshot := s.Ledger()

	inputs := make([]Input, 0, len(uploads))
	for _, up := range uploads {
		id := s.idGenerator.Generate()
		cleanFilename := sanitizeFilename(up.Filename)

		savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), up.Data)
		if err != nil {
			// Roll back files already stored for this batch
			for _, in := range inputs {
				s.storage.Delete(in.Filename)
			}
			return nil, fmt.Errorf("saving file: %w", err)
		}

		inputs = append(inputs, Input{
			ID:          id,
			SourceName:  up.Filename,
			Filename:    savedPath,
			ContentType: up.ContentType,
			Image:       up.Data,
		})
	}

	return s.pipeline.Submit(ctx, snapshot, inputs), nil
}

// ReplaceLedger loads a new reference ledger from CSV and persists it. The
// ledger may not be replaced while a batch is in flight; items already
// submitted keep reconciling against the snapshot they were given.
func (s *Service) ReplaceLedger(r io.Reader) (int, error) {
	if n := s.pipeline.InFlight(); n > 0 {
		return 0, fmt.Errorf("%d invoices still processing; ledger cannot be replaced mid-batch", n)
	}

	entries, err := ledger.LoadCSV(r)
	if err != nil {
		return 0, fmt.Errorf("loading ledger csv: %w", err)
	}

	if err := s.db.SaveLedger(entries); err != nil {
		return 0, fmt.Errorf("saving ledger: %w", err)
	}

	s.ledgerMu.Lock()
	s.entries = entries
	s.ledgerMu.Unlock()

	slog.Info("Ledger replaced", "entries", len(entries))
	return len(entries), nil
}

// Ledger returns a copy of the current ledger snapshot.
func (s *Service) Ledger() []ledger.Entry {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()
	out := make([]ledger.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Items returns all tracked items in submission order.
func (s *Service) Items() []Item {
	return s.pipeline.Items()
}

// Item returns one item by ID.
func (s *Service) Item(id string) (Item, error) {
	item, ok := s.pipeline.Item(id)
	if !ok {
		return Item{}, fmt.Errorf("item not found: %s", id)
	}
	return item, nil
}

// ItemFile returns the original uploaded file for an item.
func (s *Service) ItemFile(id string) ([]byte, string, error) {
	item, ok := s.pipeline.Item(id)
	if !ok {
		return nil, "", fmt.Errorf("item not found: %s", id)
	}

	data, err := s.storage.Get(item.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting item file: %w", err)
	}

	return data, item.ContentType, nil
}

// Summary returns the derived batch counters.
func (s *Service) Summary() Summary {
	return s.pipeline.Summary()
}
