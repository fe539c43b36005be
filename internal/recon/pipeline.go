package recon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hfarag/ledgerscan/internal/extract"
	"github.com/hfarag/ledgerscan/internal/ledger"
	"github.com/hfarag/ledgerscan/internal/recognize"
)

// Input is one invoice submitted for reconciliation.
type Input struct {
	ID          string
	SourceName  string
	Filename    string
	ContentType string
	Image       []byte
}

// itemEvent is a single state change for one item. All mutations of the item
// set flow through these events so that exactly one goroutine (the
// dispatcher) touches item state, regardless of how many recognition calls
// are in flight.
type itemEvent struct {
	id    string
	kind  eventKind
	pct   int
	text  string
	cand  *extract.Candidate
	match *ledger.Entry
	err   error
}

type eventKind int

const (
	eventStarted eventKind = iota
	eventProgress
	eventDone
	eventError
)

// Pipeline runs invoices through recognition, extraction and matching. Items
// keep their submission order; one recognition call is in flight per item,
// scheduled over a bounded worker pool. Extraction and matching are
// synchronous pure computations performed by the worker once recognition
// returns.
type Pipeline struct {
	engine  recognize.Engine
	workers chan struct{}

	mu    sync.RWMutex
	items []*Item
	byID  map[string]*Item

	events     chan itemEvent
	dispatched sync.WaitGroup // open workers, gates closing events
	pending    sync.WaitGroup // non-terminal items, gates Wait
	done       chan struct{}

	timeSource TimeSource
	onTerminal func(Item)
}

// NewPipeline creates a pipeline running at most workers recognition calls
// concurrently.
func NewPipeline(engine recognize.Engine, workers int) *Pipeline {
	return NewPipelineWithDeps(engine, workers, &defaultTimeSource{})
}

// NewPipelineWithDeps creates a pipeline with a custom time source for
// testing.
func NewPipelineWithDeps(engine recognize.Engine, workers int, timeSource TimeSource) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{
		engine:     engine,
		workers:    make(chan struct{}, workers),
		byID:       make(map[string]*Item),
		events:     make(chan itemEvent),
		done:       make(chan struct{}),
		timeSource: timeSource,
	}
	go p.dispatch()
	return p
}

// OnTerminal registers a hook invoked with a copy of each item as it reaches
// a terminal state. Must be set before the first Submit.
func (p *Pipeline) OnTerminal(hook func(Item)) {
	p.onTerminal = hook
}

// Submit appends one Queued item per input, in input order, and schedules
// them. The ledger slice is treated as an immutable snapshot for the whole
// batch; callers must not mutate it until the batch reaches terminal states.
// Returns the item IDs in submission order.
func (p *Pipeline) Submit(ctx context.Context, entries []ledger.Entry, inputs []Input) []string {
	now := p.timeSource.Now()

	ids := make([]string, 0, len(inputs))
	p.mu.Lock()
	for _, in := range inputs {
		item := &Item{
			ID:          in.ID,
			SourceName:  in.SourceName,
			Filename:    in.Filename,
			ContentType: in.ContentType,
			Status:      StatusQueued,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		p.items = append(p.items, item)
		p.byID[item.ID] = item
		ids = append(ids, item.ID)
	}
	p.mu.Unlock()

	for _, in := range inputs {
		p.pending.Add(1)
		p.dispatched.Add(1)
		go p.process(ctx, entries, in)
	}
	return ids
}

// process runs one item start to finish: acquire a worker slot, recognize,
// extract, match. Only events leave this goroutine; it never touches item
// state directly.
func (p *Pipeline) process(ctx context.Context, entries []ledger.Entry, in Input) {
	defer p.dispatched.Done()

	p.workers <- struct{}{}
	defer func() { <-p.workers }()

	p.events <- itemEvent{id: in.ID, kind: eventStarted}

	text, err := p.engine.Recognize(ctx, in.Image, in.ContentType, func(percent int) {
		p.events <- itemEvent{id: in.ID, kind: eventProgress, pct: percent}
	})
	if err != nil {
		slog.Error("Recognition failed", "item", in.ID, "source", in.SourceName, "error", err)
		p.events <- itemEvent{id: in.ID, kind: eventError, err: err}
		return
	}

	candidate := extract.BuildCandidate(text)
	_, entry := Match(candidate, entries)

	p.events <- itemEvent{
		id:    in.ID,
		kind:  eventDone,
		text:  text,
		cand:  &candidate,
		match: entry,
	}
}

// dispatch is the single owner of item mutations. It enforces the state
// machine: Queued->Processing, monotonic progress while Processing, and
// immutable terminal states.
func (p *Pipeline) dispatch() {
	defer close(p.done)
	for ev := range p.events {
		p.apply(ev)
	}
}

func (p *Pipeline) apply(ev itemEvent) {
	var terminal *Item

	p.mu.Lock()
	item, ok := p.byID[ev.id]
	if !ok || item.Status.Terminal() {
		p.mu.Unlock()
		return
	}

	switch ev.kind {
	case eventStarted:
		if item.Status == StatusQueued {
			item.Status = StatusProcessing
			item.UpdatedAt = p.timeSource.Now()
		}
	case eventProgress:
		if item.Status == StatusProcessing && ev.pct > item.Progress && ev.pct <= 100 {
			item.Progress = ev.pct
			item.UpdatedAt = p.timeSource.Now()
		}
	case eventDone:
		matched := ev.match != nil
		item.Status = StatusDone
		item.Progress = 100
		item.RawText = ev.text
		item.Candidate = ev.cand
		item.Matched = &matched
		item.MatchedEntry = ev.match
		item.UpdatedAt = p.timeSource.Now()
		terminal = item
	case eventError:
		item.Status = StatusError
		item.Progress = 0
		item.Error = ev.err.Error()
		item.UpdatedAt = p.timeSource.Now()
		terminal = item
	}

	var snapshot Item
	if terminal != nil {
		snapshot = *terminal
	}
	p.mu.Unlock()

	if terminal != nil {
		if p.onTerminal != nil {
			p.onTerminal(snapshot)
		}
		p.pending.Done()
	}
}

// Restore appends previously persisted terminal items, preserving the order
// given. Non-terminal persisted items are skipped; they belong to an
// interrupted run and cannot be resumed.
func (p *Pipeline) Restore(items []Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range items {
		if !it.Status.Terminal() {
			continue
		}
		item := it
		p.items = append(p.items, &item)
		p.byID[item.ID] = &item
	}
}

// Items returns a snapshot of all items in submission order.
func (p *Pipeline) Items() []Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Item, 0, len(p.items))
	for _, it := range p.items {
		out = append(out, *it)
	}
	return out
}

// Item returns a snapshot of one item.
func (p *Pipeline) Item(id string) (Item, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	it, ok := p.byID[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// InFlight reports the number of items not yet in a terminal state.
func (p *Pipeline) InFlight() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, it := range p.items {
		if !it.Status.Terminal() {
			n++
		}
	}
	return n
}

// Summary derives the aggregate counters from the current item set.
func (p *Pipeline) Summary() Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Summary{Total: len(p.items)}
	for _, it := range p.items {
		switch it.Status {
		case StatusQueued:
			s.Queued++
		case StatusProcessing:
			s.Processing++
		case StatusError:
			s.Errors++
		case StatusDone:
			if it.Matched != nil && *it.Matched {
				s.Matched++
			} else {
				s.Unmatched++
			}
		}
	}
	return s
}

// Wait blocks until every submitted item has reached a terminal state.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Close waits for in-flight work and stops the dispatcher. The pipeline must
// not be used afterwards.
func (p *Pipeline) Close() {
	p.dispatched.Wait()
	close(p.events)
	<-p.done
}
