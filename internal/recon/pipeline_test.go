package recon

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hfarag/ledgerscan/internal/ledger"
	"github.com/hfarag/ledgerscan/internal/recognize"
)

// mockEngine returns canned text keyed by content type, or an error when the
// key is present in failures. It reports the progress steps it is given.
type mockEngine struct {
	mu        sync.Mutex
	texts     map[string]string
	failures  map[string]error
	progress  []int
	calls     int
	blockCh   chan struct{}
	closeErr  error
	closeDone bool
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		texts:    map[string]string{},
		failures: map[string]error{},
	}
}

func (m *mockEngine) Recognize(ctx context.Context, image []byte, contentType string, onProgress recognize.ProgressFunc) (string, error) {
	m.mu.Lock()
	m.calls++
	block := m.blockCh
	failure := m.failures[string(image)]
	text := m.texts[string(image)]
	steps := m.progress
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	for _, pct := range steps {
		if onProgress != nil {
			onProgress(pct)
		}
	}
	if failure != nil {
		return "", failure
	}
	return text, nil
}

func (m *mockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeDone = true
	return m.closeErr
}

func (m *mockEngine) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ = Describe("Pipeline", func() {
	var (
		engine   *mockEngine
		pipeline *Pipeline
		entries  []ledger.Entry
	)

	BeforeEach(func() {
		engine = newMockEngine()
		entries = []ledger.Entry{
			{Product: "Olive Oil 1L", Price: 100, Revenue: 300},
		}
	})

	JustBeforeEach(func() {
		pipeline = NewPipeline(engine, 2)
	})

	AfterEach(func() {
		pipeline.Close()
	})

	submit := func(inputs ...Input) []string {
		return pipeline.Submit(context.Background(), entries, inputs)
	}

	Describe("a single invoice", func() {
		BeforeEach(func() {
			engine.texts["img-1"] = "Product:\nOlive Oil\nUnit price: 100\nTotal: 300"
		})

		It("reaches Done with the extracted fields and a match", func() {
			ids := submit(Input{ID: "a", SourceName: "a.jpg", Image: []byte("img-1")})
			pipeline.Wait()

			item, ok := pipeline.Item(ids[0])
			Expect(ok).To(BeTrue())
			Expect(item.Status).To(Equal(StatusDone))
			Expect(item.Progress).To(Equal(100))
			Expect(item.RawText).To(Equal("Product:\nOlive Oil\nUnit price: 100\nTotal: 300"))
			Expect(item.Candidate).NotTo(BeNil())
			Expect(item.Candidate.Product).To(Equal("Olive Oil"))
			Expect(item.Matched).NotTo(BeNil())
			Expect(*item.Matched).To(BeTrue())
			Expect(item.MatchedEntry).NotTo(BeNil())
			Expect(item.MatchedEntry.Product).To(Equal("Olive Oil 1L"))
		})

		When("nothing in the ledger matches", func() {
			BeforeEach(func() {
				engine.texts["img-1"] = "Product:\nGreen Tea\nTotal: 5"
			})

			It("finishes Done but unmatched", func() {
				ids := submit(Input{ID: "a", Image: []byte("img-1")})
				pipeline.Wait()

				item, _ := pipeline.Item(ids[0])
				Expect(item.Status).To(Equal(StatusDone))
				Expect(*item.Matched).To(BeFalse())
				Expect(item.MatchedEntry).To(BeNil())
			})
		})

		When("recognition reports progress", func() {
			BeforeEach(func() {
				engine.progress = []int{10, 30, 50, 90}
			})

			It("ends at 100 regardless of the last reported step", func() {
				ids := submit(Input{ID: "a", Image: []byte("img-1")})
				pipeline.Wait()

				item, _ := pipeline.Item(ids[0])
				Expect(item.Progress).To(Equal(100))
			})
		})
	})

	Describe("a failing invoice", func() {
		BeforeEach(func() {
			engine.failures["bad"] = fmt.Errorf("vision api unavailable")
			engine.texts["good"] = "Olive Oil"
		})

		It("enters Error with progress reset to zero", func() {
			ids := submit(Input{ID: "a", Image: []byte("bad")})
			pipeline.Wait()

			item, _ := pipeline.Item(ids[0])
			Expect(item.Status).To(Equal(StatusError))
			Expect(item.Progress).To(Equal(0))
			Expect(item.Error).To(ContainSubstring("vision api unavailable"))
			Expect(item.Matched).To(BeNil())
		})

		It("does not disturb the other items in the batch", func() {
			ids := submit(
				Input{ID: "a", Image: []byte("good")},
				Input{ID: "b", Image: []byte("bad")},
				Input{ID: "c", Image: []byte("good")},
			)
			pipeline.Wait()

			first, _ := pipeline.Item(ids[0])
			second, _ := pipeline.Item(ids[1])
			third, _ := pipeline.Item(ids[2])
			Expect(first.Status).To(Equal(StatusDone))
			Expect(second.Status).To(Equal(StatusError))
			Expect(third.Status).To(Equal(StatusDone))
		})
	})

	Describe("submission order", func() {
		It("lists items in the order they were submitted", func() {
			submit(
				Input{ID: "first", Image: []byte("x")},
				Input{ID: "second", Image: []byte("y")},
				Input{ID: "third", Image: []byte("z")},
			)
			pipeline.Wait()

			items := pipeline.Items()
			Expect(items).To(HaveLen(3))
			Expect(items[0].ID).To(Equal("first"))
			Expect(items[1].ID).To(Equal("second"))
			Expect(items[2].ID).To(Equal("third"))
		})
	})

	Describe("state integrity", func() {
		It("keeps the summary counters summing to the item total", func() {
			engine.failures["bad"] = fmt.Errorf("boom")
			engine.texts["match"] = "Olive Oil"
			engine.texts["miss"] = "Green Tea"

			submit(
				Input{ID: "a", Image: []byte("match")},
				Input{ID: "b", Image: []byte("miss")},
				Input{ID: "c", Image: []byte("bad")},
			)
			pipeline.Wait()

			s := pipeline.Summary()
			Expect(s.Total).To(Equal(3))
			Expect(s.Queued + s.Processing + s.Matched + s.Unmatched + s.Errors).To(Equal(s.Total))
			Expect(s.Matched).To(Equal(1))
			Expect(s.Unmatched).To(Equal(1))
			Expect(s.Errors).To(Equal(1))
		})

		It("counts blocked items as in flight", func() {
			engine.blockCh = make(chan struct{})

			submit(Input{ID: "a", Image: []byte("x")})
			Expect(pipeline.InFlight()).To(Equal(1))

			close(engine.blockCh)
			pipeline.Wait()
			Expect(pipeline.InFlight()).To(Equal(0))
		})
	})

	Describe("worker pool", func() {
		It("runs every item even when the batch exceeds the pool size", func() {
			inputs := make([]Input, 10)
			for i := range inputs {
				inputs[i] = Input{ID: fmt.Sprintf("item-%d", i), Image: []byte("x")}
			}

			submit(inputs...)
			pipeline.Wait()

			Expect(engine.callCount()).To(Equal(10))
			for _, item := range pipeline.Items() {
				Expect(item.Status.Terminal()).To(BeTrue())
			}
		})
	})

	Describe("terminal states", func() {
		It("ignores events arriving after the item finished", func() {
			engine.texts["img-1"] = "Olive Oil"
			ids := submit(Input{ID: "a", Image: []byte("img-1")})
			pipeline.Wait()

			// A straggler progress event for a finished item must be a no-op
			pipeline.events <- itemEvent{id: ids[0], kind: eventProgress, pct: 55}

			Consistently(func() int {
				item, _ := pipeline.Item(ids[0])
				return item.Progress
			}, "100ms", "10ms").Should(Equal(100))

			item, _ := pipeline.Item(ids[0])
			Expect(item.Status).To(Equal(StatusDone))
		})
	})

	Describe("Restore", func() {
		It("keeps terminal items and drops interrupted ones", func() {
			now := time.Now()
			pipeline.Restore([]Item{
				{ID: "done-1", Status: StatusDone, Progress: 100, CreatedAt: now},
				{ID: "stuck", Status: StatusProcessing, Progress: 50, CreatedAt: now},
				{ID: "err-1", Status: StatusError, CreatedAt: now},
			})

			items := pipeline.Items()
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal("done-1"))
			Expect(items[1].ID).To(Equal("err-1"))
		})
	})

	Describe("OnTerminal", func() {
		It("is called once per item with the terminal snapshot", func() {
			var mu sync.Mutex
			var seen []Item
			pipeline.OnTerminal(func(it Item) {
				mu.Lock()
				seen = append(seen, it)
				mu.Unlock()
			})

			engine.failures["bad"] = fmt.Errorf("boom")
			submit(
				Input{ID: "a", Image: []byte("x")},
				Input{ID: "b", Image: []byte("bad")},
			)
			pipeline.Wait()

			mu.Lock()
			defer mu.Unlock()
			Expect(seen).To(HaveLen(2))
			for _, it := range seen {
				Expect(it.Status.Terminal()).To(BeTrue())
			}
		})
	})
})
