package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/megastore/catalog-search/pkg/kafka"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	fail    bool
}

func (f *fakePublisher) PublishBatch(ctx context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	batch := make([]kafka.Event, len(events))
	copy(batch, events)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakePublisher) published() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestTrackBuffersUntilBatchSize(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 10, time.Hour)

	for i := 0; i < 5; i++ {
		c.Track(QueryEvent{Type: EventSearch, Query: "shoe"})
	}
	if got := c.BufferLen(); got != 5 {
		t.Errorf("BufferLen = %d, want 5", got)
	}
	if got := pub.published(); got != 0 {
		t.Errorf("published %d events before batch size reached, want 0", got)
	}
}

func TestTrackFlushesAtBatchSize(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 3, time.Hour)

	for i := 0; i < 3; i++ {
		c.Track(QueryEvent{Type: EventSearch, Query: "shoe"})
	}

	deadline := time.Now().Add(2 * time.Second)
	for pub.published() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := pub.published(); got != 3 {
		t.Errorf("published = %d, want 3", got)
	}
	if got := c.BufferLen(); got != 0 {
		t.Errorf("BufferLen = %d after flush, want 0", got)
	}
}

func TestStartFlushesOnShutdown(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 100, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.Track(QueryEvent{Type: EventSuggest, Query: "re"})
	c.Track(QueryEvent{Type: EventRelated, ProductID: 7})

	cancel()
	c.Close()

	if got := pub.published(); got != 2 {
		t.Errorf("published = %d after shutdown flush, want 2", got)
	}
}

func TestFlushFailureRequeues(t *testing.T) {
	pub := &fakePublisher{fail: true}
	c := NewCollector(pub, 2, time.Hour)

	c.Track(QueryEvent{Type: EventSearch, Query: "a"})
	c.Track(QueryEvent{Type: EventSearch, Query: "b"})

	deadline := time.Now().Add(2 * time.Second)
	for c.BufferLen() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := c.BufferLen(); got != 2 {
		t.Errorf("BufferLen = %d after failed flush, want 2 requeued", got)
	}

	pub.mu.Lock()
	pub.fail = false
	pub.mu.Unlock()

	c.Track(QueryEvent{Type: EventSearch, Query: "c"})
	deadline = time.Now().Add(2 * time.Second)
	for pub.published() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := pub.published(); got != 3 {
		t.Errorf("published = %d after recovery, want 3", got)
	}
}

func TestFlushOverflowDropsOldestEvents(t *testing.T) {
	pub := &fakePublisher{fail: true}
	c := NewCollector(pub, 2, time.Hour)

	for i := 0; i < 10; i++ {
		c.buffer = append(c.buffer, kafka.Event{
			Key:   string(EventSearch),
			Value: QueryEvent{Type: EventSearch, Query: fmt.Sprintf("q%d", i)},
		})
	}
	c.flush(context.Background())

	if got := len(c.buffer); got != 6 {
		t.Fatalf("buffer len = %d after overflow, want bound of 6", got)
	}
	first := c.buffer[0].Value.(QueryEvent)
	last := c.buffer[len(c.buffer)-1].Value.(QueryEvent)
	if first.Query != "q4" || last.Query != "q9" {
		t.Errorf("buffer spans %s..%s, want q4..q9 with the oldest dropped", first.Query, last.Query)
	}
}

func TestFlushFailureBoundsBuffer(t *testing.T) {
	pub := &fakePublisher{fail: true}
	c := NewCollector(pub, 2, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	for i := 0; i < 20; i++ {
		c.Track(QueryEvent{Type: EventSearch, Query: "x"})
		time.Sleep(time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.BufferLen() > 6 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := c.BufferLen(); got > 6 {
		t.Errorf("BufferLen = %d, want at most 3x batch size (6)", got)
	}
}
