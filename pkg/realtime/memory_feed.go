package realtime

import (
	"context"
	"fmt"
	"sync"
)

// MemoryFeed dispatches changes synchronously to in-process subscribers.
type MemoryFeed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]memorySub
}

type memorySub struct {
	filter  Filter
	handler Handler
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[int]memorySub)}
}

func (f *MemoryFeed) Subscribe(ctx context.Context, filter Filter, handler Handler) (Unsubscribe, error) {
	if filter.Table == "" {
		return nil, fmt.Errorf("filter has no table")
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = memorySub{filter: filter, handler: handler}
	f.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		unsub()
	}()

	return unsub, nil
}

func (f *MemoryFeed) Publish(_ context.Context, change Change) error {
	f.mu.RLock()
	matched := make([]Handler, 0, len(f.subs))
	for _, s := range f.subs {
		if s.filter.Matches(change) {
			matched = append(matched, s.handler)
		}
	}
	f.mu.RUnlock()

	for _, h := range matched {
		h(change)
	}
	return nil
}

// Subscribers reports how many subscriptions are live.
func (f *MemoryFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
