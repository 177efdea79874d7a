// Package messagingtest provides an in-process Broker for tests that need
// broker semantics without a redis server.
package messagingtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jwalitptl/vetbook-api/pkg/messaging"
)

var ErrClosed = errors.New("broker closed")

type subscription struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*subscription]struct{})}
}

var _ messaging.Broker = (*Broker)(nil)

func (b *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	var payload []byte
	switch m := message.(type) {
	case []byte:
		payload = m
	case json.RawMessage:
		payload = m
	default:
		var err error
		payload, err = json.Marshal(message)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for sub := range b.subs[channel] {
		select {
		case sub.ch <- payload:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := &subscription{ch: make(chan []byte, 100), done: make(chan struct{})}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*subscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(channel, sub)
	}()

	return sub.ch, nil
}

func (b *Broker) remove(channel string, sub *subscription) {
	// Unblock any publisher stuck on this subscriber before taking the write lock.
	sub.stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[channel][sub]; !ok {
		return
	}
	delete(b.subs[channel], sub)
	close(sub.ch)
}

func (b *Broker) Close() error {
	b.mu.RLock()
	for _, set := range b.subs {
		for sub := range set {
			sub.stop()
		}
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, set := range b.subs {
		for sub := range set {
			close(sub.ch)
		}
	}
	b.subs = make(map[string]map[*subscription]struct{})
	return nil
}
