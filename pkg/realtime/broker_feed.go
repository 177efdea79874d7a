package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/vetbook-api/pkg/messaging"
)

// BrokerFeed carries changes over a messaging.Broker, one channel per table.
// Each Subscribe opens its own broker subscription.
type BrokerFeed struct {
	broker messaging.Broker
	logger zerolog.Logger
}

func NewBrokerFeed(broker messaging.Broker, logger zerolog.Logger) *BrokerFeed {
	return &BrokerFeed{broker: broker, logger: logger}
}

func (f *BrokerFeed) Publish(ctx context.Context, change Change) error {
	if change.Table == "" {
		return fmt.Errorf("change has no table")
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	return f.broker.Publish(ctx, Channel(change.Table), payload)
}

func (f *BrokerFeed) Subscribe(ctx context.Context, filter Filter, handler Handler) (Unsubscribe, error) {
	if filter.Table == "" {
		return nil, fmt.Errorf("filter has no table")
	}

	subCtx, cancel := context.WithCancel(ctx)
	msgs, err := f.broker.Subscribe(subCtx, Channel(filter.Table))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", filter.Table, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for raw := range msgs {
			var c Change
			if err := json.Unmarshal(raw, &c); err != nil {
				f.logger.Warn().Err(err).Str("table", filter.Table).Msg("dropping malformed change")
				continue
			}
			if filter.Matches(c) {
				handler(c)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}
