package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/vetbook-api/pkg/circuitbreaker"
	"github.com/jwalitptl/vetbook-api/pkg/messaging"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
)

type RedisBroker struct {
	client  *redis.Client
	cb      *circuitbreaker.CircuitBreaker
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

func NewRedisBroker(config Config, logger zerolog.Logger, m *metrics.Metrics) (messaging.Broker, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pooling
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		opts.MinRetryBackoff = config.RetryBackoff
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newBroker(client, logger, m), nil
}

func newBroker(client *redis.Client, logger zerolog.Logger, m *metrics.Metrics) *RedisBroker {
	if m == nil {
		m = metrics.New("vetbook")
	}
	b := &RedisBroker{
		client:  client,
		logger:  logger,
		metrics: m,
	}
	b.cb = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:                "redis-broker",
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             5 * time.Second,
		ConsecutiveFailures: 5,
		OnStateChange: func(name, from, to string) {
			b.logger.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("circuit breaker state changed")
		},
	})
	return b
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, message interface{}) error {
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

	err := b.cb.Execute(func() error {
		return b.client.Publish(ctx, channel, payload).Err()
	})
	if err != nil {
		b.metrics.RedisOperations.WithLabelValues("publish", "error").Inc()
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	b.metrics.RedisOperations.WithLabelValues("publish", "success").Inc()
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		b.metrics.RedisOperations.WithLabelValues("subscribe", "error").Inc()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	b.metrics.RedisOperations.WithLabelValues("subscribe", "success").Inc()

	msgChan := make(chan []byte, 100)

	go func() {
		defer func() {
			pubsub.Close()
			close(msgChan)
		}()

		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
					return
				}
				b.logger.Error().Err(err).Str("channel", channel).Msg("redis receive failed")
				continue
			}
			select {
			case msgChan <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgChan, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
