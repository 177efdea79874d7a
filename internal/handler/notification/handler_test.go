package notification

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository/fake"
	"github.com/jwalitptl/vetbook-api/internal/service/notification"
	"github.com/jwalitptl/vetbook-api/pkg/auth"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type streamEnv struct {
	server *httptest.Server
	feed   *realtime.MemoryFeed
	svc    *notification.Service
	tokens auth.JWTService
}

func newStreamEnv(t *testing.T, keepAlive time.Duration) *streamEnv {
	t.Helper()
	feed := realtime.NewMemoryFeed()
	svc := notification.NewService(fake.NewNotifications(), feed, logger.Nop())
	tokens := auth.NewJWTService("secret", "vetbook", time.Hour)

	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.Nop()))
	NewHandler(svc, keepAlive).RegisterRoutes(r.Group("/api/v1"), middleware.NewAuthMiddleware(tokens))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &streamEnv{server: srv, feed: feed, svc: svc, tokens: tokens}
}

type sseEvent struct {
	name string
	data string
}

// readEvents parses the stream into events until the body closes.
func readEvents(body *bufio.Scanner, out chan<- sseEvent) {
	defer close(out)
	var ev sseEvent
	for body.Scan() {
		line := body.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && ev.name != "":
			out <- ev
			ev = sseEvent{}
		}
	}
}

func (e *streamEnv) open(t *testing.T, userID uuid.UUID) (<-chan sseEvent, context.CancelFunc) {
	t.Helper()
	token, _, err := e.tokens.GenerateAccessToken(userID, model.RoleOwner)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		e.server.URL+"/api/v1/notifications/stream?access_token="+token, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan sseEvent, 8)
	go readEvents(bufio.NewScanner(resp.Body), events)
	return events, cancel
}

func next(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return sseEvent{}
	}
}

func TestStream_DeliversOwnNotifications(t *testing.T) {
	env := newStreamEnv(t, time.Hour)
	userID := uuid.New()
	events, cancel := env.open(t, userID)
	defer cancel()

	ready := next(t, events)
	assert.Equal(t, "ready", ready.name)
	assert.Contains(t, ready.data, userID.String())
	assert.Equal(t, 1, env.feed.Subscribers())

	ctx := context.Background()
	require.NoError(t, env.svc.Notify(ctx, &model.Notification{UserID: uuid.New(), Title: "not yours"}))
	require.NoError(t, env.svc.Notify(ctx, &model.Notification{UserID: userID, Title: "Appointment confirmed"}))

	ev := next(t, events)
	assert.Equal(t, "notification", ev.name)
	var got model.Notification
	require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "Appointment confirmed", got.Title)
}

func TestStream_DisconnectReleasesSubscription(t *testing.T) {
	env := newStreamEnv(t, time.Hour)
	events, cancel := env.open(t, uuid.New())

	assert.Equal(t, "ready", next(t, events).name)
	require.Equal(t, 1, env.feed.Subscribers())

	cancel()
	assert.Eventually(t, func() bool { return env.feed.Subscribers() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestStream_SendsKeepAlive(t *testing.T) {
	env := newStreamEnv(t, 20*time.Millisecond)
	events, cancel := env.open(t, uuid.New())
	defer cancel()

	assert.Equal(t, "ready", next(t, events).name)
	assert.Equal(t, "ping", next(t, events).name)
}

func TestStream_RequiresToken(t *testing.T) {
	env := newStreamEnv(t, time.Hour)

	resp, err := http.Get(env.server.URL + "/api/v1/notifications/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, env.feed.Subscribers())
}
