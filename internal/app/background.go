package app

import (
	"context"
	"sync"

	"github.com/jwalitptl/vetbook-api/internal/config"
	"github.com/jwalitptl/vetbook-api/internal/email"
	"github.com/jwalitptl/vetbook-api/internal/service/notification"
	"github.com/jwalitptl/vetbook-api/internal/worker"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
	pkgworker "github.com/jwalitptl/vetbook-api/pkg/worker"
)

// Background drains the outbox onto the feed, turns changes into
// notifications and prunes processed outbox rows.
type Background struct {
	processor  *pkgworker.OutboxProcessor
	dispatcher *worker.NotificationDispatcher
	cleanup    *worker.OutboxCleanupWorker
	logger     *logger.Logger
}

func NewBackground(
	cfg *config.Config,
	repos *Repositories,
	feed *Feed,
	notifications *notification.Service,
	emailSvc email.Service,
	log *logger.Logger,
	m *metrics.Metrics,
) *Background {
	return &Background{
		processor: pkgworker.NewOutboxProcessor(repos.Outbox, feed, cfg.Outbox.ToWorkerConfig(), log.With("component", "outbox"), m),
		dispatcher: worker.NewNotificationDispatcher(feed, notifications, repos.Users, repos.Veterinarians, emailSvc,
			log.With("component", "dispatcher")),
		cleanup: worker.NewOutboxCleanupWorker(repos.Outbox, cfg.Outbox.Retention, cfg.Outbox.CleanupEvery,
			log.With("component", "outbox_cleanup")),
		logger: log,
	}
}

// Run blocks until ctx is done and every worker has returned.
func (b *Background) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		b.processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := b.dispatcher.Start(ctx); err != nil {
			b.logger.Error(err, "Notification dispatcher stopped")
		}
	}()
	go func() {
		defer wg.Done()
		b.cleanup.Start(ctx)
	}()
	wg.Wait()
}
