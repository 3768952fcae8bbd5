package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Jawadyyy/healthmate-portal/pkg/logger"
)

// Purger removes expired sessions. session.Manager satisfies it.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
	Backend() string
}

type SessionCleanupWorker struct {
	sessions        Purger
	cleanupInterval time.Duration
	log             *logger.Logger
}

func NewSessionCleanupWorker(sessions Purger, cleanupInterval time.Duration, log *logger.Logger) *SessionCleanupWorker {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SessionCleanupWorker{
		sessions:        sessions,
		cleanupInterval: cleanupInterval,
		log:             log,
	}
}

// Start blocks until ctx is cancelled, purging on every tick.
func (w *SessionCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.log.Error(err, "session cleanup failed", "backend", w.sessions.Backend())
			}
		}
	}
}

func (w *SessionCleanupWorker) cleanup(ctx context.Context) error {
	n, err := w.sessions.Purge(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	if n > 0 {
		w.log.Info("purged expired sessions", "count", n, "backend", w.sessions.Backend())
	}
	return nil
}
