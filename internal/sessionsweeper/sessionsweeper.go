// Package sessionsweeper periodically removes expired session records.
package sessionsweeper

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/wanderlust/internal/logger"
)

type expiredSessionsRemover interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionSweeper runs DeleteExpiredSessions on a ticker and reports failures
// on an error channel instead of stopping.
type SessionSweeper struct {
	db           expiredSessionsRemover
	interval     time.Duration
	errorChannel chan error
	now          func() time.Time
}

func New(
	db expiredSessionsRemover,
	interval time.Duration,
	errorChannelCapacity int,
) *SessionSweeper {
	return &SessionSweeper{
		db:           db,
		interval:     interval,
		errorChannel: make(chan error, errorChannelCapacity),
		now:          time.Now,
	}
}

// ListenErrors passes every sweep error to callback until Run's context ends.
func (s *SessionSweeper) ListenErrors(callback func(error)) {
	go func() {
		for err := range s.errorChannel {
			callback(err)
		}
	}()
}

// Sweep performs a single pass.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	return s.db.DeleteExpiredSessions(ctx, s.now())
}

// Run sweeps every interval until ctx is cancelled, then closes the error channel.
func (s *SessionSweeper) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		defer close(s.errorChannel)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.Sweep(ctx)
				if err != nil {
					select {
					case s.errorChannel <- err:
					default:
						logger.Log.Warnw("session sweeper error dropped", "error", err)
					}
					continue
				}
				if deleted > 0 {
					logger.Log.Infof("removed %d expired sessions", deleted)
				}
			}
		}
	}()
}
