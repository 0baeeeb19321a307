package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

const SessionSweepInterval = time.Minute

// SessionStore is anything holding sessions that can expire.
type SessionStore interface {
	DeleteExpired(now time.Time) int
}

type SessionSweeper struct {
	store    SessionStore
	interval time.Duration
}

func NewSessionSweeper(store SessionStore) *SessionSweeper {
	return &SessionSweeper{store: store, interval: SessionSweepInterval}
}

func (s *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info("Session sweeper cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping session sweeper...")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionSweeper) sweep() {
	if n := s.store.DeleteExpired(time.Now()); n > 0 {
		log.Debugf("Sweeper: removed %d expired sessions", n)
	}
}
