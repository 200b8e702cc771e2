package lspsessions

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/clock"
	"github.com/toitware/tlsp/src/tlsp/internal/filewatch"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type session struct {
	key    entity.SessionKey
	config entity.ClientConfiguration
	logger *zap.SugaredLogger
	server entity.ServerHandle

	// refCount is guarded by the manager's lock.
	refCount int

	watcher   filewatch.Watcher
	timer     clock.Timer
	watchDone chan struct{}

	stopped  atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

func (s *session) snapshot() entity.Session {
	return entity.Session{
		Key:      s.key,
		Config:   s.config,
		RefCount: s.refCount,
		Server:   s.server,
	}
}

// stop shuts the language server down. A session that is still starting is stopped once the start completes.
func (s *session) stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		s.timer.Stop()

		var err error
		if s.watcher != nil {
			err = multierr.Append(err, s.watcher.Close())
		}
		err = multierr.Append(err, s.server.Stop(ctx))
		<-s.watchDone

		s.logger.Infow("session stopped", "error", err)
		s.stopErr = err
	})
	return s.stopErr
}
