package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/platform"
)

// TeardownScheduler deletes relay channels after a fixed delay once their
// ticket closes without an archive category. Deletion failures (for example
// a channel already removed by hand) are logged and swallowed.
type TeardownScheduler struct {
	channels platform.ChannelManager
	logger   *zap.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	timers map[string]*time.Timer
}

// NewTeardownScheduler creates the scheduler.
func NewTeardownScheduler(channels platform.ChannelManager, logger *zap.Logger) *TeardownScheduler {
	return &TeardownScheduler{
		channels: channels,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// Schedule arranges for channelID to be deleted after delay. Scheduling the
// same channel twice resets its timer.
func (s *TeardownScheduler) Schedule(channelID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[channelID]; ok {
		if existing.Stop() {
			s.wg.Done()
		}
		delete(s.timers, channelID)
	}

	s.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		if s.timers[channelID] == timer {
			delete(s.timers, channelID)
		}
		s.mu.Unlock()

		if err := s.channels.DeleteChannel(context.Background(), channelID); err != nil {
			s.logger.Warn("delayed channel delete failed",
				zap.String("channel_id", channelID),
				zap.Error(err))
			return
		}
		s.logger.Info("deleted relay channel", zap.String("channel_id", channelID))
	})
	s.timers[channelID] = timer
}

// Stop cancels pending timers and waits for in-flight deletes.
func (s *TeardownScheduler) Stop() {
	s.mu.Lock()
	for id, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
