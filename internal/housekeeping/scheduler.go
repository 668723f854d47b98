// Package housekeeping runs periodic maintenance on a cron schedule.
package housekeeping

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenRetirer deactivates expired QR tokens.
type TokenRetirer interface {
	RetireExpired(ctx context.Context) (int64, error)
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	tokens  TokenRetirer
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler creates a scheduler. spec has six fields, seconds first.
func NewScheduler(spec string, tokens TokenRetirer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		spec:    spec,
		tokens:  tokens,
		timeout: time.Minute,
		logger:  logger,
	}
}

// Start registers the jobs and starts the runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.retireExpiredTokens); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("housekeeping scheduled", zap.String("spec", s.spec))
	return nil
}

// Stop halts the runner and waits up to ctx for running jobs.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("housekeeping stop timed out")
	}
}

func (s *Scheduler) retireExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.tokens.RetireExpired(ctx)
	if err != nil {
		s.logger.Error("retire expired qr tokens failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("retired expired qr tokens", zap.Int64("count", n))
	}
}
