package worker

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler is the settlement sweep run on a schedule.
type Reconciler interface {
	Reconcile(ctx context.Context, limit int) (int, error)
}

// ReconcileScheduler runs the reconciliation sweep on a cron spec.
type ReconcileScheduler struct {
	cron    *cron.Cron
	job     Reconciler
	timeout time.Duration
	logger  *zap.Logger
}

// NewReconcileScheduler schedules job on spec. An empty spec returns nil.
func NewReconcileScheduler(spec string, timeout time.Duration, job Reconciler, logger *zap.Logger) (*ReconcileScheduler, error) {
	if strings.TrimSpace(spec) == "" || job == nil {
		return nil, nil
	}
	s := &ReconcileScheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		job:     job,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single bounded sweep.
func (s *ReconcileScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	repaired, err := s.job.Reconcile(ctx, 0)
	if err != nil {
		s.logger.Error("reconciliation sweep failed", zap.Error(err))
		return
	}
	s.logger.Debug("reconciliation sweep finished", zap.Int("repaired", repaired))
}

// Start begins scheduling.
func (s *ReconcileScheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *ReconcileScheduler) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
}
