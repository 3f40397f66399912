package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingJob struct {
	calls int
	err   error
}

func (j *countingJob) Reconcile(ctx context.Context, _ int) (int, error) {
	j.calls++
	_, ok := ctx.Deadline()
	if !ok {
		return 0, errors.New("missing deadline")
	}
	return 1, j.err
}

func TestSchedulerRunOnce(t *testing.T) {
	job := &countingJob{}
	s, err := NewReconcileScheduler("@every 1h", time.Second, job, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s)

	s.RunOnce()
	job.err = errors.New("db down")
	s.RunOnce()
	require.Equal(t, 2, job.calls)

	s.Start()
	s.Stop()
}

func TestSchedulerDisabledOrInvalid(t *testing.T) {
	s, err := NewReconcileScheduler("", time.Second, &countingJob{}, zap.NewNop())
	require.NoError(t, err)
	require.Nil(t, s)
	s.Start()
	s.Stop()

	_, err = NewReconcileScheduler("not a spec", time.Second, &countingJob{}, zap.NewNop())
	require.Error(t, err)
}
