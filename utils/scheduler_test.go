package utils

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	calls int
	err   error
}

func (j *countingJob) RetryPending(ctx context.Context) (int, error) {
	j.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("no deadline")
	}
	return 1, j.err
}

func TestRunRetry(t *testing.T) {
	ok := &countingJob{}
	runRetry("ok", ok)
	assert.Equal(t, 1, ok.calls)

	failing := &countingJob{err: errors.New("db down")}
	runRetry("failing", failing)
	assert.Equal(t, 1, failing.calls)
}

func TestInitializeScheduler(t *testing.T) {
	c := InitializeScheduler(&countingJob{}, &countingJob{})
	assert.Len(t, c.Entries(), 2)
	<-c.Stop().Done()
}
