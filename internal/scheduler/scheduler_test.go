package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string {
	return "counting"
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("@daily", &countingJob{}))
	require.NoError(t, s.AddJob("0 3 * * SUN", &countingJob{}))
	assert.Equal(t, 2, s.Entries())

	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
	assert.Error(t, s.AddJob("0 0 3 * * *", &countingJob{}), "seconds field is not accepted")
	assert.Equal(t, 2, s.Entries())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@hourly", &countingJob{}))

	assert.NotPanics(t, func() {
		s.Start()
		s.Stop()
	})
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())

	failing := &countingJob{err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(failing), "boom")
}
