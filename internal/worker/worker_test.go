package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

type mockSweeper struct{ mock.Mock }

func (m *mockSweeper) CompleteExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestDispatchOnce_PassesClockAndDeadline(t *testing.T) {
	d := &mockDispatcher{}
	at := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	d.On("DispatchDue", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), at).Return(2, nil)

	r := NewRunner(d, &mockSweeper{}, nil)
	r.now = func() time.Time { return at }
	r.DispatchOnce()
	d.AssertExpectations(t)
}

func TestSweepOnce_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := &mockSweeper{}
	s.On("CompleteExpired", mock.Anything).Return(0, errors.New("throttled"))

	NewRunner(&mockDispatcher{}, s, zap.New(core)).SweepOnce()
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "complete expired reminders", logs.All()[0].Message)
}

func TestStartStop(t *testing.T) {
	r := NewRunner(&mockDispatcher{}, &mockSweeper{}, nil)
	require.NoError(t, r.Start())
	assert.Len(t, r.cron.Entries(), 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
