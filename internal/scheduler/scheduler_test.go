package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamedash/internal/logging"
)

type fakeDigest struct {
	calls []time.Time
	sent  int
	err   error
}

func (f *fakeDigest) Send(ctx context.Context, now time.Time) (int, error) {
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("missing deadline")
	}
	f.calls = append(f.calls, now)
	return f.sent, f.err
}

func TestStartSchedulesDigest(t *testing.T) {
	s := New(&fakeDigest{}, time.UTC, logging.Discard())

	require.NoError(t, s.Start("0 8 * * 1"))
	t.Cleanup(s.Stop)

	assert.Equal(t, 1, s.Jobs())
}

func TestStartDisabled(t *testing.T) {
	s := New(&fakeDigest{}, time.UTC, logging.Discard())

	require.NoError(t, s.Start(""))
	assert.Zero(t, s.Jobs())
}

func TestStartRejectsBadExpression(t *testing.T) {
	s := New(&fakeDigest{}, time.UTC, logging.Discard())

	err := s.Start("every tuesday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid digest schedule")
}

func TestSendDigestLogsOutcome(t *testing.T) {
	fixed := time.Date(2024, 6, 17, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "success", want: "digest run finished"},
		{name: "failure", err: errors.New("ses throttled"), want: "digest run failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			digest := &fakeDigest{sent: 2, err: tt.err}
			s := New(digest, time.UTC, logging.New(&buf, slog.LevelInfo, "json"))
			s.now = func() time.Time { return fixed }

			s.SendDigest()

			require.Len(t, digest.calls, 1)
			assert.Equal(t, fixed, digest.calls[0])
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
