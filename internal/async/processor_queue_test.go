package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-extractor/internal/common"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessorQueueRunsEveryJob(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	proc := ProcessorFunc(func(ctx context.Context, job Job) error {
		assert.Equal(t, job.TraceID, common.RequestIDFromContext(ctx))
		mu.Lock()
		seen = append(seen, job.Path)
		mu.Unlock()
		if job.Path == "bad.pdf" {
			return errors.New("boom")
		}
		return nil
	})

	q := NewProcessorQueue(proc, discardLogger(), WithWorkers(3), WithQueueSize(1))
	for _, p := range []string{"a.pdf", "b.pdf", "bad.pdf", "c.pdf"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p, TraceID: "t-" + p}))
	}
	q.Shutdown(context.Background())

	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf", "bad.pdf", "c.pdf"}, seen)
	assert.Equal(t, Stats{Succeeded: 3, Failed: 1}, q.Stats())
}

func TestProcessorQueueRejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(ProcessorFunc(func(context.Context, Job) error { return nil }), discardLogger())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Path: "late.pdf"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestProcessorQueueAppliesTimeout(t *testing.T) {
	proc := ProcessorFunc(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		return ctx.Err()
	})
	q := NewProcessorQueue(proc, discardLogger(), WithWorkers(1), WithProcessTimeout(20*time.Millisecond))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.pdf"}))
	q.Shutdown(context.Background())

	assert.Equal(t, Stats{Failed: 1}, q.Stats())
}
