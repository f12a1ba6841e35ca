package archiver

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/retailbank-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestArchiver_SubmitRunsWrite(t *testing.T) {
	a, err := New(config.ArchiverConfig{PoolSize: 2, WriteTimeout: time.Second}, newTestLogger())
	require.NoError(t, err)
	defer a.Close()

	done := make(chan struct{})
	a.Submit("test write", func(ctx context.Context) error {
		require.NotNil(t, ctx)
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submitted write never ran")
	}
}

func TestArchiver_WriteErrorIsSwallowed(t *testing.T) {
	a, err := New(config.ArchiverConfig{PoolSize: 1, WriteTimeout: time.Second}, newTestLogger())
	require.NoError(t, err)
	defer a.Close()

	var calls atomic.Int32
	done := make(chan struct{})
	a.Submit("failing write", func(ctx context.Context) error {
		calls.Add(1)
		close(done)
		return errors.New("backend down")
	})

	<-done
	// The failure never reaches the caller
	assert.Equal(t, int32(1), calls.Load())
}

func TestArchiver_SynchronousRunsInline(t *testing.T) {
	a := NewSynchronous(newTestLogger())
	defer a.Close()

	ran := false
	a.Submit("inline write", func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.True(t, ran, "synchronous archiver must run the write before returning")
	assert.Equal(t, 0, a.Running())
}
