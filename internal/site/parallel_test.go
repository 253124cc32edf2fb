package site

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
)

func mustDefaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadOrDefault(t.TempDir()+"/missing.yaml", false)
	require.NoError(t, err)
	return cfg
}

func TestRunOrdered_PreservesOrderAndBound(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	var running, peak atomic.Int32

	results := runOrdered(t.Context(), items, 3, func(n int) (int, error) {
		cur := running.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		if n == 5 {
			return 0, stderrors.New("five")
		}
		return n * n, nil
	})

	require.Len(t, results, len(items))
	for i, n := range items {
		if n == 5 {
			assert.EqualError(t, results[i].Err, "five")
			continue
		}
		assert.NoError(t, results[i].Err)
		assert.Equal(t, n*n, results[i].Value)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunOrdered_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	var calls atomic.Int32

	results := runOrdered(ctx, []string{"a", "b"}, 1, func(string) (string, error) {
		calls.Add(1)
		return "", nil
	})

	for _, r := range results {
		require.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Zero(t, calls.Load())
	assert.Nil(t, runOrdered(ctx, []string(nil), 2, func(string) (string, error) { return "", nil }))
}
