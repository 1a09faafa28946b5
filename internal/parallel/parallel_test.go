package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results, err := Map(context.Background(), items, 8, func(ctx context.Context, i, item int) (string, error) {
		return fmt.Sprintf("r%d", item), nil
	})
	require.NoError(t, err)
	require.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("r%d", i), r)
	}
}

func TestMap_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int64

	items := make([]int, 30)
	_, err := Map(context.Background(), items, 3, func(ctx context.Context, i, item int) (int, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.Greater(t, peak.Load(), int64(0))
}

func TestMap_PropagatesError(t *testing.T) {
	items := []int{0, 1, 2, 3}
	boom := errors.New("boom")

	_, err := Map(context.Background(), items, 2, func(ctx context.Context, i, item int) (int, error) {
		if item == 2 {
			return 0, boom
		}
		return item, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestMap_EmptyInput(t *testing.T) {
	results, err := Map(context.Background(), nil, 4, func(ctx context.Context, i, item int) (int, error) {
		return item, nil
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatch(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	batches := Batch(items, 3)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{1, 2, 3}, batches[0])
	assert.Equal(t, []int{4, 5, 6}, batches[1])
	assert.Equal(t, []int{7}, batches[2])
}

func TestBatch_SizeLargerThanInput(t *testing.T) {
	batches := Batch([]int{1, 2}, 10)
	require.Len(t, batches, 1)
	assert.Equal(t, []int{1, 2}, batches[0])
}

func TestBatch_Empty(t *testing.T) {
	assert.Empty(t, Batch([]int{}, 3))
}
