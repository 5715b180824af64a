package runStats

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Layr-Labs/actiontree/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*zap.Logger, string) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)
	return l, t.TempDir()
}

func Test_TransactionStats(t *testing.T) {
	t.Run("Should compute rates rounded to two decimals", func(t *testing.T) {
		stats := NewTransactionStats(3, 1, 2)
		assert.Equal(t, 2, stats.TotalMissing)
		assert.Equal(t, 66.67, stats.MissingRate)
		assert.Equal(t, 66.67, stats.IgnoreRate)

		assert.Equal(t, 12.5, Percentage(1, 8))
		assert.Equal(t, 33.33, Percentage(1, 3))
	})
	t.Run("Should report zero rates without nodes", func(t *testing.T) {
		stats := NewTransactionStats(0, 0, 0)
		assert.Equal(t, float64(0), stats.MissingRate)
		assert.Equal(t, float64(0), stats.IgnoreRate)
	})
	t.Run("Should serialize with the stat file keys", func(t *testing.T) {
		data, err := json.Marshal(NewTransactionStats(4, 3, 1))
		require.Nil(t, err)
		assert.JSONEq(t, `{
			"total_nodes": 4,
			"total_name_matches": 3,
			"total_missing": 1,
			"missing_rate": 25,
			"total_ignored": 1,
			"ignore_rate": 25
		}`, string(data))
	})
}

func Test_InputLengths(t *testing.T) {
	t.Run("Should average raw word counts", func(t *testing.T) {
		il := NewInputLengths([]int{1, 2, 0, 3})
		assert.Equal(t, 4, il.TotalNodes)
		assert.Equal(t, 1.5, il.AverageLength)
	})
	t.Run("Should handle an empty tree", func(t *testing.T) {
		il := NewInputLengths(nil)
		assert.Equal(t, 0, il.TotalNodes)
		assert.Equal(t, float64(0), il.AverageLength)
		assert.NotNil(t, il.LengthArray)
	})
}

func Test_Counters(t *testing.T) {
	l, dir := setup(t)
	ctx := context.Background()

	t.Run("Should reset every counter to zero", func(t *testing.T) {
		counters := NewCounters(dir, l)
		require.Nil(t, counters.Increment(ctx, CounterName_Ether))
		require.Nil(t, counters.Reset(ctx))

		for _, name := range AllCounters {
			count, err := counters.Read(ctx, name)
			assert.Nil(t, err)
			assert.Equal(t, 0, count)
		}
		data, err := os.ReadFile(filepath.Join(dir, "create_count.json"))
		require.Nil(t, err)
		assert.JSONEq(t, `{"count": 0}`, string(data))
	})
	t.Run("Should count concurrent increments from separate instances", func(t *testing.T) {
		require.Nil(t, NewCounters(dir, l).Reset(ctx))

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Nil(t, NewCounters(dir, l).Increment(ctx, CounterName_Create))
			}()
		}
		wg.Wait()

		count, err := NewCounters(dir, l).Read(ctx, CounterName_Create)
		assert.Nil(t, err)
		assert.Equal(t, 10, count)
	})
	t.Run("Should reject unknown counters", func(t *testing.T) {
		err := NewCounters(dir, l).Increment(ctx, CounterName("selfdestruct"))
		assert.ErrorIs(t, err, ErrUnknownCounter)
	})
	t.Run("Should append failed hashes", func(t *testing.T) {
		counters := NewCounters(t.TempDir(), l)
		require.Nil(t, counters.RecordFailedHashes(ctx, []string{"0xaa"}))
		require.Nil(t, counters.RecordFailedHashes(ctx, nil))
		require.Nil(t, counters.RecordFailedHashes(ctx, []string{"0xbb", "0xcc"}))

		failed, err := counters.FailedHashes(ctx)
		assert.Nil(t, err)
		assert.Equal(t, []string{"0xaa", "0xbb", "0xcc"}, failed)
	})
}
