package pipeline

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Layr-Labs/actiontree/internal/logger"
	"github.com/Layr-Labs/actiontree/internal/tests"
	"github.com/Layr-Labs/actiontree/pkg/actionMerger"
	"github.com/Layr-Labs/actiontree/pkg/actionTree"
	"github.com/Layr-Labs/actiontree/pkg/metrics"
	"github.com/Layr-Labs/actiontree/pkg/runStats"
	"github.com/Layr-Labs/actiontree/pkg/selectorResolver"
	"github.com/Layr-Labs/actiontree/pkg/traceRecords"
	"github.com/Layr-Labs/actiontree/pkg/utils"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFunctionUrl = "https://4byte.test/api/v1/signatures/?hex_signature="
	testEventUrl    = "https://4byte.test/api/v1/event-signatures/?hex_signature="

	approvalTopic = "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"
)

type testEnv struct {
	pipeline *Pipeline
	fixtures *tests.Fixtures
	store    *selectorResolver.Store
	counters *runStats.Counters
	output   string
}

func setup(t *testing.T, offline bool, eventless bool) *testEnv {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)

	root := t.TempDir()
	fixtures, err := tests.WriteFixtures(filepath.Join(root, "input"))
	require.Nil(t, err)

	ctx := context.Background()
	store := selectorResolver.NewStore(filepath.Join(root, "cache", "hexmapping.json"), l)
	_, err = store.SeedFromDatabase(ctx, fixtures.SelectorsPath)
	require.Nil(t, err)

	limiter := selectorResolver.NewRateLimiter(&selectorResolver.RateLimiterConfig{
		StatePath: filepath.Join(root, "cache", "rate_limit.json"),
		Limit:     10,
		Period:    45 * time.Second,
	}, metrics.NewNoopMetricsSink(), l)

	client := selectorResolver.NewFourByteClient(&selectorResolver.FourByteClientConfig{
		FunctionUrl: testFunctionUrl,
		EventUrl:    testEventUrl,
	}, l)
	client.SetHttpClient(&http.Client{Transport: httpmock.DefaultTransport})

	resolver := selectorResolver.NewResolver(&selectorResolver.ResolverConfig{Offline: offline}, store, client, limiter, metrics.NewNoopMetricsSink(), l)

	output := filepath.Join(root, "output")
	counters := runStats.NewCounters(output, l)
	require.Nil(t, counters.Reset(ctx))

	loader := traceRecords.NewLoader(&traceRecords.LoaderConfig{
		TracePath:      fixtures.TracePath,
		EventPath:      fixtures.EventPath,
		EventInputPath: fixtures.EventInputPath,
		Eventless:      eventless,
	}, l)

	return &testEnv{
		pipeline: NewPipeline(&PipelineConfig{OutputPath: output}, loader, resolver, counters, metrics.NewNoopMetricsSink(), l),
		fixtures: fixtures,
		store:    store,
		counters: counters,
		output:   output,
	}
}

func childIds(n *actionTree.ActionNode) []string {
	ids := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		ids = append(ids, c.Id)
	}
	return ids
}

func Test_Pipeline(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ctx := context.Background()

	t.Run("Should build the action tree of the sample transaction offline", func(t *testing.T) {
		httpmock.Reset()
		env := setup(t, true, false)

		result, err := env.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		require.Nil(t, err)
		assert.Equal(t, 0, httpmock.GetTotalCallCount())

		root := result.Root
		assert.Equal(t, "transfer", root.Name)
		assert.Equal(t, []string{"0", "1"}, childIds(root))

		etherCall := root.Children[0]
		assert.Equal(t, "ether_transfer", etherCall.Name)
		assert.True(t, etherCall.Ignored)
		assert.Equal(t, []string{"0_0"}, childIds(etherCall))

		balanceOf := etherCall.Children[0]
		assert.Equal(t, "balanceOf", balanceOf.Name)
		assert.Equal(t, traceRecords.CallKind_StaticCall, balanceOf.CallKind)
		require.Len(t, balanceOf.Children, 1)
		assert.Equal(t, "Transfer", balanceOf.Children[0].Name)

		create := root.Children[1]
		assert.Equal(t, traceRecords.CallKind_Create, create.CallKind)
		require.Len(t, create.Children, 1)
		anonymous := create.Children[0]
		assert.True(t, anonymous.IsEvent())
		assert.Equal(t, traceRecords.SelectorNull, anonymous.Name)

		require.Len(t, result.Orphaned, 1)
		assert.Equal(t, uint64(1), result.Orphaned[0].LogIndex)
		assert.Equal(t, approvalTopic, result.Orphaned[0].Name)

		assert.Equal(t, &runStats.TransactionStats{
			TotalNodes:       6,
			TotalNameMatches: 5,
			TotalMissing:     1,
			MissingRate:      16.67,
			TotalIgnored:     2,
			IgnoreRate:       33.33,
		}, result.Stats)
	})
	t.Run("Should write the tree, orphans and stats", func(t *testing.T) {
		httpmock.Reset()
		env := setup(t, true, false)

		_, err := env.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		require.Nil(t, err)

		var doc actionTree.Document
		found, err := utils.ReadJsonFile(env.pipeline.ActionTreePath(tests.SampleTransactionHash), &doc)
		require.Nil(t, err)
		require.True(t, found)
		assert.Equal(t, tests.SampleTransactionHash, doc.TransactionHash)
		assert.Equal(t, "0xa9059cbb", doc.Hex)
		assert.Len(t, doc.Nodes, 2)

		var orphaned []*actionMerger.OrphanedEvent
		found, err = utils.ReadJsonFile(env.pipeline.OrphanedPath(tests.SampleTransactionHash), &orphaned)
		require.Nil(t, err)
		require.True(t, found)
		assert.Len(t, orphaned, 1)

		var stats map[string]interface{}
		found, err = utils.ReadJsonFile(env.pipeline.StatsPath(tests.SampleTransactionHash), &stats)
		require.Nil(t, err)
		require.True(t, found)
		assert.Equal(t, float64(1), stats["total_missing"])
		assert.Equal(t, 16.67, stats["missing_rate"])
	})
	t.Run("Should count special calls once per transaction", func(t *testing.T) {
		httpmock.Reset()
		env := setup(t, true, false)

		_, err := env.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		require.Nil(t, err)

		expected := map[runStats.CounterName]int{
			runStats.CounterName_Create:  1,
			runStats.CounterName_Ether:   1,
			runStats.CounterName_Suicide: 0,
		}
		for name, want := range expected {
			count, err := env.counters.Read(ctx, name)
			assert.Nil(t, err)
			assert.Equal(t, want, count, string(name))
		}
	})
	t.Run("Should cache special selectors for later runs", func(t *testing.T) {
		httpmock.Reset()
		env := setup(t, true, false)

		_, err := env.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		require.Nil(t, err)

		cached, err := env.store.Load(ctx)
		require.Nil(t, err)
		name, found := cached.Get(traceRecords.SelectorCreate)
		assert.True(t, found)
		assert.Equal(t, selectorResolver.SpecialCreate, name)
	})
	t.Run("Should resolve missing selectors remotely", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", testEventUrl+approvalTopic,
			httpmock.NewStringResponder(200, `{"count": 1, "results": [{"id": 2, "text_signature": "Approval(address,address,uint256)"}]}`))
		env := setup(t, false, false)

		result, err := env.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		require.Nil(t, err)
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
		require.Len(t, result.Orphaned, 1)
		assert.Equal(t, "Approval(address,address,uint256)", result.Orphaned[0].Name)
	})
	t.Run("Should fail when the call trace is missing", func(t *testing.T) {
		httpmock.Reset()
		env := setup(t, true, false)

		_, err := env.pipeline.RunForTransaction(ctx, tests.MissingTransactionHash)
		assert.True(t, errors.Is(err, traceRecords.ErrTraceFileNotFound))

		_, statErr := os.Stat(env.pipeline.ActionTreePath(tests.MissingTransactionHash))
		assert.True(t, os.IsNotExist(statErr))
	})
	t.Run("Should fail without event files unless eventless", func(t *testing.T) {
		httpmock.Reset()
		env := setup(t, true, false)
		require.Nil(t, env.fixtures.RemoveEventFiles(tests.SampleTransactionHash))

		_, err := env.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		assert.True(t, errors.Is(err, traceRecords.ErrEventFileNotFound))

		eventless := setup(t, true, true)
		require.Nil(t, eventless.fixtures.RemoveEventFiles(tests.SampleTransactionHash))
		result, err := eventless.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		require.Nil(t, err)
		assert.Equal(t, 4, result.Stats.TotalNodes)
		assert.Empty(t, result.Orphaned)
	})
	t.Run("Should call transaction processed hooks", func(t *testing.T) {
		httpmock.Reset()
		env := setup(t, true, false)

		processed := make(map[string]error)
		env.pipeline.AddTransactionProcessedHook(func(hash string, _ *TransactionResult, err error) {
			processed[hash] = err
		})
		env.pipeline.AddTransactionProcessedHook(func(string, *TransactionResult, error) {
			panic("hook failure")
		})

		_, _ = env.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		_, _ = env.pipeline.RunForTransaction(ctx, tests.MissingTransactionHash)

		require.Len(t, processed, 2)
		assert.Nil(t, processed[tests.SampleTransactionHash])
		assert.NotNil(t, processed[tests.MissingTransactionHash])
	})
	t.Run("Should summarize raw input lengths of a written tree", func(t *testing.T) {
		httpmock.Reset()
		env := setup(t, true, false)

		_, err := env.pipeline.RunForTransaction(ctx, tests.SampleTransactionHash)
		require.Nil(t, err)

		lengths, err := InputLengthsForTransaction(filepath.Join(env.output, ActionTreeDir), tests.SampleTransactionHash)
		require.Nil(t, err)
		// preorder: transfer, ether transfer, balanceOf, Transfer, create, anonymous event
		assert.Equal(t, []int{2, 0, 1, 2, 0, 0}, lengths.LengthArray)
		assert.Equal(t, 6, lengths.TotalNodes)
		assert.InDelta(t, 5.0/6.0, lengths.AverageLength, 1e-9)
	})
}
