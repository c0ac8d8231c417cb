package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("counts concurrent updates", func(t *testing.T) {
		c := NewCollector()
		c.Start(4)
		c.SetTreeReuse(true)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					c.AddIteration()
					c.AddExpansion()
				}
			}()
		}
		wg.Wait()

		m := c.Complete(42)
		require.Equal(t, 4, m.Goroutines)
		require.Equal(t, 100, m.Iterations)
		require.Equal(t, 100, m.Expansions)
		require.Equal(t, 42, m.Nodes)
		require.True(t, m.IsTreeReuse)
		require.Positive(t, m.Duration)
	})

	t.Run("start resets", func(t *testing.T) {
		c := NewCollector()
		c.Start(1)
		c.AddIteration()
		c.SetTreeReuse(true)
		c.Start(1)

		m := c.Complete(1)
		require.Zero(t, m.Iterations)
		require.False(t, m.IsTreeReuse)
	})

	t.Run("dummy", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start(8)
		c.AddIteration()
		require.Equal(t, SearchMetric{}, c.Complete(10))
	})
}

func TestPrometheusCollector(t *testing.T) {
	iterations := testutil.ToFloat64(searchIterations)
	expansions := testutil.ToFloat64(searchExpansions)
	reused := testutil.ToFloat64(searchesTotal.WithLabelValues("reused"))

	c := NewPrometheusCollector(nil)
	c.Start(1)
	c.SetTreeReuse(true)
	for i := 0; i < 3; i++ {
		c.AddIteration()
	}
	c.AddExpansion()
	m := c.Complete(2)

	require.Equal(t, 3, m.Iterations)
	require.Equal(t, iterations+3, testutil.ToFloat64(searchIterations))
	require.Equal(t, expansions+1, testutil.ToFloat64(searchExpansions))
	require.Equal(t, reused+1, testutil.ToFloat64(searchesTotal.WithLabelValues("reused")))
}
