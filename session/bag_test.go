package session_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchrun/agentry/session"
)

// TestBag_SingleFlight exercises spec.md §8's single-flight invariant: N
// concurrent callers for the same (namespace, key) invoke the factory at
// most once and all receive the same instance.
func TestBag_SingleFlight(t *testing.T) {
	bag := session.NewBag()
	var calls int64

	const n = 50
	results := make([]any, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := bag.GetOrPut("ns", "k", func() (any, error) {
				atomic.AddInt64(&calls, 1)
				return new(struct{}), nil
			})
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls)
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestBag_DistinctKeysIndependent(t *testing.T) {
	bag := session.NewBag()
	a, err := bag.GetOrPut("ns", "a", func() (any, error) { return 1, nil })
	require.NoError(t, err)
	b, err := bag.GetOrPut("ns", "b", func() (any, error) { return 2, nil })
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
