package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim/internal/simulation"
)

func TestPutGet(t *testing.T) {
	r := New(time.Hour, 0)
	defer r.Close()

	res := &simulation.Result{TotalCost: 42}
	id := r.Put("reference", res)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, res, got.Result)
	assert.Equal(t, "reference", got.Scenario)

	_, ok = r.Get(uuid.NewString())
	assert.False(t, ok)
	_, ok = r.Get("not-a-uuid")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sizes := []int{}
	r := New(time.Minute, 0, WithSizeObserver(func(n int) { sizes = append(sizes, n) }))
	r.now = func() time.Time { return now }

	id := r.Put("a", &simulation.Result{})
	r.Put("b", &simulation.Result{})

	now = now.Add(2 * time.Minute)
	_, ok := r.Get(id)
	assert.False(t, ok, "expired entries are not served")
	assert.Equal(t, 2, r.Len(), "until evicted")

	assert.Equal(t, 2, r.Evict())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []int{1, 2, 0}, sizes)
}

func TestNilStore(t *testing.T) {
	var r *Results
	assert.Empty(t, r.Put("x", nil))
	_, ok := r.Get(uuid.NewString())
	assert.False(t, ok)
	assert.Zero(t, r.Len())
	assert.NotPanics(t, r.Close)
}

func TestBackgroundCleanupReportsSize(t *testing.T) {
	sizes := make(chan int, 8)
	r := New(time.Millisecond, 5*time.Millisecond, WithSizeObserver(func(n int) { sizes <- n }))
	defer r.Close()

	r.Put("a", &simulation.Result{})
	require.Equal(t, 1, <-sizes)

	select {
	case n := <-sizes:
		assert.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("expired entry was not evicted")
	}
	assert.Zero(t, r.Len())
}
