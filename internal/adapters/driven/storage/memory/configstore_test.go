package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "value"))
	require.NoError(t, store.Set("i", 42))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 1.5))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("list", []any{"a", 1, "b"}))

	assert.Equal(t, "value", store.GetString("s"))
	assert.Equal(t, 42, store.GetInt("i"))
	assert.Equal(t, 7, store.GetInt("i64"))
	assert.Equal(t, 1, store.GetInt("f"))
	assert.InDelta(t, 1.5, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 42.0, store.GetFloat("i"), 1e-9)
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("list"))
}

func TestConfigStore_WrongTypesReturnZero(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "value"))
	require.NoError(t, store.Set("i", 1))

	assert.Empty(t, store.GetString("i"))
	assert.Zero(t, store.GetInt("s"))
	assert.Zero(t, store.GetFloat("s"))
	assert.False(t, store.GetBool("s"))
	assert.Nil(t, store.GetStringSlice("s"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_PersistenceNoOps(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("k%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("k%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("k%d", i)))
	}
}
