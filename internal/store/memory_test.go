package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Set(ctx, "a", []byte("one")))
	require.NoError(t, st.Set(ctx, "b", []byte("two")))

	value, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), value)

	require.NoError(t, st.Delete(ctx, "a", "b", "never-set"))
	assert.Equal(t, 0, st.Len())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	original := []byte("value")
	require.NoError(t, st.Set(ctx, "k", original))
	original[0] = 'X'

	value, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	value[0] = 'Y'
	again, _ := st.Get(ctx, "k")
	assert.Equal(t, []byte("value"), again)
}

func TestMemoryStore_Budget(t *testing.T) {
	st := NewMemoryStoreWithBudget(10)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "a", []byte("12345")))
	require.NoError(t, st.Set(ctx, "b", []byte("12345")))
	assert.ErrorIs(t, st.Set(ctx, "c", []byte("1")), ErrQuotaExceeded)

	// overwriting accounts for the old value
	require.NoError(t, st.Set(ctx, "a", []byte("123")))
	require.NoError(t, st.Set(ctx, "c", []byte("12")))

	require.NoError(t, st.Delete(ctx, "b"))
	require.NoError(t, st.Set(ctx, "d", []byte("12345")))
}

func TestSetWithRecovery(t *testing.T) {
	ctx := context.Background()

	t.Run("plain write", func(t *testing.T) {
		st := NewMemoryStore()
		err := SetWithRecovery(ctx, st, "k", []byte("v"), nil, nil)
		require.NoError(t, err)
	})

	t.Run("frees related keys and retries shrunk payload", func(t *testing.T) {
		st := NewMemoryStoreWithBudget(12)
		require.NoError(t, st.Set(ctx, "owned", []byte("123456")))
		require.NoError(t, st.Set(ctx, "foreign", []byte("1234")))

		shrinkCalled := false
		err := SetWithRecovery(ctx, st, "k", []byte("0123456789"), []string{"owned"}, func() ([]byte, error) {
			shrinkCalled = true
			return []byte("small"), nil
		})
		require.NoError(t, err)
		assert.True(t, shrinkCalled)

		_, err = st.Get(ctx, "owned")
		assert.ErrorIs(t, err, ErrNotFound)
		foreign, err := st.Get(ctx, "foreign")
		require.NoError(t, err)
		assert.Equal(t, []byte("1234"), foreign)
		value, err := st.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("small"), value)
	})

	t.Run("gives up after one retry", func(t *testing.T) {
		st := NewMemoryStoreWithBudget(4)
		err := SetWithRecovery(ctx, st, "k", []byte("0123456789"), nil, func() ([]byte, error) {
			return []byte("still too big"), nil
		})
		assert.ErrorIs(t, err, ErrNotPersisted)
		_, getErr := st.Get(ctx, "k")
		assert.ErrorIs(t, getErr, ErrNotFound)
	})
}
