package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	t.Run("expires", func(t *testing.T) {
		now = now.Add(time.Minute)
		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrMiss)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("no ttl never expires", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "forever", []byte("x"), 0))
		now = now.Add(24 * 365 * time.Hour)
		_, err := s.Get(ctx, "forever")
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))
		require.NoError(t, s.Delete(ctx, "a", "b", "never-set"))
		_, err := s.Get(ctx, "a")
		assert.ErrorIs(t, err, ErrMiss)
		_, err = s.Get(ctx, "b")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("stored value is copied", func(t *testing.T) {
		buf := []byte("abc")
		require.NoError(t, s.Set(ctx, "copy", buf, 0))
		buf[0] = 'z'
		got, err := s.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type item struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}

	var out []item
	found, err := GetJSON(ctx, s, "members", &out)
	require.NoError(t, err)
	assert.False(t, found)

	in := []item{{ID: "1", Role: "owner"}, {ID: "2", Role: "viewer"}}
	require.NoError(t, SetJSON(ctx, s, "members", in, time.Hour))

	found, err = GetJSON(ctx, s, "members", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	require.NoError(t, s.Set(ctx, "bad", []byte("{"), 0))
	_, err = GetJSON(ctx, s, "bad", &out)
	assert.Error(t, err)
}
