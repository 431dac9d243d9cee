package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	prev := GetClient()
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(prev)
		_ = rdb.Close()
	})
}

func TestAside(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	t.Run("miss fetches and populates", func(t *testing.T) {
		fetches := 0
		var got payload
		err := Aside(ctx, "aside:a", &got, time.Minute, func() error {
			fetches++
			got = payload{Name: "fresh"}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, fetches)
		assert.Equal(t, "fresh", got.Name)

		// Second read is served from the cache.
		var again payload
		err = Aside(ctx, "aside:a", &again, time.Minute, func() error {
			fetches++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, fetches)
		assert.Equal(t, "fresh", again.Name)
	})

	t.Run("fetch errors propagate", func(t *testing.T) {
		var got payload
		err := Aside(ctx, "aside:b", &got, time.Minute, func() error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestAside_NilClientFallsThrough(t *testing.T) {
	prev := GetClient()
	SetClient(nil)
	t.Cleanup(func() { SetClient(prev) })

	fetches := 0
	var got int
	err := Aside(context.Background(), "aside:c", &got, time.Minute, func() error {
		fetches++
		got = 42
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 42, got)
}

func TestInvalidateVolunteers(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, VolunteersKey(), []int{1, 2}, time.Minute))

	var cached []int
	found, err := GetJSON(ctx, VolunteersKey(), &cached)
	require.NoError(t, err)
	require.True(t, found)

	InvalidateVolunteers(ctx)

	found, err = GetJSON(ctx, VolunteersKey(), &cached)
	require.NoError(t, err)
	assert.False(t, found)
}
