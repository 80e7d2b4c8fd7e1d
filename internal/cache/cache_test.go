package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	prev := client
	SetClient(c)
	t.Cleanup(func() {
		_ = c.Close()
		SetClient(prev)
	})
	return mr
}

func TestInitRedis(t *testing.T) {
	t.Run("connects via url", func(t *testing.T) {
		mr := miniredis.RunT(t)
		prev := client
		t.Cleanup(func() { SetClient(prev) })

		require.NoError(t, InitRedis("redis://"+mr.Addr()))
		assert.NotNil(t, GetClient())
	})

	t.Run("invalid url", func(t *testing.T) {
		assert.Error(t, InitRedis("redis://%zz"))
	})

	t.Run("unreachable", func(t *testing.T) {
		assert.Error(t, InitRedis("127.0.0.1:1"))
	})
}

func TestAside(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	calls := 0
	load := func(dest *[]string) func() error {
		return func() error {
			calls++
			*dest = []string{"a", "b"}
			return nil
		}
	}

	var got []string
	require.NoError(t, Aside(ctx, FeedKey, &got, FeedTTL, load(&got)))
	assert.Equal(t, []string{"a", "b"}, got)

	var again []string
	require.NoError(t, Aside(ctx, FeedKey, &again, FeedTTL, load(&again)))
	assert.Equal(t, []string{"a", "b"}, again)
	assert.Equal(t, 1, calls)

	mr.FastForward(FeedTTL + time.Second)
	var third []string
	require.NoError(t, Aside(ctx, FeedKey, &third, FeedTTL, load(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := useMiniredis(t)
	boom := errors.New("boom")

	var n int
	err := Aside(context.Background(), "k", &n, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestAside_NoClient(t *testing.T) {
	prev := client
	SetClient(nil)
	t.Cleanup(func() { SetClient(prev) })

	var n int
	err := Aside(context.Background(), "k", &n, time.Minute, func() error {
		n = 7
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestInvalidateFeed(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, FeedKey, []int{1}, time.Minute))
	require.NoError(t, SetJSON(ctx, UserPostsKey(4), []int{1}, time.Minute))
	require.NoError(t, SetJSON(ctx, UserPostsKey(5), []int{1}, time.Minute))

	InvalidateFeed(ctx, 4)

	assert.False(t, mr.Exists(FeedKey))
	assert.False(t, mr.Exists("posts:user:4"))
	assert.True(t, mr.Exists("posts:user:5"))

	gen, err := mr.Get("posts:user:4:gen")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.False(t, mr.Exists("posts:user:5:gen"))
}

func TestAside_InvalidatedDuringFetch(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	calls := 0
	var got []string
	err := Aside(ctx, UserPostsKey(4), &got, FeedTTL, func() error {
		calls++
		got = []string{"stale"}
		// A writer commits and invalidates while the read is in flight.
		InvalidateFeed(ctx, 4)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, got)
	assert.False(t, mr.Exists(UserPostsKey(4)))

	var fresh []string
	require.NoError(t, Aside(ctx, UserPostsKey(4), &fresh, FeedTTL, func() error {
		calls++
		fresh = []string{"fresh"}
		return nil
	}))
	assert.Equal(t, 2, calls)
	assert.True(t, mr.Exists(UserPostsKey(4)))

	var cached []string
	require.NoError(t, Aside(ctx, UserPostsKey(4), &cached, FeedTTL, func() error {
		calls++
		return nil
	}))
	assert.Equal(t, []string{"fresh"}, cached)
	assert.Equal(t, 2, calls)
}

func TestSetJSONIfGeneration(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	gen, err := Generation(ctx, FeedKey)
	require.NoError(t, err)
	assert.Equal(t, "0", gen)

	stored, err := SetJSONIfGeneration(ctx, FeedKey, gen, []int{1}, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, time.Minute, mr.TTL(FeedKey))

	Invalidate(ctx, FeedKey)
	next, err := Generation(ctx, FeedKey)
	require.NoError(t, err)
	assert.Equal(t, "1", next)

	stored, err = SetJSONIfGeneration(ctx, FeedKey, gen, []int{2}, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists(FeedKey))
}
