package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Stop()

	c.Set("key", 42)
	val, found := c.Get("key")
	require.True(t, found)
	require.Equal(t, 42, val)

	_, found = c.Get("missing")
	require.False(t, found)
}

func TestExpiration(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Stop()

	c.SetWithTTL("key", "value", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, found := c.Get("key")
	require.False(t, found)
}

func TestGetOrSet(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Stop()

	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return "computed", nil
	}

	val, err := c.GetOrSet("key", fn)
	require.NoError(t, err)
	require.Equal(t, "computed", val)

	// Второй вызов берёт из кэша
	val, err = c.GetOrSet("key", fn)
	require.NoError(t, err)
	require.Equal(t, "computed", val)
	require.Equal(t, 1, calls)
}

func TestGetOrSetError(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Stop()

	wantErr := errors.New("db down")
	_, err := c.GetOrSet("key", func() (interface{}, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// Ошибка не кэшируется
	require.Zero(t, c.Count())
}

func TestDeletePrefix(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Stop()

	c.Set("media:public:false", 1)
	c.Set("media:personal:false", 2)
	c.Set("stats", 3)

	c.DeletePrefix("media:")
	require.Equal(t, 1, c.Count())

	_, found := c.Get("stats")
	require.True(t, found)
}
