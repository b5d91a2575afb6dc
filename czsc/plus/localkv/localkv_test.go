package localkv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Sharpe float64 `json:"sharpe"`
	Trades int     `json:"trades"`
}

func TestGetSet(t *testing.T) {
	kv, err := NewLocalKV(nil)
	require.NoError(t, err)
	defer kv.Close()

	_, err = kv.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set("a", "1"))
	v, err := kv.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, kv.Delete("a"))
	_, err = kv.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemember(t *testing.T) {
	kv, err := NewLocalKV(nil)
	require.NoError(t, err)
	defer kv.Close()

	calls := 0
	compute := func() (any, error) {
		calls++
		return stats{Sharpe: 1.5, Trades: 3}, nil
	}

	var got stats
	hit, err := kv.Remember("stats:abc", &got, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, stats{Sharpe: 1.5, Trades: 3}, got)

	var again stats
	hit, err = kv.Remember("stats:abc", &again, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, calls)

	_, err = kv.Remember("stats:err", &again, func() (any, error) { return nil, errors.New("boom") })
	assert.EqualError(t, err, "boom")

	keys, err := kv.Keys("stats:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"stats:abc"}, keys)
}

func TestTTL(t *testing.T) {
	kv, err := NewLocalKV(nil, WithTTL(50*time.Millisecond))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("k", "v"))
	time.Sleep(120 * time.Millisecond)
	_, err = kv.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileDB(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	kv, err := NewLocalKV(&dir)
	require.NoError(t, err)
	require.NoError(t, kv.SetJSON("s", stats{Trades: 2}))
	require.NoError(t, kv.Close())

	kv, err = NewLocalKV(&dir)
	require.NoError(t, err)
	var got stats
	require.NoError(t, kv.GetJSON("s", &got))
	assert.Equal(t, 2, got.Trades)

	require.NoError(t, kv.RemoveDB())
	_, err = os.Stat(filepath.Join(dir, "kv.db"))
	assert.True(t, os.IsNotExist(err))
}
