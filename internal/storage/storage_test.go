package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok := s.Get("encoder")
	assert.False(t, ok)

	require.NoError(t, s.Set("encoder", "nvh264enc"))
	v, ok := s.Get("encoder")
	assert.True(t, ok)
	assert.Equal(t, "nvh264enc", v)

	require.NoError(t, s.Set("encoder", "x264enc"))
	v, _ = s.Get("encoder")
	assert.Equal(t, "x264enc", v)

	require.NoError(t, s.Delete("encoder"))
	_, ok = s.Get("encoder")
	assert.False(t, ok)
	assert.NoError(t, s.Delete("never-set"))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)

	require.NoError(t, m.Set("b", "2"))
	require.NoError(t, m.Set("a", "1"))
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestBadger(t *testing.T) {
	b, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer b.Close()

	exerciseStore(t, b)
}

func TestBadger_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	b, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, b.Set("videoBitRate", "16000"))
	require.NoError(t, b.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok := reopened.Get("videoBitRate")
	assert.True(t, ok)
	assert.Equal(t, "16000", v)
}

func TestBadger_WritesAfterCloseFail(t *testing.T) {
	b, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Set("theme", "dark"), ErrClosed)
	_, ok := b.Get("theme")
	assert.False(t, ok)
	assert.NoError(t, b.Close())
}
