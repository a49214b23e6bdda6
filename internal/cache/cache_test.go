package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SetGet(t *testing.T) {
	m, err := NewManager(t.TempDir(), time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Set("agents", []string{"b1\tSupport"}))

	values, ok := m.Get("agents")
	require.True(t, ok)
	assert.Equal(t, []string{"b1\tSupport"}, values)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestManager_Expiry(t *testing.T) {
	m, err := NewManager(t.TempDir(), time.Minute)
	require.NoError(t, err)

	now := time.Now()
	m.now = func() time.Time { return now }
	require.NoError(t, m.Set("agents", []string{"b1"}))

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok := m.Get("agents")
	assert.False(t, ok)
}

func TestManager_KeySanitized(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Set("files/../b1", []string{"f1"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")

	values, ok := m.Get("files/../b1")
	require.True(t, ok)
	assert.Equal(t, []string{"f1"}, values)
}

func TestManager_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, time.Minute)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "agents.json"), []byte("{"), 0644))
	_, ok := m.Get("agents")
	assert.False(t, ok)
}

func TestManager_Fetch(t *testing.T) {
	m, err := NewManager(t.TempDir(), time.Minute)
	require.NoError(t, err)

	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"b1", "b2"}, nil
	}

	values, err := m.Fetch("agents", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, values)

	values, err = m.Fetch("agents", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, values)
	assert.Equal(t, 1, calls)

	_, err = m.Fetch("other", func() ([]string, error) { return nil, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	_, ok := m.Get("other")
	assert.False(t, ok)
}

func TestManager_Clear(t *testing.T) {
	m, err := NewManager(t.TempDir(), time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Set("a", []string{"1"}))
	require.NoError(t, m.Set("b", []string{"2"}))

	require.NoError(t, m.Clear("a"))
	require.NoError(t, m.Clear("a"))
	_, ok := m.Get("a")
	assert.False(t, ok)

	require.NoError(t, m.ClearAll())
	_, ok = m.Get("b")
	assert.False(t, ok)
}
