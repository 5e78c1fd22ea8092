package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(body), 0o644))
}

func TestStore_LoadSubstitutesPlaceholders(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "greet", "Hello {{NAME}}, welcome to {{PLACE}}. Bye {{NAME}}.")

	store := NewStore(dir)

	out, err := store.Load("greet", map[string]string{"NAME": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Bob, welcome to {{PLACE}}. Bye Bob.", out)
}

func TestStore_LoadMissingTemplate(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("missing_template", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CachesRawBody(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "x", "one")

	store := NewStore(dir)

	out, err := store.Load("x", nil)
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	// The file changes on disk but the cached body is served.
	writeTemplate(t, dir, "x", "two")

	out, err = store.Load("x", nil)
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	// Refresh bypasses the cache and replaces it.
	out, err = store.Load("x", nil, WithRefresh())
	require.NoError(t, err)
	assert.Equal(t, "two", out)

	out, err = store.Load("x", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", out)
}

func TestStore_Clear(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "x", "one")

	store := NewStore(dir)

	_, err := store.Load("x", nil)
	require.NoError(t, err)

	writeTemplate(t, dir, "x", "two")
	store.Clear("x")

	out, err := store.Load("x", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", out)
}
