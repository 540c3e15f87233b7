package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "7.txt", strings.NewReader("first")))
	require.NoError(t, store.Save(ctx, "7.txt", strings.NewReader("second")))

	data, err := ReadAll(ctx, store, "7.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// no temporary files are left behind
	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocal_List(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"4.pdf", "4.txt", "42.bib", "5.pdf"} {
		require.NoError(t, store.Save(ctx, name, strings.NewReader(name)))
	}
	require.NoError(t, os.Mkdir(filepath.Join(store.Root(), "4.dir"), 0o755))

	names, err := store.List(ctx, "4.")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"4.pdf", "4.txt"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestLocal_RemoveMissing(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = store.Remove(ctx, "9.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Open(ctx, "9.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_InvalidName(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../1.pdf", "a/b.txt"} {
		err := store.Save(ctx, name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "42.pdf", Name(42, "pdf"))
	assert.Equal(t, "42.42", Name(42, "42"))
	assert.Equal(t, "7.", Prefix(7))

	id, ok := ParseID("42.tar.gz")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	for _, name := range []string{"notes.txt", "0.pdf", "42", ".upload-x"} {
		_, ok := ParseID(name)
		assert.False(t, ok, name)
	}
}
