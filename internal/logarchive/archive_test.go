package logarchive

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := New(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	return a
}

func TestArchive_PutOpenRoundTrip(t *testing.T) {
	a := newTestArchive(t)
	content := []byte("COMMIT_START\nSHA: abc\nCOMMIT_END\n")

	hash, err := a.Put(content)
	require.NoError(t, err)
	require.Len(t, hash, 64)

	r, size, err := a.Open(hash)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(len(content)), size)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestArchive_PutIdempotent(t *testing.T) {
	a := newTestArchive(t)
	content := []byte("the same upload twice")

	first, err := a.Put(content)
	require.NoError(t, err)

	second, err := a.Put(content)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestArchive_TwoLevelLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "archive")
	a, err := New(root)
	require.NoError(t, err)

	hash, err := a.Put([]byte("layout check"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, hash[:2], hash[2:]))
	assert.NoError(t, err)
}

func TestArchive_OpenMissing(t *testing.T) {
	a := newTestArchive(t)

	_, _, err := a.Open("0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchive_HasAndDelete(t *testing.T) {
	a := newTestArchive(t)

	hash, err := a.Put([]byte("to be removed"))
	require.NoError(t, err)

	ok, err := a.Has(hash)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Delete(hash))

	ok, err = a.Has(hash)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is fine.
	assert.NoError(t, a.Delete(hash))
}

func TestArchive_InvalidHash(t *testing.T) {
	a := newTestArchive(t)

	ok, err := a.Has("not-a-hash")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = a.Open("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, a.Delete("../escape"))
}
