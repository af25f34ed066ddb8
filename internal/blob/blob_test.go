package blob

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveAndOpen(t *testing.T) {
	blobs, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ref, err := blobs.Save("alice", "notes.txt", strings.NewReader("file contents"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "alice/"), "expected reference to be scoped to the owner")
	assert.True(t, strings.HasSuffix(ref, "-notes.txt"))

	f, err := blobs.Open(ref)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))
}

func TestLocalStore_SameNameDoesNotClobber(t *testing.T) {
	blobs, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	first, err := blobs.Save("alice", "notes.txt", strings.NewReader("first"))
	require.NoError(t, err)
	second, err := blobs.Save("alice", "notes.txt", strings.NewReader("second"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	f, err := blobs.Open(first)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLocalStore_SaveStripsDirectories(t *testing.T) {
	blobs, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ref, err := blobs.Save("alice", "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "alice/"))
	assert.True(t, strings.HasSuffix(ref, "-passwd"))
}

func TestLocalStore_OpenRejectsEscapingRefs(t *testing.T) {
	blobs, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"../outside.txt", "/etc/passwd", "alice/../../outside.txt"} {
		_, err := blobs.Open(ref)
		assert.Error(t, err, "expected reference %q to be rejected", ref)
	}
}
