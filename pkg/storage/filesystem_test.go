package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndRead(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := s.Save("a.pdf", []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", name)

	data, err := s.Read("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestSaveUniqueNeverOverwrites(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	first, err := s.SaveUnique("signed-123.pdf", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, "signed-123.pdf", first)

	second, err := s.SaveUnique("signed-123.pdf", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, "signed-123-1.pdf", second)

	third, err := s.SaveUnique("signed-123.pdf", []byte("three"))
	require.NoError(t, err)
	assert.Equal(t, "signed-123-2.pdf", third)

	data, err := s.Read(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data, "original artifact is untouched")
}

func TestSaveCreatesNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = s.Save(filepath.Join("nested", "deep", "b.pdf"), []byte("x"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "nested", "deep", "b.pdf"))
	assert.NoError(t, err)
}

func TestDeleteRemovesStoredFile(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save("orphan.pdf", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("orphan.pdf"))
	_, err = s.Read("orphan.pdf")
	assert.Error(t, err)
}

func TestDeleteMissingFileIsNoop(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Delete("never-existed.pdf"))
}
