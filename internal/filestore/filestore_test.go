package filestore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_SaveOpenDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := New(dir)
	require.NoError(t, err)

	n, err := s.Save("abc.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	f, err := s.Open("abc.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = s.Save("abc.pdf", strings.NewReader("again"))
	assert.Error(t, err, "existing files are never overwritten")

	require.NoError(t, s.Delete("abc.pdf"))
	require.NoError(t, s.Delete("abc.pdf"))
	_, err = os.Stat(filepath.Join(dir, "abc.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_RejectsTraversal(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../x.pdf", "a/b.pdf", ".hidden"} {
		_, err := s.Save(name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestStore_SaveFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.Save("partial.pdf", failingReader{})
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "partial.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}
