package digest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const helloDigest = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func TestHashDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	require.Equal(t, helloDigest, h.Hash([]byte("hello world")))
	require.Equal(t, h.Hash([]byte("hello world")), h.Hash([]byte("hello world")))
}

func TestHashFileMatchesHash(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "books_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))

	got, err := New().HashFile(path)
	require.NoError(t, err)
	require.Equal(t, helloDigest, got)
}

func TestHashFileMissing(t *testing.T) {
	t.Parallel()

	_, err := New().HashFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
