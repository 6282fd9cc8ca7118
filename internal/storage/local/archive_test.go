package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
	"github.com/JakeFAU/catalogue-pipeline/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("CreatesMissingDir", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "archive", "nested")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})
	t.Run("MissingBaseDir", func(t *testing.T) {
		t.Parallel()
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})
	t.Run("BaseDirIsAFile", func(t *testing.T) {
		t.Parallel()
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

func TestPutObject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)

	uri, err := archive.PutObject(context.Background(),
		pipeline.Object{Path: "scrape/run-1/books_data.csv", ContentType: "text/csv"},
		strings.NewReader("Title,Price,Rating,Availability,URL\n"))
	require.NoError(t, err)

	want := filepath.Join(dir, "scrape", "run-1", "books_data.csv")
	assert.Equal(t, "file://"+filepath.ToSlash(want), uri)
	// #nosec G304 -- test reads its own temp file
	got, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "Title,Price,Rating,Availability,URL\n", string(got))
}

func TestPutObjectRejectsTraversal(t *testing.T) {
	t.Parallel()

	archive, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = archive.PutObject(context.Background(), pipeline.Object{Path: "../escape.csv"}, strings.NewReader("x"))
	assert.Error(t, err)
	_, err = archive.PutObject(context.Background(), pipeline.Object{}, strings.NewReader("x"))
	assert.Error(t, err)
}
