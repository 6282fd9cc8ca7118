package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalogue-pipeline/internal/jobs"
	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
)

func TestArtifactStoreCopiesData(t *testing.T) {
	t.Parallel()

	store := NewArtifactStore()
	md := map[string]string{"run_id": "run-1"}
	uri, err := store.PutObject(context.Background(), pipeline.Object{
		Path:        "process/run-1/books_data.parquet",
		ContentType: "application/vnd.apache.parquet",
		Metadata:    md,
	}, bytes.NewReader([]byte("PAR1")))
	require.NoError(t, err)
	require.Equal(t, "memory://process/run-1/books_data.parquet", uri)
	require.Equal(t, 1, store.Len())

	body, contentType, ok := store.Object("process/run-1/books_data.parquet")
	require.True(t, ok)
	require.Equal(t, "application/vnd.apache.parquet", contentType)
	body[0] = 'X'

	again, _, _ := store.Object("process/run-1/books_data.parquet")
	require.Equal(t, "PAR1", string(again))

	md["run_id"] = "changed"
	require.Equal(t, "run-1", store.Metadata("process/run-1/books_data.parquet")["run_id"])

	_, _, ok = store.Object("missing")
	require.False(t, ok)
	require.Nil(t, store.Metadata("missing"))
}

func TestRunStore(t *testing.T) {
	t.Parallel()

	store := NewRunStore()
	ctx := context.Background()
	run := pipeline.RunRecord{ID: "run-1", Kind: jobs.KindScrape, StatusCode: 200}

	require.NoError(t, store.RecordRun(ctx, run))
	require.ErrorIs(t, store.RecordRun(ctx, run), ErrDuplicateRun)
	require.NoError(t, store.RecordRun(ctx, pipeline.RunRecord{ID: "run-2", Kind: jobs.KindProcess}))

	runs := store.Runs()
	require.Len(t, runs, 2)
	require.Equal(t, "run-1", runs[0].ID)

	runs[0].ID = "modified"
	require.Equal(t, "run-1", store.Runs()[0].ID)
}
