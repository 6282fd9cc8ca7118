package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalogue-pipeline/internal/jobs"
	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
)

func TestRecordRunInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	started := time.Unix(1700000000, 0).UTC()
	run := pipeline.RunRecord{
		ID:          "0190a3c4-0000-7000-8000-000000000001",
		Kind:        jobs.KindScrape,
		JobID:       "books_toscrape",
		Source:      "https://books.toscrape.com/index.html",
		StatusCode:  200,
		Message:     pipeline.MsgScrapeOK,
		OutputPath:  "data/raw/books_data.csv",
		Digest:      "abc123",
		ArtifactURI: "gs://bucket/artifacts/scrape/books_data.csv",
		Records:     1000,
		StartedAt:   started,
		FinishedAt:  started.Add(42 * time.Second),
	}

	mock.ExpectExec("INSERT INTO pipeline_runs").
		WithArgs(
			run.ID,
			"scrape",
			run.JobID,
			run.Source,
			run.StatusCode,
			run.Message,
			run.OutputPath,
			run.Digest,
			run.ArtifactURI,
			run.Records,
			"",
			run.StartedAt,
			run.FinishedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordRun(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRunPropagatesErrors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "runs")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	anyArgs := make([]any, 13)
	for i := range anyArgs {
		anyArgs[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec("INSERT INTO runs").WithArgs(anyArgs...).WillReturnError(boom)

	err = store.RecordRun(context.Background(), pipeline.RunRecord{ID: "run-1", Kind: jobs.KindProcess})
	require.ErrorIs(t, err, boom)
	require.Error(t, store.RecordRun(context.Background(), pipeline.RunRecord{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "runs")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS runs").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConstructorsValidate(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil, "runs")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewWithPool(mock, "runs; DROP TABLE x")
	require.Error(t, err)

	_, err = New(context.Background(), Config{})
	require.Error(t, err)

	var nilStore *RunStore
	require.ErrorIs(t, nilStore.RecordRun(context.Background(), pipeline.RunRecord{ID: "x"}), ErrNotConfigured)
	nilStore.Close()
}
