package pipeline

import (
	"net/http"
	"time"

	"github.com/JakeFAU/catalogue-pipeline/internal/collector"
	"github.com/JakeFAU/catalogue-pipeline/internal/jobs"
	"github.com/JakeFAU/catalogue-pipeline/internal/normalizer"
)

// Status codes carried by a Result.
const (
	StatusOK     = http.StatusOK
	StatusFailed = http.StatusInternalServerError
)

// Human-readable result messages.
const (
	MsgScrapeOK      = "Scraping completed successfully"
	MsgScrapePartial = "Scraping completed with partial results"
	MsgScrapeFailed  = "Scraping failed"
	MsgProcessOK     = "Processing completed successfully"
	MsgProcessFailed = "Processing failed"
)

// Result is the response of one invocation.
type Result struct {
	StatusCode  int                `json:"statusCode"`
	Message     string             `json:"message"`
	RunID       string             `json:"run_id,omitempty"`
	Kind        jobs.Kind          `json:"kind"`
	JobID       string             `json:"job_id,omitempty"`
	CSVPath     string             `json:"csv_path,omitempty"`
	ParquetPath string             `json:"parquet_path,omitempty"`
	ArtifactURI string             `json:"artifact_uri,omitempty"`
	Error       string             `json:"error,omitempty"`
	Scrape      *collector.Summary `json:"scrape,omitempty"`
	Process     *normalizer.Report `json:"process,omitempty"`

	// Err is the typed failure cause for errors.Is checks.
	Err error `json:"-"`
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool { return r.StatusCode == StatusOK }

// Output returns the produced file path, empty on failure.
func (r Result) Output() string {
	if r.CSVPath != "" {
		return r.CSVPath
	}
	return r.ParquetPath
}

// Object describes one artifact upload.
type Object struct {
	Path        string
	ContentType string
	// Metadata is attached to the stored object where the backend supports it.
	Metadata map[string]string
}

// RunRecord is the persisted history row of one invocation.
type RunRecord struct {
	ID          string    `json:"id"`
	Kind        jobs.Kind `json:"kind"`
	JobID       string    `json:"job_id"`
	Source      string    `json:"source"`
	StatusCode  int       `json:"status_code"`
	Message     string    `json:"message"`
	OutputPath  string    `json:"output_path"`
	Digest      string    `json:"digest"`
	ArtifactURI string    `json:"artifact_uri"`
	Records     int       `json:"records"`
	Error       string    `json:"error"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Event is the completion notification payload.
type Event struct {
	RunID       string    `json:"run_id"`
	Kind        jobs.Kind `json:"kind"`
	JobID       string    `json:"job_id,omitempty"`
	StatusCode  int       `json:"status_code"`
	OutputPath  string    `json:"output_path,omitempty"`
	ArtifactURI string    `json:"artifact_uri,omitempty"`
	Digest      string    `json:"digest,omitempty"`
	Records     int       `json:"records"`
	FinishedAt  time.Time `json:"finished_at"`
}
