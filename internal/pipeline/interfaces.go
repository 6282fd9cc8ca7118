package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/JakeFAU/catalogue-pipeline/internal/collector"
	"github.com/JakeFAU/catalogue-pipeline/internal/jobs"
	"github.com/JakeFAU/catalogue-pipeline/internal/normalizer"
)

// Resolver maps job IDs to validated descriptors.
type Resolver interface {
	ResolveScrape(id string) (jobs.Descriptor, error)
	ResolveProcess(id string) (jobs.Descriptor, error)
}

// Scraper runs the collector stage.
type Scraper interface {
	Collect(ctx context.Context, baseURL string) (collector.Summary, error)
}

// Processor runs the normalizer stage.
type Processor interface {
	Normalize(ctx context.Context, inputPath string) (normalizer.Report, error)
}

// ArtifactStore mirrors output files and returns a URI.
type ArtifactStore interface {
	PutObject(ctx context.Context, obj Object, data io.Reader) (string, error)
}

// RunStore persists one row per invocation.
type RunStore interface {
	RecordRun(ctx context.Context, run RunRecord) error
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes output digests.
type Hasher interface {
	HashFile(path string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
