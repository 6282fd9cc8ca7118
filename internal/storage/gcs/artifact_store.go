// Package gcs mirrors pipeline outputs into a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
)

var (
	// ErrConfig is returned for an unusable bucket configuration.
	ErrConfig = errors.New("gcs: invalid config")
	// ErrObjectExists is returned when a run's artifact was already uploaded.
	ErrObjectExists = errors.New("gcs: artifact already exists")
)

// Config names the destination bucket.
type Config struct {
	Bucket string
}

// ArtifactStore uploads run outputs as write-once objects carrying the run's
// metadata (run_id, kind, sha256, ...).
type ArtifactStore struct {
	client *storage.Client
	bucket string
}

// New creates a GCS-backed artifact store.
func New(client *storage.Client, cfg Config) (*ArtifactStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: storage client is required", ErrConfig)
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w: bucket name is required", ErrConfig)
	}
	return &ArtifactStore{client: client, bucket: cfg.Bucket}, nil
}

// PutObject uploads data under obj.Path and returns its gs:// URI. An object
// already present at that path is never replaced.
func (s *ArtifactStore) PutObject(ctx context.Context, obj pipeline.Object, data io.Reader) (string, error) {
	name := strings.TrimPrefix(obj.Path, "/")
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("object path is required")
	}

	handle := s.client.Bucket(s.bucket).Object(name).If(storage.Conditions{DoesNotExist: true})
	w := handle.NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.Metadata = maps.Clone(obj.Metadata)

	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close() //nolint:errcheck // copy error takes precedence
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return "", fmt.Errorf("%w: gs://%s/%s", ErrObjectExists, s.bucket, name)
		}
		return "", fmt.Errorf("finalize %s: %w", name, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
