// Package memory keeps artifacts and run history in process memory.
package memory

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
)

type storedObject struct {
	body []byte
	obj  pipeline.Object
}

// ArtifactStore stores artifacts in-memory and returns pseudo URIs.
type ArtifactStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

// NewArtifactStore creates an empty store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{objects: make(map[string]storedObject)}
}

// PutObject reads data fully and returns a memory:// URI.
func (s *ArtifactStore) PutObject(_ context.Context, obj pipeline.Object, data io.Reader) (string, error) {
	body, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	obj.Metadata = maps.Clone(obj.Metadata)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Path] = storedObject{body: body, obj: obj}
	return "memory://" + obj.Path, nil
}

// Object returns a copy of the stored bytes and their content type.
func (s *ArtifactStore) Object(path string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.objects[path]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), stored.body...), stored.obj.ContentType, true
}

// Metadata returns a copy of the metadata stored with path.
func (s *ArtifactStore) Metadata(path string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.objects[path].obj.Metadata)
}

// Len returns the number of stored objects.
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
