// Package runid generates time-ordered run identifiers.
package runid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates UUIDv7 run IDs.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}
