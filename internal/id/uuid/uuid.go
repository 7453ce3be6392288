// Package uuid generates run identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// Generator creates UUID v7 strings. Version 7 IDs sort by creation time,
// which keeps run IDs in log output ordered.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

var _ archive.IDGenerator = Generator{}
