package ingestion

import (
	"fmt"
	"strings"
)

// SchemaError reports a required column missing from a feed header.
type SchemaError struct {
	Feed  string
	Path  string
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s feed %s: required column %q not found", e.Feed, e.Path, e.Field)
}

// MissingFilesError lists every configured input that does not exist.
type MissingFilesError struct {
	Paths []string
}

func (e *MissingFilesError) Error() string {
	return "missing required files: " + strings.Join(e.Paths, ", ")
}
