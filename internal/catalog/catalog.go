// Package catalog serves the category catalog, a JSON document kept outside
// the store. The file is read on every call so edits show up without a
// restart.
package catalog

import (
	"context"
	"fmt"
	"os"
)

// MIMEType is the media type of the catalog document.
const MIMEType = "application/json"

type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

// Path returns the location of the document.
func (f *File) Path() string {
	return f.path
}

// Read returns the document bytes unmodified.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read categories %s: %w", f.path, err)
	}
	return data, nil
}
