package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// File reads the workbook from the local filesystem on every open, so edits
// to the file are picked up by the next reload.
type File struct {
	path string
}

// NewFile returns a source for path
func NewFile(path string) *File {
	return &File{path: path}
}

// Open opens the workbook file
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", f.path, err)
	}
	return fh, nil
}

// Name returns the file path
func (f *File) Name() string {
	return f.path
}
