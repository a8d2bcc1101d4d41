package form

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/docvqa/internal/docvqa"
)

// File is a user-chosen file handle. It is opened each time its content is
// needed, so a preview and a submission each get their own copy.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type pathFile string

// PathFile returns a File backed by the file at path.
func PathFile(path string) File {
	return pathFile(path)
}

func (p pathFile) Name() string { return filepath.Base(string(p)) }

func (p pathFile) Open() (io.ReadCloser, error) { return os.Open(string(p)) }

type bytesFile struct {
	name string
	data []byte
}

// BytesFile returns a File over data already held in memory.
func BytesFile(name string, data []byte) File {
	return &bytesFile{name: name, data: data}
}

func (b *bytesFile) Name() string { return b.name }

func (b *bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// ReadImage reads f to completion. It returns early with ctx.Err() when ctx
// ends first; the abandoned read finishes in the background.
func ReadImage(ctx context.Context, f File) (*docvqa.Image, error) {
	type result struct {
		data []byte
		err  error
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				select {
				case done <- result{err: fmt.Errorf("panic reading file: %v", r)}:
				default:
				}
			}
		}()
		rc, err := f.Open()
		if err != nil {
			done <- result{err: err}
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fileName(f), r.err)
		}
		return &docvqa.Image{Name: fileName(f), Data: r.data}, nil
	}
}

// fileName returns f.Name(), or "file" when Name itself panics.
func fileName(f File) (name string) {
	defer func() {
		if recover() != nil {
			name = "file"
		}
	}()
	return f.Name()
}

// ReadDataURL reads f and encodes it as a data URL for display.
func ReadDataURL(ctx context.Context, f File) (string, error) {
	img, err := ReadImage(ctx, f)
	if err != nil {
		return "", err
	}
	return img.DataURL(), nil
}
