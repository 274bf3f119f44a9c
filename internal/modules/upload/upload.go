// Package upload sends media files either to the backend media endpoint or to
// an S3 image bed, and sequences uploads ahead of form mutations.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/mutualsplus/site/internal/apiclient"
)

// ErrNoURL is returned when an upload succeeded but produced no public URL.
var ErrNoURL = apiclient.ErrNoUploadURL

// ErrTooLarge is returned when a file exceeds the configured size limit.
var ErrTooLarge = errors.New("file too large")

// File is a pending upload held in memory until the form is submitted.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
	Folder      string
}

// Size returns the payload length in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// FromFormFile reads a multipart file into memory. A nil header (no file
// chosen) returns nil without error.
func FromFormFile(fh *multipart.FileHeader, folder string, maxBytes int64) (*File, error) {
	if fh == nil || (fh.Size == 0 && fh.Filename == "") {
		return nil, nil
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, fmt.Errorf("%s: %w", fh.Filename, ErrTooLarge)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	var buf bytes.Buffer
	reader := io.Reader(src)
	if maxBytes > 0 {
		reader = io.LimitReader(src, maxBytes+1)
	}
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	if maxBytes > 0 && int64(buf.Len()) > maxBytes {
		return nil, fmt.Errorf("%s: %w", fh.Filename, ErrTooLarge)
	}
	if buf.Len() == 0 {
		return nil, nil
	}
	return &File{
		Filename:    filepath.Base(fh.Filename),
		ContentType: DetectContentType(fh.Filename, buf.Bytes(), fh.Header.Get("Content-Type")),
		Data:        buf.Bytes(),
		Folder:      folder,
	}, nil
}

// DetectContentType picks the declared type, then the extension, then sniffs
// the payload.
func DetectContentType(filename string, payload []byte, declared string) string {
	if ct := strings.TrimSpace(declared); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename))); ext != "" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			return guessed
		}
	}
	if len(payload) > 0 {
		return http.DetectContentType(payload)
	}
	return "application/octet-stream"
}

// Pending pairs a form field with the file chosen for it.
type Pending struct {
	Field string
	File  *File
}

// Error reports which field failed to upload.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("upload %s: %v", e.Field, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Submit uploads every pending file first and only then calls mutate with the
// hosted URLs keyed by field. When any upload fails mutate is never called.
func Submit[T any](ctx context.Context, up Uploader, pending []Pending, mutate func(ctx context.Context, urls map[string]string) (T, error)) (T, error) {
	urls := make(map[string]string, len(pending))
	for _, p := range pending {
		if p.File == nil {
			continue
		}
		if up == nil {
			var zero T
			return zero, &Error{Field: p.Field, Err: errors.New("no uploader configured")}
		}
		u, err := up.Upload(ctx, *p.File)
		if err != nil {
			var zero T
			return zero, &Error{Field: p.Field, Err: err}
		}
		urls[p.Field] = u
	}
	return mutate(ctx, urls)
}
