package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidshare/backend/internal/apperr"
)

const maxUploadMemory = 32 << 20

// multipartForm holds the text fields of a parsed request and the temporary
// files its uploads were spooled to. Cleanup removes any file the blob store
// did not consume.
type multipartForm struct {
	r     *http.Request
	files map[string]string
}

// parseUploads parses a multipart (or urlencoded) body and writes every file
// part named in fields to dir.
func parseUploads(r *http.Request, dir string, fields ...string) (*multipartForm, error) {
	form := &multipartForm{r: r, files: map[string]string{}}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return nil, apperr.Wrap(apperr.BadRequest, "invalid multipart body", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "invalid form body", err)
	}

	if r.MultipartForm == nil {
		return form, nil
	}
	for _, field := range fields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		path, err := spool(headers[0].Filename, dir, func() (io.ReadCloser, error) { return headers[0].Open() })
		if err != nil {
			form.Cleanup()
			return nil, apperr.Wrap(apperr.Internal, "failed to store upload", err)
		}
		form.files[field] = path
	}
	return form, nil
}

// Value returns the trimmed text field named key.
func (f *multipartForm) Value(key string) string {
	return strings.TrimSpace(f.r.FormValue(key))
}

// File returns the temporary path of the upload named field, or "".
func (f *multipartForm) File(field string) string {
	return f.files[field]
}

// Cleanup removes the spooled files that still exist.
func (f *multipartForm) Cleanup() {
	for _, path := range f.files {
		_ = os.Remove(path)
	}
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}

func spool(filename, dir string, open func() (io.ReadCloser, error)) (string, error) {
	src, err := open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	dst, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return dst.Name(), nil
}
