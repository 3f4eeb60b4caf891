/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package staticfs serves files from a vhost's document root: directory
// listings when no index file exists, conditional requests, and
// byte-range requests. Grounded on filetransport/http_range.go and
// file_handler.go (range math and conditional-request shape) plus
// original_source/src/fs/static_files.rs (index-file resolution and
// directory-listing policy, which spec.md's distillation dropped).
package staticfs

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/wire"
)

// Handler serves static files rooted at Root. It never escapes Root: any
// resolved path outside it is rejected with Forbidden.
type Handler struct {
	Root             string
	IndexFile        string
	DirectoryListing bool
	// ExtensionMIME is an extension-keyed fast path (keys include the
	// leading dot); mimetype.DetectFile is the fallback for extensions not
	// listed there. internal/dispatch does not set it, so a vhost's
	// configured "mime" map does not reach this handler.
	ExtensionMIME map[string]string
}

var _ handler.Handler = (*Handler)(nil)

func (h *Handler) Handle(_ context.Context, req *wire.Request, _ *handler.Context) (*wire.Response, *handler.Error) {
	rel := strings.TrimPrefix(req.Path, "/")
	fsPath := filepath.Join(h.Root, filepath.FromSlash(path.Clean("/"+rel)))
	if !withinRoot(h.Root, fsPath) {
		return nil, &handler.Error{Kind: handler.Forbidden}
	}

	info, err := os.Stat(fsPath)
	if err != nil {
		return nil, &handler.Error{Kind: handler.NotFound, Err: err}
	}

	if info.IsDir() {
		if h.IndexFile != "" {
			idxPath := filepath.Join(fsPath, h.IndexFile)
			if idxInfo, err := os.Stat(idxPath); err == nil && !idxInfo.IsDir() {
				return h.serveFile(req, idxPath, idxInfo)
			}
		}
		if h.DirectoryListing {
			return h.serveDirectoryListing(req, fsPath)
		}
		return nil, &handler.Error{Kind: handler.Forbidden}
	}

	return h.serveFile(req, fsPath, info)
}

func withinRoot(root, target string) bool {
	rootAbs, err1 := filepath.Abs(root)
	targetAbs, err2 := filepath.Abs(target)
	if err1 != nil || err2 != nil {
		return false
	}
	return targetAbs == rootAbs || strings.HasPrefix(targetAbs, rootAbs+string(filepath.Separator))
}

func (h *Handler) contentType(fsPath string, f *os.File) string {
	ext := strings.ToLower(filepath.Ext(fsPath))
	if ct, ok := h.ExtensionMIME[ext]; ok {
		return ct
	}
	if mt, err := mimetype.DetectFile(fsPath); err == nil {
		return mt.String()
	}
	return "application/octet-stream"
}

func (h *Handler) serveFile(req *wire.Request, fsPath string, info os.FileInfo) (*wire.Response, *handler.Error) {
	f, err := os.Open(fsPath)
	if err != nil {
		return nil, &handler.Error{Kind: handler.Forbidden, Err: err}
	}
	defer f.Close()

	if notModified(req, info) {
		resp := wire.NewResponse(304, "Not Modified")
		resp.Header.Set(header.LastModified, info.ModTime().UTC().Format(http1Date))
		resp.Header.Set(header.ETag, etagFor(info))
		return resp, nil
	}

	ct := h.contentType(fsPath, f)

	rangeHeader := req.Header.Get(header.Range)
	if rangeHeader == "" {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, &handler.Error{Kind: handler.InternalError, Err: err}
		}
		resp := wire.NewResponse(200, "OK")
		resp.Header.Set(header.ContentType, ct)
		resp.Header.Set(header.AcceptRanges, "bytes")
		resp.Header.Set(header.LastModified, info.ModTime().UTC().Format(http1Date))
		resp.Header.Set(header.ETag, etagFor(info))
		resp.Body = data
		return resp, nil
	}

	ranges, err := parseRange(rangeHeader, info.Size())
	if err != nil {
		resp := wire.NewResponse(416, "Range Not Satisfiable")
		resp.Header.Set(header.ContentRange, fmt.Sprintf("bytes */%d", info.Size()))
		return resp, nil
	}
	if len(ranges) != 1 {
		// Multiple ranges (multipart/byteranges) are not produced by this
		// server; fall back to the whole file, matching a conservative,
		// RFC-permitted subset.
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, &handler.Error{Kind: handler.InternalError, Err: err}
		}
		resp := wire.NewResponse(200, "OK")
		resp.Header.Set(header.ContentType, ct)
		resp.Body = data
		return resp, nil
	}
	r := ranges[0]
	buf := make([]byte, r.length)
	if _, err := f.Seek(r.start, io.SeekStart); err != nil {
		return nil, &handler.Error{Kind: handler.InternalError, Err: err}
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, &handler.Error{Kind: handler.InternalError, Err: err}
	}
	resp := wire.NewResponse(206, "Partial Content")
	resp.Header.Set(header.ContentType, ct)
	resp.Header.Set(header.ContentRange, r.contentRange(info.Size()))
	resp.Header.Set(header.AcceptRanges, "bytes")
	resp.Body = buf
	return resp, nil
}

func notModified(req *wire.Request, info os.FileInfo) bool {
	if inm := req.Header.Get(header.IfNoneMatch); inm != "" {
		return inm == etagFor(info) || inm == "*"
	}
	if ims := req.Header.Get(header.IfModifiedSince); ims != "" {
		t, err := time.Parse(http1Date, ims)
		if err == nil && !info.ModTime().After(t) {
			return true
		}
	}
	return false
}

func etagFor(info os.FileInfo) string {
	return fmt.Sprintf(`"%x-%x"`, info.ModTime().UnixNano(), info.Size())
}

const http1Date = "Mon, 02 Jan 2006 15:04:05 GMT"

type dirEntry struct {
	Name  string
	IsDir bool
	Size  int64
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html><head><title>Index of {{.Path}}</title></head>
<body><h1>Index of {{.Path}}</h1><ul>
{{if .Parent}}<li><a href="../">../</a></li>{{end}}
{{range .Entries}}<li><a href="{{.Name}}{{if .IsDir}}/{{end}}">{{.Name}}{{if .IsDir}}/{{end}}</a>{{if not .IsDir}} ({{.Size}} bytes){{end}}</li>
{{end}}</ul></body></html>`))

func (h *Handler) serveDirectoryListing(req *wire.Request, fsPath string) (*wire.Response, *handler.Error) {
	entries, err := os.ReadDir(fsPath)
	if err != nil {
		return nil, &handler.Error{Kind: handler.Forbidden, Err: err}
	}
	out := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, dirEntry{Name: e.Name(), IsDir: e.IsDir(), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	var buf bytes.Buffer
	data := struct {
		Path    string
		Parent  bool
		Entries []dirEntry
	}{Path: req.Path, Parent: req.Path != "/", Entries: out}
	if err := listingTemplate.Execute(&buf, data); err != nil {
		return nil, &handler.Error{Kind: handler.InternalError, Err: err}
	}
	resp := wire.NewResponse(200, "OK")
	resp.Header.Set(header.ContentType, "text/html; charset=utf-8")
	resp.Body = buf.Bytes()
	return resp, nil
}

// httpRange is one parsed byte-range, kept near-verbatim from
// filetransport/http_range.go: the RFC 7233 arithmetic doesn't change
// whether the bytes come from an os.File or anywhere else.
type httpRange struct {
	start, length int64
}

func (r httpRange) contentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.start, r.start+r.length-1, size)
}

// parseRange parses a Range header value per RFC 7233 §2.1, supporting
// "bytes=a-b", "bytes=a-", and "bytes=-n" (suffix) forms.
func parseRange(s string, size int64) ([]httpRange, error) {
	const b = "bytes="
	if !strings.HasPrefix(s, b) {
		return nil, fmt.Errorf("staticfs: invalid range %q", s)
	}
	var ranges []httpRange
	for _, ra := range strings.Split(s[len(b):], ",") {
		ra = strings.TrimSpace(ra)
		if ra == "" {
			continue
		}
		i := strings.IndexByte(ra, '-')
		if i < 0 {
			return nil, fmt.Errorf("staticfs: invalid range %q", ra)
		}
		startStr, endStr := strings.TrimSpace(ra[:i]), strings.TrimSpace(ra[i+1:])
		var r httpRange
		if startStr == "" {
			// suffix-length
			n, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("staticfs: invalid suffix range %q", ra)
			}
			if n > size {
				n = size
			}
			r = httpRange{start: size - n, length: n}
		} else {
			start, err := strconv.ParseInt(startStr, 10, 64)
			if err != nil || start < 0 || start >= size {
				return nil, fmt.Errorf("staticfs: invalid range start %q", startStr)
			}
			end := size - 1
			if endStr != "" {
				e, err := strconv.ParseInt(endStr, 10, 64)
				if err != nil || e < start {
					return nil, fmt.Errorf("staticfs: invalid range end %q", endStr)
				}
				if e < end {
					end = e
				}
			}
			r = httpRange{start: start, length: end - start + 1}
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("staticfs: no ranges in %q", s)
	}
	return ranges, nil
}
