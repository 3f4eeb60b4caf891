/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package handler

import (
	"fmt"

	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/wire"
)

// ErrorPages lets operators override the body served for a given status
// code (config §"error_pages" sub-tree); Render falls back to a minimal
// generated page when no override is configured for code.
type ErrorPages map[int]string

// Render builds a response for status/reason, using pages[status] as the
// response body verbatim if present, or a minimal generated page
// otherwise. This is the "error-page producer" spec §6 and §7 both refer
// to: invoked by the core directly for parse errors (no handler involved
// yet) and by the dispatcher when a Handler returns an *Error.
func (pages ErrorPages) Render(status int, reason string) *wire.Response {
	resp := wire.NewResponse(status, reason)
	body, ok := pages[status]
	if !ok {
		body = fmt.Sprintf("<html><head><title>%d %s</title></head><body><h1>%d %s</h1></body></html>", status, reason, status, reason)
	}
	resp.Header.Set(header.ContentType, "text/html; charset=utf-8")
	resp.Body = []byte(body)
	return resp
}

// RenderKind renders the response for a dispatch-time *Error, setting the
// Allow header for MethodNotAllowed per spec §7.
func (pages ErrorPages) RenderKind(e *Error) *wire.Response {
	status, reason := StatusFor(e.Kind)
	resp := pages.Render(status, reason)
	if e.Kind == MethodNotAllowed && len(e.Allowed) > 0 {
		for _, m := range e.Allowed {
			resp.Header.Add(header.Allow, m)
		}
	}
	return resp
}
