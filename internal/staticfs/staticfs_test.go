/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package staticfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/wire"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("hello world"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	return dir
}

func TestServeFileFullBody(t *testing.T) {
	dir := writeFixture(t)
	h := &Handler{Root: dir, IndexFile: "index.html"}
	req := &wire.Request{Method: wire.GET, Path: "/index.html", Header: header.New()}
	resp, herr := h.Handle(context.Background(), req, nil)
	require.Nil(t, herr)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "hello world", string(resp.Body))
}

func TestServeFileRange(t *testing.T) {
	dir := writeFixture(t)
	h := &Handler{Root: dir}
	req := &wire.Request{Method: wire.GET, Path: "/index.html", Header: header.New()}
	req.Header.Set(header.Range, "bytes=0-4")
	resp, herr := h.Handle(context.Background(), req, nil)
	require.Nil(t, herr)
	require.Equal(t, 206, resp.StatusCode)
	require.Equal(t, "hello", string(resp.Body))
	require.Equal(t, "bytes 0-4/11", resp.Header.Get(header.ContentRange))
}

func TestServeIndexForDirectory(t *testing.T) {
	dir := writeFixture(t)
	h := &Handler{Root: dir, IndexFile: "index.html"}
	req := &wire.Request{Method: wire.GET, Path: "/", Header: header.New()}
	resp, herr := h.Handle(context.Background(), req, nil)
	require.Nil(t, herr)
	require.Equal(t, "hello world", string(resp.Body))
}

func TestDirectoryListingWhenNoIndex(t *testing.T) {
	dir := writeFixture(t)
	h := &Handler{Root: dir, DirectoryListing: true}
	req := &wire.Request{Method: wire.GET, Path: "/", Header: header.New()}
	resp, herr := h.Handle(context.Background(), req, nil)
	require.Nil(t, herr)
	require.Contains(t, string(resp.Body), "index.html")
	require.Contains(t, string(resp.Body), "sub")
}

func TestForbiddenWithoutListingOrIndex(t *testing.T) {
	dir := writeFixture(t)
	h := &Handler{Root: dir}
	req := &wire.Request{Method: wire.GET, Path: "/sub", Header: header.New()}
	_, herr := h.Handle(context.Background(), req, nil)
	require.NotNil(t, herr)
	require.Equal(t, handler.Forbidden, herr.Kind)
}

func TestPathTraversalIsContainedWithinRoot(t *testing.T) {
	// path.Clean collapses ".." segments against the request-target's own
	// root before the join, so a traversal attempt resolves to a path
	// still rooted at Root (and, here, simply not found) rather than
	// escaping onto the host filesystem.
	dir := writeFixture(t)
	h := &Handler{Root: dir}
	req := &wire.Request{Method: wire.GET, Path: "/../../etc/passwd", Header: header.New()}
	_, herr := h.Handle(context.Background(), req, nil)
	require.NotNil(t, herr)
	require.Equal(t, handler.NotFound, herr.Kind)
}

func TestNotFound(t *testing.T) {
	dir := writeFixture(t)
	h := &Handler{Root: dir}
	req := &wire.Request{Method: wire.GET, Path: "/missing.txt", Header: header.New()}
	_, herr := h.Handle(context.Background(), req, nil)
	require.NotNil(t, herr)
	require.Equal(t, handler.NotFound, herr.Kind)
}
