/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/router"
	"github.com/mmahmood233/localhost/internal/session"
	"github.com/mmahmood233/localhost/internal/staticfs"
	"github.com/mmahmood233/localhost/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestForStaticReturnsStaticHandler(t *testing.T) {
	d := &Dispatcher{}
	loc := &router.Location{Kind: router.KindStatic, DocumentRoot: "/srv/www"}
	h := d.For(loc, &wire.Request{Path: "/index.html"})
	sh, ok := h.(*staticfs.Handler)
	require.True(t, ok)
	require.Equal(t, "/srv/www", sh.Root)
	require.Equal(t, "index.html", sh.IndexFile)
}

func TestForRedirectRespondsWithLocationHeader(t *testing.T) {
	d := &Dispatcher{}
	loc := &router.Location{Kind: router.KindRedirect, RedirectTarget: "/new", RedirectStatus: 302}
	h := d.For(loc, &wire.Request{Path: "/old"})
	resp, herr := h.Handle(context.Background(), &wire.Request{}, nil)
	require.Nil(t, herr)
	require.Equal(t, 302, resp.StatusCode)
	require.Equal(t, "/new", resp.Header.Get("Location"))
}

func TestForSessionWiresSharedStore(t *testing.T) {
	store := session.New(session.Config{MaxSessions: 10})
	defer store.Close()
	d := &Dispatcher{Sessions: store}
	loc := &router.Location{Kind: router.KindSession}
	h := d.For(loc, &wire.Request{Path: "/session"})

	hc := &handler.Context{Cookies: map[string]string{}}
	resp, herr := h.Handle(context.Background(), &wire.Request{Method: wire.GET}, hc)
	require.Nil(t, herr)
	require.Contains(t, string(resp.Body), "visit #1")
}

func TestForUploadWritesFileToConfiguredDir(t *testing.T) {
	dir := t.TempDir()
	d := &Dispatcher{}
	loc := &router.Location{Kind: router.KindUpload, UploadDir: dir, MaxBodySize: 1 << 20}
	h := d.For(loc, &wire.Request{Path: "/upload"})

	body := "--B\r\nContent-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\nContent-Type: text/plain\r\n\r\nhi\r\n--B--\r\n"
	req := &wire.Request{Method: wire.POST, Header: header.New(), Body: []byte(body)}
	req.Header.Set(header.ContentType, `multipart/form-data; boundary=B`)

	resp, herr := h.Handle(context.Background(), req, &handler.Context{})
	require.Nil(t, herr)
	require.Contains(t, string(resp.Body), "a.txt")

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))
}

func TestCGIScriptPathJoinsRelativeRequestPath(t *testing.T) {
	loc := &router.Location{Path: "/cgi-bin", DocumentRoot: "/srv/cgi-bin"}
	req := &wire.Request{Path: "/cgi-bin/hello.py"}
	require.Equal(t, "/srv/cgi-bin/hello.py", cgiScriptPath(loc, req))
}
