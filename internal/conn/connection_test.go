/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package conn

import (
	"testing"

	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/wire"
	"github.com/stretchr/testify/require"
)

func feedComplete(t *testing.T, c *Connection, raw string) *wire.Request {
	t.Helper()
	ready, err := c.Feed([]byte(raw))
	require.NoError(t, err)
	require.True(t, ready)
	return c.Parser.Request()
}

func TestHTTP11DefaultsKeepAlive(t *testing.T) {
	c := New(1, nil, wire.Limits{}, HostPolicy{}, "localhost-test")
	req := feedComplete(t, c, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	resp := wire.NewResponse(200, "OK")
	c.PrepareResponse(req, resp, handler.DispositionUnspecified, false)
	require.True(t, c.KeepAlive())
	require.Equal(t, "keep-alive", resp.Header.Get(header.Connection))
}

func TestHTTP10DefaultsClose(t *testing.T) {
	c := New(1, nil, wire.Limits{}, HostPolicy{}, "localhost-test")
	req := feedComplete(t, c, "GET / HTTP/1.0\r\n\r\n")
	resp := wire.NewResponse(200, "OK")
	c.PrepareResponse(req, resp, handler.DispositionUnspecified, false)
	require.False(t, c.KeepAlive())
	require.Equal(t, "close", resp.Header.Get(header.Connection))
}

func TestHeadElidesBodyKeepsLength(t *testing.T) {
	c := New(1, nil, wire.Limits{}, HostPolicy{}, "localhost-test")
	req := feedComplete(t, c, "HEAD /index.html HTTP/1.1\r\nHost: x\r\n\r\n")
	resp := wire.NewResponse(200, "OK")
	resp.Body = make([]byte, 42)
	c.PrepareResponse(req, resp, handler.DispositionUnspecified, false)
	require.Equal(t, "42", resp.Header.Get(header.ContentLength))
	require.NotContains(t, string(c.PendingWrite()), string(make([]byte, 42)))
}

func TestMissingHostStrictRejects(t *testing.T) {
	c := New(1, nil, wire.Limits{}, HostPolicy{Strict: true}, "localhost-test")
	req := feedComplete(t, c, "GET / HTTP/1.1\r\n\r\n")
	missing, reject := c.NeedsHostSynthesis(req)
	require.True(t, missing)
	require.True(t, reject)
}

func TestMissingHostLenientSynthesizes(t *testing.T) {
	c := New(1, nil, wire.Limits{}, HostPolicy{Strict: false, DefaultHost: "default.local"}, "localhost-test")
	req := feedComplete(t, c, "GET / HTTP/1.1\r\n\r\n")
	missing, reject := c.NeedsHostSynthesis(req)
	require.True(t, missing)
	require.False(t, reject)
	c.SynthesizeHost(req)
	require.Equal(t, "default.local", req.Header.Get(header.Host))
}

func TestAdvanceDrainsWriteBuffer(t *testing.T) {
	c := New(1, nil, wire.Limits{}, HostPolicy{}, "localhost-test")
	req := feedComplete(t, c, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	resp := wire.NewResponse(200, "OK")
	c.PrepareResponse(req, resp, handler.DispositionUnspecified, false)

	total := len(c.PendingWrite())
	require.False(t, c.Advance(total-1))
	require.True(t, c.Advance(1))

	c.ResetForNextRequest()
	require.Empty(t, c.PendingWrite())
	require.Equal(t, wire.StateRequestLine, c.Parser.State())
}

func TestConnectionCloseHeaderForcesClose(t *testing.T) {
	c := New(1, nil, wire.Limits{}, HostPolicy{}, "localhost-test")
	req := feedComplete(t, c, "GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
	resp := wire.NewResponse(200, "OK")
	c.PrepareResponse(req, resp, handler.DispositionUnspecified, false)
	require.False(t, c.KeepAlive())
}
