/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package conn implements the per-connection state machine spec §4.2
// describes: Accepting → Reading → Dispatching → Writing → {Reset|Closing}.
// A Connection never performs I/O itself — internal/engine owns the fd and
// calls Connection's Feed/PendingWrite/Advance methods from its readable/writable
// callbacks, exactly the "connection table owned by the loop" ownership
// model spec §9 requires.
package conn

import (
	"net"
	"strconv"
	"time"

	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/wire"
)

// Phase mirrors timeoutmgr.Phase without importing it, so conn has no
// dependency on how deadlines are tracked; the engine translates.
type Phase int

const (
	PhaseReadingHeaders Phase = iota
	PhaseReadingBody
	PhaseWriting
	PhaseKeepAliveIdle
)

// HostPolicy resolves spec §9's open question: missing Host on HTTP/1.1.
type HostPolicy struct {
	Strict     bool   // true: 400 before dispatch. false: synthesize DefaultHost.
	DefaultHost string
}

// Connection is the server-side state for one TCP socket, from accept to
// close. It is exclusively owned and mutated by the event loop: exactly
// one callback touches a given Connection at a time, per spec §5.
type Connection struct {
	FD   int
	Peer net.Addr

	Parser *wire.Parser

	writeBuf []byte // immutable once set; never copied/shrunk while draining
	writeOff int    // monotonically advancing send cursor, per spec §9

	keepAlive    bool // final decision for the in-flight response
	elideBody    bool // true for HEAD
	awaitingWrite bool

	hostPolicy HostPolicy
	serverName string

	createdAt time.Time
}

// New returns a freshly accepted Connection in the Accepting phase (the
// timeout record and socket registration are the engine's job, per spec
// §4.2 "Accepting (external, performed by the event loop)").
func New(fd int, peer net.Addr, limits wire.Limits, hostPolicy HostPolicy, serverName string) *Connection {
	return &Connection{
		FD:         fd,
		Peer:       peer,
		Parser:     wire.NewParser(limits),
		hostPolicy: hostPolicy,
		serverName: serverName,
		createdAt:  time.Now(),
	}
}

// Feed drives the Reading step: hand the engine's latest read()'d bytes to
// the parser. It returns (requestReady, err): requestReady means a
// complete Request is sitting in Connection.Parser.Request() and the
// caller should move to Dispatching; err is a fatal parse error (spec
// §4.2 "Reading").
func (c *Connection) Feed(b []byte) (requestReady bool, err error) {
	if err := c.Parser.Feed(b); err != nil {
		return false, err
	}
	return c.Parser.State() == wire.StateComplete, nil
}

// NeedsHostSynthesis reports whether req is an HTTP/1.1 request lacking a
// Host header, and whether strict policy means it must be rejected
// outright rather than synthesized (spec §4.1 "HTTP/1.1 host requirement",
// §9 "Open question").
func (c *Connection) NeedsHostSynthesis(req *wire.Request) (missing bool, reject bool) {
	if req.Version != "HTTP/1.1" || req.Header.Has(header.Host) {
		return false, false
	}
	if c.hostPolicy.Strict {
		return true, true
	}
	return true, false
}

// SynthesizeHost fills in the configured default Host for a lenient-mode
// request that arrived without one.
func (c *Connection) SynthesizeHost(req *wire.Request) {
	req.Header.Set(header.Host, c.hostPolicy.DefaultHost)
}

// keepAliveRequested computes the client-stated preference purely from
// the request, per spec §4.2 "Keep-alive computation": HTTP/1.1 defaults
// to keep-alive unless Connection: close; HTTP/1.0 defaults to close
// unless Connection: keep-alive is explicit.
func keepAliveRequested(req *wire.Request) bool {
	if req.Version == "HTTP/1.1" {
		return !req.Header.ContainsToken(header.Connection, "close")
	}
	return req.Header.ContainsToken(header.Connection, "keep-alive")
}

// PrepareResponse finalizes the core-owned response headers (Server,
// Date, Content-Length, Connection) and serializes into the write buffer,
// per spec §4.2 "Writing" and §6 "Response headers always added by the
// core". finalError marks a response after which the connection must
// close regardless of either side's stated preference (e.g. a parse
// error response, or a handler signalling DispositionClose).
func (c *Connection) PrepareResponse(req *wire.Request, resp *wire.Response, handlerDisposition handler.Disposition, finalError bool) {
	wantsKeepAlive := true
	if req != nil {
		wantsKeepAlive = keepAliveRequested(req)
	}
	if handlerDisposition == handler.DispositionClose {
		wantsKeepAlive = false
	}
	if resp.Header.ContainsToken(header.Connection, "close") {
		wantsKeepAlive = false
	}
	if finalError {
		wantsKeepAlive = false
	}
	c.keepAlive = wantsKeepAlive

	resp.Header.Set(header.Server, c.serverName)
	resp.Header.Set(header.Date, time.Now().UTC().Format(http1Date))
	if resp.Header.Get(header.ContentLength) == "" {
		resp.Header.Set(header.ContentLength, strconv.Itoa(len(resp.Body)))
	}
	if wantsKeepAlive {
		resp.Header.Set(header.Connection, "keep-alive")
	} else {
		resp.Header.Set(header.Connection, "close")
	}

	c.elideBody = req != nil && req.Method == wire.HEAD
	c.writeBuf = resp.Encode(c.elideBody)
	c.writeOff = 0
	c.awaitingWrite = true
}

const http1Date = "Mon, 02 Jan 2006 15:04:05 GMT"

// PendingWrite reports the bytes still owed to the peer from the write
// buffer's cursor, per spec §9 "Buffered-write cursor".
func (c *Connection) PendingWrite() []byte {
	if !c.awaitingWrite {
		return nil
	}
	return c.writeBuf[c.writeOff:]
}

// Advance moves the send cursor forward by n bytes written, per spec
// §4.2 "Writing". It returns true once the whole buffer has drained.
func (c *Connection) Advance(n int) (drained bool) {
	c.writeOff += n
	return c.writeOff >= len(c.writeBuf)
}

// KeepAlive reports the final keep-alive decision computed by the most
// recent PrepareResponse call.
func (c *Connection) KeepAlive() bool { return c.keepAlive }

// ResetForNextRequest clears write state and rearms the parser for the
// next pipelined/keep-alive request on this connection, per spec §4.2
// "Reset vs Closing".
func (c *Connection) ResetForNextRequest() {
	c.writeBuf = nil
	c.writeOff = 0
	c.awaitingWrite = false
	c.Parser.Reset()
}
