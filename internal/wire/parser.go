/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package wire

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/urlpath"
)

// State is the parser's current stage, per spec §3 "Parser state".
type State int

const (
	StateRequestLine State = iota
	StateHeaders
	StateBody
	StateComplete
)

// Parser is a streaming, restartable HTTP/1.1 request parser. Feed may be
// called with any partition of a request's bytes; feeding the same bytes
// in different chunk sizes always produces the same Request (spec §8,
// "Restartable parse"). A Parser is reset and reused across keep-alive
// requests on the same connection via Reset.
type Parser struct {
	limits Limits
	state  State

	buf []byte // bytes received but not yet consumed

	req          Request
	headerBytes  int // running total, for the header-section cap

	chunked       bool
	contentLength int64 // declared Content-Length of a fixed-length body; 0 when chunked
	bodyBuf       []byte
	dec           *ChunkedDecoder
}

// NewParser returns a Parser enforcing the given limits (zero-value fields
// fall back to DefaultLimits).
func NewParser(limits Limits) *Parser {
	p := &Parser{limits: limits.withDefaults()}
	p.reset()
	return p
}

// Reset rearms the parser for the next request on a keep-alive connection,
// per spec §3 "reset to reading-request-line between keep-alive requests".
// Any unconsumed bytes already buffered (pipelined requests) are kept.
func (p *Parser) Reset() {
	leftover := p.buf
	p.reset()
	p.buf = leftover
}

func (p *Parser) reset() {
	p.state = StateRequestLine
	p.req = Request{}
	p.headerBytes = 0
	p.chunked = false
	p.contentLength = 0
	p.bodyBuf = nil
	p.dec = nil
}

// State reports the parser's current stage.
func (p *Parser) State() State { return p.state }

// Request returns the parsed request. Only meaningful once State() ==
// StateComplete.
func (p *Parser) Request() *Request { return &p.req }

// Feed appends b to the internal accumulation buffer and advances parsing
// as far as possible. It returns nil while more data is needed (State()
// will not have reached StateComplete), or a parse error, which is
// terminal for the connection.
func (p *Parser) Feed(b []byte) error {
	if len(b) > 0 {
		p.buf = append(p.buf, b...)
	}
	for {
		var progressed bool
		var err error
		switch p.state {
		case StateRequestLine:
			progressed, err = p.stepRequestLine()
		case StateHeaders:
			progressed, err = p.stepHeaders()
		case StateBody:
			progressed, err = p.stepBody()
		case StateComplete:
			return nil
		}
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

// scanLine finds a CRLF-terminated line at the front of buf. It returns the
// line (without the CRLF), the remaining buffer, and whether a full line
// was found.
func scanLine(buf []byte) (line []byte, rest []byte, found bool) {
	idx := bytes.Index(buf, []byte("\r\n"))
	if idx < 0 {
		return nil, buf, false
	}
	return buf[:idx], buf[idx+2:], true
}

func (p *Parser) stepRequestLine() (bool, error) {
	line, rest, found := scanLine(p.buf)
	if !found {
		if len(p.buf) > p.limits.RequestLine {
			return false, ErrRequestLineTooLong
		}
		return false, nil
	}
	if len(line) > p.limits.RequestLine {
		return false, ErrRequestLineTooLong
	}
	p.buf = rest

	// "Split on single spaces into exactly three tokens": method, target,
	// version. A double space or missing token is malformed.
	first := bytes.IndexByte(line, ' ')
	if first < 0 {
		return false, ErrMalformedRequestLine
	}
	second := bytes.IndexByte(line[first+1:], ' ')
	if second < 0 {
		return false, ErrMalformedRequestLine
	}
	second += first + 1
	if bytes.IndexByte(line[second+1:], ' ') >= 0 {
		return false, ErrMalformedRequestLine
	}

	method := string(line[:first])
	target := string(line[first+1 : second])
	version := string(line[second+1:])

	if !isKnownMethod(method) {
		return false, ErrUnknownMethod
	}
	if !strings.HasPrefix(version, "HTTP/") {
		return false, ErrMalformedVersion
	}
	if target == "" {
		return false, ErrMalformedRequestLine
	}

	tgt := urlpath.Split(target)
	p.req.Method = Method(method)
	p.req.RawPath = tgt.Path
	p.req.Path = urlpath.CleanPath(tgt.Path)
	p.req.RawQuery = tgt.RawQuery
	p.req.Version = version
	p.req.Header = header.New()

	p.state = StateHeaders
	return true, nil
}

func (p *Parser) stepHeaders() (bool, error) {
	line, rest, found := scanLine(p.buf)
	if !found {
		if p.headerBytes > p.limits.Headers {
			return false, ErrHeadersTooLarge
		}
		return false, nil
	}
	consumed := len(line) + 2
	p.headerBytes += consumed
	if p.headerBytes > p.limits.Headers {
		return false, ErrHeadersTooLarge
	}
	p.buf = rest

	if len(line) == 0 {
		// Empty line terminates the header section.
		return p.finishHeaders()
	}

	name, value, err := parseHeaderLine(line)
	if err != nil {
		return false, err
	}
	p.req.Header.Add(name, value)
	return true, nil
}

// parseHeaderLine parses one "Name: value" line, shared by the main header
// section and chunked trailers (spec §4.1a.4: "same grammar as request
// headers").
func parseHeaderLine(line []byte) (name, value string, err error) {
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return "", "", ErrMalformedHeader
	}
	rawName := bytes.TrimRight(line[:colon], " \t")
	if len(rawName) == 0 || !header.ValidFieldName(string(rawName)) {
		return "", "", ErrMalformedHeader
	}
	rawValue := bytes.TrimLeft(line[colon+1:], " \t")
	return string(rawName), string(bytes.TrimRight(rawValue, " \t")), nil
}

func (p *Parser) finishHeaders() (bool, error) {
	if p.req.Header.ContainsToken(header.TransferEncoding, "chunked") {
		p.chunked = true
		p.dec = NewChunkedDecoder(p.limits.Chunk, p.limits.Body)
		p.state = StateBody
		return true, nil
	}

	if cl := p.req.Header.Get(header.ContentLength); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return false, ErrMalformedContentLen
		}
		if n > p.limits.Body {
			return false, ErrBodyTooLarge
		}
		if n == 0 {
			p.state = StateComplete
			return true, nil
		}
		p.contentLength = n
		p.bodyBuf = make([]byte, 0, n)
		p.state = StateBody
		return true, nil
	}

	// No declared body framing: no body.
	p.state = StateComplete
	return true, nil
}

func (p *Parser) stepBody() (bool, error) {
	if p.chunked {
		return p.stepChunkedBody()
	}
	return p.stepFixedLengthBody()
}

func (p *Parser) stepFixedLengthBody() (bool, error) {
	remaining := p.contentLength - int64(len(p.bodyBuf))
	if remaining <= 0 {
		p.req.Body = p.bodyBuf
		p.state = StateComplete
		return true, nil
	}
	if len(p.buf) == 0 {
		return false, nil
	}
	n := int64(len(p.buf))
	if n > remaining {
		n = remaining
	}
	p.bodyBuf = append(p.bodyBuf, p.buf[:n]...)
	p.buf = p.buf[n:]
	if int64(len(p.bodyBuf)) == p.contentLength {
		p.req.Body = p.bodyBuf
		p.state = StateComplete
		return true, nil
	}
	return true, nil
}

func (p *Parser) stepChunkedBody() (bool, error) {
	progressed, err := p.dec.feed(&p.buf)
	if err != nil {
		return false, err
	}
	if p.dec.state != chunkComplete {
		return progressed, nil
	}
	p.req.Body = p.dec.decoded
	p.req.Trailer = p.dec.trailer
	p.state = StateComplete
	return true, nil
}
