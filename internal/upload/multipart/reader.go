/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package multipart implements multipart/form-data parsing over an
// in-memory body. Folded from the teacher's mime/ package
// (multipart_reader.go, part.go, part_reader.go, utils.go): the
// boundary-scanning state machine (NextPart, scanUntilBoundary,
// matchAfterPrefix) is kept near-verbatim, since RFC 2046 boundary
// delimiter matching doesn't change whether the source is a live socket
// or a []byte already sitting in memory. The teacher's per-part header
// reader is replaced by readMIMEHeader (headers.go), and the on-disk file
// spill path is dropped, since internal/conn hands handlers an
// already-buffered body (spec §6) and there is no streaming socket to
// spill from.
package multipart

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/mmahmood233/localhost/internal/header"
)

// Part is a single part of a multipart/form-data body.
type Part struct {
	Header header.Header

	mr *Reader
	r  io.Reader

	disposition       string
	dispositionParams map[string]string

	n       int
	total   int64
	err     error
	readErr error
}

// FormName returns the "name" Content-Disposition parameter, or "" if
// the part isn't form-data.
func (p *Part) FormName() string {
	if p.dispositionParams == nil {
		p.parseContentDisposition()
	}
	if p.disposition != "form-data" {
		return ""
	}
	return p.dispositionParams["name"]
}

// FileName returns the "filename" Content-Disposition parameter.
func (p *Part) FileName() string {
	if p.dispositionParams == nil {
		p.parseContentDisposition()
	}
	return p.dispositionParams["filename"]
}

func (p *Part) parseContentDisposition() {
	v := p.Header.Get(header.ContentDisposition)
	var err error
	p.disposition, p.dispositionParams, err = parseMediaType(v)
	if err != nil {
		p.dispositionParams = map[string]string{}
	}
}

func (p *Part) populateHeaders() error {
	h, err := readMIMEHeader(p.mr.bufReader)
	if err == nil {
		p.Header = h
	}
	return err
}

// Read reads the body of a part, after its headers and before the next
// part (if any) begins.
func (p *Part) Read(d []byte) (n int, err error) { return p.r.Read(d) }

func (p *Part) Close() error {
	_, _ = io.Copy(io.Discard, p)
	return nil
}

type partReader struct{ p *Part }

func (pr partReader) Read(d []byte) (int, error) {
	p := pr.p
	br := p.mr.bufReader

	for p.n == 0 && p.err == nil {
		peek, _ := br.Peek(br.Buffered())
		p.n, p.err = scanUntilBoundary(peek, p.mr.dashBoundary, p.mr.nlDashBoundary, p.total, p.readErr)
		if p.n == 0 && p.err == nil {
			_, p.readErr = br.Peek(len(peek) + 1)
			if p.readErr == io.EOF {
				p.readErr = io.ErrUnexpectedEOF
			}
		}
	}
	if p.n == 0 {
		return 0, p.err
	}
	n := len(d)
	if n > p.n {
		n = p.n
	}
	n, _ = br.Read(d[:n])
	p.total += int64(n)
	p.n -= n
	if p.n == 0 {
		return n, p.err
	}
	return n, nil
}

// Reader is an iterator over parts in a multipart body.
type Reader struct {
	bufReader *bufio.Reader

	currentPart *Part
	partsRead   int

	newLine          []byte
	nlDashBoundary   []byte
	dashBoundaryDash []byte
	dashBoundary     []byte
}

// NewReader returns a Reader over r using boundary, usually obtained from
// the Content-Type header's "boundary" parameter.
func NewReader(r io.Reader, boundary string) *Reader {
	b := []byte("\r\n--" + boundary + "--")
	return &Reader{
		bufReader:        bufio.NewReaderSize(r, 4096),
		newLine:          b[:2],
		nlDashBoundary:   b[:len(b)-2],
		dashBoundaryDash: b[2:],
		dashBoundary:     b[2 : len(b)-2],
	}
}

func newPart(mr *Reader) (*Part, error) {
	bp := &Part{Header: header.New(), mr: mr}
	if err := bp.populateHeaders(); err != nil {
		return nil, err
	}
	bp.r = partReader{bp}
	return bp, nil
}

// NextPart returns the next part, or io.EOF once the terminal boundary
// has been consumed.
func (r *Reader) NextPart() (*Part, error) {
	if r.currentPart != nil {
		r.currentPart.Close()
	}

	expectNewPart := false
	for {
		line, err := r.bufReader.ReadSlice('\n')
		if err == io.EOF && r.isFinalBoundary(line) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("multipart: NextPart: %w", err)
		}

		if r.isBoundaryDelimiterLine(line) {
			r.partsRead++
			bp, err := newPart(r)
			if err != nil {
				return nil, err
			}
			r.currentPart = bp
			return bp, nil
		}

		if r.isFinalBoundary(line) {
			return nil, io.EOF
		}

		if expectNewPart {
			return nil, fmt.Errorf("multipart: expecting a new part; got line %q", string(line))
		}

		if r.partsRead == 0 {
			continue // preamble
		}

		if bytes.Equal(line, r.newLine) {
			expectNewPart = true
			continue
		}

		return nil, fmt.Errorf("multipart: unexpected line %q", string(line))
	}
}

func (r *Reader) isFinalBoundary(line []byte) bool {
	if len(line) < len(r.dashBoundaryDash) || !bytes.Equal(line[:len(r.dashBoundaryDash)], r.dashBoundaryDash) {
		return false
	}
	rest := skipLWSP(line[len(r.dashBoundaryDash):])
	return len(rest) == 0 || bytes.Equal(rest, r.newLine)
}

func (r *Reader) isBoundaryDelimiterLine(line []byte) bool {
	if len(line) < len(r.dashBoundary) || !bytes.Equal(line[:len(r.dashBoundary)], r.dashBoundary) {
		return false
	}
	rest := skipLWSP(line[len(r.dashBoundary):])
	if r.partsRead == 0 && len(rest) == 1 && rest[0] == '\n' {
		r.newLine = r.newLine[1:]
		r.nlDashBoundary = r.nlDashBoundary[1:]
	}
	return bytes.Equal(rest, r.newLine)
}

func skipLWSP(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}

// scanUntilBoundary reports how much of buf is safe-to-return part body,
// per RFC 2046's boundary delimiter grammar.
func scanUntilBoundary(buf, dashBoundary, nlDashBoundary []byte, total int64, readErr error) (int, error) {
	if total == 0 {
		if len(buf) >= len(dashBoundary) && bytes.Equal(buf[:len(dashBoundary)], dashBoundary) {
			switch matchAfterPrefix(buf, dashBoundary, readErr) {
			case -1:
				return len(dashBoundary), nil
			case 0:
				return 0, nil
			case +1:
				return 0, io.EOF
			}
		}
		if len(dashBoundary) >= len(buf) && bytes.Equal(dashBoundary[:len(buf)], buf) {
			return 0, readErr
		}
	}

	if i := bytes.Index(buf, nlDashBoundary); i >= 0 {
		switch matchAfterPrefix(buf[i:], nlDashBoundary, readErr) {
		case -1:
			return i + len(nlDashBoundary), nil
		case 0:
			return i, nil
		case +1:
			return i, io.EOF
		}
	}
	if len(nlDashBoundary) >= len(buf) && bytes.Equal(nlDashBoundary[:len(buf)], buf) {
		return 0, readErr
	}

	i := bytes.LastIndexByte(buf, nlDashBoundary[0])
	if i >= 0 && len(nlDashBoundary) >= len(buf[i:]) && bytes.Equal(nlDashBoundary[:len(buf[i:])], buf[i:]) {
		return i, nil
	}
	return len(buf), readErr
}

func matchAfterPrefix(buf, prefix []byte, readErr error) int {
	if len(buf) == len(prefix) {
		if readErr != nil {
			return +1
		}
		return 0
	}
	c := buf[len(prefix)]
	if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '-' {
		return +1
	}
	return -1
}
