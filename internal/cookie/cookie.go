/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package cookie parses the request Cookie header into name/value pairs
// for the handler Context (spec §6). This server never acts as an HTTP
// client, so only request-side parsing is kept; response Set-Cookie
// serialization lives in internal/session, the one producer of cookies
// here.
package cookie

import (
	"strings"

	"github.com/mmahmood233/localhost/internal/header"
)

// Parse reads every "Cookie" header value and returns the last value seen
// for each name, matching the teacher's readCookies semantics trimmed to
// a map a handler can index directly.
func Parse(h header.Header) map[string]string {
	out := make(map[string]string)
	for _, line := range h.Values(header.Cookie) {
		for _, part := range strings.Split(strings.TrimSpace(line), ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, val := part, ""
			if j := strings.IndexByte(part, '='); j >= 0 {
				name, val = part[:j], part[j+1:]
			}
			if !validName(name) {
				continue
			}
			val, ok := unquote(val)
			if !ok {
				continue
			}
			out[name] = val
		}
	}
	return out
}

func unquote(raw string) (string, bool) {
	if len(raw) > 1 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	for i := 0; i < len(raw); i++ {
		if !validValueByte(raw[i]) {
			return "", false
		}
	}
	return raw, true
}

func validName(s string) bool {
	return header.ValidFieldName(s)
}

// validValueByte matches RFC 6265 cookie-octet: a restricted ASCII subset
// excluding control characters, DQUOTE, comma, semicolon, and backslash.
func validValueByte(b byte) bool {
	return 0x21 <= b && b <= 0x7E && b != '"' && b != ',' && b != ';' && b != '\\'
}
