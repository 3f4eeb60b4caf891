/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseAll(t *testing.T, chunks []string) *Request {
	t.Helper()
	p := NewParser(DefaultLimits)
	for _, c := range chunks {
		require.NoError(t, p.Feed([]byte(c)))
	}
	require.Equal(t, StateComplete, p.State())
	return p.Request()
}

func TestMinimalGET(t *testing.T) {
	req := parseAll(t, []string{"GET / HTTP/1.1\r\nHost: x\r\n\r\n"})
	require.Equal(t, GET, req.Method)
	require.Equal(t, "/", req.Path)
	require.Equal(t, "HTTP/1.1", req.Version)
	require.Equal(t, "x", req.Header.Get("Host"))
	require.Empty(t, req.Body)
}

// TestRestartableParse is spec §8's universal invariant: any partition of a
// valid request's bytes must parse to the same Request as feeding it whole.
func TestRestartableParse(t *testing.T) {
	raw := "POST /upload?x=1 HTTP/1.1\r\nHost: example\r\nContent-Length: 11\r\n\r\nhello world"

	whole := parseAll(t, []string{raw})

	partitions := [][]int{
		{1},
		{5, 10, 1},
		{len(raw) - 1, 1},
	}
	for _, lens := range partitions {
		var chunks []string
		rest := raw
		for _, n := range lens {
			if n > len(rest) {
				n = len(rest)
			}
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		if rest != "" {
			chunks = append(chunks, rest)
		}
		// Feed this partition's chunks in order.
		got := parseAll(t, chunks)
		require.Equal(t, whole.Method, got.Method)
		require.Equal(t, whole.Path, got.Path)
		require.Equal(t, whole.RawQuery, got.RawQuery)
		require.Equal(t, whole.Header.Get("Content-Length"), got.Header.Get("Content-Length"))
		require.Equal(t, string(whole.Body), string(got.Body))
	}

	// Byte-at-a-time, the extreme partition.
	chunks := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		chunks = append(chunks, raw[i:i+1])
	}
	bytewise := parseAll(t, chunks)
	require.Equal(t, whole.Method, bytewise.Method)
	require.Equal(t, string(whole.Body), string(bytewise.Body))
}

func TestChunkedPOSTBody(t *testing.T) {
	raw := "POST /p HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nHello\r\n5\r\nWorld\r\n0\r\n\r\n"
	req := parseAll(t, []string{raw})
	require.Equal(t, "HelloWorld", string(req.Body))
}

func TestChunkedWithTrailers(t *testing.T) {
	raw := "POST /p HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"3\r\nabc\r\n0\r\nX-Checksum: deadbeef\r\n\r\n"
	req := parseAll(t, []string{raw})
	require.Equal(t, "abc", string(req.Body))
	require.Equal(t, "deadbeef", req.Trailer.Get("X-Checksum"))
}

func TestCaseInsensitiveHeaderLookup(t *testing.T) {
	req := parseAll(t, []string{"GET / HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\n\r\n"})
	require.Equal(t, req.Header.Get("content-length"), req.Header.Get("Content-Length"))
}

func TestRequestLineTooLong(t *testing.T) {
	p := NewParser(Limits{RequestLine: 16})
	err := p.Feed([]byte("GET /this/path/is/way/too/long/for/the/cap HTTP/1.1\r\n"))
	require.ErrorIs(t, err, ErrRequestLineTooLong)
}

func TestHeadersTooLarge(t *testing.T) {
	p := NewParser(Limits{Headers: 32})
	err := p.Feed([]byte("GET / HTTP/1.1\r\n"))
	require.NoError(t, err)
	err = p.Feed([]byte("X-Long: " + strings.Repeat("a", 64) + "\r\n\r\n"))
	require.ErrorIs(t, err, ErrHeadersTooLarge)
}

func TestBodyTooLarge(t *testing.T) {
	p := NewParser(Limits{Body: 4})
	err := p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\n"))
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestChunkedBodyCapIndependentOfFraming(t *testing.T) {
	p := NewParser(Limits{Body: 4, Chunk: 16})
	err := p.Feed([]byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nHello\r\n"))
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestUnknownMethodRejected(t *testing.T) {
	p := NewParser(DefaultLimits)
	err := p.Feed([]byte("PATCH / HTTP/1.1\r\n\r\n"))
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestKeepAlivePipelining(t *testing.T) {
	p := NewParser(DefaultLimits)
	require.NoError(t, p.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\nGET /2 HTTP/1.1\r\nHost: x\r\n\r\n")))
	require.Equal(t, StateComplete, p.State())
	first := *p.Request()
	require.Equal(t, "/", first.Path)

	p.Reset()
	require.NoError(t, p.Feed(nil))
	require.Equal(t, StateComplete, p.State())
	require.Equal(t, "/2", p.Request().Path)
}
