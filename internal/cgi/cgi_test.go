/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cgi

import (
	"testing"

	"github.com/mmahmood233/localhost/internal/header"
	"github.com/stretchr/testify/require"
)

func TestParseCGIOutputDefaultStatus(t *testing.T) {
	resp, err := parseCGIOutput([]byte("Content-Type: text/plain\n\nhello"))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "text/plain", resp.Header.Get(header.ContentType))
	require.Equal(t, "hello", string(resp.Body))
}

func TestParseCGIOutputExplicitStatus(t *testing.T) {
	resp, err := parseCGIOutput([]byte("Status: 404 Not Found\nContent-Type: text/plain\n\nmissing"))
	require.NoError(t, err)
	require.Equal(t, 404, resp.StatusCode)
	require.Equal(t, "Not Found", resp.Reason)
	require.Equal(t, "missing", string(resp.Body))
}

func TestParseCGIOutputCRLF(t *testing.T) {
	resp, err := parseCGIOutput([]byte("Content-Type: text/html\r\n\r\n<p>hi</p>"))
	require.NoError(t, err)
	require.Equal(t, "<p>hi</p>", string(resp.Body))
}

func TestParseCGIOutputMalformedHeader(t *testing.T) {
	_, err := parseCGIOutput([]byte("not-a-header-line\n\nbody"))
	require.Error(t, err)
}
