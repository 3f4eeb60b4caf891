/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cookie

import (
	"testing"

	"github.com/mmahmood233/localhost/internal/header"
	"github.com/stretchr/testify/require"
)

func TestParseMultipleCookies(t *testing.T) {
	h := header.New()
	h.Add(header.Cookie, "session_id=abc123; theme=dark")
	got := Parse(h)
	require.Equal(t, "abc123", got["session_id"])
	require.Equal(t, "dark", got["theme"])
}

func TestParseQuotedValue(t *testing.T) {
	h := header.New()
	h.Add(header.Cookie, `token="abc"`)
	require.Equal(t, "abc", Parse(h)["token"])
}

func TestParseIgnoresInvalidName(t *testing.T) {
	h := header.New()
	h.Add(header.Cookie, "bad name=value; ok=1")
	got := Parse(h)
	require.NotContains(t, got, "bad name")
	require.Equal(t, "1", got["ok"])
}

func TestParseNoHeader(t *testing.T) {
	require.Empty(t, Parse(header.New()))
}
