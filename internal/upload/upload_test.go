/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package upload

import (
	"context"
	"strings"
	"testing"

	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/wire"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct{ stored string }

func (f *fakeStorage) Store(data []byte, filename, contentType string) (string, error) {
	f.stored = filename
	return "stored-" + filename, nil
}

func TestHandleMultipartUpload(t *testing.T) {
	body := "--B\r\nContent-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\nContent-Type: text/plain\r\n\r\nhi\r\n--B--\r\n"
	req := &wire.Request{Method: wire.POST, Header: header.New(), Body: []byte(body)}
	req.Header.Set(header.ContentType, `multipart/form-data; boundary=B`)

	storage := &fakeStorage{}
	hc := &handler.Context{Storage: storage}

	h := &Handler{}
	resp, herr := h.Handle(context.Background(), req, hc)
	require.Nil(t, herr)
	require.Equal(t, "a.txt", storage.stored)
	require.Contains(t, string(resp.Body), "stored-a.txt")
}

func TestHandleURLEncoded(t *testing.T) {
	req := &wire.Request{Method: wire.POST, Header: header.New(), Body: []byte("name=bob&age=30")}
	req.Header.Set(header.ContentType, "application/x-www-form-urlencoded")

	h := &Handler{}
	resp, herr := h.Handle(context.Background(), req, nil)
	require.Nil(t, herr)
	require.True(t, strings.Contains(string(resp.Body), "name: bob"))
}

func TestHandleOtherContentType(t *testing.T) {
	req := &wire.Request{Method: wire.POST, Header: header.New(), Body: []byte("raw")}
	h := &Handler{}
	resp, herr := h.Handle(context.Background(), req, nil)
	require.Nil(t, herr)
	require.Contains(t, string(resp.Body), "POST request received")
}
