/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package config

import (
	"github.com/mmahmood233/localhost/internal/router"
	"github.com/mmahmood233/localhost/internal/session"
	"github.com/mmahmood233/localhost/internal/timeoutmgr"
	"github.com/mmahmood233/localhost/internal/wire"
)

// BuildRouter translates every configured vhost/location into a
// router.Router, the shape internal/dispatch and internal/engine consume.
func (c *Config) BuildRouter() *router.Router {
	r := router.New()
	for _, vc := range c.VHosts {
		v := &router.VHost{
			ServerName:   vc.ServerName,
			DocumentRoot: vc.DocumentRoot,
			ErrorPages:   vc.ErrorPages,
			MaxBodySize:  vc.MaxBodySize,
		}
		for _, lc := range vc.Locations {
			v.Locations = append(v.Locations, lc.toLocation())
		}
		r.AddVHost(v)
	}
	return r
}

func (lc LocationConfig) toLocation() *router.Location {
	return &router.Location{
		Path:             lc.Path,
		AllowedMethods:   toMethods(lc.Methods),
		Kind:             toKind(lc.Kind),
		DocumentRoot:     lc.DocumentRoot,
		IndexFile:        lc.IndexFile,
		DirectoryListing: lc.DirectoryListing,
		RedirectTarget:   lc.RedirectTarget,
		RedirectStatus:   lc.RedirectStatus,
		CGIExtension:     lc.CGIExtension,
		CGIInterpreter:   lc.CGIInterpreter,
		MaxBodySize:      lc.MaxBodySize,
		UploadDir:        lc.UploadDir,
	}
}

func toMethods(ss []string) []wire.Method {
	out := make([]wire.Method, 0, len(ss))
	for _, s := range ss {
		out = append(out, wire.Method(s))
	}
	return out
}

func toKind(s string) router.Kind {
	switch s {
	case "cgi":
		return router.KindCGI
	case "upload":
		return router.KindUpload
	case "session":
		return router.KindSession
	case "redirect":
		return router.KindRedirect
	default:
		return router.KindStatic
	}
}

// TimeoutPolicy converts TimeoutsConfig into timeoutmgr.Policy.
func (t TimeoutsConfig) TimeoutPolicy() timeoutmgr.Policy {
	return timeoutmgr.Policy{
		HeaderRead:    t.HeaderRead,
		BodyRead:      t.BodyRead,
		Write:         t.Write,
		KeepAliveIdle: t.KeepAliveIdle,
		Request:       t.Request,
	}
}

// Limits converts LimitsConfig into wire.Limits.
func (l LimitsConfig) Limits() wire.Limits {
	return wire.Limits{
		RequestLine: l.RequestLine,
		Headers:     l.Headers,
		Body:        l.Body,
		Chunk:       l.Chunk,
	}
}

// SessionStoreConfig converts SessionConfig into session.Config.
func (s SessionConfig) SessionStoreConfig() session.Config {
	return session.Config{
		DefaultExpiration: s.DefaultExpiration,
		CookieName:        s.CookieName,
		CookiePath:        s.CookiePath,
		CookieDomain:      s.CookieDomain,
		Secure:            s.Secure,
		HTTPOnly:          s.HTTPOnly,
		CleanupInterval:   s.CleanupInterval,
		MaxSessions:       s.MaxSessions,
	}
}
