/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmahmood233/localhost/internal/router"
	"github.com/mmahmood233/localhost/internal/wire"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
listen: "127.0.0.1:8080"
serverName: "localhost/1.0"
hosts:
  strict_host_check: false
  default_host: "localhost"
timeouts:
  header_read: 10s
  body_read: 30s
  write: 30s
  keep_alive_idle: 75s
  request: 5m
limits:
  request_line: 8192
  headers: 65536
  body: 10485760
  chunk: 1048576
session:
  default_expiration: 1h
  cookie_name: session_id
  max_sessions: 10000
vhosts:
  - server_name: "localhost"
    document_root: "/srv/www"
    locations:
      - path: "/"
        kind: "static"
        methods: ["GET", "HEAD"]
      - path: "/cgi-bin"
        kind: "cgi"
        document_root: "/srv/cgi-bin"
        cgi_interpreter: "/usr/bin/python3"
      - path: "/upload"
        kind: "upload"
        methods: ["POST"]
`

func writeConfigFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sampleYAML), 0o644))
	return p
}

func TestLoadParsesTopLevelFields(t *testing.T) {
	cfg, err := Load(writeConfigFixture(t))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.Listen)
	require.Equal(t, "localhost/1.0", cfg.ServerName)
	require.Equal(t, 10*time.Second, cfg.Timeouts.HeaderRead)
	require.Equal(t, int64(10485760), cfg.Limits.Body)
	require.Len(t, cfg.VHosts, 1)
	require.Len(t, cfg.VHosts[0].Locations, 3)
}

func TestBuildRouterMapsLocationKinds(t *testing.T) {
	cfg, err := Load(writeConfigFixture(t))
	require.NoError(t, err)

	r := cfg.BuildRouter()
	v := r.SelectVHost("localhost")
	require.NotNil(t, v)

	static := v.Match("/index.html")
	require.Equal(t, router.KindStatic, static.Kind)

	cgi := v.Match("/cgi-bin/hello.py")
	require.Equal(t, router.KindCGI, cgi.Kind)
	require.Equal(t, "/usr/bin/python3", cgi.CGIInterpreter)

	upload := v.Match("/upload")
	require.Equal(t, router.KindUpload, upload.Kind)
	ok, _ := upload.Allows(wire.POST)
	require.True(t, ok)
}

func TestTimeoutPolicyConversion(t *testing.T) {
	tc := TimeoutsConfig{HeaderRead: 5 * time.Second, BodyRead: 20 * time.Second, Write: 20 * time.Second, KeepAliveIdle: 60 * time.Second, Request: time.Minute}
	p := tc.TimeoutPolicy()
	require.Equal(t, 5*time.Second, p.HeaderRead)
	require.Equal(t, time.Minute, p.Request)
}
