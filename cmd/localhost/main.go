/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Command localhost runs the HTTP/1.1 origin server. It takes a single,
// optional positional argument: the path to a YAML configuration file
// (default "localhost.yaml"), per spec §6 — not a --config flag, which is
// the teacher pack's own CLI convention but not what spec.md pins.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmahmood233/localhost/internal/config"
	"github.com/mmahmood233/localhost/internal/conn"
	"github.com/mmahmood233/localhost/internal/dispatch"
	"github.com/mmahmood233/localhost/internal/engine"
	"github.com/mmahmood233/localhost/internal/logging"
	"github.com/mmahmood233/localhost/internal/metrics"
	"github.com/mmahmood233/localhost/internal/session"
	"github.com/mmahmood233/localhost/internal/timeoutmgr"
)

const defaultConfigPath = "localhost.yaml"

var rootCmd = &cobra.Command{
	Use:   "localhost [config-file]",
	Short: "Run the localhost HTTP/1.1 origin server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		return run(path)
	},
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(logging.Options{
		Stdout:     cfg.Logging.Stdout,
		Level:      cfg.Logging.Level,
		Filename:   cfg.Logging.Filename,
		MaxSize:    cfg.Logging.MaxSize,
		MaxAge:     cfg.Logging.MaxAge,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync() //nolint:errcheck // best-effort flush on exit

	store := session.New(cfg.Session.SessionStoreConfig())
	defer store.Close()

	srv := &engine.Server{
		Router:     cfg.BuildRouter(),
		Dispatcher: &dispatch.Dispatcher{Sessions: store},
		Timeouts:   timeoutmgr.New(cfg.Timeouts.TimeoutPolicy()),
		Limits:     cfg.Limits.Limits(),
		HostPolicy: conn.HostPolicy{Strict: cfg.Hosts.StrictHostCheck, DefaultHost: cfg.Hosts.DefaultHost},
		ServerName: cfg.ServerName,
		Log:        log,
		Metrics:    metrics.Recorder{},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- engine.Run(srv, "tcp://"+cfg.Listen)
	}()

	log.Infof("listening on %s", cfg.Listen)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("event loop: %w", err)
		}
		return nil
	case <-terminate():
		log.Infof("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
		return <-errCh
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
