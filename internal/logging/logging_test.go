/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStdoutLoggerDoesNotPanic(t *testing.T) {
	l, err := New(Options{Stdout: true, Level: "debug"})
	require.NoError(t, err)
	require.NotPanics(t, func() {
		l.Infof("hello %s", "world")
		l.Warnf("warn")
		l.Errorf("err")
	})
}

func TestNewFileLoggerCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Options{Filename: dir + "/nested/server.log", MaxSize: 1, MaxBackups: 1, MaxAge: 1, Level: "info"})
	require.NoError(t, err)
	require.NotPanics(t, func() { l.Infof("wrote to file") })
}

func TestToZapLevelDefaultsToInfo(t *testing.T) {
	require.Equal(t, toZapLevel("info"), toZapLevel("bogus"))
}
