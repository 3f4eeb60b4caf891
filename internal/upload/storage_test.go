/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package upload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDiskStorageCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewDiskStorage(StorageConfig{Dir: dir})
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestStoreWritesFileAndReturnsName(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(StorageConfig{Dir: dir})
	require.NoError(t, err)

	name, err := s.Store([]byte("hello"), "report.txt", "text/plain")
	require.NoError(t, err)
	require.Equal(t, "report.txt", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestStoreSanitizesDangerousFilenames(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(StorageConfig{Dir: dir})
	require.NoError(t, err)

	name, err := s.Store([]byte("x"), "../../../etc/passwd", "text/plain")
	require.NoError(t, err)
	require.Equal(t, "______etc_passwd", name)
}

func TestStoreAvoidsCollisionsWithNumericSuffix(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(StorageConfig{Dir: dir})
	require.NoError(t, err)

	first, err := s.Store([]byte("one"), "dup.txt", "text/plain")
	require.NoError(t, err)
	second, err := s.Store([]byte("two"), "dup.txt", "text/plain")
	require.NoError(t, err)

	require.Equal(t, "dup.txt", first)
	require.Equal(t, "dup_1.txt", second)

	data, err := os.ReadFile(filepath.Join(dir, second))
	require.NoError(t, err)
	require.Equal(t, "two", string(data))
}

func TestStoreGeneratesNameWhenFilenameEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(StorageConfig{Dir: dir})
	require.NoError(t, err)

	name, err := s.Store([]byte("x"), "", "image/png")
	require.NoError(t, err)
	require.True(t, filepath.Ext(name) == ".png")
}

func TestStoreRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(StorageConfig{Dir: dir, MaxFileSize: 2})
	require.NoError(t, err)

	_, err = s.Store([]byte("too big"), "f.txt", "text/plain")
	require.Error(t, err)
}
