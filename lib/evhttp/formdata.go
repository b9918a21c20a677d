// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evhttp

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// FormData is a multipart/form-data body.
type FormData struct {
	fields []formField
}

type formField struct {
	name     string
	value    string
	filename string
	content  []byte
}

// NewFormData returns an empty form.
func NewFormData() *FormData {
	return &FormData{}
}

// Append adds a text field.
func (f *FormData) Append(name, value string) {
	f.fields = append(f.fields, formField{name: name, value: value})
}

// AppendFile adds a file part.
func (f *FormData) AppendFile(name, filename string, content []byte) {
	f.fields = append(f.fields, formField{name: name, filename: filename, content: content})
}

// Len returns the number of parts.
func (f *FormData) Len() int {
	return len(f.fields)
}

func (f *FormData) encode() (io.Reader, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, field := range f.fields {
		if field.filename == "" {
			if err := writer.WriteField(field.name, field.value); err != nil {
				return nil, "", fmt.Errorf("evhttp: writing form field %q: %w", field.name, err)
			}
			continue
		}
		part, err := writer.CreateFormFile(field.name, field.filename)
		if err != nil {
			return nil, "", fmt.Errorf("evhttp: creating form file %q: %w", field.name, err)
		}
		if _, err := part.Write(field.content); err != nil {
			return nil, "", fmt.Errorf("evhttp: writing form file %q: %w", field.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("evhttp: closing form: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}
