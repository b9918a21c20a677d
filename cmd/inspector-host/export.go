// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/serialize"
)

// exportFile writes messages to path as CSV or JSON, chosen by the
// extension.
func exportFile(path string, messages []envelope.Envelope, location *time.Location) error {
	var write func(io.Writer, []envelope.Envelope, *time.Location) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = exportCSV
	case ".json":
		write = exportJSON
	default:
		return fmt.Errorf("export %s: unsupported format (use .csv or .json)", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := write(file, messages, location); err != nil {
		file.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return file.Close()
}

func exportCSV(w io.Writer, messages []envelope.Envelope, location *time.Location) error {
	writer := csv.NewWriter(w)
	writer.Write([]string{"Timestamp", "Type", "Event/Name", "Data", "Tags"})
	for _, env := range messages {
		tags := ""
		if len(env.Tags) > 0 {
			tags = compactJSON(env.Tags)
		}
		writer.Write([]string{
			formatTimestamp(env.Time(), location),
			env.Type.String(),
			eventName(env),
			compactJSON(env.Data),
			tags,
		})
	}
	writer.Flush()
	return writer.Error()
}

func exportJSON(w io.Writer, messages []envelope.Envelope, _ *time.Location) error {
	sanitized := make([]envelope.Envelope, len(messages))
	for i, env := range messages {
		env.Data = serialize.Sanitize(env.Data, serialize.Options{})
		sanitized[i] = env
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sanitized)
}
