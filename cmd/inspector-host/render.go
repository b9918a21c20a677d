// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/serialize"
	"github.com/bureau-foundation/inspector/lib/tui"
)

// RenderOptions configures a Renderer.
type RenderOptions struct {
	// Width truncates each summary line. Zero disables truncation.
	Width int

	// Color enables ANSI styling. Without it every escape sequence is
	// stripped.
	Color bool

	// Detail appends the indented JSON payload below each line.
	Detail bool

	// Location formats timestamps. Defaults to time.Local.
	Location *time.Location

	Theme tui.Theme
}

// Renderer formats envelopes as terminal lines.
type Renderer struct {
	options RenderOptions
	lip     *lipgloss.Renderer
}

// NewRenderer creates a renderer whose styles target w.
func NewRenderer(w io.Writer, options RenderOptions) *Renderer {
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.Theme == (tui.Theme{}) {
		options.Theme = tui.DefaultTheme
	}
	// SetColorProfile is required because the renderer otherwise
	// re-detects the profile from the environment.
	profile := termenv.Ascii
	if options.Color {
		profile = termenv.ANSI256
	}
	lip := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	lip.SetColorProfile(profile)
	return &Renderer{options: options, lip: lip}
}

// Render returns the summary line for env, followed by its detail
// block when Detail is set.
func (r *Renderer) Render(env envelope.Envelope) string {
	line := r.Line(env)
	if !r.options.Detail {
		return line
	}
	return line + "\n" + r.Detail(env)
}

// Line returns a single-line summary: time, type badge, the
// type-specific summary, and tags.
func (r *Renderer) Line(env envelope.Envelope) string {
	theme := r.options.Theme
	parts := []string{
		r.style().Foreground(theme.FaintText).Render(formatTimestamp(env.Time(), r.options.Location)),
		r.style().Foreground(theme.TypeColor(env.Type)).Bold(true).Width(7).
			Render(strings.ToUpper(env.Type.String())),
		r.summary(env),
	}
	if tags := formatTags(env.Tags); tags != "" {
		parts = append(parts, r.style().Foreground(theme.TagForeground).Render(tags))
	}
	line := strings.Join(parts, " ")
	if r.options.Width > 0 {
		line = ansi.Truncate(line, r.options.Width, "…")
	}
	if !r.options.Color {
		line = ansi.Strip(line)
	}
	return line
}

// Detail returns env's payload as indented JSON, highlighted when
// color is enabled.
func (r *Renderer) Detail(env envelope.Envelope) string {
	encoded, err := json.MarshalIndent(serialize.Sanitize(env.Data, serialize.Options{}), "", "  ")
	if err != nil {
		return "  " + serialize.SafeStringify(env.Data, serialize.Options{})
	}
	text := string(encoded)
	if r.options.Color {
		var highlighted strings.Builder
		if err := quick.Highlight(&highlighted, text, "json", "terminal256", "monokai"); err == nil {
			text = strings.TrimRight(highlighted.String(), "\n")
		}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) style() lipgloss.Style {
	return r.lip.NewStyle()
}

func (r *Renderer) summary(env envelope.Envelope) string {
	theme := r.options.Theme
	normal := r.style().Foreground(theme.NormalText)
	faint := r.style().Foreground(theme.FaintText)

	switch data := env.Data.(type) {
	case envelope.LogData:
		if data.Payload == nil {
			return normal.Render(data.Event)
		}
		return normal.Render(data.Event) + " " + faint.Render(compactJSON(data.Payload))
	case envelope.ErrorData:
		return r.style().Foreground(theme.TypeError).Render(data.Error)
	case envelope.MetricData:
		return normal.Render(data.Name) + " " + faint.Render("= "+strconv.FormatFloat(data.Value, 'g', -1, 64))
	case envelope.TraceData:
		summary := normal.Render(fmt.Sprintf("%s (%s)", data.Name, data.Action))
		if data.Duration != nil {
			summary += " " + faint.Render(formatDuration(*data.Duration))
		}
		return summary
	case envelope.StateData:
		summary := normal.Render(fmt.Sprintf("%s (%s)", data.Section, data.Action))
		switch {
		case data.Initial:
			summary += " " + faint.Render("initial")
		case len(data.Changes) > 0:
			summary += " " + faint.Render(strings.Join(slices.Sorted(maps.Keys(data.Changes)), ", "))
		case len(data.Keys) > 0:
			summary += " " + faint.Render(strings.Join(data.Keys, ", "))
		}
		return summary
	case envelope.NetworkRecord:
		return r.networkSummary(data)
	}
	return faint.Render(compactJSON(env.Data))
}

func (r *Renderer) networkSummary(record envelope.NetworkRecord) string {
	theme := r.options.Theme
	method := r.style().Foreground(theme.MethodColor(record.Method)).Bold(true).Render(record.Method)
	var status string
	if record.Failed() {
		status = r.style().Foreground(theme.StatusClientError).Render("ERR")
	} else {
		status = r.style().Foreground(theme.StatusColor(record.Status)).Render(strconv.Itoa(record.Status))
	}
	faint := r.style().Foreground(theme.FaintText)
	parts := []string{method, status, r.style().Foreground(theme.NormalText).Render(record.URL),
		faint.Render(formatDuration(record.Duration))}
	if record.ResponseSize > 0 {
		parts = append(parts, faint.Render(formatFileSize(record.ResponseSize)))
	}
	if record.Failed() {
		parts = append(parts, r.style().Foreground(theme.TypeError).Render(record.Error))
	}
	return strings.Join(parts, " ")
}

// eventName is the short label used in exports.
func eventName(env envelope.Envelope) string {
	switch data := env.Data.(type) {
	case envelope.LogData:
		return data.Event
	case envelope.ErrorData:
		return data.Error
	case envelope.MetricData:
		return data.Name
	case envelope.StateData:
		return fmt.Sprintf("%s (%s)", data.Section, data.Action)
	case envelope.TraceData:
		return fmt.Sprintf("%s (%s)", data.Name, data.Action)
	case envelope.NetworkRecord:
		return data.Method + " " + data.URL
	}
	return ""
}

func compactJSON(value any) string {
	return serialize.SafeStringify(value, serialize.Options{})
}

func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(tags))
	for _, key := range slices.Sorted(maps.Keys(tags)) {
		pairs = append(pairs, key+"="+tags[key])
	}
	return "[" + strings.Join(pairs, " ") + "]"
}

// formatTimestamp renders t as HH:MM:SS.mmm.
func formatTimestamp(t time.Time, location *time.Location) string {
	return t.In(location).Format("15:04:05.000")
}

// formatDuration renders milliseconds as "150ms", "1.250s", or
// "2m 5s".
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := ms / 1000
	if seconds < 60 {
		return fmt.Sprintf("%d.%03ds", seconds, ms%1000)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// formatFileSize renders bytes with a binary unit and one decimal.
func formatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	value, unit := float64(bytes), 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}

// encodeJSONLine renders env as one JSON object for --json output.
func encodeJSONLine(env envelope.Envelope) ([]byte, error) {
	env.Data = serialize.Sanitize(env.Data, serialize.Options{})
	return json.Marshal(env)
}
