// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/inspector/lib/envelope"
)

// Theme defines the color palette for terminal output. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Envelope type badges.
	TypeLog     lipgloss.Color
	TypeError   lipgloss.Color
	TypeMetric  lipgloss.Color
	TypeState   lipgloss.Color
	TypeTrace   lipgloss.Color
	TypeNetwork lipgloss.Color

	// HTTP status classes.
	StatusSuccess     lipgloss.Color
	StatusRedirect    lipgloss.Color
	StatusClientError lipgloss.Color
	StatusServerError lipgloss.Color

	// HTTP methods.
	MethodGet    lipgloss.Color
	MethodPost   lipgloss.Color
	MethodPut    lipgloss.Color
	MethodDelete lipgloss.Color
	MethodPatch  lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	TagForeground    lipgloss.Color
}

// TypeColor returns the badge color for an envelope type. Unknown
// types return FaintText.
func (theme Theme) TypeColor(kind envelope.Type) lipgloss.Color {
	switch kind {
	case envelope.TypeLog:
		return theme.TypeLog
	case envelope.TypeError:
		return theme.TypeError
	case envelope.TypeMetric:
		return theme.TypeMetric
	case envelope.TypeState:
		return theme.TypeState
	case envelope.TypeTrace:
		return theme.TypeTrace
	case envelope.TypeNetwork:
		return theme.TypeNetwork
	default:
		return theme.FaintText
	}
}

// StatusColor returns the color for an HTTP status code. Zero (no
// response) and codes below 200 return FaintText.
func (theme Theme) StatusColor(status int) lipgloss.Color {
	switch {
	case status >= 500:
		return theme.StatusServerError
	case status >= 400:
		return theme.StatusClientError
	case status >= 300:
		return theme.StatusRedirect
	case status >= 200:
		return theme.StatusSuccess
	default:
		return theme.FaintText
	}
}

// MethodColor returns the color for an HTTP method, ignoring case.
// Methods other than GET, POST, PUT, DELETE, and PATCH return
// FaintText.
func (theme Theme) MethodColor(method string) lipgloss.Color {
	switch strings.ToUpper(method) {
	case "GET":
		return theme.MethodGet
	case "POST":
		return theme.MethodPost
	case "PUT":
		return theme.MethodPut
	case "DELETE":
		return theme.MethodDelete
	case "PATCH":
		return theme.MethodPatch
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	TypeLog:     lipgloss.Color("75"),  // blue
	TypeError:   lipgloss.Color("196"), // bright red
	TypeMetric:  lipgloss.Color("141"), // light purple
	TypeState:   lipgloss.Color("220"), // amber
	TypeTrace:   lipgloss.Color("114"), // green
	TypeNetwork: lipgloss.Color("208"), // orange

	StatusSuccess:     lipgloss.Color("114"), // green
	StatusRedirect:    lipgloss.Color("208"), // orange
	StatusClientError: lipgloss.Color("196"), // red
	StatusServerError: lipgloss.Color("135"), // purple

	MethodGet:    lipgloss.Color("114"),
	MethodPost:   lipgloss.Color("75"),
	MethodPut:    lipgloss.Color("208"),
	MethodDelete: lipgloss.Color("196"),
	MethodPatch:  lipgloss.Color("135"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	TagForeground:    lipgloss.Color("109"),
}
