// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui holds the color theme shared by the inspector's
// terminal output.
//
// [Theme] maps envelope types, HTTP status classes, and HTTP methods
// to lipgloss colors. [DefaultTheme] targets 256-color terminals with
// a dark background.
package tui
