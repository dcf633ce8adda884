// Package ui styles squadify's terminal output with lipgloss.
//
// [Styles] is the shared [Palette]: titles, success and error marks, warnings, and muted help text.
// lipgloss drops the colors when output is not a terminal, so rendered text stays plain in files and pipes.
package ui
