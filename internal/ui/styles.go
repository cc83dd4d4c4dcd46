package ui

import "fmt"

// ANSI256 palette used by the facets CLI.
const (
	colorAccent   = 74  // blue: facet headers, group titles
	colorCmd      = 250 // light gray: command names
	colorMuted    = 245 // medium gray: counts, hints
	colorSelected = 114 // green: selected facet values
	colorWarning  = 214 // amber: compliance warnings
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent styles a heading.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted styles secondary text such as facet counts.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand styles a command or build tool name.
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderSelected styles a facet value that is part of the current selection.
func RenderSelected(s string) string { return paint(colorSelected, s) }

// RenderWarning styles a non-blocking warning line.
func RenderWarning(s string) string { return paint(colorWarning, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
