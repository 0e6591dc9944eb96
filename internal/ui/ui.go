// Package ui prints the human-facing console lines of the CLI: the startup
// banner, settings and the final fatal error.
package ui

import (
	"fmt"
	"io"
	"strings"
)

// ANSI color/style codes
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	cyan   = "\033[36m"
	green  = "\033[32m"
	yellow = "\033[33m"
	red    = "\033[31m"
	white  = "\033[97m"
)

// Printer writes styled lines to w. Styling is applied only when color is true.
type Printer struct {
	w     io.Writer
	color bool
}

func New(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

func (p *Printer) s(codes, text string) string {
	if !p.color {
		return text
	}
	return codes + text + reset
}

// Banner prints the startup banner.
//
//	steamwake v0.1.0
func (p *Printer) Banner(version string) {
	fmt.Fprintf(p.w, "\n  %s %s\n", p.s(bold+cyan, "steamwake"), p.s(dim, "v"+version))
}

// KeyValue prints a labeled line:  ▸ label  value
func (p *Printer) KeyValue(label, value string) {
	fmt.Fprintf(p.w, "  %s %-11s %s\n", p.s(cyan, "▸"), p.s(dim, label), p.s(white, value))
}

// List prints label once followed by one indented line per item, or
// "(none)" for an empty list.
func (p *Printer) List(label string, items []string) {
	if len(items) == 0 {
		p.KeyValue(label, p.s(dim, "(none)"))
		return
	}
	p.KeyValue(label, items[0])
	for _, item := range items[1:] {
		fmt.Fprintf(p.w, "  %s %-11s %s\n", " ", "", p.s(white, item))
	}
}

// Info prints an info line:  ● message
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.s(cyan, "●"), fmt.Sprintf(format, a...))
}

// Success prints a success line:  ✔ message
func (p *Printer) Success(format string, a ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.s(green, "✔"), fmt.Sprintf(format, a...))
}

// Warn prints a warning line:  ▲ message
func (p *Printer) Warn(format string, a ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.s(yellow, "▲"), fmt.Sprintf(format, a...))
}

// Error prints an error line:  ✖ message
func (p *Printer) Error(format string, a ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.s(red, "✖"), fmt.Sprintf(format, a...))
}

// Separator prints a dim horizontal line.
func (p *Printer) Separator() {
	fmt.Fprintf(p.w, "  %s\n", p.s(dim, strings.Repeat("─", 48)))
}
