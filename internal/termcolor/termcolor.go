// Package termcolor renders text with ANSI SGR styles when the output
// supports them. Styles are composed from attribute codes rather than named
// helper methods, so callers define their own semantic palette. Honors the
// NO_COLOR convention (https://no-color.org/).
package termcolor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Attr is a single SGR attribute code.
type Attr int

// The attribute codes this package defines.
const (
	Bold     Attr = 1
	FgRed    Attr = 31
	FgGreen  Attr = 32
	FgYellow Attr = 33
	FgCyan   Attr = 36
)

// Style is a set of SGR attributes applied together, e.g.
// Style{Bold, FgGreen}.
type Style []Attr

// sequence builds the escape sequence selecting every attribute of the
// style, e.g. "\x1b[1;32m".
func (s Style) sequence() string {
	codes := make([]string, len(s))
	for i, a := range s {
		codes[i] = strconv.Itoa(int(a))
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

const resetSequence = "\x1b[0m"

// Painter writes to an output and knows whether that output gets styled
// text. The decision is made once, at construction.
type Painter struct {
	io.Writer
	active bool
}

// NewPainter builds a Painter for f. choice selects when styling applies:
// "always", "never", or "auto" (styled only when f is a terminal and
// NO_COLOR is unset).
func NewPainter(f *os.File, choice string) (*Painter, error) {
	p := &Painter{Writer: f}
	switch choice {
	case "always":
		p.active = true
	case "never":
		p.active = false
	case "auto":
		_, noColor := os.LookupEnv("NO_COLOR")
		p.active = !noColor && term.IsTerminal(int(f.Fd()))
	default:
		return nil, fmt.Errorf("unknown color choice %q (expected auto, always, or never)", choice)
	}
	return p, nil
}

// Active reports whether this painter styles its output.
func (p *Painter) Active() bool { return p.active }

// Sprint returns text wrapped in the style's escape sequences, or text
// unchanged when styling is off or the style is empty.
func (p *Painter) Sprint(style Style, text string) string {
	if !p.active || len(style) == 0 {
		return text
	}
	return style.sequence() + text + resetSequence
}
