// Package render provides markdown rendering for terminal output.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

const defaultWidth = 100

type options struct {
	width int
	plain bool
}

// Option configures a Renderer.
type Option func(*options)

// WithWidth sets the word wrap width. Values below 20 are ignored.
func WithWidth(width int) Option {
	return func(o *options) {
		if width >= 20 {
			o.width = width
		}
	}
}

// WithPlain disables colors, for output that is not a terminal.
func WithPlain(plain bool) Option {
	return func(o *options) {
		o.plain = plain
	}
}

// Renderer renders markdown to the terminal.
type Renderer struct {
	gr     *glamour.TermRenderer
	writer io.Writer
}

// NewRenderer creates a Renderer writing to the given writer.
// If w is nil, os.Stdout is used.
func NewRenderer(w io.Writer, opts ...Option) (*Renderer, error) {
	if w == nil {
		w = os.Stdout
	}
	o := options{width: defaultWidth}
	for _, opt := range opts {
		opt(&o)
	}

	style := glamour.WithAutoStyle()
	if o.plain {
		style = glamour.WithStandardStyle("notty")
	}
	gr, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(o.width),
	)
	if err != nil {
		return nil, fmt.Errorf("create glamour renderer: %w", err)
	}
	return &Renderer{gr: gr, writer: w}, nil
}

// Render renders a complete markdown string to the writer.
func (r *Renderer) Render(markdown string) error {
	out, err := r.gr.Render(markdown)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = fmt.Fprint(r.writer, out)
	return err
}

// RenderStream progressively renders streamed content.
// It accumulates deltas and renders when a complete block boundary is seen
// outside a code fence, or when flush is true. It returns what is left to
// accumulate.
func (r *Renderer) RenderStream(accumulated string, delta string, flush bool) (string, error) {
	accumulated += delta
	if accumulated == "" {
		return "", nil
	}
	if flush || blockComplete(accumulated) {
		if err := r.Render(accumulated); err != nil {
			return "", err
		}
		return "", nil
	}
	return accumulated, nil
}

// blockComplete reports whether s ends a paragraph or a fenced code block
// without leaving a fence open.
func blockComplete(s string) bool {
	open := strings.Count(s, "```")%2 == 1
	if open {
		return false
	}
	return strings.HasSuffix(s, "\n\n") || strings.HasSuffix(s, "```\n")
}
