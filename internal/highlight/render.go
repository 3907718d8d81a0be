package highlight

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/dshills/datacard/internal/vocab"
)

// Defaults used when no option overrides them.
const (
	DefaultStyle     = "monokai"
	DefaultFormatter = "terminal256"
)

// Renderer writes highlighted datacards.
type Renderer struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
	styleName string
	fmtName   string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle selects a chroma style by name.
func WithStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.styleName = name
		}
	}
}

// WithFormatter selects a chroma formatter by name ("terminal256",
// "terminal16m", "html", "noop", ...).
func WithFormatter(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.fmtName = name
		}
	}
}

// New creates a Renderer for the vocabulary v.
func New(v *vocab.Vocabulary, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		lexer:     chroma.Coalesce(NewLexer(v)),
		styleName: DefaultStyle,
		fmtName:   DefaultFormatter,
	}
	for _, opt := range opts {
		opt(r)
	}

	style, ok := styles.Registry[r.styleName]
	if !ok {
		return nil, fmt.Errorf("unknown style %q", r.styleName)
	}
	formatter, ok := formatters.Registry[r.fmtName]
	if !ok {
		return nil, fmt.Errorf("unknown formatter %q", r.fmtName)
	}
	r.style = style
	r.formatter = formatter
	return r, nil
}

// Render highlights text and writes it to w.
func (r *Renderer) Render(w io.Writer, text string) error {
	it, err := r.lexer.Tokenise(nil, text)
	if err != nil {
		return fmt.Errorf("tokenise: %w", err)
	}
	return r.formatter.Format(w, r.style, it)
}

// Tokens returns the coalesced token stream for text.
func (r *Renderer) Tokens(text string) ([]chroma.Token, error) {
	return chroma.Tokenise(r.lexer, nil, text)
}
