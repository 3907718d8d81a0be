package highlight

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/datacard/internal/vocab"
)

func defaultVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.Default()
	if err != nil {
		t.Fatalf("vocab.Default() error = %v", err)
	}
	return v
}

// tokenTypes returns the type of every non-whitespace token in line.
func tokenTypes(t *testing.T, line string) map[string]chroma.TokenType {
	t.Helper()
	toks, err := chroma.Tokenise(NewLexer(defaultVocab(t)), nil, line+"\n")
	if err != nil {
		t.Fatalf("Tokenise(%q) error = %v", line, err)
	}
	out := make(map[string]chroma.TokenType)
	for _, tok := range toks {
		if strings.TrimSpace(tok.Value) == "" {
			continue
		}
		out[tok.Value] = tok.Type
	}
	return out
}

func TestLexerTokenClasses(t *testing.T) {
	tests := []struct {
		line  string
		value string
		want  chroma.TokenType
	}{
		{"---", "---", chroma.GenericHeading},
		{"--------------------", "--------------------", chroma.GenericHeading},
		{"   -----   ", "   -----   ", chroma.GenericHeading},
		{"# This is a comment", "# This is a comment", chroma.Comment},
		{"#Comment without space", "#Comment without space", chroma.Comment},
		{"End of line # comment", "# comment", chroma.Comment},
		{"imax 1 number of channels", "imax", chroma.Keyword},
		{"lumi lnN 1.025 -", "lnN", chroma.Keyword},
		{"lumi lnN 1.025 -", "lumi", chroma.NameVariable},
		{"lumi lnN 1.025 -", "1.025", chroma.LiteralNumber},
		{"lumi lnN 1.025 -", "-", chroma.LiteralNumber},
		{"kmax *", "*", chroma.LiteralNumber},
		{"process -1 0 1", "-1", chroma.LiteralNumber},
		{"x lnN 1e-3", "1e-3", chroma.LiteralNumber},
		{"  param1 lnN 1.1", "param1", chroma.NameVariable},
		{"process signal bkg", "signal", chroma.NameTag},
		{"process signal bkg", "bkg", chroma.NameTag},
		{"shapes * * file.root $PROCESS $PROCESS_$SYSTEMATIC", "file.root", chroma.LiteralString},
		{"shapes * * file.root $PROCESS $PROCESS_$SYSTEMATIC", "$PROCESS", chroma.NameConstant},
		{"shapes * ch1 $DIR/file.root $CHANNEL", "$DIR/file.root", chroma.LiteralString},
		{"shapes * ch1 $DIR/file.root $CHANNEL", "$CHANNEL", chroma.NameConstant},
		{"shapes * * path/to/file.root h", "path/to/file.root", chroma.LiteralString},
	}

	for _, tt := range tests {
		t.Run(tt.line+"/"+tt.value, func(t *testing.T) {
			got, ok := tokenTypes(t, tt.line)[tt.value]
			if !ok {
				t.Fatalf("no token %q in %q", tt.value, tt.line)
			}
			if got != tt.want {
				t.Errorf("token %q = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestLexerNonMatches(t *testing.T) {
	tests := []struct {
		line    string
		value   string
		notType chroma.TokenType
	}{
		{"--", "--", chroma.GenericHeading},
		{"--- text", "---", chroma.GenericHeading},
		{"imaximum 3", "imaximum", chroma.Keyword},
		{"notakeyword 3", "notakeyword", chroma.Keyword},
		{"1param lnN", "1param", chroma.NameVariable},
		{"a b file.txt", "file.txt", chroma.LiteralString},
		{"a b $process", "$process", chroma.NameConstant},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := tokenTypes(t, tt.line)[tt.value]; got == tt.notType {
				t.Errorf("token %q should not be %s", tt.value, tt.notType)
			}
		})
	}
}

func TestKeywordPatternPrefersLongest(t *testing.T) {
	p := keywordPattern([]string{"shape", "shapes", "lnN"})
	if !strings.HasPrefix(p, `(?:shapes|`) {
		t.Errorf("longest keyword should come first: %s", p)
	}
}

func TestRegister(t *testing.T) {
	Register(defaultVocab(t))

	l := lexers.Get(LexerName)
	if l == nil || l.Config().Name != LexerName {
		t.Fatalf("lexer %q not registered", LexerName)
	}
	if alias := lexers.Get("combine-datacard"); alias == nil || alias.Config().Name != LexerName {
		t.Error("alias not registered")
	}
}

func TestRenderNoopRoundTrip(t *testing.T) {
	r, err := New(defaultVocab(t), WithFormatter("noop"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	text := "imax 1\njmax 1\nkmax *\n---\nbin a\nobservation 3 # obs\n"
	var buf bytes.Buffer
	if err := r.Render(&buf, text); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if buf.String() != text {
		t.Errorf("noop render changed text:\n%q\n%q", text, buf.String())
	}
}

func TestRenderTerminal(t *testing.T) {
	r, err := New(defaultVocab(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, "imax 1\n"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected ANSI escapes in terminal output")
	}
	if !strings.Contains(buf.String(), "imax") {
		t.Error("expected keyword text in output")
	}
}

func TestNewUnknownNames(t *testing.T) {
	v := defaultVocab(t)
	if _, err := New(v, WithStyle("no-such-style")); err == nil {
		t.Error("expected error for unknown style")
	}
	if _, err := New(v, WithFormatter("no-such-formatter")); err == nil {
		t.Error("expected error for unknown formatter")
	}
}

func TestTokensCoalesced(t *testing.T) {
	r, err := New(defaultVocab(t), WithFormatter("noop"))
	if err != nil {
		t.Fatal(err)
	}
	toks, err := r.Tokens("# a\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) == 0 || toks[0].Type != chroma.Comment || toks[0].Value != "# a" {
		t.Errorf("unexpected tokens %v", toks)
	}
}
