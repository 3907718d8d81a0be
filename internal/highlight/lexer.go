package highlight

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/datacard/internal/vocab"
)

// LexerName is the name the datacard lexer is registered under.
const LexerName = "datacard"

// NewLexer returns a chroma lexer for datacards. Keywords come from v.
//
// Token classes:
//
//	GenericHeading  divider lines
//	Comment         '#' to end of line
//	Keyword         vocabulary keywords, whole tokens only
//	LiteralNumber   numbers and the '-' / '*' placeholders
//	LiteralString   .root file paths
//	NameConstant    $UPPERCASE placeholders
//	NameVariable    first-column identifiers
//	NameTag         other identifiers (process and channel names)
func NewLexer(v *vocab.Vocabulary) chroma.Lexer {
	keywords := keywordPattern(v.Names())

	return chroma.MustNewLexer(
		&chroma.Config{
			Name:      LexerName,
			Aliases:   []string{"combine-datacard"},
			Filenames: []string{"*.dc"},
			MimeTypes: []string{"text/x-combine-datacard"},
			EnsureNL:  true,
		},
		func() chroma.Rules {
			return chroma.Rules{
				"root": {
					{Pattern: `^[ \t]*-{3,}[ \t]*$`, Type: chroma.GenericHeading},
					{Pattern: `#.*$`, Type: chroma.Comment},
					{Pattern: `\n`, Type: chroma.Text},
					{Pattern: `[ \t]+`, Type: chroma.TextWhitespace},
					{Pattern: `[^\s#]*\.root(?=\s|$)`, Type: chroma.LiteralString},
					{Pattern: `\$[A-Z][A-Z_]*`, Type: chroma.NameConstant},
					{Pattern: keywords, Type: chroma.Keyword},
					{Pattern: `-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?(?=\s|$)`, Type: chroma.LiteralNumber},
					{Pattern: `[-*](?=\s|$)`, Type: chroma.LiteralNumber},
					{Pattern: `(?<=^[ \t]*)[A-Za-z_][\w.]*`, Type: chroma.NameVariable},
					{Pattern: `[A-Za-z_][\w.]*`, Type: chroma.NameTag},
					{Pattern: `\S+?(?=\s|#|$)`, Type: chroma.Text},
				},
			}
		},
	)
}

// keywordPattern builds an alternation that only matches complete tokens.
func keywordPattern(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	sort.SliceStable(quoted, func(i, j int) bool {
		return len(quoted[i]) > len(quoted[j])
	})
	return `(?:` + strings.Join(quoted, "|") + `)(?=\s|$)`
}

// Register adds the datacard lexer to chroma's global registry so it can be
// found with lexers.Get.
func Register(v *vocab.Vocabulary) chroma.Lexer {
	return lexers.Register(NewLexer(v))
}
