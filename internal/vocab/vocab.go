package vocab

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// KeywordPatternName is the grammar pattern whose alternation lists the
// keyword tokens.
const KeywordPatternName = "keyword.combine-datacard"

// Errors returned by Load.
var (
	ErrInvalidGrammar   = errors.New("grammar is not valid JSON")
	ErrNoKeywordPattern = errors.New("grammar has no keyword pattern")
)

//go:embed data
var embedded embed.FS

const (
	embeddedGrammar      = "data/datacard.tmLanguage.json"
	embeddedDescriptions = "data/descriptions.yaml"
)

// alternation captures the body of the first parenthesized group, with or
// without a non-capturing marker.
var alternation = regexp.MustCompile(`\((?:\?:)?([^()]*)\)`)

// Keyword is one vocabulary entry.
type Keyword struct {
	Name        string
	Description string
}

// Vocabulary is an immutable, ordered set of keywords plus the raw grammar
// patterns they were read from.
type Vocabulary struct {
	scopeName string
	keywords  []Keyword
	index     map[string]int
	patterns  map[string]string
}

// Load builds a Vocabulary from a TextMate-style grammar and a YAML mapping
// of keyword to description. descriptions may be empty.
func Load(grammar, descriptions []byte) (*Vocabulary, error) {
	if !gjson.ValidBytes(grammar) {
		return nil, ErrInvalidGrammar
	}
	root := gjson.ParseBytes(grammar)

	v := &Vocabulary{
		scopeName: root.Get("scopeName").String(),
		index:     make(map[string]int),
		patterns:  make(map[string]string),
	}

	root.Get("patterns").ForEach(func(_, p gjson.Result) bool {
		name := p.Get("name").String()
		if match := p.Get("match"); name != "" && match.Exists() {
			v.patterns[name] = match.String()
		}
		return true
	})

	kw, ok := v.patterns[KeywordPatternName]
	if !ok {
		return nil, ErrNoKeywordPattern
	}
	m := alternation.FindStringSubmatch(kw)
	if m == nil || m[1] == "" {
		return nil, fmt.Errorf("%w: %q has no alternation", ErrNoKeywordPattern, kw)
	}

	desc := map[string]string{}
	if len(descriptions) > 0 {
		if err := yaml.Unmarshal(descriptions, &desc); err != nil {
			return nil, fmt.Errorf("parse descriptions: %w", err)
		}
	}

	for _, name := range strings.Split(m[1], "|") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := v.index[name]; dup {
			continue
		}
		v.index[name] = len(v.keywords)
		v.keywords = append(v.keywords, Keyword{Name: name, Description: strings.TrimSpace(desc[name])})
	}

	return v, nil
}

// LoadFiles loads a vocabulary from disk. An empty path selects the embedded
// copy of that file.
func LoadFiles(grammarPath, descriptionsPath string) (*Vocabulary, error) {
	grammar, err := readOrEmbedded(grammarPath, embeddedGrammar)
	if err != nil {
		return nil, err
	}
	descriptions, err := readOrEmbedded(descriptionsPath, embeddedDescriptions)
	if err != nil {
		return nil, err
	}
	return Load(grammar, descriptions)
}

func readOrEmbedded(path, fallback string) ([]byte, error) {
	if path == "" {
		return embedded.ReadFile(fallback)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}
	return data, nil
}

// Default returns the embedded vocabulary. It is parsed once per process.
var Default = sync.OnceValues(func() (*Vocabulary, error) {
	return LoadFiles("", "")
})

// MustDefault is like Default but panics if the embedded data is invalid.
func MustDefault() *Vocabulary {
	v, err := Default()
	if err != nil {
		panic(err)
	}
	return v
}

// ScopeName returns the grammar's scope name.
func (v *Vocabulary) ScopeName() string {
	return v.scopeName
}

// Len returns the number of keywords.
func (v *Vocabulary) Len() int {
	return len(v.keywords)
}

// Keywords returns the keywords in grammar order.
func (v *Vocabulary) Keywords() []Keyword {
	out := make([]Keyword, len(v.keywords))
	copy(out, v.keywords)
	return out
}

// Names returns the keyword names in grammar order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.keywords))
	for i, k := range v.keywords {
		out[i] = k.Name
	}
	return out
}

// Lookup returns the keyword with the given name.
func (v *Vocabulary) Lookup(name string) (Keyword, bool) {
	i, ok := v.index[name]
	if !ok {
		return Keyword{}, false
	}
	return v.keywords[i], true
}

// Contains reports whether name is a keyword.
func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Pattern returns the raw match expression of the named grammar pattern.
func (v *Vocabulary) Pattern(name string) (string, bool) {
	p, ok := v.patterns[name]
	return p, ok
}
