package lsp

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/dshills/datacard/internal/datacard"
	"github.com/dshills/datacard/internal/vocab"
)

// RankKeywords orders the vocabulary for completion inside section s.
// Keywords that do not fuzzy-match prefix are dropped. The primary keywords
// of s come first, then the rest by descending FuzzyScore; ties are broken
// by name.
func RankKeywords(v *vocab.Vocabulary, s datacard.Section, prefix string) []vocab.Keyword {
	type scored struct {
		kw      vocab.Keyword
		primary bool
		score   int
	}

	var candidates []scored
	for _, kw := range v.Keywords() {
		if !FuzzyMatch(kw.Name, prefix) {
			continue
		}
		candidates = append(candidates, scored{
			kw:      kw,
			primary: s.IsPrimaryKeyword(kw.Name),
			score:   FuzzyScore(kw.Name, prefix),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.primary != b.primary {
			return a.primary
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.kw.Name < b.kw.Name
	})

	out := make([]vocab.Keyword, len(candidates))
	for i, c := range candidates {
		out[i] = c.kw
	}
	return out
}

// completionItems converts ranked keywords to completion items. SortText
// preserves the ranking regardless of the client's own ordering.
func completionItems(ranked []vocab.Keyword, s datacard.Section) []CompletionItem {
	items := make([]CompletionItem, len(ranked))
	for i, kw := range ranked {
		item := CompletionItem{
			Label:    kw.Name,
			Kind:     CompletionItemKindKeyword,
			SortText: fmt.Sprintf("%04d", i),
		}
		if s.IsPrimaryKeyword(kw.Name) {
			item.Detail = s.String()
			item.Preselect = i == 0
		}
		if kw.Description != "" {
			item.Documentation = &MarkupContent{Kind: MarkupKindMarkdown, Value: kw.Description}
		}
		items[i] = item
	}
	return items
}

// FuzzyMatch returns true if text matches the pattern using fuzzy matching.
// Matching is case-insensitive.
func FuzzyMatch(text, pattern string) bool {
	if pattern == "" {
		return true
	}

	textLower := strings.ToLower(text)
	patternLower := strings.ToLower(pattern)

	if strings.Contains(textLower, patternLower) {
		return true
	}

	textRunes := []rune(textLower)
	patternRunes := []rune(patternLower)

	ti := 0
	for pi := 0; pi < len(patternRunes); pi++ {
		for ti < len(textRunes) && textRunes[ti] != patternRunes[pi] {
			ti++
		}
		if ti >= len(textRunes) {
			return false
		}
		ti++
	}

	return true
}

// FuzzyScore returns a score indicating how well text matches the pattern.
// Higher scores indicate better matches.
func FuzzyScore(text, pattern string) int {
	if pattern == "" {
		return 0
	}

	textLower := strings.ToLower(text)
	patternLower := strings.ToLower(pattern)

	if textLower == patternLower {
		return 1000
	}

	score := 0
	if strings.HasPrefix(textLower, patternLower) {
		score += 500
	}
	if strings.Contains(textLower, patternLower) {
		score += 200
	}
	if matchesBoundaries(text, pattern) {
		score += 300
	}

	// Consecutive character matches get a growing bonus.
	textRunes := []rune(textLower)
	patternRunes := []rune(patternLower)
	consecutiveBonus := 0
	ti := 0
	for pi := 0; pi < len(patternRunes) && ti < len(textRunes); pi++ {
		for ti < len(textRunes) && textRunes[ti] != patternRunes[pi] {
			ti++
			consecutiveBonus = 0
		}
		if ti < len(textRunes) {
			score += 10 + consecutiveBonus
			consecutiveBonus += 5
			ti++
		}
	}

	if lenDiff := len(textRunes) - len(patternRunes); lenDiff > 0 {
		score -= lenDiff * 2
	}

	return score
}

// matchesBoundaries checks if pattern matches the word boundaries of text
// (rateParam -> rP, auto_mc -> am).
func matchesBoundaries(text, pattern string) bool {
	boundaries := extractBoundaries(text)
	if len(boundaries) == 0 {
		return false
	}

	patternRunes := []rune(strings.ToLower(pattern))
	pi := 0
	for _, b := range boundaries {
		if pi < len(patternRunes) && unicode.ToLower(b) == patternRunes[pi] {
			pi++
		}
	}
	return pi == len(patternRunes)
}

// extractBoundaries returns the first rune and every rune that starts a
// camelCase or snake_case word.
func extractBoundaries(text string) []rune {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	boundaries := []rune{runes[0]}
	for i := 1; i < len(runes); i++ {
		c, prev := runes[i], runes[i-1]
		switch {
		case c == '_':
		case prev == '_':
			boundaries = append(boundaries, c)
		case unicode.IsUpper(c) && unicode.IsLower(prev):
			boundaries = append(boundaries, c)
		}
	}
	return boundaries
}
