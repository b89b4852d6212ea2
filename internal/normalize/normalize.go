// Package normalize turns raw respondent input into canonical vocabulary keys.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultAlphabet is the Polish alphabet together with the remaining ASCII
// letters. Upper-case forms are accepted implicitly.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyząćęłńóśźż"

var spaceRun = regexp.MustCompile(` +`)

// Normalizer generates ordered candidate keys for a raw word. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	letters map[rune]struct{}
}

// New builds a normalizer that keeps the letters of alphabet (in either case),
// hyphens and spaces.
func New(alphabet string) *Normalizer {
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	letters := make(map[rune]struct{}, 2*utf8.RuneCountInString(alphabet))
	for _, r := range norm.NFC.String(alphabet) {
		lower := unicode.ToLower(r)
		letters[lower] = struct{}{}
		letters[unicode.ToUpper(lower)] = struct{}{}
	}
	return &Normalizer{letters: letters}
}

// Default returns a normalizer for DefaultAlphabet.
func Default() *Normalizer { return New(DefaultAlphabet) }

// Clean strips every rune outside the alphabet except hyphens and spaces,
// lowercases the remainder and trims surrounding spaces. Input is composed to
// NFC first so that decomposed diacritics survive the filter.
func (n *Normalizer) Clean(raw string) string {
	composed := norm.NFC.String(raw)
	kept := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return r
		}
		if _, ok := n.letters[r]; ok {
			return r
		}
		return -1
	}, composed)
	return strings.TrimSpace(strings.ToLower(kept))
}

// Candidates returns the lookup keys for raw in preference order:
//
//	"valid"      -> ["valid"]
//	"cul de sac" -> ["cul-de-sac", "culdesac"]
//	"top-hat"    -> ["top-hat", "tophat"]
//
// Words that clean down to one rune or less yield no candidates.
func (n *Normalizer) Candidates(raw string) []string {
	clean := n.Clean(raw)
	if utf8.RuneCountInString(clean) <= 1 {
		return nil
	}
	if strings.Contains(clean, " ") {
		return []string{
			spaceRun.ReplaceAllString(clean, "-"),
			strings.ReplaceAll(clean, " ", ""),
		}
	}
	if strings.Contains(clean, "-") {
		return []string{clean, strings.ReplaceAll(clean, "-", "")}
	}
	return []string{clean}
}
