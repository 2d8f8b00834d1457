// Package diff computes token-level differences between two text snapshots.
//
// Text is split into maximal runs of whitespace and non-whitespace, so both
// inputs can be rebuilt exactly from the token stream. Alignment uses a
// bounded lookahead instead of a full edit-distance search: small local
// insertions and deletions are found, larger moves degrade into
// delete/insert pairs.
package diff

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lookahead is how many tokens ahead the aligner searches for a resync point.
const Lookahead = 4

// Kind classifies a diff token.
type Kind string

const (
	KindUnchanged Kind = "unchanged"
	KindDeleted   Kind = "deleted"
	KindInserted  Kind = "inserted"
)

// Token is one aligned piece of text.
type Token struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Stats counts tokens per kind.
type Stats struct {
	Unchanged int `json:"unchanged"`
	Deleted   int `json:"deleted"`
	Inserted  int `json:"inserted"`
}

// Changed reports whether any token was inserted or deleted.
func (s Stats) Changed() bool {
	return s.Deleted > 0 || s.Inserted > 0
}

// Tokenize splits s into maximal runs of whitespace or non-whitespace.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	var tokens []string
	start := 0
	first, _ := utf8.DecodeRuneInString(s)
	inSpace := unicode.IsSpace(first)
	for i, r := range s {
		space := unicode.IsSpace(r)
		if space != inSpace {
			tokens = append(tokens, s[start:i])
			start = i
			inSpace = space
		}
	}
	return append(tokens, s[start:])
}

// Diff aligns the tokens of before and after.
func Diff(before, after string) []Token {
	a := Tokenize(before)
	b := Tokenize(after)

	var out []Token
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		if i < len(a) && j < len(b) && a[i] == b[j] {
			out = append(out, Token{Kind: KindUnchanged, Text: a[i]})
			i++
			j++
			continue
		}

		if j < len(b) {
			if k := scan(a, i, b[j]); k > 0 {
				for _, t := range a[i : i+k] {
					out = append(out, Token{Kind: KindDeleted, Text: t})
				}
				i += k
				continue
			}
		}

		if i < len(a) {
			if k := scan(b, j, a[i]); k > 0 {
				for _, t := range b[j : j+k] {
					out = append(out, Token{Kind: KindInserted, Text: t})
				}
				j += k
				continue
			}
		}

		if i < len(a) {
			out = append(out, Token{Kind: KindDeleted, Text: a[i]})
			i++
		}
		if j < len(b) {
			out = append(out, Token{Kind: KindInserted, Text: b[j]})
			j++
		}
	}
	return out
}

// scan returns the offset k in 1..Lookahead at which tokens[from+k] equals
// want, or 0 when no such offset exists.
func scan(tokens []string, from int, want string) int {
	for k := 1; k <= Lookahead && from+k < len(tokens); k++ {
		if tokens[from+k] == want {
			return k
		}
	}
	return 0
}

// Before rebuilds the original text from a token stream.
func Before(tokens []Token) string {
	return join(tokens, KindInserted)
}

// After rebuilds the new text from a token stream.
func After(tokens []Token) string {
	return join(tokens, KindDeleted)
}

func join(tokens []Token, skip Kind) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.Kind != skip {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// Summarize counts the tokens of each kind.
func Summarize(tokens []Token) Stats {
	var s Stats
	for _, t := range tokens {
		switch t.Kind {
		case KindUnchanged:
			s.Unchanged++
		case KindDeleted:
			s.Deleted++
		case KindInserted:
			s.Inserted++
		}
	}
	return s
}

// Merge coalesces adjacent tokens of the same kind.
func Merge(tokens []Token) []Token {
	var out []Token
	for _, t := range tokens {
		if n := len(out); n > 0 && out[n-1].Kind == t.Kind {
			out[n-1].Text += t.Text
			continue
		}
		out = append(out, t)
	}
	return out
}

// FormatHuman renders tokens inline using [-deleted-] and {+inserted+} markers.
func FormatHuman(tokens []Token) string {
	var sb strings.Builder
	for _, t := range Merge(tokens) {
		switch t.Kind {
		case KindDeleted:
			sb.WriteString("[-" + t.Text + "-]")
		case KindInserted:
			sb.WriteString("{+" + t.Text + "+}")
		default:
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// FormatStat returns a one-line summary of s.
func FormatStat(s Stats) string {
	if !s.Changed() {
		return "No changes."
	}
	return fmt.Sprintf("%d unchanged, %d deleted, %d inserted", s.Unchanged, s.Deleted, s.Inserted)
}
