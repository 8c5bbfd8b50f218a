// Package pageref splits the free-text "pages" answer of an index entry into
// (page, marginal note) pairs.
//
// The nominal form is a comma-separated list of "<page> (<note>)" tokens,
// where both parts are optional. Volunteers sometimes write the note first
// ("see minute 12"); that form is accepted as a fallback.
package pageref

import (
	"regexp"
	"strings"

	"github.com/dgallion1/sbaggregate/internal/annotation"
)

// Ref is one parsed page reference. Note is empty when none was given.
type Ref struct {
	Page string
	Note string
}

var (
	// Optional page digits, then an optional parenthesized note. The note
	// holds no parentheses of its own.
	pageThenNote = regexp.MustCompile(`^(\d*)\s*(?:\(([^()]*)\))?$`)
	// Free text, then trailing page digits.
	noteThenPage = regexp.MustCompile(`^(.*?)\s*(\d+)$`)
)

// Parse splits text into references, one per comma-separated token. Blank
// text yields no references.
//
// A comma inside parentheses cannot be told apart from a list separator, so
// such text is rejected with ErrAmbiguousInput rather than mis-split.
func Parse(text string) ([]Ref, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if nestedComma(text) {
		return nil, annotation.Errorf(annotation.ErrAmbiguousInput, "", text,
			"comma inside parentheses")
	}

	tokens := strings.Split(text, ",")
	refs := make([]Ref, 0, len(tokens))
	for _, tok := range tokens {
		ref, err := parseToken(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func parseToken(tok string) (Ref, error) {
	if m := pageThenNote.FindStringSubmatch(tok); m != nil {
		return Ref{Page: m[1], Note: m[2]}, nil
	}
	if m := noteThenPage.FindStringSubmatch(tok); m != nil {
		return Ref{Page: m[2], Note: unwrap(m[1])}, nil
	}
	return Ref{}, annotation.Errorf(annotation.ErrUnparsableReference, "", tok,
		"token matches neither \"<page> (<note>)\" nor \"<note> <page>\"")
}

// unwrap strips one pair of enclosing parentheses from a leading note.
func unwrap(note string) string {
	note = strings.TrimSpace(note)
	if len(note) >= 2 && note[0] == '(' && note[len(note)-1] == ')' {
		return strings.TrimSpace(note[1 : len(note)-1])
	}
	return note
}

func nestedComma(text string) bool {
	depth := 0
	for _, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth > 0 {
				return true
			}
		}
	}
	return false
}
