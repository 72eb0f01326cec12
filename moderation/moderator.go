// Package moderation censors blacklisted words in chat messages.
package moderation

import (
	"chat-hub/errors"
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator masks blacklisted words in message content.
// It is immutable once built and safe for concurrent use.
type Moderator struct {
	log          *slog.Logger
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// folded is a message reduced to its searchable letters.
// positions[i] is the index in the original runes of letters[i].
type folded struct {
	letters   []rune
	positions []int
}

// NewModerator initializes the Aho-Corasick automaton with a normalized version of the provided censored words list.
// Words made only of noise are ignored.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		f := fold([]rune(word))
		if len(f.letters) == 0 {
			log.Debug("Censored word ignored", "word", word)
			continue
		}
		patterns = append(patterns, f.letters)
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{log: log, matcher: m, censoredChar: censoredChar}, nil
}

// Censor masks every blacklisted word found in original, keeping the characters around it.
// Matching ignores case, punctuation, spacing and common leet substitutions, so
// "B.4.d.g.€r" is masked as a whole. The matched words are returned in order.
func (m *Moderator) Censor(original string) (string, []string) {
	runes := []rune(original)
	f := fold(runes)
	if len(f.letters) == 0 {
		return original, nil
	}

	var words []string
	for _, term := range m.matcher.MultiPatternSearch(f.letters, false) {
		first, last := term.Pos, term.Pos+len(term.Word)-1
		if first < 0 || last >= len(f.positions) {
			continue
		}
		for i := f.positions[first]; i <= f.positions[last]; i++ {
			runes[i] = m.censoredChar
		}
		words = append(words, string(term.Word))
	}
	if len(words) == 0 {
		return original, nil
	}
	m.log.Debug("Content censored", "words", len(words))
	return string(runes), words
}

func fold(runes []rune) folded {
	f := folded{letters: make([]rune, 0, len(runes)), positions: make([]int, 0, len(runes))}
	for i, r := range runes {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		f.letters = append(f.letters, unicode.ToLower(r))
		f.positions = append(f.positions, i)
	}
	return f
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	}
	return r
}
