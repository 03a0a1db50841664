// Package parser reads plain-text flashcard decks.
//
// A deck is a sequence of cards. Each card starts with a "Q:" line and may
// carry an "A:" answer and a "T:" topic ("C:" is accepted as an older
// spelling of the topic prefix). Lines without a prefix continue the field
// above them, and a line holding only "---" ends the current card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/studyforge/internal/domain"
)

const separator = "---"

// MaxLineSize is the longest line a deck may hold.
const MaxLineSize = 1 << 20

type field int

const (
	none field = iota
	question
	answer
	topic
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", question},
	{"A:", answer},
	{"T:", topic},
	{"C:", topic},
}

// ParseFile reads a deck from the given path.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a deck from r. Cards without a question are dropped.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	var (
		cards   []domain.Card
		current domain.Card
		block   []string
		reading = none
	)

	flushField := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimRight(strings.Join(block, "\n"), "\n")
		switch reading {
		case question:
			current.Question = content
		case answer:
			current.Answer = content
		case topic:
			current.Topic = content
		}
		block = nil
	}

	finishCard := func() {
		flushField()
		if current.Question != "" {
			cards = append(cards, current)
		}
		current = domain.Card{}
		reading = none
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finishCard()
			continue
		}

		f, rest, ok := cutPrefix(line)
		if !ok {
			if reading != none {
				block = append(block, line)
			}
			continue
		}

		if f == question && reading != none {
			finishCard() // A new question always starts a new card
		} else {
			flushField()
		}
		reading = f
		block = append(block, rest)
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// cutPrefix reports which field line opens and returns its content with a
// single leading space removed.
func cutPrefix(line string) (field, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.field, strings.TrimPrefix(rest, " "), true
		}
	}
	return none, "", false
}
