// Package text turns raw prose into normalized word keys.
package text

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxTokenSize caps a single token in Scan. Longer tokens are dropped.
const MaxTokenSize = 1 << 20

// A cases.Caser must not be shared between goroutines.
var lowerPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Und)
		return &c
	},
}

func lower(s string) string {
	c := lowerPool.Get().(*cases.Caser)
	defer lowerPool.Put(c)
	return c.String(s)
}

type suffixRule struct {
	suffix string
	minLen int // word must be longer than this
	guard  func(string) bool
}

// First matching rule wins.
var rules = []suffixRule{
	{suffix: "ing", minLen: 4},
	{suffix: "ed", minLen: 3},
	{suffix: "s", minLen: 3, guard: func(w string) bool { return !strings.HasSuffix(w, "ss") }},
	{suffix: "ly", minLen: 3},
	{suffix: "er", minLen: 4},
	{suffix: "est", minLen: 4},
}

// Stem lowercases word, drops every character outside a-z and strips at most
// one common English suffix. It returns "" when nothing is left.
func Stem(word string) string {
	w := keepLetters(lower(word))

	for _, r := range rules {
		if !strings.HasSuffix(w, r.suffix) || len(w) <= r.minLen {
			continue
		}
		if r.guard != nil && !r.guard(w) {
			continue
		}
		return w[:len(w)-len(r.suffix)]
	}
	return w
}

func keepLetters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ToWords splits text on whitespace and stems every token, dropping empties.
func ToWords(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := Stem(f); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// wordSplitter is bufio.ScanWords that drops tokens longer than max instead
// of failing with bufio.ErrTooLong.
type wordSplitter struct {
	max      int
	skipping bool
}

func (s *wordSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if s.skipping {
		i := bytes.IndexFunc(data, unicode.IsSpace)
		if i < 0 {
			return len(data), nil, nil
		}
		s.skipping = false
		return i, nil, nil
	}

	advance, token, err := bufio.ScanWords(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= s.max {
		s.skipping = true
		return len(data), nil, nil
	}
	return advance, token, err
}

// Scan streams stemmed words from r to fn without loading r into memory. It
// stops at the first error from fn or when ctx is done. Tokens longer than
// MaxTokenSize bytes are skipped.
func Scan(ctx context.Context, r io.Reader, fn func(word string) error) error {
	return scan(ctx, r, MaxTokenSize, fn)
}

func scan(ctx context.Context, r io.Reader, maxToken int, fn func(word string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, min(64*1024, maxToken)), maxToken)
	splitter := &wordSplitter{max: maxToken}
	scanner.Split(splitter.split)

	for n := 0; scanner.Scan(); n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		w := Stem(scanner.Text())
		if w == "" {
			continue
		}
		if err := fn(w); err != nil {
			return err
		}
	}
	return scanner.Err()
}
