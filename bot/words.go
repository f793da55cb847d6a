package bot

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// WordList holds candidate hangman words bucketed by difficulty.
type WordList struct {
	short  []string
	medium []string
	long   []string
}

// LoadWords reads a newline-separated word file (dict(1) format works) and
// buckets usable words by length class. Possessive forms ending in "'s" are
// dropped, as is anything containing non-letters.
func LoadWords(path string) (*WordList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read words file: %w", err)
	}
	return NewWordList(strings.Split(string(data), "\n")), nil
}

// NewWordList buckets the given words. Used directly in tests.
func NewWordList(words []string) *WordList {
	wl := &WordList{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || strings.HasSuffix(w, "'s") || !isLowerWord(w) {
			continue
		}
		n := len(w)
		if n < 6 {
			wl.short = append(wl.short, w)
		}
		if n >= 4 && n <= 8 {
			wl.medium = append(wl.medium, w)
		}
		if n > 8 {
			wl.long = append(wl.long, w)
		}
	}
	return wl
}

// Pick returns a random word for the difficulty. The empty string means
// medium. ok is false when the bucket is empty.
func (wl *WordList) Pick(difficulty string) (string, bool) {
	var bucket []string
	switch difficulty {
	case "short":
		bucket = wl.short
	case "long":
		bucket = wl.long
	default:
		bucket = wl.medium
	}
	if len(bucket) == 0 {
		return "", false
	}
	return bucket[rand.Intn(len(bucket))], true
}
