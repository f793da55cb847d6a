package bot

import (
	"fmt"
	"strings"
)

// hangmanMaxAttempts is how many wrong guesses end the game.
const hangmanMaxAttempts = 7

const hangmanInProgress = "A game is already in progress!"

// hangman is the single process-wide game session. All mutation happens on
// the dispatcher's loop goroutine, so no locking is needed here.
type hangman struct {
	active   bool
	word     []rune
	revealed []bool
	wrong    []rune
	attempts int
}

// start begins a new game with the given word. Returns the opening state
// line, or the in-progress message when a game is already running.
func (h *hangman) start(word string) string {
	if h.active {
		return hangmanInProgress
	}
	h.active = true
	h.word = []rune(word)
	h.revealed = make([]bool, len(h.word))
	h.wrong = nil
	h.attempts = 0
	return h.state()
}

// guess applies one token to the running game. The second return is false
// when no game is active and the token should be dropped.
func (h *hangman) guess(token string) (string, bool) {
	if !h.active {
		return "", false
	}

	if token == string(h.word) {
		return h.win(), true
	}

	runes := []rune(token)
	if len(runes) != 1 {
		// A whole-word guess that missed costs an attempt.
		h.attempts++
		if h.attempts >= hangmanMaxAttempts {
			return h.lose(), true
		}
		return h.state(), true
	}

	letter := runes[0]
	if h.alreadyGuessed(letter) {
		return h.state(), true
	}

	hit := false
	for i, r := range h.word {
		if r == letter {
			h.revealed[i] = true
			hit = true
		}
	}
	if !hit {
		h.wrong = append(h.wrong, letter)
		h.attempts++
		if h.attempts >= hangmanMaxAttempts {
			return h.lose(), true
		}
		return h.state(), true
	}

	if h.complete() {
		return h.win(), true
	}
	return h.state(), true
}

func (h *hangman) alreadyGuessed(letter rune) bool {
	for _, r := range h.wrong {
		if r == letter {
			return true
		}
	}
	for i, r := range h.word {
		if r == letter && h.revealed[i] {
			return true
		}
	}
	return false
}

func (h *hangman) complete() bool {
	for _, r := range h.revealed {
		if !r {
			return false
		}
	}
	return true
}

// state renders the masked pattern, attempt count, and guessed letters.
func (h *hangman) state() string {
	var mask strings.Builder
	for i, r := range h.word {
		if h.revealed[i] {
			mask.WriteRune(r)
		} else {
			mask.WriteRune('_')
		}
	}
	return fmt.Sprintf("%s (%d/%d) [%s]", mask.String(), h.attempts, hangmanMaxAttempts, string(h.wrong))
}

func (h *hangman) win() string {
	word := string(h.word)
	h.reset()
	return fmt.Sprintf("You win! The word was %s", word)
}

func (h *hangman) lose() string {
	word := string(h.word)
	h.reset()
	return fmt.Sprintf("You lose! The word was %s", word)
}

func (h *hangman) reset() { *h = hangman{} }
