// Package ledger holds the word counter and the balance rules applied to every
// humanize request.
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOverRequestCap      = errors.New("over per-request word cap")
	ErrInsufficientBalance = errors.New("insufficient word balance")
)

// QuotaError reports why a request was refused along with the numbers the
// client needs to render an upgrade prompt.
type QuotaError struct {
	Reason         error
	WordsNeeded    int
	WordsAvailable int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: needed %d, available %d", e.Reason, e.WordsNeeded, e.WordsAvailable)
}

func (e *QuotaError) Unwrap() error {
	return e.Reason
}

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Balance is the spendable part of a profile.
type Balance struct {
	Words      int `json:"words_balance"`
	ExtraWords int `json:"extra_words_balance"`
}

// Total is the usable balance across both buckets.
func (b Balance) Total() int {
	return b.Words + b.ExtraWords
}

// Authorize checks a request against the per-request cap and the total balance
// without changing anything. Unlimited callers are always authorized.
func Authorize(b Balance, requested, perRequestCap int, unlimited bool) error {
	if unlimited {
		return nil
	}
	if requested > perRequestCap {
		return &QuotaError{Reason: ErrOverRequestCap, WordsNeeded: requested, WordsAvailable: perRequestCap}
	}
	if b.Total() < requested {
		return &QuotaError{Reason: ErrInsufficientBalance, WordsNeeded: requested, WordsAvailable: b.Total()}
	}
	return nil
}

// Debit authorizes the request and returns the balance after deduction.
// Monthly words are consumed first; the shortfall comes out of extra words.
// Unlimited callers get their balance back unchanged.
func Debit(b Balance, requested, perRequestCap int, unlimited bool) (Balance, error) {
	if err := Authorize(b, requested, perRequestCap, unlimited); err != nil {
		return b, err
	}
	if unlimited || requested <= 0 {
		return b, nil
	}

	if b.Words >= requested {
		b.Words -= requested
		return b, nil
	}
	shortfall := requested - b.Words
	b.Words = 0
	b.ExtraWords = max(b.ExtraWords-shortfall, 0)
	return b, nil
}
