package expense

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrEmptyEntry is returned when the entry text is blank.
	ErrEmptyEntry = errors.New("entry is empty")
	// ErrInvalidAmount is returned when the first token does not parse as a
	// positive decimal number.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Entry is a parsed expense message: an amount plus a free-form description.
type Entry struct {
	// Amount is the normalized amount string with a dot decimal separator,
	// written to the sheet verbatim.
	Amount string
	// Description is everything after the amount, possibly empty.
	Description string
}

// ParseEntry parses a "[amount] [description]" message. The amount is the
// first whitespace-delimited token; a comma is accepted as the decimal
// separator and normalized to a dot.
func ParseEntry(text string) (*Entry, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyEntry
	}

	amount, description, _ := strings.Cut(trimmed, " ")
	amount = strings.ReplaceAll(amount, ",", ".")

	value, err := strconv.ParseFloat(amount, 64)
	if err != nil || value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	return &Entry{
		Amount:      amount,
		Description: strings.TrimSpace(description),
	}, nil
}

// String renders the entry the way it is echoed back to the user.
func (e *Entry) String() string {
	if e.Description == "" {
		return e.Amount
	}
	return e.Amount + " " + e.Description
}
