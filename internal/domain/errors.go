package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSource matches any *MissingSourceError via errors.Is.
	ErrMissingSource = errors.New("missing source file")

	// ErrUnknownBracket is returned when a filter label names no bracket.
	ErrUnknownBracket = errors.New("unknown age bracket")
)

// MissingSourceError lists every input file that could not be found.
type MissingSourceError struct {
	Paths []string
}

func (e *MissingSourceError) Error() string {
	parts := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		parts[i] = fmt.Sprintf("missing source file %s", p)
	}
	return strings.Join(parts, " | ")
}

func (e *MissingSourceError) Is(target error) bool {
	return target == ErrMissingSource
}

// MissingColumnError reports a canonical column absent after normalization.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table has no %q column", e.Table, e.Column)
}
