package domain

import (
	"fmt"
	"math"
)

// AgeBracket is an ordinal age range. The zero value is BracketMissing.
type AgeBracket int

const (
	BracketMissing AgeBracket = iota
	BracketUpTo18
	Bracket19To30
	Bracket31To50
	Bracket51To60
	Bracket61To80
	BracketOver80
)

// AllLabel is the filter label that selects every bracket.
const AllLabel = "Todas"

var bracketLabels = [...]string{
	BracketMissing: "Sem informação",
	BracketUpTo18:  "Até 18",
	Bracket19To30:  "19 a 30",
	Bracket31To50:  "31 a 50",
	Bracket51To60:  "51 a 60",
	Bracket61To80:  "61 a 80",
	BracketOver80:  "Acima de 80",
}

// Brackets returns every bracket in ordinal order.
func Brackets() []AgeBracket {
	return []AgeBracket{
		BracketMissing, BracketUpTo18, Bracket19To30, Bracket31To50,
		Bracket51To60, Bracket61To80, BracketOver80,
	}
}

func (b AgeBracket) String() string {
	if b < BracketMissing || b > BracketOver80 {
		return fmt.Sprintf("AgeBracket(%d)", int(b))
	}
	return bracketLabels[b]
}

// MarshalText encodes the bracket as its display label.
func (b AgeBracket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// ParseBracket resolves a display label to its bracket.
func ParseBracket(label string) (AgeBracket, error) {
	for i, l := range bracketLabels {
		if l == label {
			return AgeBracket(i), nil
		}
	}
	return BracketMissing, fmt.Errorf("%w: %q", ErrUnknownBracket, label)
}

// Age is a numeric age that may be missing.
type Age struct {
	Years float64
	Known bool
}

// KnownAge wraps a parsed age.
func KnownAge(years float64) Age { return Age{Years: years, Known: true} }

// Classify maps an age to its bracket. Upper bounds are inclusive and the
// first matching rule wins; NaN is treated as missing.
func Classify(a Age) AgeBracket {
	if !a.Known || math.IsNaN(a.Years) {
		return BracketMissing
	}
	switch y := a.Years; {
	case y <= 18:
		return BracketUpTo18
	case y <= 30:
		return Bracket19To30
	case y <= 50:
		return Bracket31To50
	case y <= 60:
		return Bracket51To60
	case y <= 80:
		return Bracket61To80
	default:
		return BracketOver80
	}
}

// Filter selects either every bracket or exactly one.
type Filter struct {
	all     bool
	bracket AgeBracket
}

// AllBrackets returns the filter that matches every row.
func AllBrackets() Filter { return Filter{all: true} }

// OnlyBracket returns a filter matching a single bracket.
func OnlyBracket(b AgeBracket) Filter { return Filter{bracket: b} }

// ParseFilter accepts AllLabel, an empty string (same as AllLabel) or a bracket label.
func ParseFilter(label string) (Filter, error) {
	if label == "" || label == AllLabel {
		return AllBrackets(), nil
	}
	b, err := ParseBracket(label)
	if err != nil {
		return Filter{}, err
	}
	return OnlyBracket(b), nil
}

// Matches reports whether a bracket passes the filter.
func (f Filter) Matches(b AgeBracket) bool {
	return f.all || f.bracket == b
}

// IsAll reports whether the filter selects every bracket.
func (f Filter) IsAll() bool { return f.all }

func (f Filter) String() string {
	if f.all {
		return AllLabel
	}
	return f.bracket.String()
}

// FilterOptions lists AllLabel followed by every bracket present in rows,
// in ordinal order.
func FilterOptions(rows []MeasurementRow) []string {
	var seen [BracketOver80 + 1]bool
	for _, r := range rows {
		seen[r.Bracket()] = true
	}
	opts := []string{AllLabel}
	for _, b := range Brackets() {
		if seen[b] {
			opts = append(opts, b.String())
		}
	}
	return opts
}
