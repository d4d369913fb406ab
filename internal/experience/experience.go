// Package experience extracts stated years of experience from normalized text.
//
// Two heuristics exist and they disagree on ambiguous input, so callers pick one
// by name instead of relying on a single "correct" extractor:
//
//   - MaxOfAll scans every "N years" mention and keeps the largest value.
//   - RangeMidpoint takes the first "A to B years" mention and returns its midpoint.
package experience

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	PolicyMaxOfAll      = "max-of-all"
	PolicyRangeMidpoint = "range-midpoint"
)

// Years is an optional number of years. The zero value means "not specified".
type Years struct {
	Value int
	Valid bool
}

// Some returns a present Years value.
func Some(v int) Years { return Years{Value: v, Valid: true} }

// None returns an absent Years value.
func None() Years { return Years{} }

func (y Years) String() string {
	if !y.Valid {
		return "unspecified"
	}
	return strconv.Itoa(y.Value)
}

// Extractor parses years of experience out of text.
type Extractor interface {
	Name() string
	Extract(text string) Years
}

// ByName resolves an extraction policy from its configuration name.
func ByName(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyMaxOfAll:
		return MaxOfAll{}, nil
	case PolicyRangeMidpoint:
		return RangeMidpoint{}, nil
	default:
		return nil, fmt.Errorf("unknown experience policy %q", name)
	}
}

var allMentions = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\+?\s*years?`)

// MaxOfAll returns the largest "N years" (or "N+ years") value in the text,
// truncating fractions. It never reports an absent value: no mention yields 0.
type MaxOfAll struct{}

func (MaxOfAll) Name() string { return PolicyMaxOfAll }

func (MaxOfAll) Extract(text string) Years {
	best := 0
	for _, m := range allMentions.FindAllStringSubmatch(strings.ToLower(text), -1) {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsInf(f, 0) {
			continue
		}
		if v := int(f); v > best {
			best = v
		}
	}
	return Some(best)
}

var firstRange = regexp.MustCompile(`(\d+)[ ]*[-to]{0,3}[ ]*(\d+)?[ ]*years?`)

// RangeMidpoint looks only at the first years mention. For "A to B years" it
// returns (A+B)/2 rounded down, for "A years" it returns A, and it reports an
// absent value when the text has no mention at all.
type RangeMidpoint struct{}

func (RangeMidpoint) Name() string { return PolicyRangeMidpoint }

func (RangeMidpoint) Extract(text string) Years {
	m := firstRange.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return None()
	}

	start, err := strconv.Atoi(m[1])
	if err != nil {
		return None()
	}

	end := start
	if m[2] != "" {
		if end, err = strconv.Atoi(m[2]); err != nil {
			return None()
		}
	}

	return Some((start + end) / 2)
}
