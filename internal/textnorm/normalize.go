// Package textnorm cleans raw document text before it reaches any scorer.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	yearRange   = regexp.MustCompile(`(\d+)[\-–](\d+)\s*years`)
	email       = regexp.MustCompile(`\b[\w.\-]+@[\w.\-]+\.\w+\b`)
	phone       = regexp.MustCompile(`\b(\+?\d{1,3})?[\s\-.]?\(?\d{2,4}\)?[\s\-.]?\d{3,5}[\s\-.]?\d{3,5}\b`)
	url         = regexp.MustCompile(`http\S+|www\.\S+`)
	boilerplate = regexp.MustCompile(`\b(resume|references|about me|curriculum vitae|cv)\b`)
	control     = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	nonASCII    = regexp.MustCompile(`[^\x00-\x7F]+`)
	spaces      = regexp.MustCompile(`\s+`)
)

// Normalize lowercases the text, removes contact details, links and resume
// boilerplate, and collapses whitespace. The steps run in a fixed order: year
// ranges are rewritten to "A to B years" before anything else touches digits.
//
// A strip can join fragments into a new match for an earlier step (a removed
// zero-width space rejoining an email), so the pass repeats until the text
// stops changing. Every pass after the first only shortens the text.
func Normalize(text string) string {
	for {
		next := normalizeOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func normalizeOnce(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = yearRange.ReplaceAllString(text, "${1} to ${2} years")
	text = email.ReplaceAllString(text, "")
	text = phone.ReplaceAllString(text, "")
	text = url.ReplaceAllString(text, "")
	text = boilerplate.ReplaceAllString(text, "")
	// newlines, tabs and the remaining control characters become plain spaces
	text = control.ReplaceAllString(text, " ")
	text = nonASCII.ReplaceAllString(text, "")
	text = spaces.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
