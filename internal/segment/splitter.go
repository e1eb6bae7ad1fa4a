// Package segment splits normalized case text into sentences while
// protecting dates, abbreviations, initials, statute references and numeric
// tokens from false segmentation.
package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxTextLen bounds a single input window. Larger inputs fail fast at
	// the call boundary instead of being silently truncated.
	MaxTextLen = 700_000

	minSentenceLen = 2
)

// datePatterns cover the date formats seen in scanned case files. Every
// match has its separators masked before splitting so a date can never be
// mistaken for a sentence boundary.
var datePatterns = []*regexp.Regexp{
	// dd.mm.yyyy / dd.mm.yy, optionally followed by "г."
	regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{2,4}(?:\s*г\.?)?`),
	// dd/mm/yyyy
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}(?:\s*г\.?)?`),
	// yyyy-mm-dd
	regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`),
	// dd-mm-yyyy
	regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{2,4}`),
	// bare year with era marker: "2024 г."
	regexp.MustCompile(`\d{4}\s*г\.`),
	// Russian spelled-out months
	regexp.MustCompile(`\d{1,2}\s+(?:января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)\s+\d{4}`),
	// Kazakh spelled-out months
	regexp.MustCompile(`\d{1,2}\s+(?:қаңтар|ақпан|наурыз|сәуір|мамыр|маусым|шілде|тамыз|қыркүйек|қазан|қараша|желтоқсан)\s+\d{4}`),
}

// safePatterns mask dots inside abbreviations, initials, statute references
// and decimal fractions.
var safePatterns = []*regexp.Regexp{
	// initials: А.Р., И.О.
	regexp.MustCompile(`[А-ЯЁ]\.[А-ЯЁ]\.`),
	regexp.MustCompile(`[A-Z]\.[A-Z]\.`),
	// statute references: ст. 190 / ст.190-2
	regexp.MustCompile(`(?i)ст\.?\s*\d{1,3}(?:-\d+)?`),
	regexp.MustCompile(`(?i)статья\s*\d{1,3}`),
	// abbreviations after a break: тг. руб. ул. д. кв. пр. см. им.
	// Go's \b is ASCII-only, so the preceding break is matched explicitly.
	regexp.MustCompile(`(?:^|\s)(?:тг|руб|дол|ул|д|кв|пр|см|им)\.`),
	// т.е. т.о. т.к. т.д. т.п.
	regexp.MustCompile(`(?:^|\s)т\.(?:е|о|к|д|п)\.`),
	// decimal fractions: 1.5, 2.75
	regexp.MustCompile(`\d+\.\d+`),
}

var junkSentence = regexp.MustCompile(`^[.!?,;:\-\s]+$`)

const (
	dotMask   = "\x00"
	slashMask = "\x01"
)

// Split segments text into sentences. It returns an error only for inputs
// exceeding MaxTextLen; empty input yields an empty slice.
func Split(text string) ([]string, error) {
	if len(text) > MaxTextLen {
		return nil, fmt.Errorf("segment: text too large (%d bytes, max %d)", len(text), MaxTextLen)
	}

	text = Normalize(text)
	text = protectDates(text)
	text = protectSafeTokens(text)

	raw := boundarySplit(text)

	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(restore(s))
		if s == "" || junkSentence.MatchString(s) {
			continue
		}
		sentences = append(sentences, s)
	}
	return sentences, nil
}

// Normalize canonicalizes line endings, ellipses, dashes and exotic spaces.
func Normalize(text string) string {
	r := strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"…", "...",
		"—", "-",
		"–", "-",
		"−", "-",
		" ", " ",
		" ", " ",
		" ", " ",
	)
	return r.Replace(text)
}

func protectDates(text string) string {
	for _, pat := range datePatterns {
		text = pat.ReplaceAllStringFunc(text, func(m string) string {
			m = strings.ReplaceAll(m, ".", dotMask)
			return strings.ReplaceAll(m, "/", slashMask)
		})
	}
	return text
}

func protectSafeTokens(text string) string {
	for _, pat := range safePatterns {
		text = pat.ReplaceAllStringFunc(text, func(m string) string {
			return strings.ReplaceAll(m, ".", dotMask)
		})
	}
	return text
}

func restore(text string) string {
	text = strings.ReplaceAll(text, dotMask, ".")
	return strings.ReplaceAll(text, slashMask, "/")
}

const (
	endings = ".!?"
	closers = "\"'»”›)]}"
	openers = "\"«“‘([{-"
)

// boundarySplit walks the protected text rune by rune and cuts at sentence
// boundaries.
func boundarySplit(text string) []string {
	runes := []rune(text)

	var out []string
	var buf []rune

	for i, ch := range runes {
		buf = append(buf, ch)
		if isBoundary(runes, i) {
			if s := strings.TrimSpace(string(buf)); len([]rune(s)) >= minSentenceLen {
				out = append(out, s)
			}
			buf = buf[:0]
		}
	}
	if s := strings.TrimSpace(string(buf)); len([]rune(s)) >= minSentenceLen {
		out = append(out, s)
	}
	return out
}

func isBoundary(runes []rune, idx int) bool {
	ch := runes[idx]
	if !strings.ContainsRune(endings, ch) {
		return false
	}

	// an ellipsis is not a boundary
	if idx+1 < len(runes) && runes[idx+1] == '.' {
		return false
	}

	j := idx + 1
	for j < len(runes) && strings.ContainsRune(closers, runes[j]) {
		j++
	}

	// OCR artifact: ".Далее" glued without a space
	if j < len(runes) && unicode.IsLetter(runes[j]) && unicode.IsUpper(runes[j]) {
		return true
	}

	for j < len(runes) && unicode.IsSpace(runes[j]) {
		j++
	}
	if j >= len(runes) {
		return true
	}

	// a new sentence starts with an uppercase letter, a digit, or an opener
	if unicode.IsLetter(runes[j]) && unicode.IsUpper(runes[j]) {
		return true
	}
	if unicode.IsDigit(runes[j]) {
		return true
	}
	return strings.ContainsRune(openers, runes[j])
}
