// Package normalizer prepares raw tender document text for the extraction
// pipeline.  Normalization is deterministic and line-preserving: lot
// segmentation downstream is line-oriented, so line breaks survive while
// horizontal whitespace is canonicalized.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/Tender-Intelligence/pkg/errors"
)

// Normalize canonicalizes raw document text:
//
//   - unicode NFC normalization,
//   - CRLF / CR line endings folded to LF,
//   - tabs, form feeds and exotic horizontal whitespace folded to plain
//     spaces; remaining control characters (NUL and the other Cc runes)
//     removed,
//   - runs of spaces collapsed to one, trailing spaces stripped per line,
//   - runs of more than two blank lines collapsed to two.
//
// Input that is empty, or reduces to nothing but whitespace, is unusable for
// extraction and yields a fatal-input error; this is the only condition under
// which the pipeline refuses a document.
func Normalize(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.FatalInput("document text is empty")
	}

	t := norm.NFC.String(text)
	t = strings.ReplaceAll(t, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")

	var sb strings.Builder
	sb.Grow(len(t))
	blankRun := 0
	for _, line := range strings.Split(t, "\n") {
		line = collapseSpaces(line)
		if line == "" {
			blankRun++
			if blankRun > 2 {
				continue
			}
		} else {
			blankRun = 0
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	out := strings.TrimRight(sb.String(), "\n")
	if strings.TrimSpace(out) == "" {
		return "", errors.FatalInput("document text contains no extractable content")
	}
	return out, nil
}

// collapseSpaces folds horizontal whitespace runs in a single line to one
// plain space, strips leading/trailing whitespace and removes control
// characters.  Form feed and vertical tab act as separators (PDF extractors
// emit \f between pages); other control runes are dropped outright so they
// never reach the pattern rules.
func collapseSpaces(line string) string {
	var sb strings.Builder
	sb.Grow(len(line))
	inSpace := false
	for _, r := range line {
		if r == '\t' || r == '\f' || r == '\v' || unicode.Is(unicode.Zs, r) {
			inSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if inSpace && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		inSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// accentStripper removes combining marks after NFD decomposition.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes diacritics (é→e, à→a, ç→c) for accent-insensitive
// keyword comparison.  Stored record values keep their accents; only
// classifiers and the deducer compare through this helper.
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases and strips accents, producing the canonical form used for
// keyword matching throughout the deducer and classifiers.
func Fold(s string) string {
	return strings.ToLower(StripAccents(s))
}

//Personal.AI order the ending
