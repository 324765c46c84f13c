package dedupe

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ws also matches ideographic and no-break spaces, which RE2's \s does not.
const ws = `[\s\p{Zs}]`

var (
	// trailing "(电影《X》主题曲)" style annotation, ASCII or full-width, plus whatever follows it
	annotationSuffix = regexp.MustCompile(ws + `*[（(][^）)]*[）)][^（(]*$`)
	// trailing " - 韩红/孙楠" or " – 胡歌\白冰" collaboration credit
	creditSuffix = regexp.MustCompile(ws + `*[-–]` + ws + `*[^/\n]+[/\\][^/\n]+$`)
	// loose " - live" or " . remix" tail
	looseSuffix = regexp.MustCompile(ws + `+[.-]` + ws + `+.*$`)

	creditMarkup     = regexp.MustCompile(`[-–]` + ws + `*[^/\n]+[/\\][^/\n]+`)
	annotationMarkup = regexp.MustCompile(`[（(][^）)]*[）)]`)
)

// Normalize strips annotation and credit suffixes from title and returns the grouping key.
//
// The rules run in order: parenthesized annotation, dash-introduced credit, loose suffix.
// They are reapplied until nothing changes, so Normalize(Normalize(x)) == Normalize(x).
func Normalize(title string) string {
	current := title
	for {
		next := strip(current)
		if next == current {
			return current
		}
		current = next
	}
}

func strip(s string) string {
	s = norm.NFC.String(s)
	s = annotationSuffix.ReplaceAllString(s, "")
	s = creditSuffix.ReplaceAllString(s, "")
	s = looseSuffix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// HasCredit reports whether title carries a "- A/B" collaboration credit.
func HasCredit(title string) bool {
	return creditMarkup.MatchString(title)
}

// HasAnnotation reports whether title contains a balanced parenthetical.
func HasAnnotation(title string) bool {
	return annotationMarkup.MatchString(title)
}

// IsBetter reports whether candidate should replace existing as a group's canonical title.
//
// In priority order: a strictly shorter title with the same key wins; then a credit-free
// title beats a credited one; then an annotation-free title beats an annotated one.
// Anything else keeps existing, so ties go to the title seen first.
func IsBetter(candidate, existing string) bool {
	if Normalize(candidate) == Normalize(existing) &&
		utf8.RuneCountInString(candidate) < utf8.RuneCountInString(existing) {
		return true
	}
	if HasCredit(existing) && !HasCredit(candidate) {
		return true
	}
	if HasAnnotation(existing) && !HasAnnotation(candidate) {
		return true
	}
	return false
}
