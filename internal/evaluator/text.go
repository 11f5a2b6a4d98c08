package evaluator

import (
	"strings"
	"unicode"
)

// Normalize lowercases, strips punctuation and collapses whitespace so
// typed answers are compared on content, not formatting.
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Distance is the edit distance between two normalized strings. It uses
// the optimal string alignment variant so a swapped letter pair counts as
// a single typo rather than two.
func Distance(a, b string) int {
	return osaDistance([]rune(Normalize(a)), []rune(Normalize(b)))
}

func osaDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	rows := make([][]int, len(a)+1)
	for i := range rows {
		rows[i] = make([]int, len(b)+1)
		rows[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		rows[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d := min3(
				rows[i-1][j]+1,      // deletion
				rows[i][j-1]+1,      // insertion
				rows[i-1][j-1]+cost, // substitution
			)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				if t := rows[i-2][j-2] + 1; t < d { // transposition
					d = t
				}
			}
			rows[i][j] = d
		}
	}
	return rows[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// nearDuplicate reports whether two answers are too close to tell apart,
// used to keep confusable distractors out of multiple-choice questions.
func nearDuplicate(a, b string) bool {
	return Distance(a, b) <= 1
}

// alternatives splits a stored answer into its accepted synonym forms.
// Cards list synonyms separated by "/" or ";".
func alternatives(answer string) []string {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == '/' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = append(out, answer)
	}
	return out
}
