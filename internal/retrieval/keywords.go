package retrieval

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// tokenRegex splits a query into identifier-ish tokens
var tokenRegex = regexp.MustCompile(`[A-Za-z0-9_]+`)

// MaxKeywords bounds how many query tokens participate in scoring.
const MaxKeywords = 16

// Normalize normalizes a query string:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Collapse internal whitespace to single spaces
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return s
}

// Keywords tokenizes a free-text query into lowercase keywords for
// matching. Single-character tokens are dropped, duplicates removed, and
// the list is capped at MaxKeywords. An empty or whitespace-only query
// yields nil.
func Keywords(query string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokenRegex.FindAllString(Normalize(query), -1) {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// EstimateTokens estimates LLM token count using a word-based heuristic
// (1.3x multiplier on word count), for prompt budgeting by callers.
func EstimateTokens(text string) int {
	words := strings.Fields(strings.TrimSpace(text))
	return int(math.Ceil(float64(len(words)) * 1.3))
}
