package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wardenhq/warden/internal/index"
)

// Retrieval limits
const (
	DefaultMaxFiles  = 8
	MaxMaxFiles      = 50
	DefaultMaxLines  = 20
	MaxMaxLines      = 200
	MaxSymbolMatches = 50

	// pathWeight boosts keyword hits on the file path over content hits
	pathWeight = 5.0

	// symbolWeight is the per-symbol contribution to overall relevance
	symbolWeight = 2.0
)

// Options bounds a context query.
type Options struct {
	// MaxFiles caps the number of returned files (default 8, max 50)
	MaxFiles int

	// MaxLines caps the matched lines per file (default 20, max 200)
	MaxLines int
}

// Line is one excerpt line from a matched file.
type Line struct {
	// Number is the 1-based source line number
	Number int `json:"number"`

	// Text is the raw line
	Text string `json:"text"`

	// IsMatch is true for lines containing a query keyword; adjacent
	// context lines are included unflagged when room remains
	IsMatch bool `json:"is_match"`
}

// FileMatch is one scored file in a ContextResult.
type FileMatch struct {
	Path    string         `json:"path"`
	Score   float64        `json:"score"`
	Lines   []Line         `json:"lines"`
	Symbols []index.Symbol `json:"symbols,omitempty"`
}

// ContextResult is the outcome of one context query. Constructed fresh per
// query; never persisted.
type ContextResult struct {
	Files   []FileMatch    `json:"files"`
	Symbols []index.Symbol `json:"symbols"`

	// RelevanceScore aggregates file and symbol matches into [0,1);
	// callers use it to decide whether the context is worth including
	// in a prompt at all
	RelevanceScore float64 `json:"relevance_score"`

	// TokensEstimate approximates the LLM token cost of the excerpts
	TokensEstimate int `json:"tokens_estimate"`
}

// GetContext scores the index against a free-text query and assembles a
// bounded context result. It is a pure read over the index snapshot.
//
// Empty, whitespace-only, and no-match queries return an empty result with
// RelevanceScore 0, not an error.
func GetContext(ix *index.Index, query string, opts Options) *ContextResult {
	result := &ContextResult{}

	keywords := Keywords(query)
	if len(keywords) == 0 {
		return result
	}

	maxFiles := clamp(opts.MaxFiles, DefaultMaxFiles, MaxMaxFiles)
	maxLines := clamp(opts.MaxLines, DefaultMaxLines, MaxMaxLines)

	files := SearchFiles(ix, keywords, maxFiles)
	for i := range files {
		rec, ok := ix.File(files[i].Path)
		if !ok {
			continue
		}
		files[i].Lines = RelevantLines(rec.Content, keywords, maxLines)
		files[i].Symbols = rec.Symbols
	}

	result.Files = files
	result.Symbols = SearchSymbols(ix, keywords)
	result.RelevanceScore = OverallRelevance(files, result.Symbols)
	result.TokensEstimate = EstimateTokens(excerptText(files))
	return result
}

// SearchFiles scores every indexed file by case-insensitive keyword overlap
// against its path (weighted) and content (per occurrence), returning the
// top maxFiles by descending score. Ties break by shorter path, then
// lexicographically, so ranking is deterministic.
func SearchFiles(ix *index.Index, keywords []string, maxFiles int) []FileMatch {
	var matches []FileMatch
	for _, rec := range ix.Files() {
		score := scoreFile(&rec, keywords)
		if score <= 0 {
			continue
		}
		matches = append(matches, FileMatch{Path: rec.Path, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if len(matches[i].Path) != len(matches[j].Path) {
			return len(matches[i].Path) < len(matches[j].Path)
		}
		return matches[i].Path < matches[j].Path
	})

	if len(matches) > maxFiles {
		matches = matches[:maxFiles]
	}
	return matches
}

// scoreFile counts keyword occurrences; more occurrences never lower the
// score (monotonicity is relied on by callers ranking partial matches).
func scoreFile(rec *index.FileRecord, keywords []string) float64 {
	pathLower := strings.ToLower(rec.Path)
	contentLower := strings.ToLower(rec.Content)

	score := 0.0
	for _, kw := range keywords {
		if strings.Contains(pathLower, kw) {
			score += pathWeight
		}
		score += float64(strings.Count(contentLower, kw))
	}
	return score
}

// SearchSymbols scans the symbol index for names containing any keyword
// (substring, case-insensitive). Matches carry their resolved file path.
func SearchSymbols(ix *index.Index, keywords []string) []index.Symbol {
	var matches []index.Symbol
	for name, occurrences := range ix.SymbolOccurrences() {
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				matches = append(matches, occurrences...)
				break
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].Line < matches[j].Line
	})

	if len(matches) > MaxSymbolMatches {
		matches = matches[:MaxSymbolMatches]
	}
	return matches
}

// RelevantLines returns up to maxLines lines containing a keyword, tagged
// with 1-based numbers and IsMatch. The line following a match is included
// unflagged for readability when it doesn't match and room remains.
func RelevantLines(content string, keywords []string, maxLines int) []Line {
	lines := strings.Split(content, "\n")
	var out []Line
	for i, raw := range lines {
		if len(out) >= maxLines {
			break
		}
		if !lineMatches(raw, keywords) {
			continue
		}
		out = append(out, Line{Number: i + 1, Text: raw, IsMatch: true})

		if len(out) < maxLines && i+1 < len(lines) && !lineMatches(lines[i+1], keywords) {
			out = append(out, Line{Number: i + 2, Text: lines[i+1], IsMatch: false})
		}
	}
	return out
}

func lineMatches(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// OverallRelevance combines per-file and per-symbol scores into a single
// scalar in [0,1). The raw sum is squashed as raw/(raw+25) so the score is
// bounded and strictly monotonic in additional matches.
func OverallRelevance(files []FileMatch, symbols []index.Symbol) float64 {
	raw := 0.0
	for _, f := range files {
		raw += f.Score
	}
	raw += symbolWeight * float64(len(symbols))
	if raw <= 0 {
		return 0
	}
	return raw / (raw + 25)
}

// Markdown renders the result as a prompt-ready context block.
func (r *ContextResult) Markdown() string {
	if len(r.Files) == 0 && len(r.Symbols) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Workspace context\n\n")

	for _, f := range r.Files {
		fmt.Fprintf(&b, "### %s (score %.1f)\n\n```\n", f.Path, f.Score)
		for _, line := range f.Lines {
			fmt.Fprintf(&b, "%d: %s\n", line.Number, line.Text)
		}
		b.WriteString("```\n\n")
	}

	if len(r.Symbols) > 0 {
		b.WriteString("### Matching symbols\n\n")
		for _, s := range r.Symbols {
			fmt.Fprintf(&b, "- %s (%s) - %s:%d\n", s.Name, s.Kind, s.File, s.Line)
		}
	}
	return b.String()
}

func excerptText(files []FileMatch) string {
	var b strings.Builder
	for _, f := range files {
		for _, line := range f.Lines {
			b.WriteString(line.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// clamp applies the default when v is unset and the max bound otherwise.
func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
