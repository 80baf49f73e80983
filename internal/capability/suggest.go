package capability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SuggestionBlockTag is the fenced-code-block info word that marks a
// capability suggestion in a language-model response.
const SuggestionBlockTag = "capability"

// ParseError describes one suggestion block that could not be decoded.
// Malformed blocks never fail the parse as a whole: a response with three
// blocks of which one is broken still yields two capabilities.
type ParseError struct {
	// Block is the 1-based index of the capability block in the response
	Block int `json:"block"`

	// Reason is a human-readable decode or validation failure
	Reason string `json:"reason"`
}

// ParseSuggestions extracts capability suggestions from a language-model
// markdown response. A suggestion is a fenced code block whose info string
// includes the word "capability" (e.g. ```capability or ```json capability)
// containing a JSON-encoded Capability.
func ParseSuggestions(response string) ([]Capability, []ParseError) {
	src := []byte(response)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var caps []Capability
	var parseErrs []ParseError
	block := 0

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if !isCapabilityBlock(fc, src) {
			return ast.WalkContinue, nil
		}

		block++
		var buf bytes.Buffer
		lines := fc.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}

		var c Capability
		if err := json.Unmarshal(buf.Bytes(), &c); err != nil {
			parseErrs = append(parseErrs, ParseError{
				Block:  block,
				Reason: fmt.Sprintf("invalid JSON: %v", err),
			})
			return ast.WalkContinue, nil
		}
		if err := c.Validate(); err != nil {
			parseErrs = append(parseErrs, ParseError{
				Block:  block,
				Reason: err.Error(),
			})
			return ast.WalkContinue, nil
		}

		caps = append(caps, c)
		return ast.WalkContinue, nil
	})

	return caps, parseErrs
}

// isCapabilityBlock reports whether a fenced code block is tagged as a
// capability suggestion. The tag may appear anywhere in the info string so
// that clients emitting ```json capability still match.
func isCapabilityBlock(fc *ast.FencedCodeBlock, src []byte) bool {
	if fc.Info == nil {
		return false
	}
	info := string(fc.Info.Segment.Value(src))
	for _, word := range strings.Fields(strings.ToLower(info)) {
		if word == SuggestionBlockTag {
			return true
		}
	}
	return false
}
