package index

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Symbol kinds produced by the built-in extractors.
const (
	KindFunction      = "function"
	KindClass         = "class"
	KindMethod        = "method"
	KindType          = "type"
	KindVariable      = "variable"
	KindCommentMarker = "comment-marker"
)

// extractorFunc is one per-language heuristic: it inspects a single line
// and returns the symbols declared on it. Extractors are deliberately
// line-based pattern matching, not parsers: the index is a relevance hint,
// so false negatives are acceptable and false positives bias toward more
// context rather than wrong context.
type extractorFunc func(line string, lineNum int) []Symbol

// extractorsByExt dispatches by file extension. Unknown extensions fall
// back to the comment-marker extractor only.
var extractorsByExt = map[string]extractorFunc{
	".js":   extractJSLike,
	".jsx":  extractJSLike,
	".ts":   extractJSLike,
	".tsx":  extractJSLike,
	".mjs":  extractJSLike,
	".py":   extractPython,
	".go":   extractGo,
	".java": extractJavaLike,
	".cs":   extractJavaLike,
}

var (
	jsFunctionRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+([A-Za-z_$][\w$]*)`)
	jsClassRe    = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)
	jsArrowRe    = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`)

	pyDefRe   = regexp.MustCompile(`^(\s*)def\s+([A-Za-z_]\w*)\s*\(`)
	pyClassRe = regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)`)

	goFuncRe   = regexp.MustCompile(`^func\s+(?:\([^)]+\)\s+)?([A-Za-z_]\w*)\s*\(`)
	goMethodRe = regexp.MustCompile(`^func\s+\([^)]+\)\s+[A-Za-z_]\w*\s*\(`)
	goTypeRe   = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s`)
	goVarRe    = regexp.MustCompile(`^(?:var|const)\s+([A-Za-z_]\w*)\s`)

	javaMethodRe = regexp.MustCompile(`^\s*(?:public|private|protected|internal)\s+(?:static\s+)?(?:final\s+)?(?:async\s+)?[\w<>\[\],\s]+?\s([A-Za-z_]\w*)\s*\(`)
	javaClassRe  = regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+|internal\s+)?(?:abstract\s+|sealed\s+|static\s+|final\s+)?(?:class|interface|record)\s+([A-Za-z_]\w*)`)

	markerRe = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`)
)

// ExtractSymbols runs the per-language extractor for the file's extension
// over every line, plus the comment-marker extractor for all files. Symbols
// carry the owning path and 1-based line numbers, in source order.
func ExtractSymbols(path, content string) []Symbol {
	ext := strings.ToLower(filepath.Ext(path))
	langExtract := extractorsByExt[ext]

	var symbols []Symbol
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lineNum := i + 1
		if langExtract != nil {
			symbols = append(symbols, langExtract(line, lineNum)...)
		}
		symbols = append(symbols, extractMarkers(line, lineNum)...)
	}

	for i := range symbols {
		symbols[i].File = path
	}
	return symbols
}

// extractJSLike matches function, class, and const-arrow declarations.
func extractJSLike(line string, lineNum int) []Symbol {
	var out []Symbol
	if m := jsFunctionRe.FindStringSubmatch(line); m != nil {
		out = append(out, Symbol{Name: m[1], Kind: KindFunction, Line: lineNum})
	}
	if m := jsClassRe.FindStringSubmatch(line); m != nil {
		out = append(out, Symbol{Name: m[1], Kind: KindClass, Line: lineNum})
	}
	if m := jsArrowRe.FindStringSubmatch(line); m != nil {
		out = append(out, Symbol{Name: m[1], Kind: KindFunction, Line: lineNum})
	}
	return out
}

// extractPython matches def and class lines. Indented defs are classified
// as methods.
func extractPython(line string, lineNum int) []Symbol {
	var out []Symbol
	if m := pyDefRe.FindStringSubmatch(line); m != nil {
		kind := KindFunction
		if m[1] != "" {
			kind = KindMethod
		}
		out = append(out, Symbol{Name: m[2], Kind: kind, Line: lineNum})
	}
	if m := pyClassRe.FindStringSubmatch(line); m != nil {
		out = append(out, Symbol{Name: m[1], Kind: KindClass, Line: lineNum})
	}
	return out
}

// extractGo matches top-level func, type, and var/const declarations.
func extractGo(line string, lineNum int) []Symbol {
	var out []Symbol
	if m := goFuncRe.FindStringSubmatch(line); m != nil {
		kind := KindFunction
		if goMethodRe.MatchString(line) {
			kind = KindMethod
		}
		out = append(out, Symbol{Name: m[1], Kind: kind, Line: lineNum})
	}
	if m := goTypeRe.FindStringSubmatch(line); m != nil {
		out = append(out, Symbol{Name: m[1], Kind: KindType, Line: lineNum})
	}
	if m := goVarRe.FindStringSubmatch(line); m != nil {
		out = append(out, Symbol{Name: m[1], Kind: KindVariable, Line: lineNum})
	}
	return out
}

// extractJavaLike matches access-modifier method and class/interface/record
// declarations for Java and C#.
func extractJavaLike(line string, lineNum int) []Symbol {
	var out []Symbol
	if m := javaClassRe.FindStringSubmatch(line); m != nil {
		out = append(out, Symbol{Name: m[1], Kind: KindClass, Line: lineNum})
		return out
	}
	if m := javaMethodRe.FindStringSubmatch(line); m != nil {
		// Filter control-flow false positives like "if (" captured via
		// odd formatting
		name := m[1]
		if name != "if" && name != "for" && name != "while" && name != "switch" && name != "return" {
			out = append(out, Symbol{Name: name, Kind: KindMethod, Line: lineNum})
		}
	}
	return out
}

// extractMarkers picks up TODO/FIXME-style comment markers in any file.
func extractMarkers(line string, lineNum int) []Symbol {
	var out []Symbol
	for _, m := range markerRe.FindAllString(line, -1) {
		out = append(out, Symbol{Name: m, Kind: KindCommentMarker, Line: lineNum})
	}
	return out
}
