// Package normalizer prepares local definition text for comparison: it splits
// the file into lines without terminators and substitutes {name} placeholders
// with per-server values.
package normalizer

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const byteOrderMark = "\uFEFF"

// SplitLines splits raw text into lines. CRLF, CR, LF and the other Unicode
// line boundaries (VT, FF, FS, GS, RS, NEL, LS, PS) all end a line. A
// trailing terminator does not produce an extra empty line, but blank lines
// before it are kept. A leading byte order mark is dropped.
func SplitLines(raw string) []string {
	raw = strings.TrimPrefix(raw, byteOrderMark)

	lines := []string{}
	start := 0
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}

		lines = append(lines, raw[start:i])
		i += size
		if r == '\r' && i < len(raw) && raw[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(raw) {
		lines = append(lines, raw[start:])
	}

	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// StripTerminators returns a copy of lines with any trailing CR/LF removed.
func StripTerminators(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimRight(line, "\r\n")
	}
	return out
}

// ReplaceVars replaces every {key} token with its value, one variable at a
// time. Keys are applied in sorted order so repeated runs are identical even
// when a value happens to contain another placeholder.
func ReplaceVars(lines []string, vars map[string]string) []string {
	out := make([]string, len(lines))
	copy(out, lines)

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		token := "{" + k + "}"
		for i := range out {
			out[i] = strings.ReplaceAll(out[i], token, vars[k])
		}
	}

	return out
}

// Normalize is SplitLines followed by ReplaceVars.
func Normalize(raw string, vars map[string]string) []string {
	return ReplaceVars(SplitLines(raw), vars)
}
