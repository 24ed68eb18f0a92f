// Package review turns a proposed settings change into something an
// operator can inspect and accept: a unified diff, optional ANSI color, a
// pager when one is available, and a yes/no prompt.
package review

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ANSI sequences used by Colorize.
const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiCyan  = "\x1b[36m"
)

// Diff returns a unified diff between two serializations of the settings
// file at path. The path labels both sides: it is one file, before and
// after. Identical inputs yield the empty string, which callers treat as
// the no-op signal.
func Diff(path, oldText, newText string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
}

// Colorize decorates a unified diff with ANSI colors, line by line: file
// headers bold, hunk headers cyan, removals red, additions green, context
// untouched. Header checks come first so "--- path" is never mistaken for a
// removed line.
func Colorize(diff string) string {
	var b strings.Builder
	b.Grow(len(diff))
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ "):
			b.WriteString(ansiBold + line + ansiReset)
		case strings.HasPrefix(line, "@@"):
			b.WriteString(ansiCyan + line + ansiReset)
		case strings.HasPrefix(line, "-"):
			b.WriteString(ansiRed + line + ansiReset)
		case strings.HasPrefix(line, "+"):
			b.WriteString(ansiGreen + line + ansiReset)
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
