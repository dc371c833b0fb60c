// Package diff renders line-oriented differences between two documents.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 10000
	truncateMessage = "... (diff truncated, exceeds 10,000 lines) ..."
)

// Lines returns a unified-style diff of before and after, compared line by
// line. It returns an empty string when the inputs are identical. Output
// longer than 10,000 lines is truncated with a marker.
func Lines(before, after, beforeLabel, afterLabel string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	left, right, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(left, right, false), lines)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", beforeLabel, afterLabel)
	fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", countLines(before), countLines(after))

	written := 3
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitLines(d.Text) {
			if written >= maxDiffLines {
				b.WriteString(truncateMessage + "\n")
				return b.String()
			}
			b.WriteString(prefix + line + "\n")
			written++
		}
	}
	return b.String()
}

// Stats counts inserted and deleted lines between before and after.
func Stats(before, after string) (inserted, deleted int) {
	dmp := diffmatchpatch.New()
	left, right, lines := dmp.DiffLinesToChars(before, after)
	for _, d := range dmp.DiffCharsToLines(dmp.DiffMain(left, right, false), lines) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += len(splitLines(d.Text))
		case diffmatchpatch.DiffDelete:
			deleted += len(splitLines(d.Text))
		}
	}
	return inserted, deleted
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLines(text string) int {
	return len(splitLines(text))
}
