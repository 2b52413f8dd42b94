// CLAUDE:SUMMARY Line-oriented unified diffing and sequential diff artifact naming.
// Package diffs wraps unified diffing of canonical DOM text and the
// sequential naming scheme for per-session diff artifacts.
package diffs

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// MaxLabelLen bounds the sanitized action label inside a diff filename.
const MaxLabelLen = 40

// Unified returns the unified diff between two canonical texts with three
// lines of context. An empty string means no change hunks: callers suppress
// the artifact instead of writing a degenerate file.
func Unified(prev, cur string) (string, error) {
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(prev),
		B:        difflib.SplitLines(cur),
		FromFile: "dom.txt",
		ToFile:   "dom.txt",
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "", fmt.Errorf("diffs: unified: %w", err)
	}
	return out, nil
}

// FileName builds the artifact name for one diff: a 3-digit zero-padded
// sequence joined with the sanitized action label. Collision-free within a
// session because the sequence strictly increases.
func FileName(seq int, label string) string {
	return fmt.Sprintf("%03d-%s.diff", seq, SanitizeLabel(label))
}

// SanitizeLabel reduces an untrusted tool argument to a bounded
// alphanumeric-and-hyphen token safe for use in a path.
func SanitizeLabel(label string) string {
	var b strings.Builder
	lastHyphen := true // also trims leading hyphens
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= MaxLabelLen {
			break
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "update"
	}
	return out
}
