package snapshot

import "strings"

// Result reports where one capture's artifacts live. It is intended to be
// rendered as a short summary appended to a tool response.
type Result struct {
	// DOMPath and TreePath always point at the current artifacts.
	DOMPath  string `json:"dom_path"`
	TreePath string `json:"tree_path"`

	// DiffPath/Diff/Seq are set only when this capture differed from the
	// previous one. Seq strictly increases per session, starting at 1.
	DiffPath string `json:"diff_path,omitempty"`
	Diff     string `json:"diff,omitempty"`
	Seq      int    `json:"seq,omitempty"`

	Changed      bool `json:"changed"`
	FirstCapture bool `json:"first_capture"`
}

// Summary renders the few-line browser-state block for tool responses.
func (r *Result) Summary() string {
	var b strings.Builder
	b.WriteString("Browser State:\n")
	b.WriteString("- DOM: " + r.DOMPath + "\n")
	b.WriteString("- Tree: " + r.TreePath + "\n")
	switch {
	case r.Changed:
		b.WriteString("- Diff: " + r.DiffPath + "\n")
	case r.FirstCapture:
		b.WriteString("- First capture, no diff baseline\n")
	default:
		b.WriteString("- No changes since last capture\n")
	}
	return b.String()
}
