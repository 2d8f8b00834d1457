package render

import (
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/copyflow-project/copyflow/pkg/color"
)

var (
	markdownMu       sync.Mutex
	markdownRenderer *glamour.TermRenderer
	markdownWidth    int
)

// Markdown renders content for the terminal with glamour. It returns content
// unchanged when colors are off or rendering fails.
func Markdown(content string, width int) string {
	if !color.Enabled() {
		return content
	}
	r := ensureMarkdownRenderer(width)
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

func ensureMarkdownRenderer(width int) *glamour.TermRenderer {
	markdownMu.Lock()
	defer markdownMu.Unlock()
	if width < 0 {
		width = 0
	}
	if markdownRenderer != nil && markdownWidth == width {
		return markdownRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	markdownRenderer, markdownWidth = r, width
	return r
}
