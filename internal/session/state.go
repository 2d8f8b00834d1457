package session

import (
	"fmt"

	"github.com/copyflow-project/copyflow/internal/diff"
	"github.com/copyflow-project/copyflow/internal/highlight"
	"github.com/copyflow-project/copyflow/pkg/model"
)

// View is what the edit surface should display.
type View struct {
	Text     string           `json:"text"`
	ReadOnly bool             `json:"read_only"`
	Label    string           `json:"label,omitempty"`
	Spans    []highlight.Span `json:"spans,omitempty"`
	Diff     []diff.Token     `json:"diff,omitempty"`
}

// State is an immutable copy of the session for rendering.
type State struct {
	Source     string               `json:"source"`
	Target     string               `json:"target"`
	Language   model.LanguageCode   `json:"language"`
	Tone       model.Tone           `json:"tone"`
	Mode       model.Mode           `json:"mode"`
	Report     *model.AuditReport   `json:"report,omitempty"`
	History    []model.HistoryEntry `json:"history"`
	PreviewID  string               `json:"preview_id,omitempty"`
	Generating bool                 `json:"generating"`
	Auditing   bool                 `json:"auditing"`
	View       View                 `json:"view"`
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Source:     s.source,
		Target:     s.target,
		Language:   s.lang,
		Tone:       s.tone,
		Mode:       s.mode,
		Report:     s.report.Clone(),
		History:    s.hist.Entries(),
		Generating: s.genStop != nil,
		Auditing:   s.auditEnd != nil,
	}
	if entry, ok := s.hist.Previewing(); ok {
		st.PreviewID = entry.ID
	}
	st.View = s.viewLocked(st)
	return st
}

func (s *Session) viewLocked(st State) View {
	if pv, ok := s.hist.PreviewView(); ok {
		return View{
			Text:     pv.Text,
			ReadOnly: true,
			Label:    fmt.Sprintf("Previewing %q from %s", pv.Entry.ActionDescription, pv.Entry.Clock()),
			Diff:     pv.Tokens,
		}
	}
	v := View{Text: st.Target, ReadOnly: st.Generating}
	switch {
	case st.Generating:
		v.Label = "Generating..."
	case st.Mode == model.ModeAudit && st.Auditing:
		v.Label = "Auditing..."
	case st.Mode == model.ModeAudit && st.Report != nil:
		v.Spans = highlight.Partition(st.Target, st.Report.Issues)
		v.Label = fmt.Sprintf("Score %.0f, %d pending", st.Report.Score, st.Report.PendingCount())
	}
	return v
}
