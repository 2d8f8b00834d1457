package server

import (
	"errors"

	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/model"
	"github.com/copyflow-project/copyflow/pkg/webhook"
)

// Option configures a Server.
type Option func(*Server)

// WithWebhooks posts session milestones to hooks. The caller owns and
// closes the client.
func WithWebhooks(hooks *webhook.Client) Option {
	return func(s *Server) { s.hooks = hooks }
}

func (s *Server) notify(ev webhook.Event) {
	if !s.hooks.Enabled() {
		return
	}
	if err := s.hooks.Send(ev, true); err != nil {
		s.log.Warn("webhook send failed", map[string]any{"event": string(ev.Event), "error": err.Error()})
	}
}

func (s *Server) notifyGeneration(lang model.LanguageCode, target string, err error) {
	switch {
	case err == nil:
		s.notify(webhook.Event{
			Event:    webhook.EventTranslationCompleted,
			Language: string(lang),
			Metadata: map[string]any{"length": len(target)},
		})
	case !errclass.IsCancelled(err):
		s.notify(webhook.Event{
			Event:    webhook.EventTranslationFailed,
			Language: string(lang),
			Error:    errorCode(err),
		})
	}
}

func (s *Server) notifyAudit(lang model.LanguageCode, report *model.AuditReport, err error) {
	switch {
	case err == nil && report != nil:
		score := report.Score
		s.notify(webhook.Event{
			Event:    webhook.EventAuditCompleted,
			Language: string(lang),
			Score:    &score,
			Issues:   len(report.Issues),
		})
	case err != nil && !errclass.IsCancelled(err):
		s.notify(webhook.Event{
			Event:    webhook.EventAuditFailed,
			Language: string(lang),
			Error:    errorCode(err),
		})
	}
}

func errorCode(err error) string {
	var cf *errclass.CopyFlowError
	if errors.As(err, &cf) {
		return cf.Code
	}
	return err.Error()
}
