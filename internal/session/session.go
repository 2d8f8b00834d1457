// Package session owns the live buffer, audit report and history of one
// editing session. It is the only writer of that state; every mutation is
// serialised by one mutex and announced to subscribers afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/copyflow-project/copyflow/internal/audit"
	"github.com/copyflow-project/copyflow/internal/diff"
	"github.com/copyflow-project/copyflow/internal/fix"
	"github.com/copyflow-project/copyflow/internal/history"
	"github.com/copyflow-project/copyflow/internal/llm"
	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/language"
	"github.com/copyflow-project/copyflow/pkg/logging"
	"github.com/copyflow-project/copyflow/pkg/metrics"
	"github.com/copyflow-project/copyflow/pkg/model"
)

// Options configures a Session.
type Options struct {
	Translator llm.Translator
	Auditor    llm.Auditor
	Language   model.LanguageCode
	Tone       model.Tone

	// AuditChunkSize > 0 replays the raw audit response to subscribers in
	// chunks of that many runes, AuditInterval apart, before committing.
	AuditChunkSize int
	AuditInterval  time.Duration

	History *history.Manager
	Logger  *logging.Logger
	Metrics *metrics.Registry
	IDFunc  func() string
}

// Session is a single-user copywriting session.
type Session struct {
	translator llm.Translator
	auditor    llm.Auditor
	chunkSize  int
	interval   time.Duration
	log        *logging.Logger
	metrics    *metrics.Registry
	newID      func() string

	mu       sync.Mutex
	source   string
	target   string
	lang     model.LanguageCode
	tone     model.Tone
	mode     model.Mode
	report   *model.AuditReport
	hist     *history.Manager
	genSeq   uint64
	genStop  context.CancelFunc
	auditSeq uint64
	auditEnd context.CancelFunc

	subs subscribers
}

// New creates an empty session.
func New(opts Options) *Session {
	s := &Session{
		translator: opts.Translator,
		auditor:    opts.Auditor,
		chunkSize:  opts.AuditChunkSize,
		interval:   opts.AuditInterval,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		newID:      opts.IDFunc,
		lang:       opts.Language,
		tone:       opts.Tone,
		mode:       model.ModeTranslate,
		hist:       opts.History,
	}
	if s.lang == "" {
		s.lang = "en-US"
	}
	if s.tone == "" {
		s.tone = model.ToneProfessional
	}
	if s.hist == nil {
		s.hist = history.NewManager()
	}
	if s.log == nil {
		s.log = logging.Global()
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	return s
}

// Subscribe registers fn for session events. The returned func unsubscribes.
// fn is called outside the session lock and may call back into the session.
func (s *Session) Subscribe(fn func(Event)) func() {
	return s.subs.add(fn)
}

func (s *Session) emit(ev Event) {
	s.subs.publish(ev)
}

func (s *Session) emitState() {
	st := s.Snapshot()
	s.emit(Event{Kind: EventState, State: &st})
}

// record appends a history entry; the caller holds s.mu.
func (s *Session) record(prev, next, desc string) {
	if _, ok := s.hist.Record(prev, next, desc); ok {
		s.metrics.RecordHistoryEntry()
	}
}

// SetSource replaces the source text.
func (s *Session) SetSource(text string) {
	s.mu.Lock()
	s.source = text
	s.mu.Unlock()
	s.emitState()
}

// SetLanguage selects the target locale.
func (s *Session) SetLanguage(code string) error {
	lang, err := language.Parse(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lang = lang
	s.mu.Unlock()
	s.emitState()
	return nil
}

// SetTone selects the marketing register.
func (s *Session) SetTone(tone string) error {
	t, err := language.ParseTone(tone)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tone = t
	s.mu.Unlock()
	s.emitState()
	return nil
}

// SetMode switches between the translate and audit surfaces and leaves any
// preview.
func (s *Session) SetMode(mode model.Mode) error {
	if mode != model.ModeTranslate && mode != model.ModeAudit {
		return fmt.Errorf("unknown mode %q", mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.hist.ClearPreview()
	s.mu.Unlock()
	s.emitState()
	return nil
}

// Edit replaces the target buffer with a manual edit.
func (s *Session) Edit(text string) error {
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	prev := s.target
	s.target = text
	s.record(prev, text, "Manual edit")
	s.mu.Unlock()
	s.emitState()
	return nil
}

func (s *Session) writableLocked() error {
	if _, ok := s.hist.Previewing(); ok {
		return errclass.ErrReadOnly.WithMessage("a history entry is being previewed")
	}
	if s.genStop != nil {
		return errclass.ErrReadOnly.WithMessage("a translation is streaming")
	}
	return nil
}

// Generate streams a new translation of the source into the target buffer.
// Chunks are applied in arrival order. Cancellation keeps what has arrived
// and returns ErrCancelled; a transport failure keeps the partial buffer.
func (s *Session) Generate(ctx context.Context) error {
	if s.translator == nil {
		return errclass.ErrTransport.WithMessage("no translator configured")
	}

	s.mu.Lock()
	if strings.TrimSpace(s.source) == "" {
		s.mu.Unlock()
		return errclass.ErrEmptyInput.WithMessage("source text is empty")
	}
	if s.genStop != nil {
		s.mu.Unlock()
		return errclass.ErrBusy.WithMessage("a translation is already running")
	}
	if old := s.target; old != "" {
		s.record(old, "", "Started new generation")
	}
	s.target = ""
	s.report = nil
	s.mode = model.ModeTranslate
	s.hist.ClearPreview()

	ctx, cancel := context.WithCancel(ctx)
	s.genSeq++
	seq := s.genSeq
	s.genStop = cancel
	req := llm.TranslateRequest{Source: s.source, Language: s.lang, Tone: s.tone}
	s.mu.Unlock()
	defer cancel()
	s.emitState()

	s.log.Info("generation started", map[string]any{"language": string(req.Language), "tone": string(req.Tone)})
	start := time.Now()
	err := s.translator.TranslateStream(ctx, req, func(chunk string) {
		s.mu.Lock()
		if seq != s.genSeq || ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.target += chunk
		s.mu.Unlock()
		s.metrics.RecordChunk()
		s.emit(Event{Kind: EventChunk, Text: chunk})
	})
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	s.mu.Lock()
	if seq == s.genSeq {
		s.genStop = nil
		s.record("", s.target, fmt.Sprintf("Generated %s translation", req.Language))
	}
	s.mu.Unlock()

	err = s.finishGeneration(err, time.Since(start))
	s.emitState()
	return err
}

func (s *Session) finishGeneration(err error, elapsed time.Duration) error {
	switch {
	case err == nil:
		s.metrics.RecordTranslation("ok", elapsed)
		s.log.Info("generation finished", map[string]any{"elapsed": elapsed.String()})
		return nil
	case errclass.IsCancelled(err):
		s.metrics.RecordTranslation("cancelled", elapsed)
		s.log.Info("generation cancelled")
		s.emit(Event{Kind: EventNotice, Text: "Generation cancelled."})
		return errclass.ErrCancelled.WithMessage("generation cancelled")
	default:
		if !errors.Is(err, errclass.ErrTransport) && !errors.Is(err, errclass.ErrEmptyInput) {
			err = fmt.Errorf("%w: %w", errclass.ErrTransport, err)
		}
		s.metrics.RecordTranslation("failed", elapsed)
		s.log.ErrorErr("generation failed", err)
		s.emit(errorEvent(err))
		return err
	}
}

// CancelGenerate stops applying translation chunks.
func (s *Session) CancelGenerate() {
	s.mu.Lock()
	if s.genStop != nil {
		s.genStop()
	}
	s.mu.Unlock()
}

// Audit audits the current target against the source. A running audit is
// cancelled first. The report is committed only if this audit is still the
// current one when its response arrives; otherwise ErrCancelled is returned
// and nothing changes. A malformed response commits the fallback report.
// A transport failure leaves the previous report in place.
func (s *Session) Audit(ctx context.Context) (*model.AuditReport, error) {
	if s.auditor == nil {
		return nil, errclass.ErrTransport.WithMessage("no auditor configured")
	}

	s.mu.Lock()
	if strings.TrimSpace(s.source) == "" || strings.TrimSpace(s.target) == "" {
		s.mu.Unlock()
		return nil, errclass.ErrEmptyInput.WithMessage("source and target text are required")
	}
	if s.auditEnd != nil {
		s.auditEnd()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.auditSeq++
	seq := s.auditSeq
	s.auditEnd = cancel
	s.mode = model.ModeAudit
	s.hist.ClearPreview()
	req := llm.AuditRequest{Source: s.source, Target: s.target, Language: s.lang}
	s.mu.Unlock()
	defer cancel()
	s.emitState()

	start := time.Now()
	raw, err := s.auditor.Audit(ctx, req)
	if err == nil && s.chunkSize > 0 {
		err = audit.Replay(ctx, string(raw), s.chunkSize, s.interval, func(c string) {
			s.emit(Event{Kind: EventAuditChunk, Text: c})
		})
	}

	s.mu.Lock()
	current := seq == s.auditSeq && ctx.Err() == nil
	if seq == s.auditSeq {
		s.auditEnd = nil
	}
	if !current || errclass.IsCancelled(err) {
		s.mu.Unlock()
		s.metrics.RecordAudit("cancelled", time.Since(start))
		s.log.Info("audit discarded", map[string]any{"seq": seq})
		s.emitState()
		return nil, errclass.ErrCancelled.WithMessage("audit cancelled")
	}
	if err != nil {
		s.mu.Unlock()
		if !errors.Is(err, errclass.ErrTransport) && !errors.Is(err, errclass.ErrEmptyInput) {
			err = fmt.Errorf("%w: %w", errclass.ErrTransport, err)
		}
		s.metrics.RecordAudit("failed", time.Since(start))
		s.log.ErrorErr("audit failed", err)
		s.emit(errorEvent(err))
		s.emitState()
		return nil, err
	}

	report, perr := audit.Parse(raw, s.newID)
	s.report = report
	out := report.Clone()
	s.mu.Unlock()

	outcome := "ok"
	if perr != nil {
		outcome = "malformed"
		s.log.Warn("audit response malformed", map[string]any{"error": perr.Error()})
		s.emit(Event{Kind: EventNotice, Code: errclass.ErrMalformedReport.Code, Text: report.Summary})
	}
	s.metrics.RecordAudit(outcome, time.Since(start))
	s.log.Info("audit committed", map[string]any{"score": report.Score, "issues": len(report.Issues)})
	s.emitState()
	return out, nil
}

// CancelAudit aborts the running audit, if any.
func (s *Session) CancelAudit() {
	s.mu.Lock()
	if s.auditEnd != nil {
		s.auditEnd()
		s.auditEnd = nil
		s.auditSeq++
	}
	s.mu.Unlock()
	s.emitState()
}

// FixIssue applies one issue's suggestion to the buffer.
func (s *Session) FixIssue(id string) error {
	s.mu.Lock()
	issue, err := s.pendingIssueLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.fixableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	prev := s.target
	next, fixed, outcome := fix.ApplyOne(prev, issue)
	if outcome != fix.OutcomeApplied {
		s.mu.Unlock()
		s.metrics.RecordFixes(0, 1)
		err := outcome.Err()
		s.emit(errorEvent(err))
		return err
	}
	s.target = next
	s.report.Issues = fix.MarkFixed(s.report.Issues, fixed)
	s.record(prev, next, fmt.Sprintf("Fixed issue: %s", issue.Category))
	s.mu.Unlock()

	s.metrics.RecordFixes(1, 0)
	s.emitState()
	return nil
}

// FixAll applies every pending issue and returns how many were applied.
func (s *Session) FixAll() (int, error) {
	s.mu.Lock()
	if s.report == nil {
		s.mu.Unlock()
		return 0, errclass.ErrNoReport.WithMessage("no audit report")
	}
	if err := s.fixableLocked(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	pending := s.report.PendingCount()
	prev := s.target
	res := fix.ApplyAll(prev, s.report.Issues)
	s.report.Issues = res.Issues
	s.target = res.Buffer
	if res.Applied > 0 {
		s.record(prev, res.Buffer, fmt.Sprintf("Batch fixed %d issues", res.Applied))
	}
	s.mu.Unlock()

	s.metrics.RecordFixes(res.Applied, pending-res.Applied)
	s.emitState()
	return res.Applied, nil
}

// IgnoreIssue marks an issue ignored so it is neither highlighted nor fixed.
func (s *Session) IgnoreIssue(id string) error {
	s.mu.Lock()
	if s.report == nil {
		s.mu.Unlock()
		return errclass.ErrNoReport.WithMessage("no audit report")
	}
	issues, err := fix.Ignore(s.report.Issues, id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.report.Issues = issues
	s.mu.Unlock()
	s.emitState()
	return nil
}

func (s *Session) pendingIssueLocked(id string) (model.AuditIssue, error) {
	if s.report == nil {
		return model.AuditIssue{}, errclass.ErrNoReport.WithMessage("no audit report")
	}
	issue, ok := s.report.IssueByID(id)
	if !ok {
		return model.AuditIssue{}, errclass.ErrIssueNotFound.WithMessagef("issue %s not found", id)
	}
	if !issue.IsPending() {
		return model.AuditIssue{}, errclass.ErrIssueNotFound.WithMessagef("issue %s is already %s", id, issue.Status)
	}
	return issue, nil
}

func (s *Session) fixableLocked() error {
	if s.genStop != nil {
		return errclass.ErrBusy.WithMessage("a translation is streaming")
	}
	return nil
}

// Preview shows a history entry read-only.
func (s *Session) Preview(id string) error {
	s.mu.Lock()
	resolved, err := s.hist.Resolve(id)
	if err == nil {
		err = s.hist.Preview(resolved)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emitState()
	return nil
}

// ClearPreview returns to the live buffer.
func (s *Session) ClearPreview() {
	s.mu.Lock()
	s.hist.ClearPreview()
	s.mu.Unlock()
	s.emitState()
}

// Restore undoes the change recorded by a history entry. A running audit is
// left alone.
func (s *Session) Restore(id string) error {
	s.mu.Lock()
	if s.genStop != nil {
		s.mu.Unlock()
		return errclass.ErrBusy.WithMessage("a translation is streaming")
	}
	resolved, err := s.hist.Resolve(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	before := s.hist.Len()
	next, err := s.hist.Restore(resolved, s.target)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.target = next
	recorded := s.hist.Len() > before
	s.mu.Unlock()

	if recorded {
		s.metrics.RecordHistoryEntry()
	}
	s.metrics.RecordRestore()
	s.emitState()
	return nil
}

// Clear resets the session and stops any running work.
func (s *Session) Clear() {
	s.mu.Lock()
	if s.genStop != nil {
		s.genStop()
		s.genStop = nil
	}
	s.genSeq++
	if s.auditEnd != nil {
		s.auditEnd()
		s.auditEnd = nil
	}
	s.auditSeq++
	s.source = ""
	s.target = ""
	s.report = nil
	s.mode = model.ModeTranslate
	s.hist.Reset()
	s.mu.Unlock()
	s.emitState()
}

// Diff compares two texts, or a history entry's previous and new text when
// id is set.
func (s *Session) Diff(id, before, after string) ([]diff.Token, error) {
	if id == "" {
		return diff.Diff(before, after), nil
	}
	resolved, err := s.hist.Resolve(id)
	if err != nil {
		return nil, err
	}
	e, _ := s.hist.Get(resolved)
	return diff.Diff(e.PreviousText, e.Text), nil
}

// Target returns the live buffer.
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// History exposes the session's history for read access.
func (s *Session) History() *history.Manager {
	return s.hist
}
