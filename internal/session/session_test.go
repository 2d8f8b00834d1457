package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyflow-project/copyflow/internal/diff"
	"github.com/copyflow-project/copyflow/internal/highlight"
	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/model"
)

const reportBad = `{"score": 70, "summary": "Needs work.", "issues": [
  {"type": "Warning", "category": "Style", "original_segment": "差", "target_segment": "bad", "suggestion": "great", "reason": "Negative"}
]}`

const reportNested = `{"score": 60, "summary": "Two issues.", "issues": [
  {"type": "Info", "category": "Grammar", "original_segment": "差", "target_segment": "bad", "suggestion": "poor", "reason": "Word"},
  {"type": "Warning", "category": "Style", "original_segment": "很差", "target_segment": "is bad", "suggestion": "is great", "reason": "Phrase"}
]}`

func descriptions(s *Session) []string {
	var out []string
	for _, e := range s.History().Entries() {
		out = append(out, e.ActionDescription)
	}
	return out
}

func TestGenerate_StreamsAndRecords(t *testing.T) {
	tr := &fakeTranslator{chunks: []string{"Hello", " world, ", "this is bad."}}
	s := newTestSession(tr, nil)
	rec := &recorder{}
	s.Subscribe(rec.add)

	s.SetSource("你好世界，这很差。")
	require.NoError(t, s.SetLanguage("en-GB"))
	require.NoError(t, s.SetTone("casual"))
	require.NoError(t, s.Generate(context.Background()))

	assert.Equal(t, "Hello world, this is bad.", s.Target())
	require.Len(t, tr.reqs, 1)
	assert.Equal(t, model.LanguageCode("en-GB"), tr.reqs[0].Language)
	assert.Equal(t, model.ToneCasual, tr.reqs[0].Tone)

	chunks := rec.kinds(EventChunk)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hello", chunks[0].Text)
	assert.Equal(t, []string{"Generated en-GB translation"}, descriptions(s))

	st := s.Snapshot()
	assert.False(t, st.Generating)
	assert.Equal(t, model.ModeTranslate, st.Mode)
}

func TestGenerate_RecordsStartWhenTargetNotEmpty(t *testing.T) {
	tr := &fakeTranslator{chunks: []string{"new"}}
	s := newTestSession(tr, nil)
	s.SetSource("源")
	require.NoError(t, s.Edit("old"))
	require.NoError(t, s.Generate(context.Background()))

	entries := s.History().Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "Manual edit", entries[0].ActionDescription)
	assert.Equal(t, "Started new generation", entries[1].ActionDescription)
	assert.Equal(t, "old", entries[1].PreviousText)
	assert.Equal(t, "", entries[1].Text)
	assert.Equal(t, "", entries[2].PreviousText)
	assert.Equal(t, "new", entries[2].Text)
}

func TestGenerate_EmptySource(t *testing.T) {
	s := newTestSession(&fakeTranslator{}, nil)
	s.SetSource("   ")
	err := s.Generate(context.Background())
	assert.True(t, errors.Is(err, errclass.ErrEmptyInput))
}

func TestGenerate_BusyAndCancel(t *testing.T) {
	tr := &fakeTranslator{
		chunks: []string{"first ", "second"},
		gate:   make(chan struct{}),
		paused: make(chan struct{}),
		gateAt: 1,
	}
	s := newTestSession(tr, nil)
	s.SetSource("源")

	done := make(chan error, 1)
	go func() { done <- s.Generate(context.Background()) }()
	<-tr.paused

	assert.True(t, s.Snapshot().Generating)
	assert.True(t, s.Snapshot().View.ReadOnly)
	assert.True(t, errors.Is(s.Generate(context.Background()), errclass.ErrBusy))
	assert.True(t, errors.Is(s.Edit("x"), errclass.ErrReadOnly))

	s.CancelGenerate()
	close(tr.gate)

	err := <-done
	assert.True(t, errors.Is(err, errclass.ErrCancelled))
	assert.True(t, errclass.IsCancelled(err))
	assert.Equal(t, "first ", s.Target())
	assert.False(t, s.Snapshot().Generating)
}

func TestGenerate_FailureKeepsPartial(t *testing.T) {
	tr := &fakeTranslator{chunks: []string{"partial"}, err: errors.New("connection reset")}
	s := newTestSession(tr, nil)
	rec := &recorder{}
	s.Subscribe(rec.add)
	s.SetSource("源")

	err := s.Generate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errclass.ErrTransport))
	assert.Equal(t, "partial", s.Target())

	errs := rec.kinds(EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "E_TRANSPORT", errs[0].Code)
}

func TestGenerate_ClearsReportAndPreview(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: reportBad}}}
	tr := &fakeTranslator{chunks: []string{"fresh"}}
	s := newTestSession(tr, au)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))
	_, err := s.Audit(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Preview(s.History().Entries()[0].ID))

	require.NoError(t, s.Generate(context.Background()))
	st := s.Snapshot()
	assert.Nil(t, st.Report)
	assert.Empty(t, st.PreviewID)
	assert.Equal(t, model.ModeTranslate, st.Mode)
}

func TestAudit_CommitsAndHighlights(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: reportBad}}}
	s := newTestSession(nil, au)
	s.SetSource("你好世界，这很差。")
	require.NoError(t, s.Edit("Hello world, this is bad."))

	report, err := s.Audit(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "i1", report.Issues[0].ID)
	assert.Equal(t, model.StatusPending, report.Issues[0].Status)
	assert.Equal(t, "Hello world, this is bad.", au.reqs[0].Target)

	st := s.Snapshot()
	assert.Equal(t, model.ModeAudit, st.Mode)
	assert.False(t, st.Auditing)
	tagged := highlight.Tagged(st.View.Spans)
	require.Len(t, tagged, 1)
	assert.Equal(t, "bad", tagged[0].Text)
	assert.Equal(t, st.Target, highlight.Join(st.View.Spans))
}

func TestAudit_EmptyInput(t *testing.T) {
	s := newTestSession(nil, &fakeAuditor{})
	s.SetSource("源")
	_, err := s.Audit(context.Background())
	assert.True(t, errors.Is(err, errclass.ErrEmptyInput))
}

func TestAudit_MalformedCommitsFallback(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: "I am not JSON"}}}
	s := newTestSession(nil, au)
	rec := &recorder{}
	s.Subscribe(rec.add)
	s.SetSource("源")
	require.NoError(t, s.Edit("target"))

	report, err := s.Audit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Score)
	assert.Equal(t, "Failed to parse report.", report.Summary)
	assert.Empty(t, report.Issues)

	notices := rec.kinds(EventNotice)
	require.Len(t, notices, 1)
	assert.Equal(t, "E_MALFORMED_REPORT", notices[0].Code)
}

func TestAudit_TransportFailureKeepsPreviousReport(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{
		{raw: reportBad},
		{err: errors.New("503 unavailable")},
	}}
	s := newTestSession(nil, au)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))

	_, err := s.Audit(context.Background())
	require.NoError(t, err)

	_, err = s.Audit(context.Background())
	assert.True(t, errors.Is(err, errclass.ErrTransport))

	st := s.Snapshot()
	require.NotNil(t, st.Report)
	assert.Equal(t, "Needs work.", st.Report.Summary)
}

func TestAudit_NewerAuditSupersedesOlder(t *testing.T) {
	gate := make(chan struct{})
	au := &fakeAuditor{
		started: make(chan int, 2),
		responses: []auditResponse{
			{raw: reportNested, gate: gate},
			{raw: reportBad},
		},
	}
	s := newTestSession(nil, au)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))

	first := make(chan error, 1)
	go func() {
		_, err := s.Audit(context.Background())
		first <- err
	}()
	<-au.started
	assert.True(t, s.Snapshot().Auditing)

	report, err := s.Audit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Needs work.", report.Summary)
	<-au.started

	close(gate)
	err = <-first
	assert.True(t, errors.Is(err, errclass.ErrCancelled))
	assert.Equal(t, "Needs work.", s.Snapshot().Report.Summary)
}

func TestAudit_CancelDiscardsLateResult(t *testing.T) {
	gate := make(chan struct{})
	au := &fakeAuditor{
		started:   make(chan int, 1),
		responses: []auditResponse{{raw: reportBad, gate: gate}},
	}
	s := newTestSession(nil, au)
	rec := &recorder{}
	s.Subscribe(rec.add)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))

	done := make(chan error, 1)
	go func() {
		_, err := s.Audit(context.Background())
		done <- err
	}()
	<-au.started

	s.CancelAudit()
	close(gate)
	err := <-done

	assert.True(t, errclass.IsCancelled(err))
	st := s.Snapshot()
	assert.Nil(t, st.Report)
	assert.False(t, st.Auditing)
	assert.Empty(t, rec.kinds(EventError))
}

func TestAudit_RestoreDoesNotCancel(t *testing.T) {
	gate := make(chan struct{})
	au := &fakeAuditor{
		started:   make(chan int, 1),
		responses: []auditResponse{{raw: reportBad, gate: gate}},
	}
	s := newTestSession(nil, au)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))
	require.NoError(t, s.Edit("this is bad!"))

	done := make(chan error, 1)
	go func() {
		_, err := s.Audit(context.Background())
		done <- err
	}()
	<-au.started

	entries := s.History().Entries()
	require.NoError(t, s.Restore(entries[1].ID))
	assert.Equal(t, "this is bad", s.Target())

	close(gate)
	require.NoError(t, <-done)
	assert.NotNil(t, s.Snapshot().Report)
}

func TestAudit_ReplaysChunks(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: reportBad}}}
	s := newTestSession(nil, au)
	s.chunkSize = 16
	s.interval = time.Microsecond
	rec := &recorder{}
	s.Subscribe(rec.add)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))

	_, err := s.Audit(context.Background())
	require.NoError(t, err)

	var joined string
	for _, ev := range rec.kinds(EventAuditChunk) {
		joined += ev.Text
	}
	assert.Equal(t, reportBad, joined)
}

func TestFixIssue(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: reportBad}}}
	s := newTestSession(nil, au)
	s.SetSource("源")
	require.NoError(t, s.Edit("Hello world, this is bad."))
	_, err := s.Audit(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.FixIssue("i1"))
	assert.Equal(t, "Hello world, this is great.", s.Target())
	st := s.Snapshot()
	assert.Equal(t, model.StatusFixed, st.Report.Issues[0].Status)
	assert.Equal(t, []string{"Manual edit", "Fixed issue: Style"}, descriptions(s))

	err = s.FixIssue("i1")
	assert.True(t, errors.Is(err, errclass.ErrIssueNotFound))
	err = s.FixIssue("missing")
	assert.True(t, errors.Is(err, errclass.ErrIssueNotFound))
}

func TestFixIssue_SegmentDrifted(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: reportBad}}}
	s := newTestSession(nil, au)
	rec := &recorder{}
	s.Subscribe(rec.add)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))
	_, err := s.Audit(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Edit("this is fine"))

	err = s.FixIssue("i1")
	assert.True(t, errors.Is(err, errclass.ErrSegmentNotFound))
	assert.True(t, errclass.IsRecoverable(err))
	assert.Equal(t, "this is fine", s.Target())
	assert.Equal(t, model.StatusPending, s.Snapshot().Report.Issues[0].Status)
	assert.Empty(t, rec.kinds(EventError))
	notices := rec.kinds(EventNotice)
	require.Len(t, notices, 1)
	assert.Equal(t, "E_SEGMENT_NOT_FOUND", notices[0].Code)
}

func TestFixIssue_NoReport(t *testing.T) {
	s := newTestSession(nil, nil)
	assert.True(t, errors.Is(s.FixIssue("x"), errclass.ErrNoReport))
	_, err := s.FixAll()
	assert.True(t, errors.Is(err, errclass.ErrNoReport))
}

func TestFixAll_LongestFirst(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: reportNested}}}
	s := newTestSession(nil, au)
	s.SetSource("源")
	require.NoError(t, s.Edit("This is bad."))
	_, err := s.Audit(context.Background())
	require.NoError(t, err)

	n, err := s.FixAll()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "This is great.", s.Target())
	assert.Equal(t, "Batch fixed 1 issues", descriptions(s)[1])

	st := s.Snapshot()
	assert.Equal(t, model.StatusPending, st.Report.Issues[0].Status)
	assert.Equal(t, model.StatusFixed, st.Report.Issues[1].Status)

	n, err = s.FixAll()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, s.History().Entries(), 2)
}

func TestIgnoreIssue(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: reportBad}}}
	s := newTestSession(nil, au)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))
	_, err := s.Audit(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.IgnoreIssue("i1"))
	st := s.Snapshot()
	assert.Equal(t, model.StatusIgnored, st.Report.Issues[0].Status)
	assert.Empty(t, highlight.Tagged(st.View.Spans))

	n, err := s.FixAll()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(s.IgnoreIssue("nope"), errclass.ErrIssueNotFound))
}

func TestPreviewAndRestore(t *testing.T) {
	s := newTestSession(nil, nil)
	require.NoError(t, s.Edit("v1"))
	require.NoError(t, s.Edit("v2"))
	entries := s.History().Entries()
	require.Len(t, entries, 2)

	require.NoError(t, s.Preview(entries[1].ID))
	st := s.Snapshot()
	assert.Equal(t, entries[1].ID, st.PreviewID)
	assert.True(t, st.View.ReadOnly)
	assert.Equal(t, "v2", st.View.Text)
	assert.Equal(t, "v1", diff.Before(st.View.Diff))
	assert.Contains(t, st.View.Label, "Manual edit")
	assert.True(t, errors.Is(s.Edit("v3"), errclass.ErrReadOnly))
	assert.Equal(t, "v2", s.Target())

	require.NoError(t, s.Restore(entries[1].ID))
	assert.Equal(t, "v1", s.Target())
	st = s.Snapshot()
	assert.Empty(t, st.PreviewID)
	require.Len(t, st.History, 3)
	assert.Equal(t, "Undid changes from "+entries[1].Clock(), st.History[2].ActionDescription)

	assert.True(t, errors.Is(s.Preview("zzz"), errclass.ErrEntryNotFound))
}

func TestPreview_ByPrefixAndClear(t *testing.T) {
	s := newTestSession(nil, nil)
	require.NoError(t, s.Edit("v1"))
	require.NoError(t, s.Preview("h1"))
	s.ClearPreview()
	assert.False(t, s.Snapshot().View.ReadOnly)

	require.NoError(t, s.Preview("h1"))
	require.NoError(t, s.SetMode(model.ModeAudit))
	assert.Empty(t, s.Snapshot().PreviewID)
	assert.Error(t, s.SetMode("bogus"))
}

func TestClear(t *testing.T) {
	au := &fakeAuditor{responses: []auditResponse{{raw: reportBad}}}
	s := newTestSession(nil, au)
	s.SetSource("源")
	require.NoError(t, s.Edit("this is bad"))
	_, err := s.Audit(context.Background())
	require.NoError(t, err)

	s.Clear()
	st := s.Snapshot()
	assert.Empty(t, st.Source)
	assert.Empty(t, st.Target)
	assert.Nil(t, st.Report)
	assert.Empty(t, st.History)
	assert.Equal(t, model.ModeTranslate, st.Mode)
}

func TestSetLanguageAndTone_Invalid(t *testing.T) {
	s := newTestSession(nil, nil)
	assert.True(t, errors.Is(s.SetLanguage("xx-YY"), errclass.ErrLanguageUnsupported))
	assert.True(t, errors.Is(s.SetTone("Angry"), errclass.ErrToneUnsupported))
	st := s.Snapshot()
	assert.Equal(t, model.LanguageCode("en-US"), st.Language)
	assert.Equal(t, model.ToneProfessional, st.Tone)
}

func TestDiff(t *testing.T) {
	s := newTestSession(nil, nil)
	tokens, err := s.Diff("", "the quick fox", "the slow fox")
	require.NoError(t, err)
	assert.Equal(t, "the slow fox", diff.After(tokens))

	require.NoError(t, s.Edit("a"))
	tokens, err = s.Diff("h1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "a", diff.After(tokens))

	_, err = s.Diff("nope", "", "")
	assert.Error(t, err)
}

func TestUnsubscribe(t *testing.T) {
	s := newTestSession(nil, nil)
	rec := &recorder{}
	unsub := s.Subscribe(rec.add)
	s.SetSource("a")
	unsub()
	s.SetSource("b")
	assert.Len(t, rec.kinds(EventState), 1)
}
