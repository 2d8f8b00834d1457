package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyflow-project/copyflow/internal/llm"
	"github.com/copyflow-project/copyflow/internal/session"
	"github.com/copyflow-project/copyflow/pkg/logging"
	"github.com/copyflow-project/copyflow/pkg/metrics"
	"github.com/copyflow-project/copyflow/pkg/webhook"
)

type stubTranslator struct{ chunks []string }

func (s stubTranslator) TranslateStream(ctx context.Context, req llm.TranslateRequest, onChunk func(string)) error {
	for _, c := range s.chunks {
		onChunk(c)
	}
	return nil
}

type stubAuditor struct{ raw string }

func (s stubAuditor) Audit(ctx context.Context, req llm.AuditRequest) ([]byte, error) {
	return []byte(s.raw), nil
}

const stubReport = `{"score": 75, "summary": "ok", "issues": [
  {"type": "Warning", "category": "Style", "original_segment": "差", "target_segment": "bad", "suggestion": "great", "reason": "tone"}
]}`

type message struct {
	ID     *int            `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Params json.RawMessage `json:"params"`
}

type testConn struct {
	t       *testing.T
	conn    *websocket.Conn
	nextID  int
	pending []message
}

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *testConn) {
	t.Helper()
	log := logging.NewLogger(logging.LevelError)
	log.SetOutput(io.Discard)
	reg := metrics.NewRegistry()
	sess := session.New(session.Options{
		Translator: stubTranslator{chunks: []string{"This ", "is ", "bad."}},
		Auditor:    stubAuditor{raw: stubReport},
		Logger:     log,
		Metrics:    reg,
	})
	srv := New(sess, log, reg, opts...)
	hs := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
	})

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return hs, &testConn{t: t, conn: conn}
}

func (c *testConn) read() message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	var m message
	require.NoError(c.t, json.Unmarshal(data, &m))
	return m
}

func (c *testConn) call(method string, params any) message {
	c.t.Helper()
	c.nextID++
	id := c.nextID
	req := map[string]any{"id": id, "method": method}
	if params != nil {
		req["params"] = params
	}
	require.NoError(c.t, c.conn.WriteJSON(req))
	for {
		m := c.read()
		if m.ID != nil && *m.ID == id {
			return m
		}
		if m.Method == "event" {
			c.pending = append(c.pending, m)
		}
	}
}

// waitState returns the first state event satisfying pred.
func (c *testConn) waitState(pred func(session.State) bool) session.State {
	c.t.Helper()
	check := func(m message) (session.State, bool) {
		if m.Method != "event" {
			return session.State{}, false
		}
		var ev session.Event
		require.NoError(c.t, json.Unmarshal(m.Params, &ev))
		if ev.Kind != session.EventState || ev.State == nil {
			return session.State{}, false
		}
		return *ev.State, pred(*ev.State)
	}
	for len(c.pending) > 0 {
		m := c.pending[0]
		c.pending = c.pending[1:]
		if st, ok := check(m); ok {
			return st
		}
	}
	for {
		if st, ok := check(c.read()); ok {
			return st
		}
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	hs, _ := newTestServer(t)

	resp, err := http.Get(hs.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(hs.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRPC_UnknownMethod(t *testing.T) {
	_, c := newTestServer(t)
	m := c.call("nope", nil)
	require.NotNil(t, m.Error)
	assert.Equal(t, codeMethodNotFound, m.Error.Code)
}

func TestRPC_InvalidParams(t *testing.T) {
	_, c := newTestServer(t)
	m := c.call("setSource", "not an object")
	require.NotNil(t, m.Error)
	assert.Equal(t, codeInvalidParams, m.Error.Code)

	m = c.call("setMode", map[string]string{"mode": "bogus"})
	require.NotNil(t, m.Error)
	assert.Equal(t, codeInvalidParams, m.Error.Code)
}

func TestRPC_ErrorClass(t *testing.T) {
	_, c := newTestServer(t)
	m := c.call("setLanguage", map[string]string{"language": "xx-YY"})
	require.NotNil(t, m.Error)
	assert.Equal(t, codeServerError, m.Error.Code)
	assert.Equal(t, "E_LANGUAGE_UNSUPPORTED", m.Error.Class)

	m = c.call("generate", nil)
	require.NotNil(t, m.Error)
	assert.Equal(t, "E_EMPTY_INPUT", m.Error.Class)

	m = c.call("fixAll", nil)
	require.NotNil(t, m.Error)
	assert.Equal(t, "E_NO_REPORT", m.Error.Class)
}

func TestRPC_GenerateAuditFix(t *testing.T) {
	_, c := newTestServer(t)

	m := c.call("setSource", map[string]string{"text": "这很差。"})
	require.Nil(t, m.Error)
	m = c.call("setLanguage", map[string]string{"language": "en-GB"})
	require.Nil(t, m.Error)

	m = c.call("generate", nil)
	require.Nil(t, m.Error)
	assert.JSONEq(t, `{"status":"started"}`, string(m.Result))

	st := c.waitState(func(s session.State) bool {
		return !s.Generating && s.Target == "This is bad."
	})
	require.Len(t, st.History, 1)
	assert.Equal(t, "Generated en-GB translation", st.History[0].ActionDescription)

	m = c.call("audit", nil)
	require.Nil(t, m.Error)
	st = c.waitState(func(s session.State) bool { return s.Report != nil })
	require.Len(t, st.Report.Issues, 1)
	require.Len(t, st.View.Spans, 3)
	assert.Equal(t, "bad", st.View.Spans[1].Text)

	m = c.call("fixIssue", map[string]string{"id": st.Report.Issues[0].ID})
	require.Nil(t, m.Error)

	m = c.call("getState", nil)
	require.Nil(t, m.Error)
	var got session.State
	require.NoError(t, json.Unmarshal(m.Result, &got))
	assert.Equal(t, "This is great.", got.Target)
	require.Len(t, got.History, 2)

	m = c.call("fixIssue", map[string]string{"id": "missing"})
	require.NotNil(t, m.Error)
	assert.Equal(t, "E_ISSUE_NOT_FOUND", m.Error.Class)

	m = c.call("preview", map[string]string{"id": got.History[1].ID})
	require.Nil(t, m.Error)
	var view session.View
	require.NoError(t, json.Unmarshal(m.Result, &view))
	assert.True(t, view.ReadOnly)
	assert.Equal(t, "This is great.", view.Text)

	m = c.call("editTarget", map[string]string{"text": "nope"})
	require.NotNil(t, m.Error)
	assert.Equal(t, "E_READ_ONLY", m.Error.Class)

	m = c.call("findHistory", map[string]any{"query": "fixed issue"})
	require.Nil(t, m.Error)
	var found struct {
		Matches []struct {
			Entry     struct{ ID string } `json:"entry"`
			MatchType string             `json:"match_type"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(m.Result, &found))
	require.Len(t, found.Matches, 1)
	assert.Equal(t, got.History[1].ID, found.Matches[0].Entry.ID)
	assert.Equal(t, "description", found.Matches[0].MatchType)

	m = c.call("restore", map[string]string{"id": got.History[1].ID})
	require.Nil(t, m.Error)
	assert.JSONEq(t, `{"target":"This is bad."}`, string(m.Result))

	m = c.call("diff", map[string]string{"before": "the quick fox", "after": "the slow fox"})
	require.Nil(t, m.Error)
	assert.Contains(t, string(m.Result), `"kind":"deleted"`)

	m = c.call("clear", nil)
	require.Nil(t, m.Error)
	m = c.call("getState", nil)
	require.NoError(t, json.Unmarshal(m.Result, &got))
	assert.Empty(t, got.Target)
	assert.Empty(t, got.History)
}

func TestRPC_Languages(t *testing.T) {
	_, c := newTestServer(t)
	m := c.call("languages", nil)
	require.Nil(t, m.Error)
	var res struct {
		Languages []struct {
			Code string `json:"code"`
		} `json:"languages"`
		Tones []string `json:"tones"`
	}
	require.NoError(t, json.Unmarshal(m.Result, &res))
	assert.Len(t, res.Languages, 10)
	assert.Contains(t, res.Tones, "Social Media")
}

func TestRPC_CancelIsHarmless(t *testing.T) {
	_, c := newTestServer(t)
	assert.Nil(t, c.call("cancelAudit", nil).Error)
	assert.Nil(t, c.call("cancelGenerate", nil).Error)
	assert.Nil(t, c.call("clearPreview", nil).Error)
}

func TestRPC_WebhookMilestones(t *testing.T) {
	got := make(chan webhook.Event, 8)
	hookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev webhook.Event
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		got <- ev
	}))
	defer hookSrv.Close()

	quiet := logging.NewLogger(logging.LevelError)
	quiet.SetOutput(io.Discard)
	hooks := webhook.NewClient(&webhook.Config{
		Hooks: []webhook.HookConfig{{URL: hookSrv.URL, Events: []webhook.EventType{webhook.EventAll}}},
	}, quiet)
	defer hooks.Close()

	_, c := newTestServer(t, WithWebhooks(hooks))

	next := func() webhook.Event {
		t.Helper()
		select {
		case ev := <-got:
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for webhook")
			return webhook.Event{}
		}
	}

	require.Nil(t, c.call("setSource", map[string]string{"text": "这很差。"}).Error)
	require.Nil(t, c.call("generate", nil).Error)
	ev := next()
	assert.Equal(t, webhook.EventTranslationCompleted, ev.Event)
	assert.Equal(t, "en-US", ev.Language)

	require.Nil(t, c.call("audit", nil).Error)
	ev = next()
	assert.Equal(t, webhook.EventAuditCompleted, ev.Event)
	require.NotNil(t, ev.Score)
	assert.Equal(t, 75.0, *ev.Score)
	assert.Equal(t, 1, ev.Issues)

	m := c.call("fixAll", nil)
	require.Nil(t, m.Error)
	assert.JSONEq(t, `{"applied":1}`, string(m.Result))
	ev = next()
	assert.Equal(t, webhook.EventFixApplied, ev.Event)
	assert.Equal(t, 1, ev.Applied)
}
