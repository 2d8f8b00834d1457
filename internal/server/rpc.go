package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/copyflow-project/copyflow/internal/history"
	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/language"
	"github.com/copyflow-project/copyflow/pkg/model"
	"github.com/copyflow-project/copyflow/pkg/webhook"
)

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type rpcRequest struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     any       `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Class   string `json:"class,omitempty"`
}

type handlerFunc func(params json.RawMessage) (any, error)

type invalidParams struct{ err error }

func (e invalidParams) Error() string { return e.err.Error() }

func decode(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return invalidParams{err}
	}
	return nil
}

var okResult = map[string]string{"status": "ok"}

func (s *Server) methods() map[string]handlerFunc {
	return map[string]handlerFunc{
		"getState":       s.rpcGetState,
		"setSource":      s.rpcSetSource,
		"setLanguage":    s.rpcSetLanguage,
		"setTone":        s.rpcSetTone,
		"setMode":        s.rpcSetMode,
		"editTarget":     s.rpcEditTarget,
		"generate":       s.rpcGenerate,
		"cancelGenerate": s.rpcCancelGenerate,
		"audit":          s.rpcAudit,
		"cancelAudit":    s.rpcCancelAudit,
		"fixIssue":       s.rpcFixIssue,
		"ignoreIssue":    s.rpcIgnoreIssue,
		"fixAll":         s.rpcFixAll,
		"preview":        s.rpcPreview,
		"clearPreview":   s.rpcClearPreview,
		"restore":        s.rpcRestore,
		"findHistory":    s.rpcFindHistory,
		"clear":          s.rpcClear,
		"diff":           s.rpcDiff,
		"languages":      s.rpcLanguages,
	}
}

func (s *Server) handleRPC(req rpcRequest) rpcResponse {
	h, found := s.methods()[req.Method]
	if !found {
		return rpcResponse{
			ID:    req.ID,
			Error: &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)},
		}
	}
	result, err := h(req.Params)
	if err != nil {
		return rpcResponse{ID: req.ID, Error: toRPCError(err)}
	}
	return rpcResponse{ID: req.ID, Result: result}
}

func toRPCError(err error) *rpcError {
	var ip invalidParams
	if errors.As(err, &ip) {
		return &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	e := &rpcError{Code: codeServerError, Message: err.Error()}
	var ce *errclass.CopyFlowError
	if errors.As(err, &ce) {
		e.Class = ce.Code
	}
	return e
}

func (s *Server) rpcGetState(json.RawMessage) (any, error) {
	return s.sess.Snapshot(), nil
}

func (s *Server) rpcSetSource(params json.RawMessage) (any, error) {
	var p struct {
		Text string `json:"text"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	s.sess.SetSource(p.Text)
	return okResult, nil
}

func (s *Server) rpcSetLanguage(params json.RawMessage) (any, error) {
	var p struct {
		Language string `json:"language"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.sess.SetLanguage(p.Language); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (s *Server) rpcSetTone(params json.RawMessage) (any, error) {
	var p struct {
		Tone string `json:"tone"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.sess.SetTone(p.Tone); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (s *Server) rpcSetMode(params json.RawMessage) (any, error) {
	var p struct {
		Mode model.Mode `json:"mode"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.sess.SetMode(p.Mode); err != nil {
		return nil, invalidParams{err}
	}
	return okResult, nil
}

func (s *Server) rpcEditTarget(params json.RawMessage) (any, error) {
	var p struct {
		Text string `json:"text"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.sess.Edit(p.Text); err != nil {
		return nil, err
	}
	return okResult, nil
}

// rpcGenerate starts a generation in the background; progress arrives as
// chunk and state events.
func (s *Server) rpcGenerate(json.RawMessage) (any, error) {
	st := s.sess.Snapshot()
	if strings.TrimSpace(st.Source) == "" {
		return nil, errclass.ErrEmptyInput.WithMessage("source text is empty")
	}
	if st.Generating {
		return nil, errclass.ErrBusy.WithMessage("a translation is already running")
	}
	go func() {
		err := s.sess.Generate(s.ctx)
		if err != nil && !errclass.IsCancelled(err) {
			s.log.Warn("background generation ended with error", map[string]any{"error": err.Error()})
		}
		s.notifyGeneration(st.Language, s.sess.Target(), err)
	}()
	return map[string]string{"status": "started"}, nil
}

func (s *Server) rpcCancelGenerate(json.RawMessage) (any, error) {
	s.sess.CancelGenerate()
	return okResult, nil
}

// rpcAudit starts an audit in the background, cancelling any running one.
func (s *Server) rpcAudit(json.RawMessage) (any, error) {
	st := s.sess.Snapshot()
	if strings.TrimSpace(st.Source) == "" || strings.TrimSpace(st.Target) == "" {
		return nil, errclass.ErrEmptyInput.WithMessage("source and target text are required")
	}
	go func() {
		report, err := s.sess.Audit(s.ctx)
		if err != nil && !errclass.IsCancelled(err) {
			s.log.Warn("background audit ended with error", map[string]any{"error": err.Error()})
		}
		s.notifyAudit(st.Language, report, err)
	}()
	return map[string]string{"status": "started"}, nil
}

func (s *Server) rpcCancelAudit(json.RawMessage) (any, error) {
	s.sess.CancelAudit()
	return okResult, nil
}

type idParams struct {
	ID string `json:"id"`
}

func (s *Server) rpcFixIssue(params json.RawMessage) (any, error) {
	var p idParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.sess.FixIssue(p.ID); err != nil {
		return nil, err
	}
	s.notify(webhook.Event{Event: webhook.EventFixApplied, Applied: 1, Metadata: map[string]any{"issue_id": p.ID}})
	return okResult, nil
}

func (s *Server) rpcIgnoreIssue(params json.RawMessage) (any, error) {
	var p idParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.sess.IgnoreIssue(p.ID); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (s *Server) rpcFixAll(json.RawMessage) (any, error) {
	n, err := s.sess.FixAll()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.notify(webhook.Event{Event: webhook.EventFixApplied, Applied: n})
	}
	return map[string]int{"applied": n}, nil
}

func (s *Server) rpcPreview(params json.RawMessage) (any, error) {
	var p idParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.sess.Preview(p.ID); err != nil {
		return nil, err
	}
	return s.sess.Snapshot().View, nil
}

func (s *Server) rpcClearPreview(json.RawMessage) (any, error) {
	s.sess.ClearPreview()
	return okResult, nil
}

func (s *Server) rpcRestore(params json.RawMessage) (any, error) {
	var p idParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := s.sess.Restore(p.ID); err != nil {
		return nil, err
	}
	s.notify(webhook.Event{Event: webhook.EventHistoryRestored, EntryID: p.ID})
	return map[string]string{"target": s.sess.Target()}, nil
}

func (s *Server) rpcFindHistory(params json.RawMessage) (any, error) {
	var p struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	matches := s.sess.History().Find(p.Query, p.Limit)
	if matches == nil {
		matches = []history.Match{}
	}
	return map[string]any{"matches": matches}, nil
}

func (s *Server) rpcClear(json.RawMessage) (any, error) {
	s.sess.Clear()
	return okResult, nil
}

func (s *Server) rpcDiff(params json.RawMessage) (any, error) {
	var p struct {
		ID     string `json:"id"`
		Before string `json:"before"`
		After  string `json:"after"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	tokens, err := s.sess.Diff(p.ID, p.Before, p.After)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tokens": tokens}, nil
}

func (s *Server) rpcLanguages(json.RawMessage) (any, error) {
	return map[string]any{
		"languages": language.Options(),
		"tones":     language.Tones,
	}, nil
}
