package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/copyflow-project/copyflow/internal/audit"
	"github.com/copyflow-project/copyflow/pkg/errclass"
)

// TranslateStream requests a streamed translation and delivers every
// non-empty text part to onChunk in order. Failed attempts are retried only
// while nothing has been delivered yet.
func (c *Client) TranslateStream(ctx context.Context, req TranslateRequest, onChunk func(string)) error {
	if req.Source == "" {
		return errclass.ErrEmptyInput.WithMessage("source text is empty")
	}
	body, err := buildRequest(translateSystemPrompt(req), req.Source, generationConfig{
		Temperature: c.temperature,
	})
	if err != nil {
		return err
	}

	delivered := 0
	url := c.endpoint(c.translateModel, "streamGenerateContent") + "?alt=sse"
	return c.do(ctx, "translate", url, body, func(resp *http.Response) (bool, error) {
		err := readSSE(resp.Body, func(data []byte) error {
			var chunk generateResponse
			if err := json.Unmarshal(data, &chunk); err != nil {
				return fmt.Errorf("parse stream event: %w", err)
			}
			if chunk.Error != nil {
				return fmt.Errorf("Gemini stream error %d: %s", chunk.Error.Code, chunk.Error.Message)
			}
			if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
				return fmt.Errorf("prompt blocked: %s", chunk.PromptFeedback.BlockReason)
			}
			if text := chunk.text(); text != "" {
				delivered++
				onChunk(text)
			}
			return nil
		})
		return err != nil && delivered == 0 && ctx.Err() == nil, err
	})
}

// Audit requests a structured audit report and returns the model's JSON text.
func (c *Client) Audit(ctx context.Context, req AuditRequest) ([]byte, error) {
	if req.Source == "" || req.Target == "" {
		return nil, errclass.ErrEmptyInput.WithMessage("source and target text are required")
	}
	body, err := buildRequest(auditSystemPrompt(req), auditUserPrompt(req), generationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   audit.ResponseSchema(),
	})
	if err != nil {
		return nil, err
	}

	var out []byte
	err = c.do(ctx, "audit", c.endpoint(c.auditModel, "generateContent"), body, func(resp *http.Response) (bool, error) {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, fmt.Errorf("read Gemini response body: %w", err)
		}
		var parsed generateResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return false, fmt.Errorf("parse Gemini response JSON: %w", err)
		}
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			return false, fmt.Errorf("prompt blocked: %s", parsed.PromptFeedback.BlockReason)
		}
		out = []byte(parsed.text())
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// do runs one logical request with retries. handle consumes a 2xx response
// and reports whether its failure may be retried.
func (c *Client) do(ctx context.Context, op, url string, body []byte, handle func(*http.Response) (bool, error)) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		retry, wait, err := c.once(ctx, url, body, handle)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		if !retry || attempt == c.maxRetries {
			break
		}

		delay := c.backoff(attempt)
		if wait > delay {
			delay = wait
		}
		c.log.Warn("gemini request failed, retrying", map[string]any{
			"op":      op,
			"attempt": attempt + 1,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return transportError(lastErr)
}

func (c *Client) once(ctx context.Context, url string, body []byte, handle func(*http.Response) (bool, error)) (bool, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, 0, fmt.Errorf("build Gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, 0, fmt.Errorf("request Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		err := fmt.Errorf("Gemini API status %d: %s", resp.StatusCode, parseAPIError(respBody))
		if retryable(resp.StatusCode) {
			return true, parseRetryAfter(resp.Header.Get("Retry-After")), err
		}
		return false, 0, err
	}

	retry, err := handle(resp)
	return retry, 0, err
}
