// Package webhook posts session milestones to external HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/copyflow-project/copyflow/pkg/logging"
)

// EventType names a milestone that can trigger webhooks.
type EventType string

const (
	EventTranslationCompleted EventType = "translation.completed"
	EventTranslationFailed    EventType = "translation.failed"
	EventAuditCompleted       EventType = "audit.completed"
	EventAuditFailed          EventType = "audit.failed"
	EventFixApplied           EventType = "fix.applied"
	EventHistoryRestored      EventType = "history.restored"

	// EventAll subscribes a hook to every event.
	EventAll EventType = "*"
)

// Event is the JSON payload posted to a hook.
type Event struct {
	Event     EventType      `json:"event"`
	Timestamp string         `json:"timestamp"`
	Language  string         `json:"language,omitempty"`
	Score     *float64       `json:"score,omitempty"`
	Issues    int            `json:"issues,omitempty"`
	Applied   int            `json:"applied,omitempty"`
	EntryID   string         `json:"entry_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// HookConfig is one endpoint and the events it wants.
type HookConfig struct {
	URL    string      `yaml:"url" json:"url"`
	Secret string      `yaml:"secret,omitempty" json:"secret,omitempty"`
	Events []EventType `yaml:"events" json:"events"`
}

// Config configures a Client. A config without hooks disables delivery.
type Config struct {
	Hooks      []HookConfig
	MaxRetries int
	RetryDelay time.Duration
	QueueSize  int
	Timeout    time.Duration
}

// DefaultConfig returns the default webhook configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		QueueSize:  100,
		Timeout:    30 * time.Second,
	}
}

// Client delivers events to the configured hooks.
type Client struct {
	config *Config
	http   *http.Client
	log    *logging.Logger
	queue  chan *job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

type job struct {
	event Event
	hook  HookConfig
}

// NewClient creates a client and starts its delivery worker when any hook
// is configured.
func NewClient(cfg *Config, log *logging.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logging.Global()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		log:    log,
		queue:  make(chan *job, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
	if c.Enabled() {
		c.start()
	}
	return c
}

// Enabled reports whether any hook is configured.
func (c *Client) Enabled() bool {
	return c != nil && len(c.config.Hooks) > 0
}

func (c *Client) start() {
	c.once.Do(func() {
		c.wg.Add(1)
		go c.worker()
	})
}

func (c *Client) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			// Drain what was queued before Close.
			for len(c.queue) > 0 {
				c.send(<-c.queue)
			}
			return
		case j := <-c.queue:
			c.send(j)
		}
	}
}

// Send delivers event to every matching hook. Async sends are queued and
// dropped with a warning when the queue is full.
func (c *Client) Send(event Event, async bool) error {
	if !c.Enabled() {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}

	var hooks []HookConfig
	for _, hook := range c.config.Hooks {
		if matchesEvent(hook, event.Event) {
			hooks = append(hooks, hook)
		}
	}
	if len(hooks) == 0 {
		return nil
	}
	if event.Timestamp == "" {
		event.Timestamp = c.now().UTC().Format(time.RFC3339)
	}

	if async {
		for _, hook := range hooks {
			select {
			case c.queue <- &job{event: event, hook: hook}:
			default:
				c.log.Warn("webhook queue full, dropping event", map[string]any{"event": string(event.Event)})
			}
		}
		return nil
	}

	var lastErr error
	for _, hook := range hooks {
		if err := c.sendSync(&job{event: event, hook: hook}); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *Client) send(j *job) {
	if err := c.sendSync(j); err != nil {
		c.log.Warn("webhook delivery failed", map[string]any{
			"event": string(j.event.Event),
			"url":   j.hook.URL,
			"error": err.Error(),
		})
	}
}

// sendSync posts one event, retrying non-2xx responses and transport errors.
func (c *Client) sendSync(j *job) error {
	payload, err := json.Marshal(j.event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-c.ctx.Done():
				if lastErr != nil {
					return lastErr
				}
				return c.ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		req, err := c.createRequest(j.hook, j.event.Event, payload)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	return lastErr
}

func (c *Client) createRequest(hook HookConfig, event EventType, payload []byte) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CopyFlow-Webhook/1.0")
	req.Header.Set("X-CopyFlow-Event", string(event))
	if hook.Secret != "" {
		req.Header.Set("X-CopyFlow-Signature", Sign(payload, hook.Secret))
	}
	return req, nil
}

// Sign returns the HMAC-SHA256 signature header value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func matchesEvent(hook HookConfig, event EventType) bool {
	for _, e := range hook.Events {
		if e == event || e == EventAll {
			return true
		}
	}
	return false
}

// Close stops accepting events, flushes the queue and waits for the worker.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}
