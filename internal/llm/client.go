// Package llm talks to the Gemini generative language API.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/logging"
	"github.com/copyflow-project/copyflow/pkg/model"
)

const (
	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTranslateModel = "gemini-3-flash-preview"
	DefaultAuditModel     = "gemini-3-pro-preview"
	DefaultTemperature    = 0.7

	defaultMaxRetries = 3
	maxErrBody        = 2048
)

// TranslateRequest is the input of one translation.
type TranslateRequest struct {
	Source   string
	Language model.LanguageCode
	Tone     model.Tone
}

// AuditRequest is the input of one audit.
type AuditRequest struct {
	Source   string
	Target   string
	Language model.LanguageCode
}

// Translator streams a translation. onChunk receives text pieces in arrival
// order; their concatenation is the full translation.
type Translator interface {
	TranslateStream(ctx context.Context, req TranslateRequest, onChunk func(string)) error
}

// Auditor returns the raw JSON body of an audit report.
type Auditor interface {
	Audit(ctx context.Context, req AuditRequest) ([]byte, error)
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	APIKey         string
	BaseURL        string
	TranslateModel string
	AuditModel     string
	Temperature    float64
	MaxRetries     int
	HTTPClient     *http.Client
	Logger         *logging.Logger
}

// Client implements Translator and Auditor over the Gemini REST API.
type Client struct {
	apiKey         string
	baseURL        string
	translateModel string
	auditModel     string
	temperature    float64
	maxRetries     int
	httpClient     *http.Client
	log            *logging.Logger
	backoff        func(attempt int) time.Duration
}

var (
	_ Translator = (*Client)(nil)
	_ Auditor    = (*Client)(nil)
)

// NewClient creates a Gemini client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:         opts.APIKey,
		baseURL:        baseURL,
		translateModel: opts.TranslateModel,
		auditModel:     opts.AuditModel,
		temperature:    opts.Temperature,
		maxRetries:     opts.MaxRetries,
		httpClient:     opts.HTTPClient,
		log:            opts.Logger,
		backoff:        backoffDelay,
	}
	if c.translateModel == "" {
		c.translateModel = DefaultTranslateModel
	}
	if c.auditModel == "" {
		c.auditModel = DefaultAuditModel
	}
	if c.temperature <= 0 {
		c.temperature = DefaultTemperature
	}
	if c.maxRetries < 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.log == nil {
		c.log = logging.Global()
	}
	return c
}

func (c *Client) endpoint(model, method string) string {
	return fmt.Sprintf("%s/models/%s:%s", c.baseURL, model, method)
}

// transportError classifies err as a transport failure while keeping the
// cause in the chain.
func transportError(err error) error {
	return fmt.Errorf("%w: %w", errclass.ErrTransport, err)
}
