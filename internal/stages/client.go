package stages

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Таймауты стадий по умолчанию.
const (
	DefaultIntentTimeout   = 30 * time.Second
	DefaultDraftTimeout    = 60 * time.Second
	DefaultOptimizeTimeout = 60 * time.Second
	DefaultQualityTimeout  = 30 * time.Second
	DefaultPublishTimeout  = 30 * time.Second
)

// maxResponseBytes ограничивает размер читаемого ответа стадии.
const maxResponseBytes = 4 << 20

// ClientConfig — адреса и таймауты удалённых стадий.
// Пустой URL означает "стадия не настроена".
type ClientConfig struct {
	SerpIntelURL    string
	ContentGenURL   string
	SEOOptimizerURL string
	QualityGateURL  string
	PublisherURL    string

	IntentTimeout   time.Duration
	DraftTimeout    time.Duration
	OptimizeTimeout time.Duration
	QualityTimeout  time.Duration
	PublishTimeout  time.Duration

	// HTTPClient — опционально, по умолчанию http.Client без общего таймаута
	// (таймаут задаётся контекстом каждой стадии).
	HTTPClient *http.Client
}

// Client — HTTP/JSON реализация Stages.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient создаёт Client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.IntentTimeout <= 0 {
		cfg.IntentTimeout = DefaultIntentTimeout
	}
	if cfg.DraftTimeout <= 0 {
		cfg.DraftTimeout = DefaultDraftTimeout
	}
	if cfg.OptimizeTimeout <= 0 {
		cfg.OptimizeTimeout = DefaultOptimizeTimeout
	}
	if cfg.QualityTimeout <= 0 {
		cfg.QualityTimeout = DefaultQualityTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// AnalyzeIntent — GET {serp}/analyze?query=&region=.
func (c *Client) AnalyzeIntent(ctx context.Context, req IntentRequest) (*IntentResult, error) {
	q := url.Values{}
	q.Set("query", req.Keyword)
	q.Set("region", req.Region)

	var res IntentResult
	if err := c.do(ctx, http.MethodGet, c.cfg.SerpIntelURL, "/analyze?"+q.Encode(), nil, c.cfg.IntentTimeout, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GenerateDraft — POST {content-gen}/generate.
func (c *Client) GenerateDraft(ctx context.Context, req DraftRequest) (*DraftResult, error) {
	if req.SuggestedStructure == nil {
		req.SuggestedStructure = map[string]any{}
	}
	var res DraftResult
	if err := c.do(ctx, http.MethodPost, c.cfg.ContentGenURL, "/generate", req, c.cfg.DraftTimeout, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Optimize — POST {seo-optimizer}/optimize.
func (c *Client) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	var res OptimizeResult
	if err := c.do(ctx, http.MethodPost, c.cfg.SEOOptimizerURL, "/optimize", req, c.cfg.OptimizeTimeout, &res); err != nil {
		return nil, err
	}
	if res.FinalMarkdown == "" {
		res.FinalMarkdown = req.Draft
	}
	res.FAQ = nullIfJSONNull(res.FAQ)
	res.StructuredData = nullIfJSONNull(res.StructuredData)
	return &res, nil
}

// CheckQuality — POST {quality-gate}/check.
func (c *Client) CheckQuality(ctx context.Context, req QualityRequest) (*QualityResult, error) {
	// pass отсутствует в ответе → считается пройденным
	wire := struct {
		Pass            *bool   `json:"pass"`
		Uniqueness      float64 `json:"uniqueness"`
		LengthOK        *bool   `json:"length_ok"`
		KeywordStuffing bool    `json:"keyword_stuffing"`
		Details         string  `json:"details"`
	}{}
	if err := c.do(ctx, http.MethodPost, c.cfg.QualityGateURL, "/check", req, c.cfg.QualityTimeout, &wire); err != nil {
		return nil, err
	}
	return &QualityResult{
		Pass:            wire.Pass == nil || *wire.Pass,
		Uniqueness:      wire.Uniqueness,
		LengthOK:        wire.LengthOK == nil || *wire.LengthOK,
		KeywordStuffing: wire.KeywordStuffing,
		Details:         wire.Details,
	}, nil
}

// Publish — POST {publisher}/publish.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	wire := struct {
		PageID  string `json:"page_id"`
		URL     string `json:"url"`
		IsDraft *bool  `json:"is_draft"`
	}{}
	if err := c.do(ctx, http.MethodPost, c.cfg.PublisherURL, "/publish", req, c.cfg.PublishTimeout, &wire); err != nil {
		return nil, err
	}

	// slug записываем тот, что запросили: ответный игнорируется
	res := &PublishResult{
		PageID:  wire.PageID,
		URL:     wire.URL,
		Slug:    req.Slug,
		AsDraft: req.AsDraft,
	}
	if wire.IsDraft != nil {
		res.AsDraft = *wire.IsDraft
	}
	return res, nil
}

// do выполняет запрос к стадии и декодирует JSON ответа в out.
func (c *Client) do(ctx context.Context, method, baseURL, path string, body any, timeout time.Duration, out any) error {
	if baseURL == "" {
		return fmt.Errorf("%w: not configured", ErrStageUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal body: %v", ErrBadResponse, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, bodyReader)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrStageUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStageUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrStageUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrStageUnavailable, resp.StatusCode, truncate(string(respBody), 200))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// nullIfJSONNull превращает литерал null в пустое значение.
func nullIfJSONNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
