// Package analysis talks to the AI inference service that produces case analyses, bail
// predictions and document summaries.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/models"
)

const (
	defaultTimeout = 60 * time.Second
	// responses larger than this are not analyses
	maxResponseBytes = 4 << 20
)

// Client calls the inference endpoints under baseURL
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// NewClient returns a client for the service at baseURL. apiKey may be empty.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type analyzeRequest struct {
	CaseDetails string `json:"caseDetails"`
	Language    string `json:"language,omitempty"`
}

type bailRequest struct {
	CaseDetails string `json:"caseDetails"`
}

type summarizeRequest struct {
	DocumentType    string `json:"documentType"`
	DocumentContent string `json:"documentContent"`
}

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis service returned status %d: %s", e.StatusCode, e.Body)
}

// AnalyzeCase asks for a full analysis of the case description
func (c *Client) AnalyzeCase(ctx context.Context, caseDetails, language string) (*models.CaseAnalysis, error) {
	var out models.CaseAnalysis
	if err := c.post(ctx, "/analyze", analyzeRequest{CaseDetails: caseDetails, Language: language}, &out); err != nil {
		return nil, errors.Wrap(err, "analyze case")
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, errors.New("analyze case: response has no summary")
	}
	return &out, nil
}

// PredictBail asks for the likelihood of bail being granted
func (c *Client) PredictBail(ctx context.Context, caseDetails string) (*models.BailPrediction, error) {
	var out models.BailPrediction
	if err := c.post(ctx, "/bail", bailRequest{CaseDetails: caseDetails}, &out); err != nil {
		return nil, errors.Wrap(err, "predict bail")
	}
	if out.BailLikelihood < 0 || out.BailLikelihood > 1 {
		return nil, errors.Errorf("predict bail: likelihood %v out of range", out.BailLikelihood)
	}
	return &out, nil
}

// SummarizeDocument asks for a plain language summary of a legal document
func (c *Client) SummarizeDocument(ctx context.Context, documentType, documentContent string) (*models.DocumentSummary, error) {
	var out models.DocumentSummary
	if err := c.post(ctx, "/summarize", summarizeRequest{DocumentType: documentType, DocumentContent: documentContent}, &out); err != nil {
		return nil, errors.Wrap(err, "summarize document")
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, errors.New("summarize document: response has no summary")
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	if c.baseURL == "" {
		return errors.New("analysis service url is not configured")
	}
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}
	if err := json.Unmarshal([]byte(extractJSON(string(raw))), out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// extractJSON strips a markdown code fence some models wrap their JSON in
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
