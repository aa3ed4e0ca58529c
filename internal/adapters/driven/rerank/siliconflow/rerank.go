// Package siliconflow provides a rerank service adapter for the
// SiliconFlow /rerank endpoint (Cohere-compatible request shape).
package siliconflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/riverfold/feedlens/internal/core/domain"
	"github.com/riverfold/feedlens/internal/core/ports/driven"
)

// Ensure RerankService implements the interface.
var _ driven.RerankService = (*RerankService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.siliconflow.cn/v1"
	DefaultModel   = "BAAI/bge-reranker-v2-m3"
	DefaultTimeout = 10 * time.Second
)

// Config holds configuration for the rerank service.
type Config struct {
	// APIKey authenticates against the API (required).
	APIKey string

	// BaseURL is the API base URL (default: SiliconFlow).
	BaseURL string

	// Timeout bounds each rerank call. A call that exceeds it is a
	// rerank failure; the query falls back to distance order.
	Timeout time.Duration
}

// RerankService scores documents against a query via HTTP.
type RerankService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// rerankRequest is the API request format.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

// rerankResponse is the API response format.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewRerankService creates a new rerank service.
func NewRerankService(cfg Config) (*RerankService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("rerank: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &RerankService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
	}, nil
}

// Rerank scores each document against the query. Scores are returned
// aligned to the input order. Any transport, decode, or shape problem
// surfaces as domain.ErrRerankFailed so callers can fall back.
func (s *RerankService) Rerank(ctx context.Context, model, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if model == "" {
		model = DefaultModel
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	jsonBody, err := json.Marshal(rerankRequest{Model: model, Query: query, Documents: documents})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrRerankFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrRerankFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRerankFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrRerankFailed, err)
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrRerankFailed, err)
	}
	if rerankResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRerankFailed, rerankResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrRerankFailed, resp.StatusCode, string(body))
	}
	if len(rerankResp.Results) != len(documents) {
		return nil, fmt.Errorf("%w: got %d scores for %d documents",
			domain.ErrRerankFailed, len(rerankResp.Results), len(documents))
	}

	scores := make([]float64, len(documents))
	seen := make([]bool, len(documents))
	for _, r := range rerankResp.Results {
		if r.Index < 0 || r.Index >= len(documents) || seen[r.Index] {
			return nil, fmt.Errorf("%w: bad result index %d", domain.ErrRerankFailed, r.Index)
		}
		scores[r.Index] = r.RelevanceScore
		seen[r.Index] = true
	}
	return scores, nil
}
