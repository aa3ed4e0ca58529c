package siliconflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverfold/feedlens/internal/core/domain"
)

func TestRerank_AlignsScoresByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)

		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "the query", req.Query)
		require.Len(t, req.Documents, 3)

		// Results sorted by relevance, as the API returns them.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 2, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.5},
				{"index": 1, "relevance_score": 0.1},
			},
		})
	}))
	defer srv.Close()

	s, err := NewRerankService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	scores, err := s.Rerank(context.Background(), "test-model", "the query", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.1, 0.9}, scores)
}

func TestRerank_EmptyDocuments(t *testing.T) {
	s, err := NewRerankService(Config{APIKey: "k"})
	require.NoError(t, err)

	scores, err := s.Rerank(context.Background(), "", "q", nil)
	require.NoError(t, err)
	assert.Nil(t, scores)
}

func TestRerank_TimeoutIsAFailure(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	s, err := NewRerankService(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = s.Rerank(context.Background(), "", "q", []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRerankFailed)
}

func TestRerank_ScoreCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"index": 0, "relevance_score": 0.9}},
		})
	}))
	defer srv.Close()

	s, err := NewRerankService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Rerank(context.Background(), "", "q", []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRerankFailed)
}

func TestRerank_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "unknown model"},
		})
	}))
	defer srv.Close()

	s, err := NewRerankService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Rerank(context.Background(), "bogus", "q", []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRerankFailed)
	assert.Contains(t, err.Error(), "unknown model")
}
