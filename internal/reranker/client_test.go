package reranker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmhartley/docdex/internal/reranker"
)

func TestClient_Rerank_Jina(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k1", r.Header.Get("Authorization"))

		var body struct {
			Model     string   `json:"model"`
			Query     string   `json:"query"`
			Documents []string `json:"documents"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, reranker.JinaModel, body.Model)
		assert.Equal(t, "refund policy", body.Query)
		assert.Len(t, body.Documents, 2)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 1, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.8},
			},
		})
	}))
	defer ts.Close()

	client := reranker.NewClient("jina", "k1")
	client.SetBaseURL(ts.URL)

	indices, err := client.Rerank(context.Background(), "refund policy", []string{"d1", "d2"})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 0}, indices)
}

func TestClient_Rerank_Cohere(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k2", r.Header.Get("Authorization"))

		var body struct {
			Model string `json:"model"`
			TopN  int    `json:"top_n"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, reranker.CohereModel, body.Model)
		assert.Equal(t, 2, body.TopN)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 1, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.8},
			},
		})
	}))
	defer ts.Close()

	client := reranker.NewClient("cohere", "k2")
	client.SetBaseURL(ts.URL)

	indices, err := client.Rerank(context.Background(), "q", []string{"d1", "d2"})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 0}, indices)
}

func TestClient_Rerank_Identity(t *testing.T) {
	for _, provider := range []string{"", "none", "off"} {
		client := reranker.NewClient(provider, "")
		assert.False(t, client.Active())

		indices, err := client.Rerank(context.Background(), "q", []string{"d1", "d2", "d3"})
		assert.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, indices)
	}
}

func TestClient_Rerank_EmptyDocs(t *testing.T) {
	client := reranker.NewClient("jina", "k1")
	indices, err := client.Rerank(context.Background(), "q", nil)
	assert.NoError(t, err)
	assert.Empty(t, indices)
}

func TestClient_Active(t *testing.T) {
	assert.True(t, reranker.NewClient("jina", "k").Active())
	assert.True(t, reranker.NewClient("cohere", "k").Active())
	assert.False(t, reranker.NewClient("", "k").Active())
}

func TestClient_Rerank_ErrorHandling(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"invalid query"}`))
	}))
	defer ts.Close()

	client := reranker.NewClient("jina", "k1")
	client.SetBaseURL(ts.URL)

	_, err := client.Rerank(context.Background(), "q", []string{"d1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "jina api error: 400")
	assert.Contains(t, err.Error(), `{"detail":"invalid query"}`)
}

func TestClient_Rerank_DropsOutOfRangeIndices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 5, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.8},
				{"index": -1, "relevance_score": 0.7},
			},
		})
	}))
	defer ts.Close()

	client := reranker.NewClient("jina", "k1")
	client.SetBaseURL(ts.URL)

	indices, err := client.Rerank(context.Background(), "q", []string{"d1", "d2"})
	assert.NoError(t, err)
	assert.Equal(t, []int{0}, indices)
}

func TestClient_KeyFromEnvironment(t *testing.T) {
	t.Setenv("JINA_API_KEY", "env-key")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer env-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{{"index": 0, "relevance_score": 0.5}},
		})
	}))
	defer ts.Close()

	client := reranker.NewClient("jina", "")
	client.SetBaseURL(ts.URL)

	_, err := client.Rerank(context.Background(), "q", []string{"d1"})
	assert.NoError(t, err)
}
