package product

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-boutique/apps/product/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// stubElastic answers every request with body and records what it saw.
func stubElastic(t *testing.T, body string) (*ElasticSearcher, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := recordedRequest{Method: r.Method, Path: r.URL.Path}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &req.Body)
		}
		seen = append(seen, req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	s, err := NewElasticSearcher(srv.URL, "products", zap.NewNop())
	require.NoError(t, err)
	return s, &seen
}

func TestElasticSearch_ParsesHitIDs(t *testing.T) {
	s, seen := stubElastic(t, `{
		"took": 1,
		"hits": {
			"total": {"value": 3, "relation": "eq"},
			"hits": [
				{"_index": "products", "_id": "3", "_score": 2.1},
				{"_index": "products", "_id": "not-a-number", "_score": 1.5},
				{"_index": "products", "_id": "7", "_score": 0.4}
			]
		}
	}`)

	ids, err := s.Search(context.Background(), "lace")
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 7}, ids)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "/products/_search", req.Path)
	assert.EqualValues(t, searchLimit, req.Body["size"])
	assert.Contains(t, req.Body, "query")
}

func TestElasticSearch_NoHits(t *testing.T) {
	s, _ := stubElastic(t, `{"hits": {"total": {"value": 0}, "hits": []}}`)

	ids, err := s.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestElasticIndex_WritesDocument(t *testing.T) {
	s, seen := stubElastic(t, `{"_index": "products", "_id": "12", "result": "updated"}`)

	p := model.Product{Name: "Lace gown", Description: "Ivory", Available: false}
	p.ID = 12
	p.Category.Name = "Wedding Dress"
	require.NoError(t, s.Index(context.Background(), p))

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products/_doc/12", req.Path)
	assert.Equal(t, map[string]any{
		"name":        "Lace gown",
		"description": "Ivory",
		"category":    "Wedding Dress",
		"available":   false,
	}, req.Body)
}
