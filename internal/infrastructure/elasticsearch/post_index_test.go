package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func newTestIndex(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*PostIndex, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewPostIndex(es, "posts"), &reqs
}

func TestPostIndex_Index(t *testing.T) {
	x, reqs := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})
	p := &entity.Post{ID: "_post00001", Title: "Hello", Body: "World", Tags: []string{"go"}, Author: "_user00001", CreatedAt: time.Now()}

	require.NoError(t, x.Index(context.Background(), p))
	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/posts/_doc/_post00001", got.path)
	assert.Equal(t, "Hello", got.body["title"])
}

func TestPostIndex_SearchWeightsFields(t *testing.T) {
	x, reqs := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"_post00002"},{"_id":"_post00001"}]}}`))
	})

	ids, err := x.Search(context.Background(), "golang", 5, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"_post00002", "_post00001"}, ids)

	require.Len(t, *reqs, 1)
	mm := (*reqs)[0].body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, []any{"body^3", "title^2", "tags"}, mm["fields"])
}

func TestPostIndex_DeleteMissingIsNotAnError(t *testing.T) {
	x, _ := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	assert.NoError(t, x.Delete(context.Background(), "_post00001"))
}

func TestPostIndex_SearchError(t *testing.T) {
	x, _ := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad query"}`))
	})
	_, err := x.Search(context.Background(), "x", 0, 5)
	assert.ErrorContains(t, err, "status 400")
}
