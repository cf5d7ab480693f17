// Package elasticsearch keeps an external full-text index of posts.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

const postMapping = `{
  "mappings": {
    "properties": {
      "title":      {"type": "text"},
      "body":       {"type": "text"},
      "tags":       {"type": "text"},
      "author":     {"type": "keyword"},
      "created_at": {"type": "date"}
    }
  }
}`

type postDoc struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// PostIndex searches body, title and tags with weights 3, 2 and 1.
type PostIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewPostIndex(es *elasticsearch.Client, index string) *PostIndex {
	return &PostIndex{es: es, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *PostIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(ctx),
		x.es.Indices.Create.WithBody(strings.NewReader(postMapping)))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.StatusCode, res.Body)
	}
	return nil
}

func (x *PostIndex) Index(ctx context.Context, p *entity.Post) error {
	b, err := json.Marshal(postDoc{Title: p.Title, Body: p.Body, Tags: p.Tags, Author: p.Author, CreatedAt: p.CreatedAt})
	if err != nil {
		return err
	}
	res, err := x.es.Index(x.index, bytes.NewReader(b),
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(p.ID))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index post", res.StatusCode, res.Body)
	}
	return nil
}

func (x *PostIndex) Delete(ctx context.Context, id string) error {
	res, err := x.es.Delete(x.index, id, x.es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete post", res.StatusCode, res.Body)
	}
	return nil
}

func (x *PostIndex) Search(ctx context.Context, query string, offset, limit int) ([]string, error) {
	body := map[string]any{
		"_source": false,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"body^3", "title^2", "tags"},
			},
		},
		"sort": []any{"_score", map[string]any{"created_at": "desc"}},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
		x.es.Search.WithFrom(offset),
		x.es.Search.WithSize(limit),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search posts", res.StatusCode, res.Body)
	}

	var out struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func responseError(op string, status int, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("elasticsearch %s: status %d: %s", op, status, strings.TrimSpace(string(msg)))
}
