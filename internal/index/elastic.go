package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const defaultElasticIndex = "knuth"

var _ Index = (*Elastic)(nil)

type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Elastic mirrors documents into an Elasticsearch index.
type Elastic struct {
	client *elasticsearch.Client
	index  string
}

func NewElastic(cfg ElasticConfig) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	name := cfg.Index
	if name == "" {
		name = defaultElasticIndex
	}

	return &Elastic{client: client, index: name}, nil
}

func (e *Elastic) Exists(ctx context.Context, id uint) (bool, error) {
	res, err := e.client.Exists(e.index, documentID(id), e.client.Exists.WithContext(ctx))
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}

	return false, responseError("exists", id, res)
}

func (e *Elastic) Index(ctx context.Context, id uint, body *Body) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res, err := e.client.Index(e.index, bytes.NewReader(data),
		e.client.Index.WithDocumentID(documentID(id)),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index", id, res)
	}

	return nil
}

func (e *Elastic) Update(ctx context.Context, id uint, partial map[string]any) error {
	data, err := json.Marshal(map[string]any{"doc": partial})
	if err != nil {
		return err
	}

	res, err := e.client.Update(e.index, documentID(id), bytes.NewReader(data), e.client.Update.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("update index entry %d: %w", id, ErrNotIndexed)
	}
	if res.IsError() {
		return responseError("update", id, res)
	}

	return nil
}

func (e *Elastic) Get(ctx context.Context, id uint) (map[string]any, error) {
	res, err := e.client.Get(e.index, documentID(id), e.client.Get.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("get index entry %d: %w", id, ErrNotIndexed)
	}
	if res.IsError() {
		return nil, responseError("get", id, res)
	}

	var hit struct {
		Source map[string]any `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&hit); err != nil {
		return nil, fmt.Errorf("decode index entry %d: %w", id, err)
	}

	return hit.Source, nil
}

func (e *Elastic) Delete(ctx context.Context, id uint) error {
	res, err := e.client.Delete(e.index, documentID(id), e.client.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete", id, res)
	}

	return nil
}

func responseError(op string, id uint, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elasticsearch %s %d: %s: %s", op, id, res.Status(), bytes.TrimSpace(body))
}
