package lamini

import (
	"context"
	"fmt"
)

// Embedding is the client for the inference embedding endpoint.
type Embedding struct {
	client    webClient
	url       string
	modelName string
}

// NewEmbedding creates an embedding client for the given model. An empty
// model name uses the platform default.
func NewEmbedding(cfg ClientConfig, modelName string) (*Embedding, error) {
	key, err := ResolveAPIKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &Embedding{
		client:    newRestClient(key, cfg.Timeout),
		url:       ResolveAPIURL(cfg.APIURL) + "/v1/inference/embedding",
		modelName: modelName,
	}, nil
}

// Generate embeds a single prompt.
func (e *Embedding) Generate(ctx context.Context, prompt string) ([]float32, error) {
	var resp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := e.client.post(ctx, e.url, makeEmbeddingRequest(e.modelName, prompt), &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// GenerateBatch embeds several prompts in one exchange, returning one
// vector per prompt in order.
func (e *Embedding) GenerateBatch(ctx context.Context, prompts []string) ([][]float32, error) {
	var resp struct {
		Embedding [][]float32 `json:"embedding"`
	}
	if err := e.client.post(ctx, e.url, makeEmbeddingRequest(e.modelName, prompts), &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// BatchEmbeddings is the client for asynchronous embedding jobs: Submit
// enqueues the work and returns an identifier, CheckResult retrieves the
// eventual result. There is no client-side state machine; both calls are
// plain request/response.
type BatchEmbeddings struct {
	client webClient
	prefix string
}

// NewBatchEmbeddings creates a batch embeddings client.
func NewBatchEmbeddings(cfg ClientConfig) (*BatchEmbeddings, error) {
	key, err := ResolveAPIKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &BatchEmbeddings{
		client: newRestClient(key, cfg.Timeout),
		prefix: ResolveAPIURL(cfg.APIURL) + "/v1/batch_embeddings",
	}, nil
}

// Submit enqueues an embedding job and returns its submission identifier.
func (b *BatchEmbeddings) Submit(ctx context.Context, prompts []string, modelName string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := b.client.post(ctx, b.prefix, makeEmbeddingRequest(modelName, prompts), &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// BatchEmbeddingResult is the eventual outcome of a batch embedding job.
type BatchEmbeddingResult struct {
	Finished   bool        `json:"finished"`
	Embeddings [][]float32 `json:"embeddings"`
}

// CheckResult retrieves the result of a previously submitted job. Finished
// is false while the job is still running.
func (b *BatchEmbeddings) CheckResult(ctx context.Context, id string) (*BatchEmbeddingResult, error) {
	var resp BatchEmbeddingResult
	if err := b.client.get(ctx, fmt.Sprintf("%s/%s/result", b.prefix, id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// makeEmbeddingRequest assembles an embedding payload. Unlike the
// completion builder, model_name is omitted entirely when empty.
func makeEmbeddingRequest(modelName string, prompt any) RequestParameters {
	req := RequestParameters{}
	if modelName != "" {
		req["model_name"] = modelName
	}
	req["prompt"] = prompt
	return req
}
