package lamini

import (
	"context"
	"testing"
)

func TestEmbedding_Generate(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		respondJSON(`{"embedding":[0.1,0.2,0.3]}`),
	}}
	e := &Embedding{client: client, url: "http://test/v1/inference/embedding", modelName: "embedder"}

	vec, err := e.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(vec) != 3 || vec[1] != 0.2 {
		t.Errorf("unexpected vector %v", vec)
	}
	if got := client.payloads[0]["model_name"]; got != "embedder" {
		t.Errorf("expected model_name embedder, got %v", got)
	}
	if got := client.payloads[0]["prompt"]; got != "hello" {
		t.Errorf("expected prompt hello, got %v", got)
	}
}

func TestEmbedding_GenerateBatch(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		respondJSON(`{"embedding":[[0.1],[0.2]]}`),
	}}
	e := &Embedding{client: client, url: "http://test/v1/inference/embedding"}

	vecs, err := e.GenerateBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 0.2 {
		t.Errorf("unexpected vectors %v", vecs)
	}
}

func TestBatchEmbeddings(t *testing.T) {
	t.Run("submit_returns_identifier", func(t *testing.T) {
		client := &scriptedClient{steps: []scriptStep{
			respondJSON(`{"id":"job-7"}`),
		}}
		b := &BatchEmbeddings{client: client, prefix: "http://test/v1/batch_embeddings"}

		id, err := b.Submit(context.Background(), []string{"a", "b"}, "embedder")
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		if id != "job-7" {
			t.Errorf("expected id job-7, got %q", id)
		}
	})

	t.Run("check_result_polls_job_url", func(t *testing.T) {
		client := &scriptedClient{steps: []scriptStep{
			respondJSON(`{"finished":true,"embeddings":[[0.5]]}`),
		}}
		b := &BatchEmbeddings{client: client, prefix: "http://test/v1/batch_embeddings"}

		result, err := b.CheckResult(context.Background(), "job-7")
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if !result.Finished || len(result.Embeddings) != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		if client.urls[0] != "http://test/v1/batch_embeddings/job-7/result" {
			t.Errorf("unexpected url %q", client.urls[0])
		}
	})
}

func TestMakeEmbeddingRequest(t *testing.T) {
	t.Run("empty_model_name_is_omitted", func(t *testing.T) {
		req := makeEmbeddingRequest("", "p")
		if _, present := req["model_name"]; present {
			t.Error("empty model_name must not appear in the payload")
		}
	})

	t.Run("model_name_kept_when_set", func(t *testing.T) {
		req := makeEmbeddingRequest("m", "p")
		if req["model_name"] != "m" {
			t.Errorf("expected model_name m, got %v", req["model_name"])
		}
	})
}
