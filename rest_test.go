package lamini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestClient_Post(t *testing.T) {
	t.Run("sends_headers_and_decodes_response", func(t *testing.T) {
		var gotAuth, gotVersion, gotContentType string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotVersion = r.Header.Get("Lamini-Version")
			gotContentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte(`{"output":"done"}`))
		}))
		defer server.Close()

		client := newRestClient("secret", 0)
		var out Completion
		err := client.post(context.Background(), server.URL, RequestParameters{"prompt": "hi"}, &out)
		if err != nil {
			t.Fatalf("post failed: %v", err)
		}

		if gotAuth != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", gotAuth)
		}
		if gotVersion != sdkVersion {
			t.Errorf("expected version header %q, got %q", sdkVersion, gotVersion)
		}
		if gotContentType != "application/json" {
			t.Errorf("expected json content type, got %q", gotContentType)
		}
		if gotBody["prompt"] != "hi" {
			t.Errorf("expected prompt in body, got %v", gotBody)
		}
		if out.Output != "done" {
			t.Errorf("expected decoded output, got %q", out.Output)
		}
	})

	t.Run("maps_platform_errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(594)
			_, _ = w.Write([]byte(`{"detail":"no model named llama-99"}`))
		}))
		defer server.Close()

		client := newRestClient("secret", 0)
		err := client.post(context.Background(), server.URL, RequestParameters{}, nil)

		var modelErr *ModelNotFoundError
		if !errors.As(err, &modelErr) {
			t.Fatalf("expected ModelNotFoundError, got %v", err)
		}
		if modelErr.Detail != "no model named llama-99" {
			t.Errorf("expected server detail, got %q", modelErr.Detail)
		}
	})

	t.Run("cancellation_passes_through", func(t *testing.T) {
		wait := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-wait
		}))
		defer server.Close()
		defer close(wait)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		client := newRestClient("secret", 0)
		err := client.post(ctx, server.URL, RequestParameters{}, nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context deadline, got %v", err)
		}
	})

	t.Run("connection_failure_is_api_error", func(t *testing.T) {
		client := newRestClient("secret", time.Second)
		err := client.post(context.Background(), "http://127.0.0.1:1", RequestParameters{}, nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != 0 {
			t.Errorf("transport failures carry no status, got %d", apiErr.StatusCode)
		}
	})
}

func TestRestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"finished":true,"embeddings":[]}`))
	}))
	defer server.Close()

	client := newRestClient("secret", 0)
	var out BatchEmbeddingResult
	if err := client.get(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !out.Finished {
		t.Error("expected decoded finished flag")
	}
}

func TestErrorDetail(t *testing.T) {
	if got := errorDetail([]byte(`{"detail":"bad prompt"}`)); got != "bad prompt" {
		t.Errorf("expected extracted detail, got %q", got)
	}
	if got := errorDetail([]byte(`not json`)); got != "" {
		t.Errorf("expected empty detail for garbage bodies, got %q", got)
	}
}
