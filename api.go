// Package lamini is a client for the Lamini text-generation platform.
//
// The package covers two complementary ways of talking to the platform:
//
//   - Streaming completions: a single request whose output is retrieved
//     incrementally by polling the same logical request until the server
//     reports completion. See StreamingCompletion and StreamingSession.
//
//   - Generation pipelines: a lazy, multi-stage transformation of a
//     sequence of prompts. Each GenerationNode optionally rewrites items
//     before and after a batched generation call. See GenerationNode.
//
// Supporting clients cover embeddings (Embedding, BatchEmbeddings) and
// capacity reservations (Reservations).
//
// Basic streaming usage:
//
//	sc, _ := lamini.NewStreamingCompletion(lamini.ClientConfig{})
//	session := sc.Create(lamini.CompletionRequest{Prompt: "hello"})
//	for result := range session.Stream(ctx) {
//	    fmt.Println(string(result.Data))
//	}
//
// Pipeline usage:
//
//	queue, _ := lamini.NewBatchInferenceQueue(lamini.ClientConfig{}, lamini.WithRetry(3))
//	node := lamini.NewGenerationNode("model", queue, lamini.WithHooks(myHooks{}))
//	results, _ := node.Run(ctx, prompts)
//	for p := range results.Iter() {
//	    fmt.Println(p.Response[0].Output)
//	}
//	if err := results.Err(); err != nil { ... }
package lamini

import (
	"context"
	"time"
)

// ClientConfig holds connection configuration shared by the platform clients.
// Zero values fall back to the package-level defaults, the environment, and
// the persisted configuration file, in that order. See ResolveAPIKey.
type ClientConfig struct {
	APIKey  string
	APIURL  string        // Optional, defaults to "https://api.lamini.ai"
	Timeout time.Duration // Optional, HTTP timeout per exchange, defaults to 30s
}

// InferenceQueue schedules and executes the generation calls issued by a
// pipeline invocation. A GenerationNode hands it the fully transformed
// prompt sequence as one logical batch request; the queue returns the same
// items with Response populated, lazily, as generation completes.
//
// How the queue batches and schedules network calls is its own concern.
// The returned channel is closed once every submitted item has been
// delivered or the context is canceled.
type InferenceQueue interface {
	Submit(ctx context.Context, req RequestParameters, prompts <-chan *PromptObject, optimizer *TokenOptimizer) (<-chan *PromptObject, error)
}
