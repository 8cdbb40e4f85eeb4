package lamini

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// CompletionRequest is the typed input for a streaming completion.
type CompletionRequest struct {
	// Prompt is a single string or an ordered []string.
	Prompt any

	// ModelName selects the model; empty uses the platform default.
	ModelName string

	// OutputType is the structured-output schema, typically built with
	// OutputType. Nil requests free-form text.
	OutputType map[string]any

	// MaxTokens bounds the model's total token use.
	MaxTokens *int

	// MaxNewTokens bounds generated tokens only; recommended over
	// MaxTokens for shaping output length. Omitted from the payload when
	// nil.
	MaxNewTokens *int

	// PollingInterval is the wait between polls. Zero defaults to 1s; a
	// negative value disables the wait so every poll issues immediately.
	PollingInterval time.Duration

	// MaxErrors is the number of consecutive poll failures swallowed
	// before one propagates. Zero means the first failure is fatal.
	MaxErrors int
}

// StreamingCompletion is the client for the streaming completions endpoint.
type StreamingCompletion struct {
	client webClient
	url    string
	clock  clockwork.Clock
}

// NewStreamingCompletion creates a streaming completions client, resolving
// the API key and base URL per ResolveAPIKey / ResolveAPIURL.
func NewStreamingCompletion(cfg ClientConfig) (*StreamingCompletion, error) {
	key, err := ResolveAPIKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &StreamingCompletion{
		client: newRestClient(key, cfg.Timeout),
		url:    ResolveAPIURL(cfg.APIURL) + "/v1/streaming_completions",
		clock:  clockwork.NewRealClock(),
	}, nil
}

// Submit performs a single exchange against the streaming completions
// endpoint and returns the request parameters annotated with the server
// affinity token the platform assigned, ready for subsequent polls.
func (c *StreamingCompletion) Submit(ctx context.Context, req CompletionRequest) (RequestParameters, error) {
	params := makeRequestMap(req.ModelName, req.Prompt, outputTypeValue(req.OutputType), req.MaxTokens, req.MaxNewTokens, "")
	var resp pollResponse
	if err := c.client.post(ctx, c.url, params, &resp); err != nil {
		return nil, err
	}
	annotated := params.clone()
	annotated["server"] = resp.Server
	return annotated, nil
}

// Create starts a new streaming session for the request. One session tracks
// exactly one logical request; consume it through Iterator or Stream.
func (c *StreamingCompletion) Create(req CompletionRequest) *StreamingSession {
	interval := req.PollingInterval
	switch {
	case interval == 0:
		interval = time.Second
	case interval < 0:
		interval = 0
	}
	params := makeRequestMap(req.ModelName, req.Prompt, outputTypeValue(req.OutputType), req.MaxTokens, req.MaxNewTokens, "")
	return newStreamingSession(c.client, c.url, params, interval, req.MaxErrors, c.clock)
}

// outputTypeValue keeps a nil map serializing as an explicit null rather
// than a typed nil wrapped in an interface.
func outputTypeValue(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}
