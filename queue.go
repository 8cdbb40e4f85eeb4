package lamini

import (
	"context"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// InferenceCall flows through the queue's submission pipeline: one batch
// request and, after the terminal processor runs, its results.
type InferenceCall struct {
	RequestID string
	Request   RequestParameters
	Results   [][]Completion
}

// completionResponse mirrors the batch completions endpoint: one list of
// completions per submitted prompt, in submission order.
type completionResponse struct {
	Results [][]Completion `json:"results"`
}

// BatchInferenceQueue is the default InferenceQueue. It gathers prompts
// from the transformed sequence into batches, sends each batch through a
// pipz pipeline whose terminal posts to the completions endpoint, and
// emits the served items downstream in submission order.
//
// Reliability is composed at construction: WithRetry, WithBackoff,
// WithTimeout, WithCircuitBreaker, and WithRateLimit wrap the pipeline the
// same way for every batch.
type BatchInferenceQueue struct {
	client       webClient
	url          string
	batchSize    int
	reservations *Reservations
	pipeline     pipz.Chainable[*InferenceCall]
}

// NewBatchInferenceQueue creates a queue posting to the platform's
// completions endpoint. The batch size defaults to DefaultBatchSize.
func NewBatchInferenceQueue(cfg ClientConfig, opts ...Option) (*BatchInferenceQueue, error) {
	key, err := ResolveAPIKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	q := &BatchInferenceQueue{
		client:    newRestClient(key, cfg.Timeout),
		url:       ResolveAPIURL(cfg.APIURL) + "/v1/completions",
		batchSize: DefaultBatchSize(),
	}
	q.pipeline = buildPipeline(q.terminal(), opts)
	return q, nil
}

// newQueueWithClient wires a queue over an existing transport; used by
// tests and by callers embedding the queue behind custom transports.
func newQueueWithClient(client webClient, url string, opts ...Option) *BatchInferenceQueue {
	q := &BatchInferenceQueue{
		client:    client,
		url:       url,
		batchSize: DefaultBatchSize(),
	}
	q.pipeline = buildPipeline(q.terminal(), opts)
	return q
}

func buildPipeline(terminal pipz.Chainable[*InferenceCall], opts []Option) pipz.Chainable[*InferenceCall] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// terminal returns the pipeline's final processor: the actual exchange.
func (q *BatchInferenceQueue) terminal() pipz.Chainable[*InferenceCall] {
	return pipz.Apply("inference-call", func(ctx context.Context, call *InferenceCall) (*InferenceCall, error) {
		var resp completionResponse
		if err := q.client.post(ctx, q.url, call.Request, &resp); err != nil {
			return call, err
		}
		call.Results = resp.Results
		return call, nil
	})
}

// WithBatchSize overrides the number of prompts gathered per batch.
func (q *BatchInferenceQueue) WithBatchSize(n int) *BatchInferenceQueue {
	if n > 0 {
		q.batchSize = n
	}
	return q
}

// WithReservations sizes batches against an active capacity reservation
// and records capacity use as batches are served.
func (q *BatchInferenceQueue) WithReservations(r *Reservations) *BatchInferenceQueue {
	q.reservations = r
	return q
}

func (q *BatchInferenceQueue) effectiveBatchSize() int {
	size := q.batchSize
	if q.reservations != nil {
		if dynamic := q.reservations.DynamicMaxBatchSize(); dynamic > 0 && dynamic < size {
			size = dynamic
		}
	}
	return size
}

// Submit consumes the transformed prompt sequence lazily, one batch at a
// time, and returns the served items on the output channel in submission
// order. A nil input item is forwarded untouched. A batch whose exchange
// fails past the pipeline's own reliability is delivered with Err set on
// each of its items; scheduling never retries above that.
func (q *BatchInferenceQueue) Submit(ctx context.Context, req RequestParameters, prompts <-chan *PromptObject, optimizer *TokenOptimizer) (<-chan *PromptObject, error) {
	if req == nil {
		req = RequestParameters{}
	}
	out := make(chan *PromptObject)

	go func() {
		defer close(out)
		batch := make([]*PromptObject, 0, q.batchSize)

		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			served := q.serveBatch(ctx, req, batch, optimizer)
			for _, p := range served {
				if !send(ctx, out, p) {
					return false
				}
			}
			batch = batch[:0]
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-prompts:
				if !ok {
					flush()
					return
				}
				if p == nil {
					if !flush() {
						return
					}
					if !send(ctx, out, nil) {
						return
					}
					continue
				}
				batch = append(batch, p)
				if len(batch) >= q.effectiveBatchSize() {
					if !flush() {
						return
					}
				}
			}
		}
	}()

	return out, nil
}

// serveBatch runs one batch through the submission pipeline and attaches
// results, or the batch failure, to each item.
func (q *BatchInferenceQueue) serveBatch(ctx context.Context, base RequestParameters, batch []*PromptObject, optimizer *TokenOptimizer) []*PromptObject {
	rendered := make([]string, len(batch))
	for i, p := range batch {
		rendered[i] = p.RenderPrompt()
	}

	call := &InferenceCall{
		RequestID: uuid.New().String(),
		Request:   q.batchRequest(base, rendered, optimizer),
	}

	capitan.Info(ctx, RequestStarted,
		RequestIDKey.Field(call.RequestID),
		URLKey.Field(q.url),
		BatchSizeKey.Field(len(batch)),
	)

	processed, err := q.pipeline.Process(ctx, call)
	if err != nil {
		capitan.Error(ctx, RequestFailed,
			RequestIDKey.Field(call.RequestID),
			URLKey.Field(q.url),
			ErrorKey.Field(err.Error()),
		)
		for _, p := range batch {
			p.Err = err
		}
		return batch
	}

	for i, p := range batch {
		if i < len(processed.Results) {
			p.Response = processed.Results[i]
		} else {
			p.Err = &APIError{Detail: "batch response missing result for prompt"}
		}
	}

	if q.reservations != nil {
		q.reservations.UpdateCapacityUse(len(batch))
	}

	capitan.Info(ctx, RequestCompleted,
		RequestIDKey.Field(call.RequestID),
		URLKey.Field(q.url),
		PromptCountKey.Field(len(processed.Results)),
	)
	return batch
}

// batchRequest fills the per-batch prompt key and, when the base request
// carries a total token budget but no explicit generation budget, sizes
// max_new_tokens with the node's length helper.
func (q *BatchInferenceQueue) batchRequest(base RequestParameters, prompts []string, optimizer *TokenOptimizer) RequestParameters {
	req := base.clone()
	req["prompt"] = prompts
	if optimizer != nil {
		if _, ok := req["max_new_tokens"]; !ok {
			if maxTokens, ok := req["max_tokens"].(int); ok && maxTokens > 0 {
				req["max_new_tokens"] = optimizer.MaxNewTokensForBatch(prompts, maxTokens)
			}
		}
	}
	return req
}
