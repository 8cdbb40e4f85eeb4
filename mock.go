package lamini

import "context"

// MockInferenceQueue simulates generation for testing pipeline nodes
// without network exchanges. It serves every prompt immediately and in
// order, through the same channel contract as BatchInferenceQueue.
type MockInferenceQueue struct {
	callback func(p *PromptObject) []Completion
	err      error
}

// NewMockInferenceQueue creates a mock queue that answers every prompt
// with a single canned completion.
func NewMockInferenceQueue() *MockInferenceQueue {
	return &MockInferenceQueue{
		callback: func(*PromptObject) []Completion {
			return []Completion{{Output: "mock response"}}
		},
	}
}

// NewMockInferenceQueueWithCallback creates a mock queue that generates
// each item's completions from a callback. Returning nil leaves the item's
// Response absent, as if generation produced no usable output.
func NewMockInferenceQueueWithCallback(callback func(p *PromptObject) []Completion) *MockInferenceQueue {
	return &MockInferenceQueue{callback: callback}
}

// NewMockInferenceQueueWithError creates a mock queue whose every item
// fails with the given error.
func NewMockInferenceQueueWithError(err error) *MockInferenceQueue {
	return &MockInferenceQueue{err: err}
}

// Submit implements InferenceQueue.
func (m *MockInferenceQueue) Submit(ctx context.Context, _ RequestParameters, prompts <-chan *PromptObject, _ *TokenOptimizer) (<-chan *PromptObject, error) {
	out := make(chan *PromptObject)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-prompts:
				if !ok {
					return
				}
				if p != nil {
					if m.err != nil {
						p.Err = m.err
					} else {
						p.Response = m.callback(p)
					}
				}
				if !send(ctx, out, p) {
					return
				}
			}
		}
	}()
	return out, nil
}
