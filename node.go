package lamini

import (
	"context"
	"sync"
)

// Preprocessor rewrites a pipeline item before generation. The returned
// slice replaces the item in the stream: an empty or nil slice drops it,
// one element substitutes it, several expand it into contiguous items in
// hook order. Nil elements are skipped. A non-nil error aborts the
// pipeline.
type Preprocessor interface {
	Preprocess(ctx context.Context, p *PromptObject) ([]*PromptObject, error)
}

// Postprocessor rewrites a pipeline item after generation, with semantics
// identical to Preprocessor.
type Postprocessor interface {
	Postprocess(ctx context.Context, p *PromptObject) ([]*PromptObject, error)
}

// PreprocessFunc adapts a function to the Preprocessor interface.
type PreprocessFunc func(ctx context.Context, p *PromptObject) ([]*PromptObject, error)

func (f PreprocessFunc) Preprocess(ctx context.Context, p *PromptObject) ([]*PromptObject, error) {
	return f(ctx, p)
}

// PostprocessFunc adapts a function to the Postprocessor interface.
type PostprocessFunc func(ctx context.Context, p *PromptObject) ([]*PromptObject, error)

func (f PostprocessFunc) Postprocess(ctx context.Context, p *PromptObject) ([]*PromptObject, error) {
	return f(ctx, p)
}

// GenerationNode runs a three-stage lazy pipeline over a prompt sequence:
// transform (optional preprocessing), generate (one batched submission to
// the inference queue), and finalize (optional postprocessing). Stages hand
// items off through unbuffered channels, one item in flight per stage, so
// an infinite input sequence is consumed without unbounded buffering.
//
// A node's capability set is fixed at construction: it preprocesses,
// postprocesses, both, or neither, depending on the options supplied.
// A node with neither capability is the identity pipeline restricted to
// items that received a response.
type GenerationNode struct {
	modelName    string
	queue        InferenceQueue
	optimizer    *TokenOptimizer
	maxTokens    *int
	maxNewTokens *int
	outputType   map[string]any
	modelConfig  map[string]any
	pre          Preprocessor
	post         Postprocessor
}

// NodeOption configures a GenerationNode.
type NodeOption func(*GenerationNode)

// WithMaxTokens bounds the model's total token use for this node.
func WithMaxTokens(n int) NodeOption {
	return func(g *GenerationNode) { g.maxTokens = &n }
}

// WithMaxNewTokens bounds generated tokens for this node.
func WithMaxNewTokens(n int) NodeOption {
	return func(g *GenerationNode) { g.maxNewTokens = &n }
}

// WithOutputType requests structured output for this node's generations.
func WithOutputType(schema map[string]any) NodeOption {
	return func(g *GenerationNode) { g.outputType = schema }
}

// WithModelConfig attaches a node-level model configuration, serialized
// into the request's model_config key.
func WithModelConfig(cfg map[string]any) NodeOption {
	return func(g *GenerationNode) { g.modelConfig = cfg }
}

// WithPreprocessor declares the node's preprocess capability.
func WithPreprocessor(p Preprocessor) NodeOption {
	return func(g *GenerationNode) { g.pre = p }
}

// WithPostprocessor declares the node's postprocess capability.
func WithPostprocessor(p Postprocessor) NodeOption {
	return func(g *GenerationNode) { g.post = p }
}

// WithHooks declares capabilities from a node specialization in one step:
// whatever subset of Preprocessor and Postprocessor the value implements is
// bound. The check happens here, at composition time, not per item.
func WithHooks(hooks any) NodeOption {
	return func(g *GenerationNode) {
		if p, ok := hooks.(Preprocessor); ok {
			g.pre = p
		}
		if p, ok := hooks.(Postprocessor); ok {
			g.post = p
		}
	}
}

// WithTokenOptimizer overrides the node's length helper.
func WithTokenOptimizer(t *TokenOptimizer) NodeOption {
	return func(g *GenerationNode) { g.optimizer = t }
}

// NewGenerationNode creates a pipeline node that generates with the given
// model through the given inference queue.
func NewGenerationNode(modelName string, queue InferenceQueue, opts ...NodeOption) *GenerationNode {
	g := &GenerationNode{
		modelName: modelName,
		queue:     queue,
		optimizer: NewTokenOptimizer(modelName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Results is the consumable output of one pipeline invocation. Iterate the
// channel to drain it, then check Err for a fatal pipeline error; the
// channel closes on completion, fatal error, or cancellation.
type Results struct {
	out    chan *PromptObject
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

// Iter returns the output sequence. Items arrive lazily as upstream stages
// produce them.
func (r *Results) Iter() <-chan *PromptObject {
	return r.out
}

// Err returns the first fatal error the pipeline hit, if any. Reliable once
// Iter's channel has closed.
func (r *Results) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// fail records the first fatal error and cancels the remaining stages.
func (r *Results) fail(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
	r.cancel()
}

// Run executes the pipeline over the input sequence: transform(input) →
// generate(transformed) → finalize(generated), every arrow a lazy channel
// hand-off. A nil channel element is a sentinel for "no item" and flows
// through transform untouched; finalize drops it.
//
// Run itself only fails if the queue rejects the submission outright.
// Errors during the lazy run surface through Results.Err after the output
// channel closes.
func (g *GenerationNode) Run(ctx context.Context, prompts <-chan *PromptObject) (*Results, error) {
	runCtx, cancel := context.WithCancel(ctx)
	r := &Results{
		out:    make(chan *PromptObject),
		cancel: cancel,
	}

	transformed := g.transform(runCtx, r, prompts)
	generated, err := g.queue.Submit(runCtx, g.makeRequest(), transformed, g.optimizer)
	if err != nil {
		cancel()
		return nil, err
	}
	go g.finalize(runCtx, r, generated)
	return r, nil
}

// makeRequest builds the node's batch request skeleton. The queue fills in
// the per-batch prompt key.
func (g *GenerationNode) makeRequest() RequestParameters {
	req := makeRequestMap(g.modelName, nil, outputTypeValue(g.outputType), g.maxTokens, g.maxNewTokens, "")
	if g.modelConfig != nil {
		req["model_config"] = g.modelConfig
	}
	req["type"] = "completion"
	return req
}

// transform is the pre-generation stage. Without a preprocess capability it
// forwards every item unchanged.
func (g *GenerationNode) transform(ctx context.Context, r *Results, in <-chan *PromptObject) <-chan *PromptObject {
	out := make(chan *PromptObject)
	go func() {
		defer close(out)
		for {
			var p *PromptObject
			var ok bool
			select {
			case <-ctx.Done():
				return
			case p, ok = <-in:
				if !ok {
					return
				}
			}

			if g.pre == nil || p == nil {
				if !send(ctx, out, p) {
					return
				}
				continue
			}

			expanded, err := g.pre.Preprocess(ctx, p)
			if err != nil {
				r.fail(err)
				return
			}
			for _, item := range expanded {
				if item == nil {
					continue
				}
				if !send(ctx, out, item) {
					return
				}
			}
		}
	}()
	return out
}

// finalize is the post-generation stage. It drops items that received no
// usable output, applies the postprocess capability, and closes the result
// channel when the generated sequence is exhausted.
func (g *GenerationNode) finalize(ctx context.Context, r *Results, in <-chan *PromptObject) {
	defer close(r.out)
	defer r.cancel()
	for {
		var p *PromptObject
		var ok bool
		select {
		case <-ctx.Done():
			return
		case p, ok = <-in:
			if !ok {
				return
			}
		}

		if p == nil {
			continue
		}
		if p.Err != nil {
			// The queue could not serve this item; its failure is the
			// pipeline's failure.
			r.fail(p.Err)
			return
		}
		if p.Response == nil {
			continue
		}

		if g.post == nil {
			if !send(ctx, r.out, p) {
				return
			}
			continue
		}

		expanded, err := g.post.Postprocess(ctx, p)
		if err != nil {
			r.fail(err)
			return
		}
		for _, item := range expanded {
			if item == nil {
				continue
			}
			if !send(ctx, r.out, item) {
				return
			}
		}
	}
}

func send(ctx context.Context, ch chan<- *PromptObject, p *PromptObject) bool {
	select {
	case ch <- p:
		return true
	case <-ctx.Done():
		return false
	}
}
