package lamini

import "fmt"

// Completion is a single generated fragment attached to a prompt after
// generation.
type Completion struct {
	Output string `json:"output"`
}

// PromptObject is the unit flowing through a generation pipeline. It is
// produced by the caller or by a preprocessing hook, and carries its
// generated Response once the inference queue has served it. Response is
// nil before generation.
//
// The pipeline is strictly sequential per item, so a PromptObject is never
// touched by two stages concurrently.
type PromptObject struct {
	Prompt   string
	Data     any
	Response []Completion
	Err      error
}

// NewPromptObject creates a pipeline item for the given prompt. Data is an
// arbitrary caller payload carried through the pipeline untouched.
func NewPromptObject(prompt string, data any) *PromptObject {
	return &PromptObject{Prompt: prompt, Data: data}
}

// RenderPrompt returns the prompt text submitted to the platform: the base
// prompt followed by any previously generated outputs. Chained nodes use
// this to feed one node's generation into the next node's prompt.
func (p *PromptObject) RenderPrompt() string {
	prompt := p.Prompt
	for _, c := range p.Response {
		prompt += c.Output
	}
	return prompt
}

func (p *PromptObject) String() string {
	return fmt.Sprintf("PromptObject(prompt=%q, responses=%d, data=%v, err=%v)", p.Prompt, len(p.Response), p.Data, p.Err)
}
