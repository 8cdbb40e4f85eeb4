package lamini

// RequestParameters is the normalized payload for a platform request.
//
// The zero-value distinction matters downstream: a key that is absent from
// the map is omitted from the serialized payload entirely, while a key
// present with a nil value serializes as an explicit null. The builders
// below keep max_new_tokens and server absent, not null, until populated.
type RequestParameters map[string]any

// makeRequestMap assembles a completion request. The model_name, prompt,
// output_type, and max_tokens keys are always present, possibly null;
// max_new_tokens and server only appear once the caller supplies them.
//
// prompt is a single string or an ordered []string. outputType is the
// structured-output schema, typically built with OutputType.
func makeRequestMap(modelName string, prompt, outputType any, maxTokens, maxNewTokens *int, server string) RequestParameters {
	req := RequestParameters{}
	if modelName != "" {
		req["model_name"] = modelName
	} else {
		req["model_name"] = nil
	}
	req["prompt"] = prompt
	req["output_type"] = outputType
	if maxTokens != nil {
		req["max_tokens"] = *maxTokens
	} else {
		req["max_tokens"] = nil
	}
	if maxNewTokens != nil {
		req["max_new_tokens"] = *maxNewTokens
	}
	if server != "" {
		req["server"] = server
	}
	return req
}

// clone returns a shallow copy, used when a per-batch request needs keys the
// base request must not accumulate.
func (r RequestParameters) clone() RequestParameters {
	out := make(RequestParameters, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
