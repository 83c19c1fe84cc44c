package llm

import (
	"errors"
	"fmt"
	"time"
)

// safeCall runs fn and always returns a response: errors, nil results and
// panics all become failed responses carrying modelName and the elapsed time.
// Successful responses keep their own fields; ModelName and GenerationTime
// are filled in only when fn left them empty.
func safeCall(modelName string, fn func() (*GenerationResponse, error)) (resp *GenerationResponse) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			resp = failed(modelName, fmt.Sprintf("panic: %v", r))
			resp.GenerationTime = time.Since(start).Seconds()
		}
	}()

	out, err := fn()
	elapsed := time.Since(start).Seconds()

	if err == nil && out == nil {
		err = errors.New("model returned no response")
	}
	if err != nil {
		resp = failed(modelName, err.Error())
		resp.GenerationTime = elapsed
		return resp
	}

	if out.ModelName == "" {
		out.ModelName = modelName
	}
	if out.GenerationTime == 0 {
		out.GenerationTime = elapsed
	}
	return out
}

// succeed wraps a result-producing closure for use with safeCall.
func succeed(fill func(resp *GenerationResponse) error) func() (*GenerationResponse, error) {
	return func() (*GenerationResponse, error) {
		resp := &GenerationResponse{Success: true, Metadata: map[string]any{}}
		if err := fill(resp); err != nil {
			return nil, err
		}
		return resp, nil
	}
}
