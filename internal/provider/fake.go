package provider

import "context"

// FakeProvider is a test double that returns predefined responses.
// Each Stream call pops the next entry from Responses; once exhausted a
// default "no more responses" reply is returned. ErrorAt injects ErrorValue
// on the Nth call (1-based).
type FakeProvider struct {
	Responses    []CompletionResponse
	ProviderName string

	// Calls records every CompletionOptions received, in order.
	Calls []CompletionOptions

	ErrorAt    int
	ErrorValue error

	callCount int
}

// Stream returns the next response as a single-chunk stream.
func (f *FakeProvider) Stream(_ context.Context, opts CompletionOptions) <-chan StreamChunk {
	f.Calls = append(f.Calls, opts)
	f.callCount++

	var chunk StreamChunk
	if f.ErrorAt > 0 && f.callCount == f.ErrorAt {
		chunk = StreamChunk{Type: ChunkTypeError, Error: f.ErrorValue}
	} else {
		resp := f.next()
		chunk = StreamChunk{Type: ChunkTypeDone, Response: &resp}
	}

	ch := make(chan StreamChunk, 1)
	go func() {
		ch <- chunk
		close(ch)
	}()
	return ch
}

// Name returns the provider name.
func (f *FakeProvider) Name() string {
	if f.ProviderName != "" {
		return f.ProviderName
	}
	return "fake"
}

func (f *FakeProvider) next() CompletionResponse {
	if len(f.Responses) == 0 {
		return CompletionResponse{Content: "no more responses", StopReason: "end_turn"}
	}
	resp := f.Responses[0]
	f.Responses = f.Responses[1:]
	return resp
}

var _ LLMProvider = (*FakeProvider)(nil)
