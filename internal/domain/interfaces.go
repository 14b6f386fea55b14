package domain

import "context"

// CompletionClient talks to an OpenAI-compatible chat completion endpoint.
type CompletionClient interface {
	// SendCompletion performs a blocking, non-streaming exchange.
	SendCompletion(
		ctx context.Context,
		endpointBase, credential string,
		req *CompletionRequest,
	) (*CompletionResult, error)

	// SendStreamingCompletion performs a streaming exchange. A nil token
	// means a default timeout token is used.
	SendStreamingCompletion(
		ctx context.Context,
		endpointBase, credential string,
		req *CompletionRequest,
		handler StreamHandler,
		token *CancellationToken,
	) error
}

// ExchangeRecorder receives the outcome of every exchange for telemetry.
type ExchangeRecorder interface {
	// RecordCompletion is called once per exchange that produced metrics.
	RecordCompletion(model string, stream bool, metrics *ResponseMetrics)

	// RecordFailure is called for aborted and failed exchanges.
	RecordFailure(model string, stream bool, kind ErrorKind)
}
