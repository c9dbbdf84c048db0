package ports

import "errors"

// Error kinds of the pipeline. Adapters wrap these with %w so callers
// can distinguish failure classes with errors.Is instead of matching
// message strings.
var (
	// ErrIndexUnavailable covers storage I/O failure of the vector
	// index. Callers must not retry silently; the escalation path
	// handles it.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrEmbedding covers embedding-service failure, including timeout
	// and malformed responses.
	ErrEmbedding = errors.New("embedding service")

	// ErrCompletion covers completion-service failure, including
	// timeout and malformed responses.
	ErrCompletion = errors.New("completion service")

	// ErrIngestion covers an unreadable or unsupported source file.
	// During a batch reindex it is caught per document.
	ErrIngestion = errors.New("ingestion")

	// ErrConfiguration covers invalid chunk/overlap values or missing
	// credentials. The only kind allowed to abort startup.
	ErrConfiguration = errors.New("configuration")
)
