package indexer

import "fmt"

// APIError is a non-auth application error from the Indexer. For 400s the
// request body is embedded so operators can diagnose the malformed call.
type APIError struct {
	StatusCode  int
	Method      string
	Path        string
	Message     string
	RequestBody string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestBody != "" {
		return fmt.Sprintf("indexer %s %s returned %d: %s (request body: %s)",
			e.Method, e.Path, e.StatusCode, e.Message, e.RequestBody)
	}
	return fmt.Sprintf("indexer %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// AuthError marks a 401/403 from the Indexer. The client catches it exactly
// once per call to trigger credential re-provisioning; a second occurrence
// propagates to the caller.
type AuthError struct {
	StatusCode int
	Path       string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("indexer authentication failed (%d) on %s", e.StatusCode, e.Path)
}

// rateLimitError marks a 429; retried with backoff like a network failure
// but counted separately.
type rateLimitError struct {
	path string
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("indexer rate limited request to %s", e.path)
}
