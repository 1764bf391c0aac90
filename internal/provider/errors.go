package provider

import "fmt"

// APIError is a transport/provider error carrying a status code and the
// structured error body the provider returned. Callers that render errors
// match on it with errors.As.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error: status=%d: %s", e.StatusCode, e.Message)
}
