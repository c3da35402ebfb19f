package checkout

import "fmt"

// ServerError is a non-2xx backend response that carried a structured
// detail field. Detail takes precedence over any generic message when
// the failure is shown to the payer.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
}

// ValidationError is a local, pre-network rejection of the payer's
// input. It carries the exact message shown on the form and causes no
// state or network side effects.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FirstMessage returns the first non-empty candidate, falling back to
// fallback. It encodes the fixed precedence for user-facing failure
// text: structured server detail, then the error's own message, then a
// hardcoded default.
func FirstMessage(fallback string, candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return fallback
}
