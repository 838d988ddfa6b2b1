package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrNoBridge is returned for a bridge model when no bridge was injected.
	ErrNoBridge = errors.New("no host bridge available")
	// ErrStreamLocked is returned when a second reader is requested.
	ErrStreamLocked = errors.New("stream is locked by another reader")
)

// APIError is a non-success HTTP response from the completion endpoint.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d %s - %s", e.StatusCode, e.Status, e.Body)
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	status := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Status: status, Body: string(body)}
}
