package services

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// LLMParameters holds the generation parameters sent with every completion request. A nil Temperature
// leaves the provider's default in place, and a zero MaxTokens means no explicit limit where the
// provider allows it.
type LLMParameters struct {
	Temperature *float64
	MaxTokens   int
}

// newHTTPClient returns the client used by the raw HTTP providers. A zero timeout leaves failure
// signalling to the transport.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func unexpectedStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
}
