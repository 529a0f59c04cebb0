// Package remote fetches the seed todo list from the remote HTTP source.
//
// The client is intentionally dumb: one GET against a fixed endpoint, decode
// the envelope, hand back the DTOs. It keeps no state between calls and
// never retries; whether a failed fetch is attempted again is decided by the
// import reconciler (see services.ImportService).
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skorn/go-todo-store/internal/metrics"
)

// DefaultBaseURL is the seed source used when no override is configured.
const DefaultBaseURL = "https://dummyjson.com"

// ErrEmptyResponse indicates the endpoint answered with no body at all.
var ErrEmptyResponse = errors.New("remote: empty response body")

// NetworkError wraps transport-level failures (connectivity, timeout,
// non-2xx status). It is terminal for the call; there is no retry here.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("remote: network failure: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError wraps a malformed payload.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("remote: decode failure: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// TodoDTO is the wire-format todo record as the remote API ships it. It is
// distinct from domain.Todo: the source has no creation timestamp and no
// details field, both are filled in at import time.
type TodoDTO struct {
	ID        int64  `json:"id"`
	Todo      string `json:"todo"`
	Completed bool   `json:"completed"`
	UserID    int64  `json:"userId"`
}

// todosResponse is the paginated envelope around the todos array. Only the
// array is consumed; the import performs exactly one fetch, not a paged crawl.
type todosResponse struct {
	Todos []TodoDTO `json:"todos"`
	Total int       `json:"total"`
	Skip  int       `json:"skip"`
	Limit int       `json:"limit"`
}

// Client performs the seed fetch. Zero value is not usable; construct with New.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client against baseURL. An empty baseURL falls back to
// DefaultBaseURL; a nil httpClient gets a timeout-bounded default.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// FetchTodos performs one GET {base}/todos and returns the decoded DTOs.
//
// Failure modes: *NetworkError (transport or non-2xx), *DecodeError
// (malformed JSON), ErrEmptyResponse (no body). Each call is an independent
// fetch; dedup of the import as a whole is the reconciler's job.
func (c *Client) FetchTodos(ctx context.Context) ([]TodoDTO, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/todos", nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveRemoteFetch(time.Since(start), false)
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveRemoteFetch(time.Since(start), false)
		return nil, &NetworkError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveRemoteFetch(time.Since(start), false)
		return nil, &NetworkError{Err: err}
	}
	if len(body) == 0 {
		metrics.ObserveRemoteFetch(time.Since(start), false)
		return nil, ErrEmptyResponse
	}

	var env todosResponse
	if err := json.Unmarshal(body, &env); err != nil {
		metrics.ObserveRemoteFetch(time.Since(start), false)
		return nil, &DecodeError{Err: err}
	}

	metrics.ObserveRemoteFetch(time.Since(start), true)
	log.Debug().
		Int("count", len(env.Todos)).
		Int("total", env.Total).
		Dur("elapsed", time.Since(start)).
		Msg("remote todos fetched")
	return env.Todos, nil
}
