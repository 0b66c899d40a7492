// Package graphql talks to the workflow server's GraphQL endpoint: it reads
// the mutation catalog through introspection and executes mutations.
package graphql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/flowdesk/internal/mutation"
)

// ErrNoEndpoint is returned when the client has no endpoint configured.
var ErrNoEndpoint = errors.New("graphql: endpoint not configured")

const defaultIntrospectionTimeout = 10 * time.Second

// Client is a minimal GraphQL-over-HTTP client.
type Client struct {
	Endpoint string
	Token    string
	HTTP     *http.Client
	Log      zerolog.Logger

	// IntrospectionTimeout bounds catalog fetches. Mutation calls are not
	// bounded; the dialog stays pending until the server answers.
	IntrospectionTimeout time.Duration
}

func NewClient(endpoint, token string, log zerolog.Logger) *Client {
	return &Client{
		Endpoint:             strings.TrimSpace(endpoint),
		Token:                strings.TrimSpace(token),
		HTTP:                 &http.Client{},
		Log:                  log,
		IntrospectionTimeout: defaultIntrospectionTimeout,
	}
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e gqlError) code() string {
	if e.Extensions == nil {
		return ""
	}
	switch v := e.Extensions["code"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

type envelope[T any] struct {
	Data   T          `json:"data"`
	Errors []gqlError `json:"errors"`
}

// post sends req and decodes the envelope. Transport failures and non-2xx
// responses without a GraphQL error body are returned as SubmissionErrors.
func post[T any](ctx context.Context, c *Client, req request) (envelope[T], error) {
	var out envelope[T]
	if c.Endpoint == "" {
		return out, ErrNoEndpoint
	}
	body, err := sonic.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("graphql: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("graphql: build request: %w", err)
	}
	reqID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		return out, &mutation.SubmissionError{Code: "transport", Message: err.Error()}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return out, &mutation.SubmissionError{Code: "transport", Message: err.Error()}
	}
	c.Log.Debug().
		Str("request_id", reqID).
		Str("operation", req.OperationName).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("graphql round trip")

	decodeErr := sonic.Unmarshal(raw, &out)
	if resp.StatusCode/100 != 2 && (decodeErr != nil || len(out.Errors) == 0) {
		msg := strings.TrimSpace(string(raw))
		if msg == "" || len(msg) > 200 {
			msg = http.StatusText(resp.StatusCode)
		}
		return out, &mutation.SubmissionError{Code: strconv.Itoa(resp.StatusCode), Message: msg}
	}
	if decodeErr != nil {
		return out, fmt.Errorf("graphql: decode response: %w", decodeErr)
	}
	return out, nil
}

func firstError(errs []gqlError) *mutation.SubmissionError {
	if len(errs) == 0 {
		return nil
	}
	msg := strings.TrimSpace(errs[0].Message)
	if msg == "" {
		msg = "mutation failed"
	}
	return &mutation.SubmissionError{Code: errs[0].code(), Message: msg}
}
