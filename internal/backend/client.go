// Package backend talks to the Papr GraphQL backend and its sibling REST
// endpoints. The transport is a single POST carrying {query, variables};
// responses are {data} or {errors:[{message}]}.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Request is one GraphQL operation.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Client issues GraphQL requests against a single endpoint, attaching a
// bearer token when one is installed.
type Client struct {
	endpoint string
	apiBase  string
	http     *http.Client

	mu    sync.RWMutex
	token string
}

// Config wires endpoints into a Client.
type Config struct {
	// Endpoint is the GraphQL URL, eg. http://localhost:4000/graphql.
	Endpoint string
	// APIBase is the REST base URL for non-GraphQL endpoints such as the
	// thumbnail upload, eg. http://localhost:4000.
	APIBase string
	// HTTPClient overrides the default client (used by tests).
	HTTPClient *http.Client
}

// New returns a Client for the given endpoints.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiBase:  cfg.APIBase,
		http:     httpClient,
	}
}

// SetAuthToken installs the bearer token attached to subsequent requests.
// Callers must set the token before issuing authenticated calls.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// RemoveAuthToken drops the bearer token.
func (c *Client) RemoveAuthToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Do posts one GraphQL request and returns the raw data payload. It fails on
// transport errors, non-2xx statuses, a non-empty errors array (first message
// surfaced verbatim), and an absent data payload.
func (c *Client) Do(ctx context.Context, request Request) (json.RawMessage, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var parsed graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode graphql response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, errors.New(parsed.Errors[0].Message)
	}
	if len(parsed.Data) == 0 || string(parsed.Data) == "null" {
		return nil, errors.New("no data returned from GraphQL endpoint")
	}
	return parsed.Data, nil
}

// query runs a request and unmarshals the data payload into out.
func (c *Client) query(ctx context.Context, request Request, out any) error {
	data, err := c.Do(ctx, request)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
