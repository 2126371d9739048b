// Package jsonrpc provides a JSON-RPC 2.0 client over HTTP tuned for Solana
// RPC nodes. Requests are retried by the underlying transport and server-side
// error objects are surfaced as *Error values.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	transporthttp "github.com/gabapcia/slotstream/internal/pkg/transport/http"
)

// ErrProviderReturnedError indicates that the remote JSON-RPC server returned an error response.
var ErrProviderReturnedError = errors.New("provider error")

// ErrEmptyResult is returned by Call when the server answered with a null result.
var ErrEmptyResult = errors.New("empty result")

// Error codes returned by Solana RPC nodes for slots that hold no block.
const (
	CodeBlockNotAvailable          = -32004
	CodeSlotSkipped                = -32007
	CodeLongTermStorageSlotSkipped = -32009
	CodeBlockStatusNotAvailableYet = -32014
	CodeMinContextSlotNotReached   = -32016
)

// Error is a JSON-RPC error object returned by the provider.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: [%d] - %s", ErrProviderReturnedError, e.Code, e.Message)
}

// Is makes every *Error match ErrProviderReturnedError.
func (e *Error) Is(target error) bool {
	return target == ErrProviderReturnedError
}

// IsSlotSkipped reports whether err says the requested slot was skipped by
// the leader, so no block will ever exist for it.
func IsSlotSkipped(err error) bool {
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == CodeSlotSkipped || rpcErr.Code == CodeLongTermStorageSlotSkipped
}

// IsNotAvailableYet reports whether err says the block may appear later.
func IsNotAvailableYet(err error) bool {
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	switch rpcErr.Code {
	case CodeBlockNotAvailable, CodeBlockStatusNotAvailableYet, CodeMinContextSlotNotReached:
		return true
	}
	return false
}

// request is a JSON-RPC 2.0 request envelope.
type request struct {
	JsonRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// response represents a standard JSON-RPC 2.0 response.
type response struct {
	JsonRPC string          `json:"jsonrpc"`
	Error   *Error          `json:"error"`
	Result  json.RawMessage `json:"result"`
}

// Err returns the embedded error object, if any.
func (r response) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// Client defines the interface for a JSON-RPC client.
type Client interface {
	// Fetch sends a JSON-RPC request with the given method name and parameters.
	// It returns the raw JSON result or an error if the request or response fails.
	Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error)

	// Call behaves like Fetch and decodes the result into out.
	// A null result yields ErrEmptyResult.
	Call(ctx context.Context, out any, method string, params ...any) error
}

// client is the default implementation of the Client interface.
type client struct {
	providerEndpoint string                // The URL of the remote JSON-RPC server
	httpClient       *retryablehttp.Client // The HTTP client used to perform requests
}

// Compile-time assertion that client implements the Client interface.
var _ Client = (*client)(nil)

// Fetch sends a JSON-RPC request to the remote server with the given method and parameters.
// The `id` field in the request is generated as a UUID string.
func (c *client) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(request{
		JsonRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.providerEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	if err := data.Err(); err != nil {
		return nil, err
	}

	return data.Result, nil
}

func (c *client) Call(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.Fetch(ctx, method, params...)
	if err != nil {
		return err
	}

	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ErrEmptyResult
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	return nil
}

// NewClient constructs a Client that sends requests to providerEndpoint using
// a retrying HTTP client built from opts.
func NewClient(providerEndpoint string, opts ...transporthttp.Option) *client {
	return &client{
		providerEndpoint: providerEndpoint,
		httpClient:       transporthttp.NewClient(opts...),
	}
}
