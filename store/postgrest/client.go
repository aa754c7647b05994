/*
Package postgrest provides the remote core.Store, talking to a managed
PostgreSQL database through its PostgREST API.

PURPOSE:
  This is the production store. Every table operation is one HTTP request;
  there is no way to group several of them into a transaction from here,
  which is exactly the execution model the sale finalizer is written for.

client.go:
  Thin typed wrapper over resty: insert, patch, delete, select, and rpc
  against /rest/v1, with both the apikey header and the bearer token the
  gateway expects. Failures are decoded from the standard PostgREST error
  payload and normalized onto the core sentinels before anything
  upstream sees them.

ERROR NORMALIZATION:
  409 / SQLSTATE 23505  -> core.ErrConflict    (unique violation)
  401, 403 / 42501      -> core.ErrPolicyDenied (row-level security)
  missing single row    -> core.ErrNotFound

SEE ALSO:
  - store.go: the core.Store adapter built on this client
  - core/store.go: interface and error contract
*/
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/elpredio/pos-engine/core"
)

// Client is a minimal PostgREST client scoped to one database and one
// credential pair.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the API at baseURL (the full PostgREST
// root, e.g. "https://xyz.example.co/rest/v1"). The key is sent both as
// apikey and as bearer token, the way the gateway expects from a trusted
// backend.
func NewClient(baseURL, key string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("apikey", key).
		SetHeader("Authorization", "Bearer "+key).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

// Insert posts rows to table. When out is non-nil the inserted
// representation is decoded into it.
func (c *Client) Insert(ctx context.Context, table string, body, out any) error {
	req := c.http.R().SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(body)
	resp, err := req.Post("/" + table)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if resp.IsError() {
		return c.apiError("insert "+table, resp)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("insert %s: decode response: %w", table, err)
		}
	}
	return nil
}

// Update patches the rows matched by filters. The number of matched rows
// is returned so callers can detect a silent no-op.
func (c *Client) Update(ctx context.Context, table string, filters map[string]string, body any) (int, error) {
	resp, err := c.http.R().SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(filters).
		SetBody(body).
		Patch("/" + table)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	if resp.IsError() {
		return 0, c.apiError("update "+table, resp)
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return 0, fmt.Errorf("update %s: decode response: %w", table, err)
	}
	return len(rows), nil
}

// Delete removes the rows matched by filters and returns how many went.
func (c *Client) Delete(ctx context.Context, table string, filters map[string]string) (int, error) {
	resp, err := c.http.R().SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(filters).
		Delete("/" + table)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	if resp.IsError() {
		return 0, c.apiError("delete "+table, resp)
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return 0, fmt.Errorf("delete %s: decode response: %w", table, err)
	}
	return len(rows), nil
}

// Select reads rows from table into out (a pointer to a slice). The
// params map carries PostgREST query syntax, e.g. {"pagada": "eq.false",
// "order": "fecha"}.
func (c *Client) Select(ctx context.Context, table string, params map[string]string, out any) error {
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(params).
		Get("/" + table)
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	if resp.IsError() {
		return c.apiError("select "+table, resp)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("select %s: decode response: %w", table, err)
	}
	return nil
}

// RPC invokes a server-side function under /rpc. Functions run with the
// definer's privileges, which is what makes the privileged reservation
// update work when the direct one is policy-denied.
func (c *Client) RPC(ctx context.Context, fn string, args any) error {
	resp, err := c.http.R().SetContext(ctx).
		SetBody(args).
		Post("/rpc/" + fn)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", fn, err)
	}
	if resp.IsError() {
		return c.apiError("rpc "+fn, resp)
	}
	return nil
}

// postgrestError is the standard error payload PostgREST returns.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (c *Client) apiError(op string, resp *resty.Response) error {
	var pe postgrestError
	_ = json.Unmarshal(resp.Body(), &pe)

	detail := pe.Message
	if detail == "" {
		detail = resp.Status()
	}

	switch {
	case resp.StatusCode() == http.StatusConflict || pe.Code == "23505":
		return fmt.Errorf("%s: %s: %w", op, detail, core.ErrConflict)
	case resp.StatusCode() == http.StatusUnauthorized,
		resp.StatusCode() == http.StatusForbidden,
		pe.Code == "42501":
		return fmt.Errorf("%s: %s: %w", op, detail, core.ErrPolicyDenied)
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, detail, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %s (status %d)", op, detail, resp.StatusCode())
}
