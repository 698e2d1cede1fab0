package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

// SupportedAPI is the server version range this client speaks.
const SupportedAPI = "^1"

const defaultClientTimeout = 30 * time.Second

var (
	// ErrIncompatibleServer is returned by Handshake when the server version is outside SupportedAPI.
	ErrIncompatibleServer = errors.New("incompatible server")
	// ErrServer is returned for failures the server does not classify.
	ErrServer = errors.New("server error")
)

var _ store.Store = (*Client)(nil)

// Client is a store.Store backed by a remote Server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	mu   sync.RWMutex
	info Info
}

// NewClient creates a Client for the server at baseURL, authenticating with token.
// Call Handshake before use so Capabilities reflects the server.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultClientTimeout},
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Handshake fetches the server info and checks its API version.
func (c *Client) Handshake(ctx context.Context) (Info, error) {
	var info Info
	if err := c.do(ctx, http.MethodGet, "/v1/info", nil, &info); err != nil {
		return Info{}, err
	}

	constraint, err := semver.NewConstraint(SupportedAPI)
	if err != nil {
		return Info{}, fmt.Errorf("parsing version constraint: %w", err)
	}
	v, err := semver.NewVersion(info.APIVersion)
	if err != nil {
		return Info{}, fmt.Errorf("%w: version %q: %w", ErrIncompatibleServer, info.APIVersion, err)
	}
	if !constraint.Check(v) {
		return Info{}, fmt.Errorf("%w: server speaks %s, client needs %s",
			ErrIncompatibleServer, info.APIVersion, SupportedAPI)
	}

	c.mu.Lock()
	c.info = info
	c.mu.Unlock()

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "remote").
		Str("operation", "handshake").
		Str("api_version", info.APIVersion).
		Bool("compound_queries", info.CompoundQueries).
		Msg("connected to server")
	return info, nil
}

// Capabilities implements store.Store. It is the zero value until Handshake succeeds.
func (c *Client) Capabilities() store.Capabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return store.Capabilities{CompoundQueries: c.info.CompoundQueries}
}

// Create implements store.Store.
func (c *Client) Create(ctx context.Context, collection string, rec record.Record) (record.Record, error) {
	var out record.Record
	if err := c.do(ctx, http.MethodPost, "/v1/"+url.PathEscape(collection), rec.Normalize(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get implements store.Store.
func (c *Client) Get(ctx context.Context, collection, id string) (record.Record, error) {
	var out record.Record
	if err := c.do(ctx, http.MethodGet, docPath(collection, id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update implements store.Store. Nil values in patch remove fields.
func (c *Client) Update(ctx context.Context, collection, id string, patch record.Record) (record.Record, error) {
	var out record.Record
	if err := c.do(ctx, http.MethodPatch, docPath(collection, id), patch.Normalize(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete implements store.Store.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, docPath(collection, id), nil, nil)
}

// Query implements store.Store.
func (c *Client) Query(ctx context.Context, q store.Query) (store.Result, error) {
	params := url.Values{}
	for _, f := range q.Where {
		params.Add("where", f.Field+":"+f.Value)
	}
	if q.OrderBy != "" {
		params.Set("order", q.OrderBy)
	}
	if q.Descending {
		params.Set("desc", "true")
	}
	if q.StartAfter != "" {
		params.Set("after", q.StartAfter)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/v1/" + url.PathEscape(q.Collection)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp QueryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return store.Result{}, err
	}
	if resp.Records == nil {
		resp.Records = []record.Record{}
	}
	return store.Result{Records: resp.Records, Next: resp.Next}, nil
}

// Close implements store.Store.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func docPath(collection, id string) string {
	return "/v1/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set(HeaderRequestID, traceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError maps an error response back onto the store sentinels.
func decodeError(resp *http.Response) error {
	var body ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Code == "" {
		return fmt.Errorf("%w: HTTP %d", ErrServer, resp.StatusCode)
	}

	var sentinel error
	switch body.Code {
	case CodeUnauthorized:
		sentinel = ErrUnauthorized
	case CodeNotFound:
		sentinel = store.ErrNotFound
	case CodeAlreadyExists:
		sentinel = store.ErrAlreadyExists
	case CodeIndexRequired:
		sentinel = store.ErrIndexRequired
	case CodeInvalidCursor:
		sentinel = store.ErrInvalidCursor
	case CodeInvalidQuery:
		sentinel = store.ErrInvalidQuery
	default:
		sentinel = ErrServer
	}
	return fmt.Errorf("%w (remote: %s)", sentinel, body.Error)
}
