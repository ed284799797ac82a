package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"storesync/internal/cache"
)

const (
	defaultClientTimeout  = 10 * time.Second
	defaultProcessTimeout = 10 * time.Minute
)

// ErrDaemonUnreachable reports that no daemon answered on the API address.
var ErrDaemonUnreachable = errors.New("daemon api unreachable")

// Client talks to a running daemon's management API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithDial replaces the dialer.
func WithDial(dial fasthttp.DialFunc) ClientOption {
	return func(c *Client) { c.http.Dial = dial }
}

// WithTimeout bounds ordinary requests.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient returns a client for the API bound at bind (host:port).
func NewClient(bind, token string, opts ...ClientOption) *Client {
	base := strings.TrimSpace(bind)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	c := &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		timeout: defaultClientTimeout,
		http:    &fasthttp.Client{Name: "storesync-cli"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks that the daemon answers /health.
func (c *Client) Ping(ctx context.Context) error {
	return c.request(ctx, fasthttp.MethodGet, "/health", nil, nil, c.timeout)
}

func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.request(ctx, fasthttp.MethodGet, "/api/sync/status", nil, &out, c.timeout)
	return out, err
}

func (c *Client) List(ctx context.Context) ([]QueueItem, error) {
	var out QueueListResponse
	if err := c.request(ctx, fasthttp.MethodGet, "/api/sync/queue", nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Describe(ctx context.Context, id string) (*QueueItem, error) {
	var out QueueItemResponse
	err := c.request(ctx, fasthttp.MethodGet, "/api/sync/queue/"+url.PathEscape(id), nil, &out, c.timeout)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out.Item, nil
}

func (c *Client) Remove(ctx context.Context, id string) (bool, error) {
	var out RemoveResponse
	err := c.request(ctx, fasthttp.MethodDelete, "/api/sync/queue/"+url.PathEscape(id), nil, &out, c.timeout)
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	return out.Removed, err
}

func (c *Client) ClearFailed(ctx context.Context) (int, error) {
	var out ClearResponse
	err := c.request(ctx, fasthttp.MethodPost, "/api/sync/clear-failed", nil, &out, c.timeout)
	return out.Removed, err
}

func (c *Client) Process(ctx context.Context) (ProcessResponse, error) {
	var out ProcessResponse
	err := c.request(ctx, fasthttp.MethodPost, "/api/sync/process", nil, &out, defaultProcessTimeout)
	return out, err
}

func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	var out SubmitResponse
	err := c.request(ctx, fasthttp.MethodPost, "/api/sync/submit", req, &out, c.timeout)
	return out, err
}

func (c *Client) Cache(ctx context.Context) ([]cache.Entry, error) {
	var out CacheResponse
	if err := c.request(ctx, fasthttp.MethodGet, "/api/cache", nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

var errNotFound = errors.New("not found")

func (c *Client) request(ctx context.Context, method, path string, in, out any, timeout time.Duration) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
	}

	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		if out == nil || len(resp.Body()) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	}

	var apiErr ErrorResponse
	msg := strings.TrimSpace(string(resp.Body()))
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	switch status {
	case fasthttp.StatusNotFound:
		return fmt.Errorf("%w: %s", errNotFound, msg)
	case fasthttp.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, msg)
	case fasthttp.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("daemon api %s %s: status %d: %s", method, path, status, msg)
	}
}
