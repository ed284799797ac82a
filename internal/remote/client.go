package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"storesync/internal/config"
	"storesync/internal/logging"
)

const defaultRequestTimeout = 30 * time.Second

// Client is the HTTP Actor: POST {base}/rpc/{operation} with a JSON body.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
	logger  *slog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithDial replaces the dialer, e.g. with an in-memory listener in tests.
func WithDial(dial fasthttp.DialFunc) ClientOption {
	return func(c *Client) { c.http.Dial = dial }
}

// WithRequestTimeout bounds each request when the context has no earlier deadline.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxConnsPerHost caps pooled connections.
func WithMaxConnsPerHost(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.http.MaxConnsPerHost = n
		}
	}
}

// WithClientLogger routes request logs to logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "remote") }
}

// NewClient returns an Actor speaking to baseURL.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		timeout: defaultRequestTimeout,
		http:    &fasthttp.Client{Name: "storesync"},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds the client described by cfg.Remote.
func NewClientFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	return NewClient(cfg.Remote.BaseURL, cfg.Remote.APIToken,
		WithRequestTimeout(cfg.RequestTimeout()),
		WithMaxConnsPerHost(cfg.Remote.MaxConnsPerHost),
		WithClientLogger(logger),
	)
}

type idRequest struct {
	ArtifactID Nat `json:"artifactId"`
}

type orderRequest struct {
	ProductIDs  []Nat `json:"productIds"`
	TotalAmount Nat   `json:"totalAmount"`
}

type orderResponse struct {
	OrderID Nat `json:"orderId"`
}

type productResponse struct {
	ProductID Nat `json:"productId"`
}

type editProductRequest struct {
	ProductID Nat          `json:"productId"`
	Product   ProductInput `json:"product"`
}

type stockRequest struct {
	ProductID Nat `json:"productId"`
	Quantity  Nat `json:"quantity"`
}

type principalRequest struct {
	Principal Principal `json:"principal"`
}

func (c *Client) SaveArtifact(ctx context.Context, artifactID Nat) error {
	return c.invoke(ctx, OpSaveArtifact, idRequest{ArtifactID: artifactID}, nil)
}

func (c *Client) RemoveSavedArtifact(ctx context.Context, artifactID Nat) error {
	return c.invoke(ctx, OpRemoveSavedArtifact, idRequest{ArtifactID: artifactID}, nil)
}

func (c *Client) CreateOrder(ctx context.Context, productIDs []Nat, totalAmount Nat) (Nat, error) {
	var out orderResponse
	if err := c.invoke(ctx, OpCreateOrder, orderRequest{ProductIDs: productIDs, TotalAmount: totalAmount}, &out); err != nil {
		return 0, err
	}
	return out.OrderID, nil
}

func (c *Client) CreateProduct(ctx context.Context, product ProductInput) (Nat, error) {
	var out productResponse
	if err := c.invoke(ctx, OpCreateProduct, product, &out); err != nil {
		return 0, err
	}
	return out.ProductID, nil
}

func (c *Client) EditProduct(ctx context.Context, productID Nat, product ProductInput) error {
	return c.invoke(ctx, OpEditProduct, editProductRequest{ProductID: productID, Product: product}, nil)
}

func (c *Client) UpdateStock(ctx context.Context, productID Nat, quantity Nat) error {
	return c.invoke(ctx, OpUpdateStock, stockRequest{ProductID: productID, Quantity: quantity}, nil)
}

func (c *Client) AssignAdminRole(ctx context.Context, principal Principal) error {
	return c.invoke(ctx, OpAssignAdminRole, principalRequest{Principal: principal}, nil)
}

func (c *Client) RemoveAdminRole(ctx context.Context, principal Principal) error {
	return c.invoke(ctx, OpRemoveAdminRole, principalRequest{Principal: principal}, nil)
}

func (c *Client) CreateFeedback(ctx context.Context, feedback FeedbackInput) error {
	return c.invoke(ctx, OpCreateFeedback, feedback, nil)
}

// Health checks GET {base}/health.
func (c *Client) Health(ctx context.Context) error {
	status, body, err := c.do(ctx, fasthttp.MethodGet, "/health", "", nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return decodeError(status, body)
	}
	return nil
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) invoke(ctx context.Context, op string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}
	requestID := uuid.NewString()
	started := time.Now()
	status, body, err := c.do(ctx, fasthttp.MethodPost, "/rpc/"+op, requestID, func(req *fasthttp.Request) {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	})
	if err != nil {
		c.logger.Debug("remote call failed",
			logging.String("operation", op),
			logging.String("request_id", requestID),
			logging.Error(err),
		)
		return err
	}
	c.logger.Debug("remote call completed",
		logging.String("operation", op),
		logging.String("request_id", requestID),
		logging.Int("status", status),
		logging.Duration("elapsed", time.Since(started)),
	)
	if status < 200 || status >= 300 {
		return decodeError(status, body)
	}
	if out == nil || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Code: KindInternal, Message: fmt.Sprintf("decode %s response: %v", op, err), Status: status, Err: err}
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		code := strings.TrimSpace(env.Error.Code)
		if code == "" {
			code = kindForStatus(status)
		}
		return &Error{Code: code, Message: env.Error.Message, Status: status}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fmt.Sprintf("http status %d", status)
	}
	return &Error{Code: kindForStatus(status), Message: msg, Status: status}
}

type result struct {
	status int
	body   []byte
	err    error
}

// do runs one request on its own goroutine so ctx can abandon it. The
// goroutine owns the pooled request and response objects. setBody, if set,
// fills the request body.
func (c *Client) do(ctx context.Context, method, path, requestID string, setBody func(*fasthttp.Request)) (int, []byte, error) {
	if c.baseURL == "" {
		return 0, nil, &Error{Code: KindNetwork, Message: "remote base url not configured"}
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	deadline := time.Now().Add(c.timeout)
	ctxDeadline := false
	if d, ok := ctx.Deadline(); ok && !d.After(deadline) {
		deadline = d
		ctxDeadline = true
	}

	done := make(chan result, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(c.baseURL + path)
		req.Header.SetMethod(method)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if requestID != "" {
			req.Header.Set("X-Request-ID", requestID)
		}
		if setBody != nil {
			setBody(req)
		}

		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			done <- result{err: transportError(err)}
			return
		}
		done <- result{status: resp.StatusCode(), body: append([]byte(nil), resp.Body()...)}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.status, r.body, nil
		}
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		// fasthttp can time out a hair before ctx does when both share the
		// deadline; report the caller's deadline, not a transport timeout.
		if ctxDeadline && isTimeout(r.err) {
			<-ctx.Done()
			return 0, nil, ctx.Err()
		}
		return r.status, r.body, r.err
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func isTimeout(err error) bool {
	var remoteErr *Error
	return errors.As(err, &remoteErr) && remoteErr.Code == KindTimeout
}

func transportError(err error) error {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
		return &Error{Code: KindTimeout, Message: "request timeout", Err: err}
	}
	return &Error{Code: KindNetwork, Message: "network error: " + err.Error(), Err: err}
}
