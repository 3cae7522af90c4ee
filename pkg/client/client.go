package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"catalog/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultBaseURL is the products collection of a locally running server.
	DefaultBaseURL = "http://localhost:8080/api/products"
	// DefaultTimeout bounds a request when no WithTimeout option is given.
	DefaultTimeout = 10 * time.Second

	totalCountHeader = "X-Total-Count"
)

// Client calls the product API. It never retries; every failed call is
// reported once to the notifier and the error is returned unchanged.
type Client struct {
	baseURL  string
	timeout  time.Duration
	notifier Notifier
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithNotifier sets where failure notifications go. A nil n keeps the
// default, which drops them.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// New returns a Client for the products collection at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  baseURL,
		timeout:  DefaultTimeout,
		notifier: NotifierFunc(func(Notification) {}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListOptions mirrors the query string of the list endpoint.
type ListOptions struct {
	Page      int
	PageSize  int
	Search    string
	SortBy    string
	Ascending bool
}

// DefaultListOptions returns the first page of ten, sorted by name.
func DefaultListOptions() ListOptions {
	return ListOptions{Page: 1, PageSize: 10, SortBy: models.SortByName, Ascending: true}
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(o.Page))
	q.Set("pageSize", strconv.Itoa(o.PageSize))
	q.Set("search", o.Search)
	q.Set("sortBy", o.SortBy)
	q.Set("ascending", strconv.FormatBool(o.Ascending))
	return q
}

// ProductPage is one page of a listing.
type ProductPage struct {
	Items      []models.Product
	TotalCount int
}

// PageCount returns how many pages of pageSize the listing spans.
func (p ProductPage) PageCount(pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return int(math.Ceil(float64(p.TotalCount) / float64(pageSize)))
}

// ListProducts fetches one page of products.
func (c *Client) ListProducts(ctx context.Context, opts ListOptions) (*ProductPage, error) {
	resp, err := c.do(ctx, fiber.MethodGet, "", opts.values(), nil)
	if err != nil {
		return nil, err
	}

	page := &ProductPage{}
	if err := c.decode(resp, &page.Items); err != nil {
		return nil, err
	}
	if raw := resp.header(totalCountHeader); raw != "" {
		total, err := strconv.Atoi(raw)
		if err != nil {
			err = fmt.Errorf("invalid %s header %q: %w", totalCountHeader, raw, err)
			c.notifier.Notify(NotificationFor(err))
			return nil, err
		}
		page.TotalCount = total
	}
	return page, nil
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	resp, err := c.do(ctx, fiber.MethodGet, "/"+strconv.Itoa(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := c.decode(resp, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct adds a product and returns it as stored by the server.
func (c *Client) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	resp, err := c.do(ctx, fiber.MethodPost, "", nil, product)
	if err != nil {
		return nil, err
	}
	var created models.Product
	if err := c.decode(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces product id and returns the server acknowledgement.
func (c *Client) UpdateProduct(ctx context.Context, id int, product *models.Product) (string, error) {
	resp, err := c.do(ctx, fiber.MethodPut, "/"+strconv.Itoa(id), nil, product)
	if err != nil {
		return "", err
	}
	var ack struct {
		Message string `json:"message"`
	}
	if err := c.decode(resp, &ack); err != nil {
		return "", err
	}
	return ack.Message, nil
}

// DeleteProduct removes product id.
func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	_, err := c.do(ctx, fiber.MethodDelete, "/"+strconv.Itoa(id), nil, nil)
	return err
}

type response struct {
	status  int
	headers map[string]string
	body    []byte
}

func (r *response) header(key string) string {
	return r.headers[key]
}

// do sends one request and notifies on failure.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*response, error) {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		c.notifier.Notify(NotificationFor(err))
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}) (*response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(target)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, fmt.Errorf("invalid request url %q: %w", target, err)
	}
	if payload != nil {
		req.Header.SetContentType(fiber.MIMEApplicationJSON)
		req.SetBody(payload)
	}
	agent.Timeout(c.timeoutFor(ctx))

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)
	agent.SetResponse(resp)

	// Bytes releases the agent.
	status, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, &ConnectionError{Err: errors.Join(errs...)}
	}

	out := &response{
		status:  status,
		headers: map[string]string{totalCountHeader: string(resp.Header.Peek(totalCountHeader))},
		body:    respBody,
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: status, Body: respBody}
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &envelope) == nil {
			apiErr.Message = envelope.Message
		}
		return nil, apiErr
	}
	return out, nil
}

func (c *Client) decode(resp *response, v interface{}) error {
	if err := json.Unmarshal(resp.body, v); err != nil {
		err = fmt.Errorf("failed to decode response (status %d): %w", resp.status, err)
		c.notifier.Notify(NotificationFor(err))
		return err
	}
	return nil
}

// timeoutFor shortens the client timeout to the context deadline.
func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}
