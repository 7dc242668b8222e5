package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for calls to the payment backend.
type Client struct {
	r *resty.Client
}

// Headers are attached to a single request only.
type Headers map[string]string

// Response is a finished HTTP exchange. Non-2xx codes are not errors at this
// level; callers decide what a status code means.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// New creates a new HTTP client with sensible defaults. Retries are off:
// payment initiation must not be replayed behind the caller's back.
func New() *Client {
	r := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")

	return &Client{r: r}
}

// WithBaseURL sets the URL relative paths resolve against.
func (c *Client) WithBaseURL(url string) *Client {
	c.r.SetBaseURL(url)
	return c
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithHeader sets a header sent on every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// WithRetry enables resty's retry loop for idempotent reads.
func (c *Client) WithRetry(count int, wait time.Duration) *Client {
	c.r.SetRetryCount(count).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(5 * time.Second)
	return c
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, url string, h Headers) (*Response, error) {
	resp, err := c.request(ctx, h).Get(url)
	if err != nil {
		return nil, err
	}
	return wrap(resp), nil
}

// Post sends a POST request with JSON body.
func (c *Client) Post(ctx context.Context, url string, body interface{}, h Headers) (*Response, error) {
	req := c.request(ctx, h).SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(url)
	if err != nil {
		return nil, err
	}
	return wrap(resp), nil
}

func (c *Client) request(ctx context.Context, h Headers) *resty.Request {
	req := c.r.R().SetContext(ctx)
	for k, v := range h {
		if v != "" {
			req.SetHeader(k, v)
		}
	}
	return req
}

func wrap(resp *resty.Response) *Response {
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}
}
