// Package client is a typed REST client for the appraisal API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const apiPrefix = "/api/v1"

// ErrUnauthorized means the session is gone and the caller must log in again.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Details   json.RawMessage
	RequestID string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

// Client talks to one server on behalf of one session.
type Client struct {
	http    *resty.Client
	session *Session

	Auth        *AuthAPI
	Parameters  *ParametersAPI
	Matrices    *MatricesAPI
	Cycles      *CyclesAPI
	Assignments *AssignmentsAPI
}

type options struct {
	timeout    time.Duration
	httpClient *http.Client
}

type Option func(*options)

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithHTTPClient sends requests through hc. The client timeout and JSON
// Accept header still apply.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// New builds a client for session. The session's base URL is used for
// every request.
func New(session *Session, opts ...Option) *Client {
	if session == nil {
		session = &Session{}
	}
	o := options{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	rc := resty.New()
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	}
	rc.SetBaseURL(strings.TrimRight(session.BaseURL, "/")+apiPrefix).
		SetTimeout(o.timeout).
		SetHeader("Accept", "application/json")

	c := &Client{http: rc, session: session}
	c.Auth = &AuthAPI{c: c}
	c.Parameters = &ParametersAPI{c: c}
	c.Matrices = &MatricesAPI{c: c}
	c.Cycles = &CyclesAPI{c: c}
	c.Assignments = &AssignmentsAPI{c: c}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

// do sends one request and decodes the data member of the envelope into
// out. A 401 clears the session.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if token := c.session.AccessToken(); token != "" {
		req.SetAuthToken(token)
	}
	if len(query) > 0 {
		params := make(map[string]string, len(query))
		for k, v := range query {
			if v != "" {
				params[k] = v
			}
		}
		req.SetQueryParams(params)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var env envelope
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &env); err != nil && resp.IsSuccess() {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Code: http.StatusText(resp.StatusCode()), RequestID: env.RequestID}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		if apiErr.Status == http.StatusUnauthorized {
			c.session.Clear()
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
