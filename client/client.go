// Package client wraps HTTP calls to the music store service so that every outcome is an
// explicit value: a decoded and validated response, a *TransportError, or an
// *UnexpectedStatusError. Nothing a remote service does can make these methods panic.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/musicstore/store-contract-tests/framework"
	"github.com/musicstore/store-contract-tests/servicedef"
)

const maxBodyInLog = 500

// secretFieldPattern matches JSON string fields whose values must not appear in logs.
var secretFieldPattern = regexp.MustCompile(`(?i)"(token|password)"\s*:\s*"(?:[^"\\]|\\.)*"`)

// RequestIDHeader carries a new random ID on every attempt, so that service logs can be
// matched with the debug output of a step.
const RequestIDHeader = "X-Request-Id"

// Options configures a Client. The zero value means no timeout beyond the HTTP client's
// own, and no retries.
type Options struct {
	// HTTPClient is used for all requests; http.DefaultClient if nil.
	HTTPClient *http.Client

	// Timeout, if positive, limits each request including reading the body.
	Timeout time.Duration

	// Retries is the number of additional attempts after a transport failure. Responses
	// with an unexpected status are never retried.
	Retries int

	// RetryDelay is the pause before each retry.
	RetryDelay time.Duration

	Logger framework.Logger
}

// Client sends requests to one service base URL. Methods that change the token or logger
// return a modified copy, so a Client can be shared between steps.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	token      string
	logger     framework.Logger
}

// Request describes one call.
type Request struct {
	Method string
	Path   string

	// Body, if not nil, is sent as JSON.
	Body interface{}

	// ExpectStatus lists the acceptable status codes; if empty, any 2xx status is accepted.
	ExpectStatus []int

	// Out, if not nil, receives the decoded JSON response. If it implements
	// servicedef.Validatable it is validated after decoding.
	Out interface{}
}

// New creates a Client. The base URL must be an absolute http or https URL.
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be an absolute http or https URL", baseURL)
	}
	if opts.Retries < 0 {
		return nil, fmt.Errorf("retries must not be negative")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		timeout:    opts.Timeout,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		logger:     logger,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// WithToken returns a copy of the client that sends "Authorization: Bearer <token>".
func (c *Client) WithToken(token string) *Client {
	c1 := *c
	c1.token = token
	return &c1
}

// WithLogger returns a copy of the client that logs requests and responses to logger.
func (c *Client) WithLogger(logger framework.Logger) *Client {
	if logger == nil {
		logger = framework.NullLogger()
	}
	c1 := *c
	c1.logger = logger
	return &c1
}

func (c *Client) Get(path string, out interface{}) error {
	return c.Do(Request{Method: http.MethodGet, Path: path, Out: out})
}

func (c *Client) Post(path string, body, out interface{}) error {
	return c.Do(Request{Method: http.MethodPost, Path: path, Body: body, Out: out})
}

// Do performs the request, retrying transport failures if the client was configured to.
func (c *Client) Do(req Request) error {
	fullURL := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")

	var payload []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return &TransportError{Op: "encode", Method: req.Method, URL: fullURL, Err: err}
		}
		payload = data
	}

	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Printf("Retrying %s %s (attempt %d of %d) after: %s", req.Method, fullURL, attempt+1, c.retries+1, err)
			if c.retryDelay > 0 {
				time.Sleep(c.retryDelay)
			}
		}
		var body []byte
		body, err = c.roundTrip(req, fullURL, payload)
		if err == nil {
			return c.decode(req, fullURL, body)
		}
		if !retryable(err) {
			return err
		}
	}
	return err
}

func (c *Client) roundTrip(req Request, fullURL string, payload []byte) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequest(req.Method, fullURL, bodyReader)
	if err != nil {
		return nil, &TransportError{Op: "request", Method: req.Method, URL: fullURL, Err: err}
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpClient := c.httpClient
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		httpClient = &hc
	}

	if payload != nil {
		c.logger.Printf("%s %s (request %s) %s", req.Method, fullURL, requestID, loggableBody(payload))
	} else {
		c.logger.Printf("%s %s (request %s)", req.Method, fullURL, requestID)
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "request", Method: req.Method, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", Method: req.Method, URL: fullURL, Err: err}
	}
	c.logger.Printf("Response %d: %s", resp.StatusCode, loggableBody(data))

	if !statusExpected(resp.StatusCode, req.ExpectStatus) {
		return nil, &UnexpectedStatusError{Method: req.Method, URL: fullURL, Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func (c *Client) decode(req Request, fullURL string, body []byte) error {
	if req.Out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &TransportError{Op: "decode", Method: req.Method, URL: fullURL, Err: errors.New("response body was empty")}
	}
	if err := json.Unmarshal(body, req.Out); err != nil {
		return &TransportError{Op: "decode", Method: req.Method, URL: fullURL, Err: err}
	}
	if v, ok := req.Out.(servicedef.Validatable); ok {
		if err := v.Validate(); err != nil {
			return &TransportError{Op: "validate", Method: req.Method, URL: fullURL, Err: err}
		}
	}
	return nil
}

func retryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && (te.Op == "request" || te.Op == "read")
}

func statusExpected(code int, expected []int) bool {
	if len(expected) == 0 {
		return code >= 200 && code < 300
	}
	for _, e := range expected {
		if code == e {
			return true
		}
	}
	return false
}

func loggableBody(data []byte) string {
	return truncate(redactSecrets(string(data)), maxBodyInLog)
}

func redactSecrets(s string) string {
	return secretFieldPattern.ReplaceAllString(s, `"$1":"***"`)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
