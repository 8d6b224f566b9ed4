package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/musicstore/store-contract-tests/framework"
	"github.com/musicstore/store-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeBaseURL = "http://store.test"

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// failingTransport fails the first n requests with a connection error and then passes
// requests to the handler.
func failingTransport(n int, handler http.Handler, calls *int) *http.Client {
	delegate := httphelpers.ClientFromHandler(handler)
	return &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		*calls++
		if *calls <= n {
			return nil, errors.New("connection refused")
		}
		return delegate.Transport.RoundTrip(r)
	})}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	c, err := New(fakeBaseURL, Options{HTTPClient: httphelpers.ClientFromHandler(handler)})
	require.NoError(t, err)
	return c
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8082", "ftp://x", "http://", "::"} {
		_, err := New(u, Options{})
		assert.Error(t, err, "base URL %q", u)
	}
	_, err := New(fakeBaseURL, Options{Retries: -1})
	assert.Error(t, err)

	c, err := New("http://localhost:8082/", Options{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8082", c.BaseURL())
}

func TestDoSendsJSONAndBearerToken(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(map[string]interface{}{"token": "T2"}, nil))
	c := newTestClient(t, handler).WithToken("T1")

	var resp servicedef.AuthResponse
	require.NoError(t, c.Post("/api/auth/login", servicedef.LoginParams{Username: "u", Password: "p"}, &resp))
	assert.Equal(t, "T2", resp.Token)

	require.Len(t, requestsCh, 1)
	r := <-requestsCh
	assert.Equal(t, "POST", r.Request.Method)
	assert.Equal(t, "/api/auth/login", r.Request.URL.Path)
	assert.Equal(t, "Bearer T1", r.Request.Header.Get("Authorization"))
	assert.Equal(t, "application/json", r.Request.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"username":"u","password":"p"}`, string(r.Body))
}

func TestDoWithoutTokenSendsNoAuthorization(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	c := newTestClient(t, handler)

	require.NoError(t, c.Get("/api/music", nil))
	r := <-requestsCh
	assert.Empty(t, r.Request.Header.Get("Authorization"))
	assert.Empty(t, r.Request.Header.Get("Content-Type"))
}

func TestUnexpectedStatus(t *testing.T) {
	c := newTestClient(t, httphelpers.HandlerWithResponse(409, nil, []byte(`{"error":"exists"}`)))

	err := c.Post("/api/auth/register", map[string]string{}, nil)
	require.Error(t, err)
	var se *UnexpectedStatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 409, se.Code)
	assert.Equal(t, `{"error":"exists"}`, se.Body)
	assert.Equal(t, 409, StatusCode(err))
	assert.Equal(t, "UnexpectedStatus", framework.ErrorKind(err))
	assert.False(t, IsTransportError(err))
}

func TestExpectStatusOverridesDefault(t *testing.T) {
	c := newTestClient(t, httphelpers.HandlerWithStatus(204))
	assert.Error(t, c.Do(Request{Method: "POST", Path: "/x", ExpectStatus: []int{200}}))
	assert.NoError(t, c.Do(Request{Method: "POST", Path: "/x", ExpectStatus: []int{200, 204}}))
	assert.NoError(t, c.Do(Request{Method: "POST", Path: "/x"}))
}

func TestTransportFailureIsCaptured(t *testing.T) {
	calls := 0
	c, err := New(fakeBaseURL, Options{HTTPClient: failingTransport(100, httphelpers.HandlerWithStatus(200), &calls)})
	require.NoError(t, err)

	err = c.Get("/api/music", nil)
	require.Error(t, err)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "request", te.Op)
	assert.Equal(t, "TransportError", framework.ErrorKind(err))
	assert.Equal(t, 1, calls, "no retries by default")
}

func TestMalformedResponseIsTransportError(t *testing.T) {
	c := newTestClient(t, httphelpers.HandlerWithResponse(200, nil, []byte(`{not json`)))
	var out servicedef.Cart
	err := c.Get("/api/cart", &out)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "decode", te.Op)
}

func TestEmptyResponseIsTransportErrorWhenBodyExpected(t *testing.T) {
	c := newTestClient(t, httphelpers.HandlerWithStatus(200))
	var out servicedef.Cart
	err := c.Get("/api/cart", &out)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "decode", te.Op)
}

func TestSchemaMismatchIsTransportError(t *testing.T) {
	c := newTestClient(t, httphelpers.HandlerWithJSONResponse(map[string]interface{}{"user": map[string]interface{}{"id": 1}}, nil))
	var out servicedef.AuthResponse
	err := c.Post("/api/auth/login", nil, &out)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "validate", te.Op)
	assert.Contains(t, err.Error(), "token is required")
}

func TestRetriesTransportFailures(t *testing.T) {
	calls := 0
	c, err := New(fakeBaseURL, Options{
		HTTPClient: failingTransport(2, httphelpers.HandlerWithJSONResponse(map[string]interface{}{"items": []interface{}{}}, nil), &calls),
		Retries:    2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)

	var out servicedef.Cart
	require.NoError(t, c.Get("/api/cart", &out))
	assert.Equal(t, 3, calls)
}

func TestRetriesAreExhausted(t *testing.T) {
	calls := 0
	c, err := New(fakeBaseURL, Options{
		HTTPClient: failingTransport(10, httphelpers.HandlerWithStatus(200), &calls),
		Retries:    1,
	})
	require.NoError(t, err)

	assert.True(t, IsTransportError(c.Get("/api/cart", nil)))
	assert.Equal(t, 2, calls)
}

func TestUnexpectedStatusIsNotRetried(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(500))
	c, err := New(fakeBaseURL, Options{HTTPClient: httphelpers.ClientFromHandler(handler), Retries: 3})
	require.NoError(t, err)

	assert.Equal(t, 500, StatusCode(c.Get("/api/cart", nil)))
	assert.Len(t, requestsCh, 1)
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(200)
	})
	httphelpers.WithServer(slow, func(server *httptest.Server) {
		c, err := New(server.URL, Options{Timeout: time.Millisecond * 50})
		require.NoError(t, err)

		start := time.Now()
		err = c.Get("/api/music", nil)
		assert.True(t, IsTransportError(err))
		assert.Less(t, time.Since(start), time.Millisecond*900)
	})
}

func TestClientLogsRequests(t *testing.T) {
	logger := &framework.CapturingLogger{}
	c := newTestClient(t, httphelpers.HandlerWithStatus(200)).WithLogger(logger)
	require.NoError(t, c.Post("/api/cart/clear", nil, nil))

	out := logger.Output()
	require.Len(t, out, 2)
	assert.Regexp(t, `^POST `+regexp.QuoteMeta(fakeBaseURL+"/api/cart/clear")+` \(request [0-9a-f-]{36}\)$`, out[0].Message)
	assert.Equal(t, "Response 200: ", out[1].Message)
}

func TestClientLogsNoCredentials(t *testing.T) {
	logger := &framework.CapturingLogger{}
	handler := httphelpers.HandlerWithJSONResponse(map[string]interface{}{"token": "eyJhbGciOi.secret-jwt", "user": map[string]interface{}{"id": 7}}, nil)
	c := newTestClient(t, handler).WithLogger(logger)

	var resp servicedef.AuthResponse
	require.NoError(t, c.Post("/api/auth/login", servicedef.LoginParams{Username: "u", Password: "hunter2"}, &resp))
	assert.Equal(t, "eyJhbGciOi.secret-jwt", resp.Token)

	out := logger.Output()
	require.Len(t, out, 2)
	assert.Contains(t, out[0].Message, `"username":"u"`)
	assert.Contains(t, out[0].Message, `"password":"***"`)
	assert.NotContains(t, out[0].Message, "hunter2")
	assert.Contains(t, out[1].Message, `"token":"***"`)
	assert.NotContains(t, out[1].Message, "secret-jwt")
	assert.Contains(t, out[1].Message, `"id":7`)
}

func TestUnexpectedStatusMessageHasNoCredentials(t *testing.T) {
	c := newTestClient(t, httphelpers.HandlerWithResponse(401, nil, []byte(`{"error":"expired","token":"old-token"}`)))
	err := c.Get("/api/cart", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"error":"expired"`)
	assert.NotContains(t, err.Error(), "old-token")
}

func TestEachAttemptHasNewRequestID(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	c := newTestClient(t, handler)
	require.NoError(t, c.Get("/api/music", nil))
	require.NoError(t, c.Get("/api/music", nil))

	first, second := <-requestsCh, <-requestsCh
	id1, err := uuid.Parse(first.Request.Header.Get(RequestIDHeader))
	require.NoError(t, err)
	id2, err := uuid.Parse(second.Request.Header.Get(RequestIDHeader))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestAwaitService(t *testing.T) {
	c := newTestClient(t, httphelpers.HandlerWithStatus(404))
	assert.NoError(t, c.AwaitService("/api/music", time.Second, nil))

	calls := 0
	down, err := New(fakeBaseURL, Options{HTTPClient: failingTransport(1000, httphelpers.HandlerWithStatus(200), &calls)})
	require.NoError(t, err)
	assert.True(t, IsTransportError(down.AwaitService("/api/music", time.Millisecond*250, nil)))
	assert.Greater(t, calls, 1)
}
