package client

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const awaitPollInterval = time.Millisecond * 100

// AwaitService polls the given path until the service answers with any HTTP status, or
// until the timeout expires. Any response at all, even 401 or 404, means that something is
// listening. Progress dots are written to output.
func (c *Client) AwaitService(path string, timeout time.Duration, output io.Writer) error {
	if output == nil {
		output = io.Discard
	}
	fullURL := c.baseURL + path
	fmt.Fprintf(output, "Connecting to store service at %s", fullURL)

	hc := *c.httpClient
	if hc.Timeout == 0 || hc.Timeout > timeout {
		hc.Timeout = timeout
	}

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := hc.Get(fullURL)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			fmt.Fprintln(output)
			fmt.Fprintf(output, "Store service responded with status %d\n", resp.StatusCode)
			if resp.StatusCode >= http.StatusInternalServerError {
				c.logger.Printf("Store service is reachable but returned %d", resp.StatusCode)
			}
			return nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return &TransportError{Op: "request", Method: http.MethodGet, URL: fullURL,
				Err: fmt.Errorf("timed out, result of last query was: %w", err)}
		}
		time.Sleep(awaitPollInterval)
	}
}
