package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lyricfetch/internal/query"
)

// ErrTransport marks failures where no usable response was received.
var ErrTransport = errors.New("lyrics transport failure")

// Response is the decoded reply of the lyrics endpoint.
type Response struct {
	StatusCode int
	Lyrics     string // set on 200
	Message    string // set on any other status
}

// OK reports whether the endpoint answered 200.
func (r Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the lyrics service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch issues a single GET for q. Any status is a valid Response; an error
// is returned only when the request could not complete or the body could not
// be decoded, and it always wraps ErrTransport. There are no retries.
func (c *Client) Fetch(ctx context.Context, q query.SearchQuery) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.URL(c.baseURL), nil)
	if err != nil {
		return Response{}, fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "lyricfetch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Response{}, fmt.Errorf("%w: failed to decode status %d response: %v", ErrTransport, resp.StatusCode, err)
	}

	return Response{
		StatusCode: resp.StatusCode,
		Lyrics:     body.Lyrics,
		Message:    body.Message,
	}, nil
}

type apiResponse struct {
	Lyrics  string `json:"lyrics"`
	Message string `json:"message"`
}
