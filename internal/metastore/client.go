package metastore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/maauso/vidvault/internal/video"
)

// Static errors for metadata store operations.
var (
	// ErrBaseURLRequired is returned when the store URL is not provided.
	ErrBaseURLRequired = errors.New("metastore: base URL is required")
	// ErrAPIKeyRequired is returned when the store API key is not provided.
	ErrAPIKeyRequired = errors.New("metastore: API key is required")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("metastore: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("metastore: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("metastore: request failed")
	// ErrEmptyResponse is returned when an insert returns no representation.
	ErrEmptyResponse = errors.New("metastore: empty response")
)

const (
	// uniqueViolation is the Postgres error code for a duplicate key.
	uniqueViolation = "23505"
	// invalidTextRepresentation is the Postgres error code for a value that
	// cannot be cast to the column type, such as a malformed uuid.
	invalidTextRepresentation = "22P02"
	// singleObject asks PostgREST for exactly one row instead of an array.
	singleObject = "application/vnd.pgrst.object+json"
)

// Compile-time check that Client implements video.Repository.
var _ video.Repository = (*Client)(nil)

// Client is the REST implementation of video.Repository.
type Client struct {
	baseURL      string
	apiKey       string
	table        string
	httpClient   *http.Client
	maxRetries   uint
	baseBackoff  time.Duration
	mediaColumns bool
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(mc *Client) {
		mc.httpClient = c
	}
}

// WithTable sets the table videos are stored in.
func WithTable(table string) ClientOption {
	return func(mc *Client) {
		mc.table = table
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
// Zero means every call is attempted once.
func WithMaxRetries(n uint) ClientOption {
	return func(mc *Client) {
		mc.maxRetries = n
	}
}

// WithMediaColumns makes Insert also write the content_type and size_bytes
// columns. The table must have them.
func WithMediaColumns(enabled bool) ClientOption {
	return func(mc *Client) {
		mc.mediaColumns = enabled
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(mc *Client) {
		mc.baseBackoff = d
	}
}

// NewClient creates a new metadata store client for the project at baseURL.
// Both baseURL and apiKey are required.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		table:       "videos",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseBackoff: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Insert creates a row for v.
func (c *Client) Insert(ctx context.Context, v *video.Video) error {
	body, err := json.Marshal([]videoRow{rowFromVideo(v, c.mediaColumns)})
	if err != nil {
		return fmt.Errorf("metastore: marshal row: %w", err)
	}

	headers := http.Header{}
	headers.Set("Prefer", "return=representation")

	var rows []videoRow
	status, err := c.doRequestWithRetry(ctx, http.MethodPost, c.tableURL(nil), headers, body, &rows)
	if err != nil {
		if status == http.StatusConflict || errorCode(err) == uniqueViolation {
			return fmt.Errorf("%w: %s", video.ErrVideoExists, v.ID)
		}
		return err
	}
	if len(rows) == 0 {
		return ErrEmptyResponse
	}

	return nil
}

// FindByID retrieves a single row by id.
func (c *Client) FindByID(ctx context.Context, id string) (*video.Video, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("id", "eq."+id)

	headers := http.Header{}
	headers.Set("Accept", singleObject)

	var row videoRow
	status, err := c.doRequestWithRetry(ctx, http.MethodGet, c.tableURL(query), headers, nil, &row)
	if err != nil {
		// PostgREST answers 406 when the object request matched zero rows, and
		// 400 with 22P02 when id is not a valid value for the id column.
		if status == http.StatusNotAcceptable || status == http.StatusNotFound ||
			errorCode(err) == invalidTextRepresentation {
			return nil, fmt.Errorf("%w: %s", video.ErrVideoNotFound, id)
		}
		return nil, err
	}
	if row.ID == "" {
		return nil, fmt.Errorf("%w: %s", video.ErrVideoNotFound, id)
	}

	return row.toVideo(), nil
}

// List returns all rows ordered by upload date, newest first.
func (c *Client) List(ctx context.Context) ([]*video.Video, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "upload_date.desc")

	var rows []videoRow
	if _, err := c.doRequestWithRetry(ctx, http.MethodGet, c.tableURL(query), nil, nil, &rows); err != nil {
		return nil, err
	}

	videos := make([]*video.Video, 0, len(rows))
	for _, r := range rows {
		videos = append(videos, r.toVideo())
	}
	return videos, nil
}

func (c *Client) tableURL(query url.Values) string {
	u := c.baseURL + "/rest/v1/" + url.PathEscape(c.table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doRequestWithRetry performs an HTTP request, retrying transient failures with
// exponential backoff. The returned status is that of the last response, or 0
// when no response was received.
func (c *Client) doRequestWithRetry(ctx context.Context, method, url string, headers http.Header, body []byte, result any) (int, error) {
	var status int
	err := retry.Do(
		func() error {
			var err error
			status, err = c.doRequest(ctx, method, url, headers, body, result)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries+1),
		retry.Delay(c.baseBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
	)
	return status, err
}

// doRequest performs a single HTTP request.
func (c *Client) doRequest(ctx context.Context, method, url string, headers http.Header, body []byte, result any) (int, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("metastore: create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &retryableError{err: fmt.Errorf("metastore: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &retryableError{err: fmt.Errorf("metastore: read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(respBody)
		if resp.StatusCode >= 500 {
			return resp.StatusCode, &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, msg)}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return resp.StatusCode, &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, msg)}
		}
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)
		return resp.StatusCode, &requestError{
			code: apiErr.Code,
			err:  fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, msg),
		}
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp.StatusCode, fmt.Errorf("metastore: unmarshal response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// errorMessage extracts a readable message from a PostgREST error body.
func errorMessage(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return string(body)
}

// requestError carries the PostgREST error code of a rejected request.
type requestError struct {
	code string
	err  error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

// errorCode returns the PostgREST error code carried by err, if any.
func errorCode(err error) string {
	var re *requestError
	if errors.As(err, &re) {
		return re.code
	}
	return ""
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
