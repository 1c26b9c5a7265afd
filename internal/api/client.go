package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"voxpost/internal/article"
)

// StatusError is returned for non-2xx API answers.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: http %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// Client calls the voxpost HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient targets baseURL ("http://host:port").
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL converts a listen address into a URL a local client can dial.
func BaseURL(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return "http://" + strings.TrimSpace(bind)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// CreateArticle submits the create-article action.
func (c *Client) CreateArticle(ctx context.Context, req CreateArticleRequest) (*CreateArticleResponse, error) {
	var resp CreateArticleResponse
	if err := c.do(ctx, http.MethodPost, "/api/articles", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListArticles returns a user's articles, newest first.
func (c *Client) ListArticles(ctx context.Context, userID string, limit int) ([]*article.Article, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp ArticleList
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/articles", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Articles, nil
}

// GetArticle returns one article.
func (c *Client) GetArticle(ctx context.Context, userID, articleID string) (*article.Article, error) {
	var resp article.Article
	path := "/api/users/" + url.PathEscape(userID) + "/articles/" + url.PathEscape(articleID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListJobs returns queue entries, optionally filtered by status.
func (c *Client) ListJobs(ctx context.Context, statuses []string) ([]Job, error) {
	query := url.Values{}
	if len(statuses) > 0 {
		query.Set("status", strings.Join(statuses, ","))
	}
	var resp JobList
	if err := c.do(ctx, http.MethodGet, "/api/jobs", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// GetJob returns a job and its checkpoints.
func (c *Client) GetJob(ctx context.Context, articleID string) (*JobDetail, error) {
	var resp JobDetail
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(articleID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RetryJob requeues a failed job.
func (c *Client) RetryJob(ctx context.Context, articleID string) (int64, error) {
	var resp CountResponse
	if err := c.do(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(articleID)+"/retry", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// ClearCompleted removes completed jobs.
func (c *Client) ClearCompleted(ctx context.Context) (int64, error) {
	var resp CountResponse
	if err := c.do(ctx, http.MethodDelete, "/api/jobs/completed", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Status returns daemon status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var resp Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("api: new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr ErrorResponse
		message := strings.TrimSpace(string(payload))
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}
