// Package github is a small client for the public GitHub users API.
//
// Only two endpoints are used:
//
//	GET /users           → one page of all GitHub accounts, in signup order
//	GET /users/{login}   → a single account
//
// AUTHENTICATION:
// The users API works anonymously (60 requests/hour per IP). With a token the
// limit rises to 5000/hour. When Config.Token is set we wrap the transport in
// an oauth2.Transport with a static token source, which adds
// "Authorization: Bearer <token>" to every request, the same way the
// oauth2 package does it for the OAuth login flow.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/github-users/internal/apperror"
	"github.com/sakif/github-users/internal/model"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 15 * time.Second
	DefaultPerPage = 30
	MaxPerPage     = 100

	userAgent = "github-users"
	apiAccept = "application/vnd.github+json"
)

// Config holds client configuration.
type Config struct {
	BaseURL string        // defaults to DefaultBaseURL
	Token   string        // optional personal access token
	Timeout time.Duration // whole-request timeout, defaults to DefaultTimeout
	PerPage int           // default page size for ListUsers

	// Transport overrides the underlying round tripper. Nil means
	// http.DefaultTransport, looked up on every request.
	Transport http.RoundTripper
}

// Client talks to the GitHub REST API.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	perPage int
	logger  *slog.Logger
}

// ListOptions selects a page of the users listing. GitHub paginates /users by
// user ID: Since is the last ID already seen (0 for the first page).
type ListOptions struct {
	Since   int64
	PerPage int
}

// APIError is a non-2xx response from GitHub. Message is GitHub's own
// explanation ("API rate limit exceeded for ...") when the body carried one.
type APIError struct {
	StatusCode       int
	Message          string
	DocumentationURL string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("github: %d %s", e.StatusCode, e.Message)
}

// RateLimited reports whether GitHub refused the request because the caller
// ran out of quota. GitHub answers 429, or 403 with a rate limit message.
func (e *APIError) RateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode == http.StatusForbidden &&
		strings.Contains(strings.ToLower(e.Message), "rate limit")
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.PerPage > MaxPerPage {
		cfg.PerPage = MaxPerPage
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("github: parsing base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("github: base URL %q must be absolute", cfg.BaseURL)
	}

	var transport http.RoundTripper = &loggingTransport{next: cfg.Transport, logger: logger}
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
			Base:   transport,
		}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL: base,
		perPage: cfg.PerPage,
		logger:  logger,
	}, nil
}

// ListUsers returns one page of GitHub users.
func (c *Client) ListUsers(ctx context.Context, opts ListOptions) ([]model.GitHubUser, error) {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = c.perPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	if opts.Since > 0 {
		q.Set("since", strconv.FormatInt(opts.Since, 10))
	}

	var users []model.GitHubUser
	if err := c.get(ctx, "users", q, &users); err != nil {
		return nil, fmt.Errorf("github: listing users: %w", err)
	}
	if users == nil {
		// "null" or an empty body: still a successful, empty listing.
		users = []model.GitHubUser{}
	}
	return users, nil
}

// GetUser returns a single user by login. A 404 becomes apperror.NotFound.
func (c *Client) GetUser(ctx context.Context, login string) (*model.GitHubUser, error) {
	var user model.GitHubUser
	err := c.get(ctx, "users/"+url.PathEscape(login), nil, &user)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, apperror.NotFound("user", login)
		}
		return nil, fmt.Errorf("github: getting user %s: %w", login, err)
	}
	return &user, nil
}

// get performs a GET against the API and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL.JoinPath(path)
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", apiAccept)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeAPIError builds an APIError from GitHub's error body:
//
//	{"message": "Not Found", "documentation_url": "https://docs.github.com/..."}
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	// Limit the read: error bodies are tiny, a proxy's HTML page might not be.
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message = body.Message
		apiErr.DocumentationURL = body.DocumentationURL
	}
	return apiErr
}
