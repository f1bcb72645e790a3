// internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	apperrors "github-issues-gateway/internal/errors"
	"github-issues-gateway/internal/model"
)

// Client is a wrapper around the go-github client, bound to a single
// configured owner/repo. It performs no retries; upstream failures are
// translated and surfaced to the caller verbatim.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. The provided
// token is used to create an authenticated http.Client; timeout bounds
// each outbound request.
func NewClient(token, owner, repo string, timeout time.Duration, logger *slog.Logger) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = timeout

	return &Client{
		gh:     github.NewClient(tc),
		owner:  owner,
		repo:   repo,
		logger: logger,
	}
}

// OverrideBaseURL points the client at an alternate upstream base URL.
// Intended for tests that stand in for the upstream API.
func (c *Client) OverrideBaseURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSuffix(rawURL, "/") + "/")
	if err != nil {
		return err
	}
	c.gh.BaseURL = u
	return nil
}

// ListOptions holds the caller-supplied filters forwarded to the
// upstream list endpoint.
type ListOptions struct {
	State   string
	Labels  []string
	Page    int
	PerPage int
}

// ListMeta carries the upstream response headers the list endpoint
// forwards to its own caller on success.
type ListMeta struct {
	Link               string
	RateLimitRemaining string
	RateLimitReset     string
}

// CreateIssue opens a new issue upstream and translates the response.
func (c *Client) CreateIssue(ctx context.Context, in model.IssueCreate) (*model.Issue, error) {
	labels := in.Labels
	if labels == nil {
		labels = []string{}
	}
	req := &github.IssueRequest{
		Title:  github.String(in.Title),
		Body:   in.Body,
		Labels: &labels,
	}

	issue, _, err := c.gh.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return nil, translateError(err)
	}
	c.logger.Debug("Created upstream issue", "number", issue.GetNumber())
	return toIssue(issue), nil
}

// ListIssues fetches issues matching opts and returns them with the
// forwardable upstream headers.
func (c *Client) ListIssues(ctx context.Context, opts ListOptions) ([]model.Issue, ListMeta, error) {
	ghOpts := &github.IssueListByRepoOptions{
		State:  opts.State,
		Labels: opts.Labels,
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	}

	issues, resp, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, ghOpts)
	if err != nil {
		return nil, ListMeta{}, translateError(err)
	}

	meta := ListMeta{
		Link:               resp.Header.Get("Link"),
		RateLimitRemaining: resp.Header.Get("X-RateLimit-Remaining"),
		RateLimitReset:     resp.Header.Get("X-RateLimit-Reset"),
	}

	out := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, *toIssue(issue))
	}
	return out, meta, nil
}

// GetIssue fetches a single issue by number.
func (c *Client) GetIssue(ctx context.Context, number int) (*model.Issue, error) {
	issue, _, err := c.gh.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, translateError(err)
	}
	return toIssue(issue), nil
}

// UpdateIssue applies a partial update and returns the upstream issue
// object as raw JSON so the caller can pass the upstream shape through
// untouched.
func (c *Client) UpdateIssue(ctx context.Context, number int, in model.IssueUpdate) (json.RawMessage, error) {
	req := &github.IssueRequest{
		Title: in.Title,
		Body:  in.Body,
		State: in.State,
	}

	issue, _, err := c.gh.Issues.Edit(ctx, c.owner, c.repo, number, req)
	if err != nil {
		return nil, translateError(err)
	}
	raw, err := json.Marshal(issue)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// AddComment posts a comment on the given issue and translates the
// response.
func (c *Client) AddComment(ctx context.Context, number int, body string) (*model.Comment, error) {
	comment, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return nil, translateError(err)
	}
	return toComment(comment), nil
}

// translateError converts go-github error responses into UpstreamError
// values carrying the true upstream status. Transport-level failures
// (no upstream status at all) pass through unchanged.
func translateError(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		detail := ghErr.Message
		if detail == "" {
			detail = http.StatusText(ghErr.Response.StatusCode)
		}
		return &apperrors.UpstreamError{
			StatusCode: ghErr.Response.StatusCode,
			Detail:     detail,
		}
	}
	return err
}

// toIssue translates a github.Issue object to the reduced public shape.
func toIssue(issue *github.Issue) *model.Issue {
	return &model.Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.Body,
		State:     issue.GetState(),
		Labels:    labelNames(issue.Labels),
		HTMLURL:   issue.GetHTMLURL(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
	}
}

// toComment translates a github.IssueComment object to the reduced
// public shape.
func toComment(comment *github.IssueComment) *model.Comment {
	return &model.Comment{
		ID:        comment.GetID(),
		Body:      comment.GetBody(),
		User:      comment.GetUser().GetLogin(),
		CreatedAt: comment.GetCreatedAt().Time,
		HTMLURL:   comment.GetHTMLURL(),
	}
}

// labelNames extracts label names in the order upstream returned them.
// No sorting, no deduplication.
func labelNames(labels []*github.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.GetName())
	}
	return names
}
