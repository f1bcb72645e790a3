// internal/model/models.go
package model

import "time"

// Issue is the reduced public representation of an upstream issue.
// Labels holds label names in the order the upstream API returned them.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      *string   `json:"body"`
	State     string    `json:"state"`
	Labels    []string  `json:"labels"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is the reduced public representation of an issue comment.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	HTMLURL   string    `json:"html_url"`
}

// IssueCreate is the request payload for creating an issue.
type IssueCreate struct {
	Title  string   `json:"title"`
	Body   *string  `json:"body"`
	Labels []string `json:"labels"`
}

// IssueUpdate is the request payload for a partial issue update. Nil
// fields are left untouched upstream.
type IssueUpdate struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
	State *string `json:"state"`
}

// CommentCreate is the request payload for adding a comment.
type CommentCreate struct {
	Body string `json:"body"`
}
