// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github-issues-gateway/internal/errors"
	"github-issues-gateway/internal/events"
	"github-issues-gateway/internal/github"
	"github-issues-gateway/internal/model"
	"github-issues-gateway/internal/webhook"
)

// Webhook event types accepted for ingestion. Anything else is rejected
// before the payload body is interpreted.
var supportedEvents = map[string]bool{
	"issues":        true,
	"issue_comment": true,
	"ping":          true,
}

// IssueService is the slice of the upstream client the API layer needs.
type IssueService interface {
	CreateIssue(ctx context.Context, in model.IssueCreate) (*model.Issue, error)
	ListIssues(ctx context.Context, opts github.ListOptions) ([]model.Issue, github.ListMeta, error)
	GetIssue(ctx context.Context, number int) (*model.Issue, error)
	UpdateIssue(ctx context.Context, number int, in model.IssueUpdate) (json.RawMessage, error)
	AddComment(ctx context.Context, number int, body string) (*model.Comment, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	issues IssueService
	store  *events.Store
	secret []byte
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(issues IssueService, store *events.Store, webhookSecret string, logger *slog.Logger) http.Handler {
	h := &Handler{
		issues: issues,
		store:  store,
		secret: []byte(webhookSecret),
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/healthz", h.healthCheck)
	r.Post("/issues", h.createIssue)
	r.Get("/issues", h.listIssues)
	r.Get("/issues/{number}", h.getIssue)
	r.Patch("/issues/{number}", h.updateIssue)
	r.Post("/issues/{number}/comments", h.addComment)
	r.Post("/webhook", h.handleWebhook)
	r.Get("/events", h.listEvents)

	return r
}

// healthCheck is a simple liveness endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createIssue handles POST /issues.
func (h *Handler) createIssue(w http.ResponseWriter, r *http.Request) {
	var in model.IssueCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Title == "" {
		respondWithError(w, http.StatusBadRequest, "title is required")
		return
	}

	issue, err := h.issues.CreateIssue(r.Context(), in)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var ue *apperrors.UpstreamError
		if errors.As(err, &ue) {
			respondWithError(w, http.StatusBadRequest, ue.Detail)
			return
		}
		h.upstreamFailure(w, "Failed to create issue", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/issues/%d", issue.Number))
	respondWithJSON(w, http.StatusCreated, issue)
}

// listIssues handles GET /issues with state/labels/page/per_page filters.
// The forwardable upstream headers are set only on success.
func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := github.ListOptions{
		State:   q.Get("state"),
		Page:    intParam(q.Get("page"), 1),
		PerPage: intParam(q.Get("per_page"), 30),
	}
	if opts.State == "" {
		opts.State = "open"
	}
	if labels := q.Get("labels"); labels != "" {
		opts.Labels = strings.Split(labels, ",")
	}

	issues, meta, err := h.issues.ListIssues(r.Context(), opts)
	if err != nil {
		var ue *apperrors.UpstreamError
		if errors.As(err, &ue) {
			respondWithError(w, ue.StatusCode, ue.Detail)
			return
		}
		h.upstreamFailure(w, "Failed to list issues", err)
		return
	}

	if meta.Link != "" {
		w.Header().Set("Link", meta.Link)
	}
	if meta.RateLimitRemaining != "" {
		w.Header().Set("X-RateLimit-Remaining", meta.RateLimitRemaining)
	}
	if meta.RateLimitReset != "" {
		w.Header().Set("X-RateLimit-Reset", meta.RateLimitReset)
	}
	respondWithJSON(w, http.StatusOK, issues)
}

// getIssue handles GET /issues/{number}.
func (h *Handler) getIssue(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	issue, err := h.issues.GetIssue(r.Context(), number)
	if err != nil {
		h.respondUpstreamError(w, err, "Failed to get issue")
		return
	}
	respondWithJSON(w, http.StatusOK, issue)
}

// updateIssue handles PATCH /issues/{number}. The state value is
// validated locally before any upstream call is made; the success body
// is the upstream response shape, untranslated.
func (h *Handler) updateIssue(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	var in model.IssueUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.State != nil && *in.State != "open" && *in.State != "closed" {
		respondWithError(w, http.StatusBadRequest, "state must be 'open' or 'closed'")
		return
	}

	raw, err := h.issues.UpdateIssue(r.Context(), number, in)
	if err != nil {
		h.respondUpstreamError(w, err, "Failed to update issue")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// addComment handles POST /issues/{number}/comments.
func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	var in model.CommentCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Body == "" {
		respondWithError(w, http.StatusBadRequest, "body is required")
		return
	}

	comment, err := h.issues.AddComment(r.Context(), number, in.Body)
	if err != nil {
		h.respondUpstreamError(w, err, "Failed to add comment")
		return
	}
	respondWithJSON(w, http.StatusCreated, comment)
}

// webhookPayload holds the fields mined from an accepted delivery body.
// Everything is optional; absent fields leave zero values in the record.
type webhookPayload struct {
	Action string `json:"action"`
	Issue  *struct {
		Number int `json:"number"`
	} `json:"issue"`
	Repository *struct {
		UpdatedAt string `json:"updated_at"`
	} `json:"repository"`
}

// handleWebhook handles POST /webhook. Order matters: the signature is
// verified before the event type is examined, so unverified callers
// learn nothing about the supported surface. Duplicate deliveries are
// acknowledged with 204 but not re-recorded, because upstream redelivers
// on timeout and redelivery must not be treated as failure.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	if !webhook.VerifySignature(h.secret, signature, body) {
		h.logger.Warn("Webhook signature verification failed", "delivery_id", r.Header.Get("X-Github-Delivery"))
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	eventType := r.Header.Get("X-Github-Event")
	if !supportedEvents[eventType] {
		h.logger.Warn("Rejected unsupported webhook event", "event", eventType)
		respondWithError(w, http.StatusBadRequest, "Unsupported event")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	record := events.Event{
		ID:     r.Header.Get("X-Github-Delivery"),
		Event:  eventType,
		Action: payload.Action,
	}
	if payload.Issue != nil {
		record.IssueNumber = payload.Issue.Number
	}
	if payload.Repository != nil {
		record.Timestamp = payload.Repository.UpdatedAt
	}

	if h.store.RecordIfNew(record) {
		h.logger.Info("Stored webhook event",
			"delivery_id", record.ID,
			"event", record.Event,
			"action", record.Action,
			"issue_number", record.IssueNumber,
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

// listEvents handles GET /events?limit=N. Unparseable or missing limits
// fall back to the default; the store clamps out-of-range values.
func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	respondWithJSON(w, http.StatusOK, h.store.Recent(limit))
}

// issueNumber parses the {number} URL parameter, responding 400 on a
// non-numeric value.
func (h *Handler) issueNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid issue number")
		return 0, false
	}
	return number, true
}

// respondUpstreamError maps a translated upstream error for the
// endpoints that special-case 404 and pass every other upstream status
// through verbatim.
func (h *Handler) respondUpstreamError(w http.ResponseWriter, err error, logMsg string) {
	if apperrors.IsNotFound(err) {
		respondWithError(w, http.StatusNotFound, "Issue not found")
		return
	}
	var ue *apperrors.UpstreamError
	if errors.As(err, &ue) {
		respondWithError(w, ue.StatusCode, ue.Detail)
		return
	}
	h.upstreamFailure(w, logMsg, err)
}

// upstreamFailure handles errors with no upstream status at all, such
// as transport failures or timeouts.
func (h *Handler) upstreamFailure(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	respondWithError(w, http.StatusBadGateway, "Upstream request failed")
}

// intParam parses a positive integer query parameter, falling back to
// def when absent or invalid.
func intParam(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
