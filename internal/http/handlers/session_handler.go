// Session and notification HTTP handlers.
//
// This file exposes REST endpoints for live sessions and their unlock
// notifications:
//   - POST   /sessions                               (sign-in: start polling)
//   - DELETE /sessions/{id}                          (sign-out: stop polling)
//   - GET    /sessions/{id}/notifications            (pending unlock toasts)
//   - DELETE /sessions/{id}/notifications/{nid}      (dismiss one toast)
//
// Notifications are ephemeral: each expires a few seconds after creation, so
// GET returns only what a client should still be showing right now.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/menucraft/go-badge-backend/internal/notify"
	"github.com/menucraft/go-badge-backend/internal/session"
)

// Sessions defines the live-session lifecycle consumed by the session and
// notification endpoints. *session.Manager is the production implementation.
type Sessions interface {
	// Start opens a session for userID and begins periodic evaluation.
	Start(userID string) (*session.Session, error)
	// Get returns a live session or session.ErrSessionNotFound.
	Get(id string) (*session.Session, error)
	// End tears a session down, cancelling its poller.
	End(id string) error
}

//
// DTOs
//

// StartSessionRequest is the JSON payload for opening a session.
type StartSessionRequest struct {
	// UserID identifies whose badges the session polls; falls back to the
	// X-User-ID header when empty.
	UserID string `json:"user_id" example:"user123"`
}

// SessionResponse is the public shape of a live session.
type SessionResponse struct {
	ID        string `json:"id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	UserID    string `json:"user_id" example:"user123"`
	StartedAt string `json:"started_at" example:"2025-06-01T12:00:00Z"`
}

// ListNotificationsResponse wraps the session's live notifications.
type ListNotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
	Total         int                   `json:"total"`
}

//
// Handlers
//

// StartSession godoc
// @ID          startSession
// @Summary     Start a session
// @Description Opens a live session for the user and starts periodic badge evaluation. The first evaluation runs immediately.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.StartSessionRequest  false  "Session payload"
//
// @Success     201  {object}  handlers.SessionResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions [post]
func (h *Handlers) StartSession(c *gin.Context) {
	var req StartSessionRequest
	// Body is optional; ignore bind errors for an empty body.
	_ = c.ShouldBindJSON(&req)

	uid := strings.TrimSpace(req.UserID)
	if uid == "" {
		uid = userID(c)
	}

	s, err := h.sessions.Start(uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSessionFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, SessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		StartedAt: s.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// EndSession godoc
// @ID          endSession
// @Summary     End a session
// @Description Stops the session's poller and drops its pending notifications.
// @Tags        Sessions
// @Produce     json
//
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id} [delete]
func (h *Handlers) EndSession(c *gin.Context) {
	if err := h.sessions.End(c.Param("id")); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}
	noContent(c)
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List pending unlock notifications
// @Description Returns the session's live notifications, newest first. Expired notifications are never returned.
// @Tags        Sessions
// @Produce     json
//
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	events := s.Relay.Events()
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: events, Total: len(events)})
}

// DismissNotification godoc
// @ID          dismissNotification
// @Summary     Dismiss a notification
// @Description Removes one notification from the session. Dismissing an unknown or already-expired notification is a no-op.
// @Tags        Sessions
// @Produce     json
//
// @Param       id   path  string  true  "Session ID (UUID)"  format(uuid)
// @Param       nid  path  string  true  "Notification ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/notifications/{nid} [delete]
func (h *Handlers) DismissNotification(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}
	s.Relay.Remove(c.Param("nid"))
	noContent(c)
}
