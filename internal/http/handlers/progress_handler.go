// Progress HTTP handlers.
//
// This file exposes REST endpoints for user progress counters:
//   - GET  /users/{id}/progress   (current counters)
//   - POST /users/{id}/progress   (additive delta merge)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// request with the same (user, key) tuple is found, the handler does NOT
// re-apply the delta; it returns the current progress and sets
// `Idempotency-Replayed: true`. Counters are additive, so replay protection is
// what keeps a retried POST from double-counting.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/menucraft/go-badge-backend/internal/domain"
	"github.com/menucraft/go-badge-backend/internal/http/middleware"
	"github.com/menucraft/go-badge-backend/internal/repo"
	"github.com/menucraft/go-badge-backend/internal/services"
)

// idemTTL bounds how long a stored idempotency record can be replayed.
const idemTTL = 24 * time.Hour

// ApplyProgressRequest is the JSON payload for merging a progress delta.
//
// Counter fields are additive and must be non-negative. ProfileComplete and
// StreakDays overwrite the stored value and are only applied when present.
type ApplyProgressRequest struct {
	// ArticlesCount is added to the stored article counter.
	ArticlesCount int `json:"articles_count" example:"1"`
	// CommentsCount is added to the stored comment counter.
	CommentsCount int `json:"comments_count" example:"0"`
	// ReactionsGiven is added to the stored reaction counter.
	ReactionsGiven int `json:"reactions_given" example:"0"`
	// BookmarksCount is added to the stored bookmark counter.
	BookmarksCount int `json:"bookmarks_count" example:"0"`
	// ProfileComplete overwrites the stored flag when present.
	ProfileComplete *bool `json:"profile_complete,omitempty"`
	// StreakDays overwrites the stored streak when present (>= 0).
	StreakDays *int `json:"streak_days,omitempty"`
}

// GetProgress godoc
// @ID          getProgress
// @Summary     Get a user's progress
// @Description Returns the user's activity counters. Users never seen before resolve to all-zero counters.
// @Tags        Progress
// @Produce     json
//
// @Param       id  path  string  true  "User ID"  example(user123)
//
// @Success     200  {object}  domain.Progress
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /users/{id}/progress [get]
func (h *Handlers) GetProgress(c *gin.Context) {
	p, err := h.progSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// ApplyProgress godoc
// @ID          applyProgress
// @Summary     Merge a progress delta
// @Description Adds the delta to the user's counters and returns the merged result. Supports idempotency via the Idempotency-Key header (a replayed key returns current progress without re-adding).
// @Tags        Progress
// @Accept      json
// @Produce     json
//
// @Param       id               path    string  true  "User ID"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ApplyProgressRequest  true  "Progress delta"
//
// @Success     200  {object}  domain.Progress
// @Header      200  {string}  Idempotency-Replayed  "true when the delta was not re-applied"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /users/{id}/progress [post]
func (h *Handlers) ApplyProgress(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	var req ApplyProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		replay := middleware.IsReplay(c)
		if !replay {
			if db := h.progressDB(); db != nil {
				if rec, err := repo.GetIdempotency(ctx, db, uid, idemKey, time.Now().UTC()); err == nil && rec != nil {
					replay = true
				}
			}
		}
		if replay {
			p, err := h.progSvc.Get(ctx, uid)
			if err != nil {
				fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, err.Error())
				return
			}
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, p)
			return
		}
	}

	d := domain.ProgressDelta{
		ArticlesCount:   req.ArticlesCount,
		CommentsCount:   req.CommentsCount,
		ReactionsGiven:  req.ReactionsGiven,
		BookmarksCount:  req.BookmarksCount,
		ProfileComplete: req.ProfileComplete,
		StreakDays:      req.StreakDays,
	}

	p, err := h.progSvc.Apply(ctx, uid, d)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDelta):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "counters cannot decrease")
		case errors.Is(err, services.ErrStoreUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeApplyFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.progressDB(); db != nil {
			_, _ = repo.CreateIdempotency(ctx, db, uid, idemKey, http.StatusOK, idemTTL)
		}
	}

	ok(c, http.StatusOK, p)
}

// progressDB exposes the underlying gorm handle when the progress service is
// the concrete implementation; mocks in tests return nil and skip the
// idempotency store.
func (h *Handlers) progressDB() *gorm.DB {
	if svc, okType := h.progSvc.(*services.ProgressService); okType {
		return svc.DB
	}
	return nil
}
