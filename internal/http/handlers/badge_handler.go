// Badge HTTP handlers.
//
// This file exposes REST endpoints for the badge catalog and per-user unlocks:
//   - GET  /badges                      (catalog listing)
//   - GET  /badges/{id}                 (single catalog badge)
//   - GET  /users/{id}/badges           (unlocked badges, paginated)
//   - GET  /users/{id}/badges/summary   (unlock counts + points)
//   - POST /users/{id}/badges/check     (on-demand evaluation)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/menucraft/go-badge-backend/internal/domain"
	"github.com/menucraft/go-badge-backend/internal/services"
	"github.com/menucraft/go-badge-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// BadgeService defines catalog and evaluation operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type BadgeService interface {
	// ListBadges returns the full catalog in registration order.
	ListBadges() []domain.Badge
	// GetBadge returns one catalog badge by id.
	GetBadge(id string) (domain.Badge, error)
	// CheckBadges evaluates and records newly satisfied badges for a user.
	CheckBadges(ctx context.Context, userID string) ([]domain.UnlockedBadge, error)
	// ListUserBadges returns a page of the user's unlocks plus the total count.
	ListUserBadges(ctx context.Context, userID string, page, pageSize int) ([]domain.UnlockedBadge, int64, error)
	// Summary aggregates the user's unlock count and earned points.
	Summary(ctx context.Context, userID string) (services.UserBadgeSummary, error)
}

// ProgressService defines progress read/write operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ProgressService interface {
	// Get returns the user's counters; never-seen users resolve to zero values.
	Get(ctx context.Context, userID string) (domain.Progress, error)
	// Apply merges a delta into the user's counters and returns the result.
	Apply(ctx context.Context, userID string, d domain.ProgressDelta) (domain.Progress, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for badges, progress, sessions, and
// notifications. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	badgeSvc BadgeService
	progSvc  ProgressService
	sessions Sessions
}

// New constructs and returns a Handlers instance bound to the given services.
func New(badgeSvc BadgeService, progSvc ProgressService, sessions Sessions) *Handlers {
	return &Handlers{badgeSvc: badgeSvc, progSvc: progSvc, sessions: sessions}
}

// userID extracts the target user id. User-scoped routes carry it as the :id
// path parameter; otherwise it falls back to context (set by upstream
// middleware), then the "X-User-ID" header (tests use it), and finally to
// "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if p := strings.TrimSpace(c.Param("id")); p != "" {
		return p
	}
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListBadgesResponse wraps the catalog listing.
type ListBadgesResponse struct {
	Badges []domain.Badge `json:"badges"`
	Total  int            `json:"total"`
}

// ListUserBadgesResponse wraps a page of unlocked badges and pagination
// information.
type ListUserBadgesResponse struct {
	Badges     []domain.UnlockedBadge `json:"badges"`
	Pagination Pagination             `json:"pagination"`
}

// CheckBadgesResponse carries the badges newly unlocked by one evaluation.
type CheckBadgesResponse struct {
	Unlocked []domain.UnlockedBadge `json:"unlocked"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// ListBadges godoc
// @ID          listBadges
// @Summary     List the badge catalog
// @Description Returns every badge definition, in catalog order.
// @Tags        Badges
// @Produce     json
//
// @Success     200  {object}  handlers.ListBadgesResponse
// @Router      /badges [get]
func (h *Handlers) ListBadges(c *gin.Context) {
	badges := h.badgeSvc.ListBadges()
	ok(c, http.StatusOK, ListBadgesResponse{Badges: badges, Total: len(badges)})
}

// GetBadge godoc
// @ID          getBadge
// @Summary     Get a catalog badge
// @Description Returns a single badge definition by id.
// @Tags        Badges
// @Produce     json
//
// @Param       id  path  string  true  "Badge ID"  example(first-article)
//
// @Success     200  {object}  domain.Badge
// @Failure     404  {object}  handlers.ErrorResponse  "Badge not found"
// @Router      /badges/{id} [get]
func (h *Handlers) GetBadge(c *gin.Context) {
	b, err := h.badgeSvc.GetBadge(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "badge not found")
		return
	}
	ok(c, http.StatusOK, b)
}

// ListUserBadges godoc
// @ID          listUserBadges
// @Summary     List a user's unlocked badges (paginated)
// @Description Returns a page of the user's unlocked badges, oldest unlock first.
// @Tags        Badges
// @Produce     json
//
// @Param       id         path   string  true  "User ID"  example(user123)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUserBadgesResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /users/{id}/badges [get]
func (h *Handlers) ListUserBadges(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.badgeSvc.ListUserBadges(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrStoreUnavailable) {
			fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListUserBadgesResponse{
		Badges: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// GetUserBadgeSummary godoc
// @ID          getUserBadgeSummary
// @Summary     Summarize a user's badges
// @Description Returns the user's unlock count against the catalog size and total points earned.
// @Tags        Badges
// @Produce     json
//
// @Param       id  path  string  true  "User ID"  example(user123)
//
// @Success     200  {object}  services.UserBadgeSummary
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /users/{id}/badges/summary [get]
func (h *Handlers) GetUserBadgeSummary(c *gin.Context) {
	sum, err := h.badgeSvc.Summary(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrStoreUnavailable) {
			fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}

// CheckBadges godoc
// @ID          checkBadges
// @Summary     Evaluate badges now
// @Description Runs one evaluation cycle for the user and returns the badges this call newly unlocked. Safe to retry: already-recorded badges are never returned twice.
// @Tags        Badges
// @Accept      json
// @Produce     json
//
// @Param       id  path  string  true  "User ID"  example(user123)
//
// @Success     200  {object}  handlers.CheckBadgesResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /users/{id}/badges/check [post]
func (h *Handlers) CheckBadges(c *gin.Context) {
	newly, err := h.badgeSvc.CheckBadges(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrStoreUnavailable) {
			fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCheckFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, CheckBadgesResponse{Unlocked: newly})
}
