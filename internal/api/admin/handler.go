// Package admin serves platform-wide analytics to administrators.
package admin

import (
	"net/http"
	"time"

	"artwork-catalog/internal/infra/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActiveWindow is how recent a login must be for a user to count as active.
const ActiveWindow = 30 * 24 * time.Hour

type AdminUser struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Lastname     string     `json:"lastname"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	AuthProvider string     `json:"authProvider"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    string     `json:"createdAt"`
}

type Handler struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewHandler(s store.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: s, log: log, now: time.Now}
}

// GET /admin/stats
func (h *Handler) GetAdminStats(c *gin.Context) {
	now := h.now()
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	stats, err := h.store.Stats(c.Request.Context(), dayStart, now.Add(-ActiveWindow))
	if err != nil {
		h.log.Error("admin stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}
	if stats.UserAnalytics == nil {
		stats.UserAnalytics = []store.UserAnalytics{}
	}
	c.JSON(http.StatusOK, stats)
}

// GET /admin/users
func (h *Handler) ListAllUsers(c *gin.Context) {
	list, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("admin users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	out := make([]AdminUser, 0, len(list))
	for _, u := range list {
		out = append(out, AdminUser{
			ID:           u.ID,
			Name:         u.Name,
			Lastname:     u.Lastname,
			Email:        u.Email,
			Role:         u.Role,
			AuthProvider: u.AuthProvider,
			LastLoginAt:  u.LastLoginAt,
			CreatedAt:    u.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	c.JSON(http.StatusOK, out)
}
