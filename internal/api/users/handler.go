// Package users serves the signed-in user's profile.
package users

import (
	"errors"
	"net/http"

	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/domain/users"
	"artwork-catalog/internal/infra/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	users    store.Users
	artworks store.Artworks
	log      *zap.Logger
}

func NewHandler(u store.Users, a store.Artworks, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{users: u, artworks: a, log: log}
}

func (h *Handler) currentUser(c *gin.Context) (*users.User, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	user, err := h.users.UserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return nil, false
		}
		h.log.Error("load user failed", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return nil, false
	}
	return user, true
}

// GET /me
func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	list, err := h.artworks.List(c.Request.Context(), store.ListFilter{OwnerID: &user.ID})
	if err != nil {
		h.log.Error("load catalog failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load artworks"})
		return
	}
	c.JSON(http.StatusOK, MeResponse{User: toUserDTO(user), Catalog: summarize(list)})
}

// PATCH /me
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Lastname != nil {
		user.Lastname = *req.Lastname
	}
	if err := h.users.SaveUser(c.Request.Context(), user); err != nil {
		h.log.Error("save user failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, toUserDTO(user))
}

func toUserDTO(u *users.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Lastname:     u.Lastname,
		Role:         u.Role,
		AuthProvider: u.AuthProvider,
		HasPassword:  u.Password != nil && *u.Password != "",
		GoogleLinked: u.GoogleSub != nil,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

func summarize(list []artworks.Artwork) CatalogDTO {
	var out CatalogDTO
	for _, a := range list {
		out.TotalArtworks++
		switch a.AnalysisStatus {
		case artworks.StatusComplete:
			out.Analyzed++
		case artworks.StatusAnalyzing, artworks.StatusPending:
			out.Analyzing++
		case artworks.StatusFailed:
			out.Failed++
		}
		if a.MarketplaceListed {
			out.Listed++
		}
		if a.Visibility == artworks.VisibilityPublic {
			out.Public++
		}
		if a.AnalysisComplete {
			out.TotalValue += a.SuggestedPrice
		}
	}
	return out
}
