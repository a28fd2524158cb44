package routes

import (
	"net/http"

	adminapi "artwork-catalog/internal/api/admin"
	artworksapi "artwork-catalog/internal/api/artworks"
	authapi "artwork-catalog/internal/api/auth"
	marketplaceapi "artwork-catalog/internal/api/marketplace"
	usersapi "artwork-catalog/internal/api/users"
	"artwork-catalog/internal/app/http/middleware"
	"artwork-catalog/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth        *authapi.Handler
	Users       *usersapi.Handler
	Artworks    *artworksapi.Handler
	Marketplace *marketplaceapi.Handler
	Admin       *adminapi.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// upload payloads are base64 and never rendered as HTML
	sanitize := middleware.SanitizeAndCleanInputMiddleware("image")

	public := r.Group("/")
	public.Use(sanitize)
	public.POST("/auth/register", h.Auth.Register)
	public.POST("/auth/login", h.Auth.Login)
	public.GET("/auth/google", h.Auth.GoogleStart)
	public.GET("/auth/google/callback", h.Auth.GoogleCallback)

	public.GET("/gallery", h.Artworks.GalleryList)
	public.GET("/gallery/:id", h.Artworks.GalleryGet)
	public.GET("/gallery/:id/image", h.Artworks.GalleryImage)
	public.GET("/gallery/:id/thumbnail", h.Artworks.GalleryThumbnail)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(jwtSecret), sanitize)
	auth.GET("/me", h.Users.GetCurrentUser)
	auth.PATCH("/me", h.Users.UpdateCurrentUser)
	auth.POST("/auth/change-password", h.Auth.ChangePassword)

	auth.POST("/artworks/upload", h.Artworks.Upload)
	auth.GET("/artworks", h.Artworks.List)
	auth.GET("/artworks/recent", h.Artworks.Recent)
	auth.GET("/artworks/search", h.Artworks.Search)
	auth.GET("/artworks/:id", h.Artworks.Get)
	auth.PATCH("/artworks/:id", h.Artworks.Update)
	auth.DELETE("/artworks/:id", h.Artworks.Delete)
	auth.POST("/artworks/:id/analyze", h.Artworks.Analyze)
	auth.POST("/artworks/:id/description", h.Artworks.GenerateDescription)
	auth.POST("/artworks/:id/price", h.Artworks.SuggestPrice)
	auth.GET("/artworks/:id/image", h.Artworks.Image)
	auth.GET("/artworks/:id/thumbnail", h.Artworks.Thumbnail)

	auth.GET("/marketplace/listings", h.Marketplace.List)
	auth.POST("/marketplace/listings", h.Marketplace.Create)
	auth.DELETE("/marketplace/listings/:id", h.Marketplace.Delete)

	// Admin
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole(users.RoleAdmin))
	admin.GET("/stats", h.Admin.GetAdminStats)
	admin.GET("/users", h.Admin.ListAllUsers)
}
