package users

import "time"

type MeResponse struct {
	User    UserDTO    `json:"user"`
	Catalog CatalogDTO `json:"catalog"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID           uint       `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Lastname     string     `json:"lastname"`
	Role         string     `json:"role"`
	AuthProvider string     `json:"authProvider"`
	HasPassword  bool       `json:"hasPassword"`
	GoogleLinked bool       `json:"googleLinked"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

/* ---------- CATALOG ---------- */

type CatalogDTO struct {
	TotalArtworks int64 `json:"totalArtworks"`
	Analyzed      int64 `json:"analyzed"`
	Analyzing     int64 `json:"analyzing"`
	Failed        int64 `json:"failed"`
	Listed        int64 `json:"listed"`
	Public        int64 `json:"public"`
	TotalValue    int64 `json:"totalValue"` // cents, analyzed artworks only
}

/* ---------- REQUESTS ---------- */

type UpdateMeRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Lastname *string `json:"lastname" binding:"omitempty,max=100"`
}
