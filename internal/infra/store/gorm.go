package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/domain/marketplace"
	"artwork-catalog/internal/domain/users"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists to Postgres through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func artworksQuery(db *gorm.DB, owner *uint) *gorm.DB {
	q := db.Model(&artworks.Artwork{})
	if owner != nil {
		q = q.Where("user_id = ?", *owner)
	}
	return q
}

func (s *GormStore) CreatePlaceholder(ctx context.Context, ownerID uint, imageRef, thumbRef string) (*artworks.Artwork, error) {
	a := placeholder(ownerID, imageRef, thumbRef)
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (s *GormStore) BeginAnalysis(ctx context.Context, id string, owner *uint, title string, staleBefore time.Time) (*artworks.Artwork, error) {
	a, err := s.updateReturningWhere(ctx, id, owner, map[string]any{
		"title":                title,
		"description":          "",
		"analysis_status":      artworks.StatusAnalyzing,
		"ai_analysis_complete": false,
		"analysis_error":       nil,
	}, func(q *gorm.DB) *gorm.DB {
		return q.Where("(analysis_status <> ? OR updated_at < ?)", artworks.StatusAnalyzing, staleBefore)
	})
	if !errors.Is(err, ErrNotFound) {
		return a, err
	}
	// No row matched: either the record is gone or another analysis holds it.
	if _, gerr := s.Get(ctx, id, owner); gerr != nil {
		return nil, gerr
	}
	return nil, ErrAnalysisInProgress
}

func (s *GormStore) ApplyAnalysisResult(ctx context.Context, id string, owner *uint, u AnalysisUpdate) (*artworks.Artwork, error) {
	return s.updateReturning(ctx, id, owner, map[string]any{
		"title":                u.Title,
		"artist":               u.Artist,
		"medium":               u.Medium,
		"year":                 u.Year,
		"condition":            u.Condition,
		"description":          u.Description,
		"tags":                 pq.StringArray(nonNil(u.Tags)),
		"suggested_price":      u.SuggestedPrice,
		"analysis_data":        datatypes.JSON(u.Payload),
		"ai_analysis_complete": true,
		"analysis_status":      artworks.StatusComplete,
		"analysis_error":       nil,
	})
}

func (s *GormStore) ApplyAnalysisFailure(ctx context.Context, id string, owner *uint, f AnalysisFailure) error {
	_, err := s.updateReturning(ctx, id, owner, map[string]any{
		"title":                f.Title,
		"description":          f.Description,
		"ai_analysis_complete": false,
		"analysis_status":      artworks.StatusFailed,
		"analysis_error":       f.Kind,
	})
	return err
}

// updateReturning applies cols in one UPDATE ... RETURNING statement.
func (s *GormStore) updateReturning(ctx context.Context, id string, owner *uint, cols map[string]any) (*artworks.Artwork, error) {
	return s.updateReturningWhere(ctx, id, owner, cols, nil)
}

func (s *GormStore) updateReturningWhere(ctx context.Context, id string, owner *uint, cols map[string]any, cond func(*gorm.DB) *gorm.DB) (*artworks.Artwork, error) {
	var out []artworks.Artwork
	q := s.db.WithContext(ctx).Model(&out).Clauses(clause.Returning{}).Where("id = ?", id)
	if owner != nil {
		q = q.Where("user_id = ?", *owner)
	}
	if cond != nil {
		q = cond(q)
	}
	res := q.Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *GormStore) Get(ctx context.Context, id string, owner *uint) (*artworks.Artwork, error) {
	var a artworks.Artwork
	err := artworksQuery(s.db.WithContext(ctx), owner).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *GormStore) List(ctx context.Context, f ListFilter) ([]artworks.Artwork, error) {
	q := artworksQuery(s.db.WithContext(ctx), f.OwnerID)
	if f.Status != "" {
		q = q.Where("analysis_status = ?", f.Status)
	}
	if f.Visibility != "" {
		q = q.Where("visibility = ?", f.Visibility)
	}
	if f.AnalyzedOnly {
		q = q.Where("ai_analysis_complete = ?", true)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := []artworks.Artwork{}
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) Recent(ctx context.Context, owner *uint, limit int) ([]artworks.Artwork, error) {
	out := []artworks.Artwork{}
	err := artworksQuery(s.db.WithContext(ctx), owner).
		Order("created_at DESC, id DESC").
		Limit(clampRecent(limit)).
		Find(&out).Error
	return out, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *GormStore) Search(ctx context.Context, query string, owner *uint) ([]artworks.Artwork, error) {
	out := []artworks.Artwork{}
	q := strings.TrimSpace(query)
	if q == "" {
		return out, nil
	}
	pattern := "%" + likeEscaper.Replace(q) + "%"
	err := artworksQuery(s.db.WithContext(ctx), owner).
		Where(`title ILIKE @p OR artist ILIKE @p OR medium ILIKE @p OR description ILIKE @p
			OR array_to_string(tags, ' ') ILIKE @p`, map[string]any{"p": pattern}).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (s *GormStore) Update(ctx context.Context, id string, owner *uint, p ArtworkPatch) (*artworks.Artwork, error) {
	cols := p.columns()
	if len(cols) == 0 {
		return s.Get(ctx, id, owner)
	}
	return s.updateReturning(ctx, id, owner, cols)
}

func (s *GormStore) SetMarketplace(ctx context.Context, id string, owner *uint, m MarketplaceState) error {
	_, err := s.updateReturning(ctx, id, owner, map[string]any{
		"marketplace_listed": m.Listed,
		"listing_platform":   m.Platform,
		"listing_status":     m.Status,
	})
	return err
}

func (s *GormStore) Delete(ctx context.Context, id string, owner *uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ?", id)
		if owner != nil {
			q = q.Where("user_id = ?", *owner)
		}
		res := q.Delete(&artworks.Artwork{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("artwork_id = ?", id).Delete(&marketplace.Listing{}).Error
	})
}

// ---------- users ----------

func (s *GormStore) CreateUser(ctx context.Context, u *users.User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) UserByID(ctx context.Context, id uint) (*users.User, error) {
	return s.firstUser(ctx, "id = ?", id)
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.firstUser(ctx, "LOWER(email) = LOWER(?)", email)
}

func (s *GormStore) UserByGoogleSub(ctx context.Context, sub string) (*users.User, error) {
	return s.firstUser(ctx, "google_sub = ?", sub)
}

func (s *GormStore) firstUser(ctx context.Context, where string, arg any) (*users.User, error) {
	var u users.User
	err := s.db.WithContext(ctx).Where(where, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) SaveUser(ctx context.Context, u *users.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *GormStore) ListUsers(ctx context.Context) ([]users.User, error) {
	out := []users.User{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ---------- listings ----------

func (s *GormStore) CreateListing(ctx context.Context, l *marketplace.Listing) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *GormStore) ListListings(ctx context.Context, ownerID uint) ([]marketplace.Listing, error) {
	out := []marketplace.Listing{}
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *GormStore) ListingsForArtwork(ctx context.Context, artworkID string) ([]marketplace.Listing, error) {
	out := []marketplace.Listing{}
	err := s.db.WithContext(ctx).Where("artwork_id = ?", artworkID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *GormStore) GetListing(ctx context.Context, id string, ownerID uint) (*marketplace.Listing, error) {
	var l marketplace.Listing
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *GormStore) DeleteListing(ctx context.Context, id string, ownerID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&marketplace.Listing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- reports ----------

func (s *GormStore) Stats(ctx context.Context, dayStart, activeSince time.Time) (*Stats, error) {
	db := s.db.WithContext(ctx)
	st := &Stats{UserAnalytics: []UserAnalytics{}}

	err := db.Model(&users.User{}).
		Select(`COUNT(*) AS total_users,
			COUNT(*) FILTER (WHERE last_login_at >= ?) AS active_users,
			COUNT(*) FILTER (WHERE created_at >= ?) AS new_users_today`, activeSince, dayStart).
		Scan(&st.UserStats).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&artworks.Artwork{}).
		Select(`COUNT(*) AS total_artworks,
			COUNT(*) FILTER (WHERE created_at >= ?) AS artworks_today,
			COALESCE(ROUND(AVG(suggested_price) FILTER (WHERE ai_analysis_complete)), 0) AS avg_price`, dayStart).
		Scan(&st.ArtworkStats).Error
	if err != nil {
		return nil, err
	}

	err = db.Table("users").
		Select(`users.id AS user_id,
			TRIM(users.name || ' ' || users.lastname) AS user_name,
			users.email AS email,
			COUNT(artworks.id) AS artwork_count,
			COALESCE(SUM(artworks.suggested_price), 0) AS total_value`).
		Joins("LEFT JOIN artworks ON artworks.user_id = users.id").
		Group("users.id").
		Order("total_value DESC, users.id ASC").
		Scan(&st.UserAnalytics).Error
	if err != nil {
		return nil, err
	}
	return st, nil
}

var _ Store = (*GormStore)(nil)
