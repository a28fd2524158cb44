package store

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/domain/marketplace"
	"artwork-catalog/internal/domain/users"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. Records are copied on the way in
// and on the way out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	artworks map[string]*artworks.Artwork
	users    map[uint]*users.User
	listings map[string]*marketplace.Listing
	nextUser uint
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		artworks: map[string]*artworks.Artwork{},
		users:    map[uint]*users.User{},
		listings: map[string]*marketplace.Listing{},
		now:      time.Now,
	}
}

// ---------- artworks ----------

func (m *MemoryStore) CreatePlaceholder(_ context.Context, ownerID uint, imageRef, thumbRef string) (*artworks.Artwork, error) {
	a := placeholder(ownerID, imageRef, thumbRef)
	a.ID = uuid.NewString()
	now := m.now()
	a.CreatedAt, a.UpdatedAt = now, now

	m.mu.Lock()
	m.artworks[a.ID] = a
	m.mu.Unlock()
	return a.Clone(), nil
}

func (m *MemoryStore) BeginAnalysis(_ context.Context, id string, owner *uint, title string, staleBefore time.Time) (*artworks.Artwork, error) {
	return m.mutateIf(id, owner, func(a *artworks.Artwork) error {
		if a.AnalysisStatus == artworks.StatusAnalyzing && !a.UpdatedAt.Before(staleBefore) {
			return ErrAnalysisInProgress
		}
		return nil
	}, func(a *artworks.Artwork) {
		a.Title = title
		a.Description = ""
		a.AnalysisStatus = artworks.StatusAnalyzing
		a.AnalysisComplete = false
		a.AnalysisError = nil
	})
}

func (m *MemoryStore) ApplyAnalysisResult(_ context.Context, id string, owner *uint, u AnalysisUpdate) (*artworks.Artwork, error) {
	return m.mutate(id, owner, func(a *artworks.Artwork) {
		a.Title = u.Title
		a.Artist = u.Artist
		a.Medium = u.Medium
		a.Year = u.Year
		a.Condition = u.Condition
		a.Description = u.Description
		a.Tags = nonNil(slices.Clone(u.Tags))
		a.SuggestedPrice = u.SuggestedPrice
		a.AnalysisData = slices.Clone(u.Payload)
		a.AnalysisComplete = true
		a.AnalysisStatus = artworks.StatusComplete
		a.AnalysisError = nil
	})
}

func (m *MemoryStore) ApplyAnalysisFailure(_ context.Context, id string, owner *uint, f AnalysisFailure) error {
	_, err := m.mutate(id, owner, func(a *artworks.Artwork) {
		a.Title = f.Title
		a.Description = f.Description
		a.AnalysisComplete = false
		a.AnalysisStatus = artworks.StatusFailed
		kind := f.Kind
		a.AnalysisError = &kind
	})
	return err
}

func (m *MemoryStore) Get(_ context.Context, id string, owner *uint) (*artworks.Artwork, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, err := m.lookup(id, owner)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context, f ListFilter) ([]artworks.Artwork, error) {
	out := m.collect(func(a *artworks.Artwork) bool {
		if f.OwnerID != nil && !a.OwnedBy(*f.OwnerID) {
			return false
		}
		if f.Status != "" && a.AnalysisStatus != f.Status {
			return false
		}
		if f.Visibility != "" && a.Visibility != f.Visibility {
			return false
		}
		if f.AnalyzedOnly && !a.AnalysisComplete {
			return false
		}
		return true
	})
	return page(out, f.Offset, f.Limit), nil
}

func (m *MemoryStore) Recent(_ context.Context, owner *uint, limit int) ([]artworks.Artwork, error) {
	out := m.collect(func(a *artworks.Artwork) bool {
		return owner == nil || a.OwnedBy(*owner)
	})
	return page(out, 0, clampRecent(limit)), nil
}

func (m *MemoryStore) Search(_ context.Context, query string, owner *uint) ([]artworks.Artwork, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return m.collect(func(a *artworks.Artwork) bool {
		if owner != nil && !a.OwnedBy(*owner) {
			return false
		}
		return matches(a, q)
	}), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, owner *uint, p ArtworkPatch) (*artworks.Artwork, error) {
	return m.mutate(id, owner, func(a *artworks.Artwork) {
		p.apply(a)
		a.Tags = slices.Clone(a.Tags)
		a.AdditionalImages = slices.Clone(a.AdditionalImages)
	})
}

func (m *MemoryStore) SetMarketplace(_ context.Context, id string, owner *uint, s MarketplaceState) error {
	_, err := m.mutate(id, owner, func(a *artworks.Artwork) {
		a.MarketplaceListed = s.Listed
		a.ListingPlatform = s.Platform
		a.ListingStatus = s.Status
	})
	return err
}

func (m *MemoryStore) Delete(_ context.Context, id string, owner *uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.lookup(id, owner); err != nil {
		return err
	}
	delete(m.artworks, id)
	for lid, l := range m.listings {
		if l.ArtworkID == id {
			delete(m.listings, lid)
		}
	}
	return nil
}

func (m *MemoryStore) lookup(id string, owner *uint) (*artworks.Artwork, error) {
	a, ok := m.artworks[id]
	if !ok || (owner != nil && !a.OwnedBy(*owner)) {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) mutate(id string, owner *uint, fn func(*artworks.Artwork)) (*artworks.Artwork, error) {
	return m.mutateIf(id, owner, nil, fn)
}

// mutateIf applies fn only when check passes, both under the write lock.
func (m *MemoryStore) mutateIf(id string, owner *uint, check func(*artworks.Artwork) error, fn func(*artworks.Artwork)) (*artworks.Artwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.lookup(id, owner)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(a); err != nil {
			return nil, err
		}
	}
	fn(a)
	a.UpdatedAt = m.now()
	return a.Clone(), nil
}

// collect returns copies of matching artworks, newest first.
func (m *MemoryStore) collect(keep func(*artworks.Artwork) bool) []artworks.Artwork {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]artworks.Artwork, 0, len(m.artworks))
	for _, a := range m.artworks {
		if keep(a) {
			out = append(out, *a.Clone())
		}
	}
	slices.SortFunc(out, func(x, y artworks.Artwork) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(y.ID, x.ID)
	})
	return out
}

func matches(a *artworks.Artwork, q string) bool {
	if q == "" {
		return false
	}
	fields := []string{a.Title, a.Medium, a.Description}
	if a.Artist != nil {
		fields = append(fields, *a.Artist)
	}
	fields = append(fields, a.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func page(in []artworks.Artwork, offset, limit int) []artworks.Artwork {
	if offset > len(in) {
		return []artworks.Artwork{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

// ---------- users ----------

func (m *MemoryStore) CreateUser(_ context.Context, u *users.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
		if u.GoogleSub != nil && existing.GoogleSub != nil && *existing.GoogleSub == *u.GoogleSub {
			return ErrDuplicate
		}
	}
	m.nextUser++
	u.ID = m.nextUser
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = users.RoleUser
	}
	if u.AuthProvider == "" {
		u.AuthProvider = users.ProviderLocal
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) UserByID(_ context.Context, id uint) (*users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) UserByEmail(_ context.Context, email string) (*users.User, error) {
	return m.findUser(func(u *users.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *MemoryStore) UserByGoogleSub(_ context.Context, sub string) (*users.User, error) {
	return m.findUser(func(u *users.User) bool { return u.GoogleSub != nil && *u.GoogleSub == sub })
}

func (m *MemoryStore) findUser(match func(*users.User) bool) (*users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SaveUser(_ context.Context, u *users.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = m.now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]users.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b users.User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

// ---------- listings ----------

func (m *MemoryStore) CreateListing(_ context.Context, l *marketplace.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := m.now()
	l.CreatedAt, l.UpdatedAt = now, now
	cp := *l
	cp.Tags = slices.Clone(l.Tags)
	m.listings[l.ID] = &cp
	return nil
}

func (m *MemoryStore) ListListings(_ context.Context, ownerID uint) ([]marketplace.Listing, error) {
	return m.filterListings(func(l *marketplace.Listing) bool { return l.UserID == ownerID }), nil
}

func (m *MemoryStore) ListingsForArtwork(_ context.Context, artworkID string) ([]marketplace.Listing, error) {
	return m.filterListings(func(l *marketplace.Listing) bool { return l.ArtworkID == artworkID }), nil
}

func (m *MemoryStore) GetListing(_ context.Context, id string, ownerID uint) (*marketplace.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok || l.UserID != ownerID {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MemoryStore) DeleteListing(_ context.Context, id string, ownerID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok || l.UserID != ownerID {
		return ErrNotFound
	}
	delete(m.listings, id)
	return nil
}

func (m *MemoryStore) filterListings(keep func(*marketplace.Listing) bool) []marketplace.Listing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []marketplace.Listing{}
	for _, l := range m.listings {
		if keep(l) {
			cp := *l
			cp.Tags = slices.Clone(l.Tags)
			out = append(out, cp)
		}
	}
	slices.SortFunc(out, func(a, b marketplace.Listing) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// ---------- reports ----------

func (m *MemoryStore) Stats(_ context.Context, dayStart, activeSince time.Time) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := &Stats{UserAnalytics: []UserAnalytics{}}
	perUser := map[uint]*UserAnalytics{}
	for _, u := range m.users {
		s.UserStats.TotalUsers++
		if !u.CreatedAt.Before(dayStart) {
			s.UserStats.NewUsersToday++
		}
		if u.LastLoginAt != nil && !u.LastLoginAt.Before(activeSince) {
			s.UserStats.ActiveUsers++
		}
		perUser[u.ID] = &UserAnalytics{
			UserID:   u.ID,
			UserName: strings.TrimSpace(u.Name + " " + u.Lastname),
			Email:    u.Email,
		}
	}

	var priced, priceSum int64
	for _, a := range m.artworks {
		s.ArtworkStats.TotalArtworks++
		if !a.CreatedAt.Before(dayStart) {
			s.ArtworkStats.ArtworksToday++
		}
		if a.AnalysisComplete {
			priced++
			priceSum += a.SuggestedPrice
		}
		if a.UserID != nil {
			if ua, ok := perUser[*a.UserID]; ok {
				ua.ArtworkCount++
				ua.TotalValue += a.SuggestedPrice
			}
		}
	}
	if priced > 0 {
		s.ArtworkStats.AvgPrice = int64(math.Round(float64(priceSum) / float64(priced)))
	}

	for _, ua := range perUser {
		s.UserAnalytics = append(s.UserAnalytics, *ua)
	}
	slices.SortFunc(s.UserAnalytics, func(a, b UserAnalytics) int {
		if a.TotalValue != b.TotalValue {
			if a.TotalValue > b.TotalValue {
				return -1
			}
			return 1
		}
		return int(a.UserID) - int(b.UserID)
	})
	return s, nil
}

var _ Store = (*MemoryStore)(nil)
