package shop

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/pkg/id"
)

const (
	defaultShopLimit   = 20
	maxShopLimit       = 100
	defaultReviewLimit = 50
	maxReviewLimit     = 100
	maxReviewText      = 2000

	// reviewKeyLayout always prints nine fractional digits so keys sort by time.
	reviewKeyLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ShopPage is one page of ListShops. NextCursor is empty on the last page.
type ShopPage struct {
	Shops      []domain.Shop `json:"shops"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

type Service interface {
	ListShops(ctx context.Context, f domain.ShopFilter) (*ShopPage, error)
	GetShop(ctx context.Context, shopID string) (*domain.Shop, error)
	ListReviews(ctx context.Context, shopID string, limit int) ([]domain.Review, error)
	SubmitReview(ctx context.Context, shopID, userID string, req domain.ReviewRequest) (*domain.Review, error)
	UploadShopImage(ctx context.Context, shopID string, r io.Reader, contentType string) (string, error)
	// Import writes catalog entries, assigning ids where missing.
	Import(ctx context.Context, shops []domain.Shop) (int, error)
}

type shopStore interface {
	Put(ctx context.Context, s *domain.Shop) error
	Get(ctx context.Context, shopID string) (*domain.Shop, error)
	ScanPage(ctx context.Context, f domain.ShopFilter) ([]domain.Shop, string, error)
	AppendImage(ctx context.Context, shopID, url string) error
}

type reviewStore interface {
	Append(ctx context.Context, rv *domain.Review) error
	ListByShop(ctx context.Context, shopID string, limit int32) ([]domain.Review, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type service struct {
	shops   shopStore
	reviews reviewStore
	users   userStore
	objects objectStore
	now     func() time.Time
}

type ServiceDeps struct {
	ShopRepo    shopStore
	ReviewRepo  reviewStore
	UserRepo    userStore
	ObjectStore objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		shops:   deps.ShopRepo,
		reviews: deps.ReviewRepo,
		users:   deps.UserRepo,
		objects: deps.ObjectStore,
		now:     time.Now,
	}
}

func (s *service) ListShops(ctx context.Context, f domain.ShopFilter) (*ShopPage, error) {
	f.Limit = clamp(f.Limit, defaultShopLimit, maxShopLimit)
	shops, next, err := s.shops.ScanPage(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range shops {
		shops[i].ComputeRating()
	}
	return &ShopPage{Shops: shops, NextCursor: next}, nil
}

func (s *service) GetShop(ctx context.Context, shopID string) (*domain.Shop, error) {
	sh, err := s.shops.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	sh.ComputeRating()
	return sh, nil
}

func (s *service) ListReviews(ctx context.Context, shopID string, limit int) ([]domain.Review, error) {
	if _, err := s.shops.Get(ctx, shopID); err != nil {
		return nil, err
	}
	return s.reviews.ListByShop(ctx, shopID, clamp(int32(limit), defaultReviewLimit, maxReviewLimit))
}

func (s *service) SubmitReview(ctx context.Context, shopID, userID string, req domain.ReviewRequest) (*domain.Review, error) {
	if userID == "" {
		return nil, fmt.Errorf("sign in to review: %w", domain.ErrUnauthorized)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", domain.ErrBadRequest)
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("review text is required: %w", domain.ErrBadRequest)
	}
	if len(text) > maxReviewText {
		return nil, fmt.Errorf("review text exceeds %d characters: %w", maxReviewText, domain.ErrBadRequest)
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	reviewID := id.New()
	rv := &domain.Review{
		ShopID:    shopID,
		ReviewKey: now.Format(reviewKeyLayout) + "#" + reviewID,
		ReviewID:  reviewID,
		UserID:    userID,
		UserName:  u.Name,
		Rating:    req.Rating,
		Text:      text,
		CreatedAt: now,
	}
	if err := s.reviews.Append(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *service) UploadShopImage(ctx context.Context, shopID string, r io.Reader, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("content type %q is not an image: %w", contentType, domain.ErrBadRequest)
	}
	if _, err := s.shops.Get(ctx, shopID); err != nil {
		return "", err
	}
	key := fmt.Sprintf("shops/%s/%s", shopID, id.New())
	url, err := s.objects.Upload(ctx, key, r, contentType)
	if err != nil {
		return "", err
	}
	if err := s.shops.AppendImage(ctx, shopID, url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *service) Import(ctx context.Context, shops []domain.Shop) (int, error) {
	now := s.now().UTC()
	for i := range shops {
		sh := &shops[i]
		if strings.TrimSpace(sh.Name) == "" {
			return i, fmt.Errorf("shop %d has no name: %w", i, domain.ErrBadRequest)
		}
		if sh.ShopID == "" {
			sh.ShopID = id.New()
		}
		if sh.CreatedAt.IsZero() {
			sh.CreatedAt = now
		}
		if err := s.shops.Put(ctx, sh); err != nil {
			return i, fmt.Errorf("import %s: %w", sh.Name, err)
		}
	}
	return len(shops), nil
}

func clamp(n, def, ceiling int32) int32 {
	switch {
	case n <= 0:
		return def
	case n > ceiling:
		return ceiling
	}
	return n
}
