package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/medtrax-api/internal/application/shop"
	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockShopSvc struct{ mock.Mock }

func (m *mockShopSvc) ListShops(ctx context.Context, f domain.ShopFilter) (*shop.ShopPage, error) {
	args := m.Called(ctx, f)
	if p, _ := args.Get(0).(*shop.ShopPage); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockShopSvc) GetShop(ctx context.Context, shopID string) (*domain.Shop, error) {
	args := m.Called(ctx, shopID)
	if s, _ := args.Get(0).(*domain.Shop); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockShopSvc) ListReviews(ctx context.Context, shopID string, limit int) ([]domain.Review, error) {
	args := m.Called(ctx, shopID, limit)
	rs, _ := args.Get(0).([]domain.Review)
	return rs, args.Error(1)
}
func (m *mockShopSvc) SubmitReview(ctx context.Context, shopID, userID string, req domain.ReviewRequest) (*domain.Review, error) {
	args := m.Called(ctx, shopID, userID, req)
	if r, _ := args.Get(0).(*domain.Review); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockShopSvc) UploadShopImage(ctx context.Context, shopID string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, shopID, r, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockShopSvc) Import(ctx context.Context, shops []domain.Shop) (int, error) {
	args := m.Called(ctx, shops)
	return args.Int(0), args.Error(1)
}

func shopRouter(t *testing.T, svc *mockShopSvc) (http.Handler, func(method, target string, body []byte) *http.Request) {
	p := newTestJWTProvider(t)
	h := NewShopHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/shops", h.List)
	r.Get("/api/shops/{id}", h.Get)
	r.Get("/api/shops/{id}/reviews", h.ListReviews)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(p))
		r.Post("/api/shops/{id}/reviews", h.SubmitReview)
	})
	return r, func(method, target string, body []byte) *http.Request {
		return bearerReq(t, p, method, target, "u1", body)
	}
}

func TestShopList_ForwardsFilter(t *testing.T) {
	svc := &mockShopSvc{}
	svc.On("ListShops", mock.Anything, domain.ShopFilter{Search: "care", City: "Pune", Limit: 5, Cursor: "c1"}).
		Return(&shop.ShopPage{Shops: []domain.Shop{{ShopID: "s1"}}, NextCursor: "c2"}, nil)
	router, _ := shopRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonReq(http.MethodGet, "/api/shops?search=care&city=Pune&limit=5&cursor=c1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "c2", body["nextCursor"])
	assert.Len(t, body["data"], 1)
}

func TestShopGet_NotFound(t *testing.T) {
	svc := &mockShopSvc{}
	svc.On("GetShop", mock.Anything, "nope").Return(nil, domain.ErrNotFound)
	router, _ := shopRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonReq(http.MethodGet, "/api/shops/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitReview_Unauthenticated(t *testing.T) {
	svc := &mockShopSvc{}
	router, _ := shopRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonReq(http.MethodPost, "/api/shops/s1/reviews", []byte(`{"rating":5,"text":"great"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReview_Created(t *testing.T) {
	svc := &mockShopSvc{}
	svc.On("SubmitReview", mock.Anything, "s1", "u1", domain.ReviewRequest{Rating: 5, Text: "great"}).
		Return(&domain.Review{ReviewID: "rv1", Rating: 5}, nil)
	router, req := shopRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodPost, "/api/shops/s1/reviews", []byte(`{"rating":5,"text":"great"}`)))
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestSubmitReview_InvalidRating(t *testing.T) {
	svc := &mockShopSvc{}
	svc.On("SubmitReview", mock.Anything, "s1", "u1", mock.Anything).Return(nil, domain.ErrBadRequest)
	router, req := shopRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodPost, "/api/shops/s1/reviews", []byte(`{"rating":9,"text":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
