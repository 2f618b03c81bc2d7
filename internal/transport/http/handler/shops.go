package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/medtrax-api/internal/application/shop"
	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/transport/http/middleware"
)

// ShopHandler serves the pharmacy directory and its reviews.
type ShopHandler struct {
	svc shop.Service
}

func NewShopHandler(svc shop.Service) *ShopHandler { return &ShopHandler{svc: svc} }

func (h *ShopHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	page, err := h.svc.ListShops(r.Context(), domain.ShopFilter{
		Search: q.Get("search"),
		City:   q.Get("city"),
		Limit:  int32(limit),
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Data: page.Shops, NextCursor: page.NextCursor})
}

func (h *ShopHandler) Get(w http.ResponseWriter, r *http.Request) {
	sh, err := h.svc.GetShop(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Data: sh})
}

func (h *ShopHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	reviews, err := h.svc.ListReviews(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Data: reviews})
}

func (h *ShopHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rv, err := h.svc.SubmitReview(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataEnvelope{Success: true, Message: "Review added", Data: rv})
}

func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
