package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fjod/shopeasy/internal/catalog"
	"github.com/fjod/shopeasy/internal/domain"
	"go.uber.org/zap"
)

type ProductHandler struct {
	repo   catalog.RepoInterface
	logger *zap.Logger
}

func NewProductHandler(repo catalog.RepoInterface, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{repo: repo, logger: logger}
}

type ProductRequestDTO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Thumbnail   string   `json:"thumbnail"`
	Rating      float64  `json:"rating"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

func (d ProductRequestDTO) toDomain() *domain.Product {
	return &domain.Product{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Price:       d.Price,
		Thumbnail:   d.Thumbnail,
		Rating:      d.Rating,
		Brand:       d.Brand,
		Category:    d.Category,
		Images:      d.Images,
	}
}

// ProductPatchDTO carries a partial edit; absent fields keep their stored value.
type ProductPatchDTO struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Thumbnail   *string   `json:"thumbnail"`
	Rating      *float64  `json:"rating"`
	Brand       *string   `json:"brand"`
	Category    *string   `json:"category"`
	Images      *[]string `json:"images"`
}

func (d ProductPatchDTO) apply(p *domain.Product) {
	if d.Title != nil {
		p.Title = strings.TrimSpace(*d.Title)
	}
	if d.Description != nil {
		p.Description = *d.Description
	}
	if d.Price != nil {
		p.Price = *d.Price
	}
	if d.Thumbnail != nil {
		p.Thumbnail = *d.Thumbnail
	}
	if d.Rating != nil {
		p.Rating = *d.Rating
	}
	if d.Brand != nil {
		p.Brand = *d.Brand
	}
	if d.Category != nil {
		p.Category = *d.Category
	}
	if d.Images != nil {
		p.Images = *d.Images
	}
}

type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	products, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.internalError(w, "list products failed", err)
		return
	}
	respondJSON(w, http.StatusOK, ProductListResponse{Products: products})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id must be a positive integer")
		return
	}

	product, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.handleRepoError(w, "get product failed", err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	product, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	if err := h.repo.Create(r.Context(), product); err != nil {
		h.handleRepoError(w, "create product failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id must be a positive integer")
		return
	}

	var req ProductPatchDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.handleRepoError(w, "get product failed", err)
		return
	}
	req.apply(product)
	if !validProduct(w, product) {
		return
	}

	if err := h.repo.Update(r.Context(), product); err != nil {
		h.handleRepoError(w, "update product failed", err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id must be a positive integer")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.handleRepoError(w, "delete product failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return nil, false
	}

	product := req.toDomain()
	if !validProduct(w, product) {
		return nil, false
	}
	return product, true
}

func validProduct(w http.ResponseWriter, p *domain.Product) bool {
	if p.Title == "" {
		respondError(w, http.StatusBadRequest, "invalid_title", "title is required")
		return false
	}
	if p.Price < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return false
	}
	return true
}

func (h *ProductHandler) handleRepoError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, catalog.ErrDuplicateTitle):
		respondError(w, http.StatusConflict, "already_exists", "a product with this title already exists")
	default:
		h.internalError(w, msg, err)
	}
}

func (h *ProductHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
