package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/shopeasy/internal/cart"
	"github.com/fjod/shopeasy/internal/catalog"
	"github.com/fjod/shopeasy/internal/domain"
	"go.uber.org/zap"
)

// ProductGetter resolves the product snapshot that gets added to a cart.
type ProductGetter interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type CartHandler struct {
	sessions *cart.Sessions
	products ProductGetter
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCartHandler(sessions *cart.Sessions, products ProductGetter, timeout time.Duration, logger *zap.Logger) *CartHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{
		sessions: sessions,
		products: products,
		timeout:  timeout,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.withExisting(w, r, (*cart.Store).State)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := h.products.Get(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		h.logger.Error("product lookup failed", zap.Int64("product_id", req.ProductID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusCreated, store.AddItem(*product))
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r, "product_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	h.withExisting(w, r, func(store *cart.Store) domain.CartState {
		return store.DecreaseQuantity(productID)
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r, "product_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	h.withExisting(w, r, func(store *cart.Store) domain.CartState {
		return store.RemoveItem(productID)
	})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.withExisting(w, r, (*cart.Store).ClearCart)
}

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	store, err := h.sessions.Get(r.Context(), getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing cart session")
		return nil, false
	}
	return store, true
}

// withExisting applies op to the session's cart. A session without a cart
// gets the empty state back and no store is created for it; every op routed
// here leaves an empty cart unchanged.
func (h *CartHandler) withExisting(w http.ResponseWriter, r *http.Request, op func(*cart.Store) domain.CartState) {
	store, found, err := h.sessions.Lookup(r.Context(), getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing cart session")
		return
	}
	if !found {
		respondJSON(w, http.StatusOK, domain.EmptyState())
		return
	}
	respondJSON(w, http.StatusOK, op(store))
}
