package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/shopeasy/internal/cart"
	"github.com/fjod/shopeasy/internal/checkout"
	"github.com/fjod/shopeasy/internal/domain"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	sessions *cart.Sessions
	service  *checkout.Service
	logger   *zap.Logger
}

func NewCheckoutHandler(sessions *cart.Sessions, service *checkout.Service, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{
		sessions: sessions,
		service:  service,
		logger:   logger,
	}
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sessionID := getSessionID(r.Context())
	store, found, err := h.sessions.Lookup(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing cart session")
		return
	}

	var target checkout.Cart = noCart{}
	if found {
		target = store
	}

	order, err := h.service.Submit(r.Context(), sessionID, target, form)
	switch {
	case errors.Is(err, checkout.ErrInvalidForm):
		respondError(w, http.StatusBadRequest, "invalid_form", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
	case err != nil:
		h.logger.Error("checkout failed", zap.String("session_id", sessionID), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "checkout_unavailable", "order could not be submitted")
	default:
		respondJSON(w, http.StatusCreated, order)
	}
}

// noCart stands in for a session that never stored a cart.
type noCart struct{}

func (noCart) ClearAfter(fn func(domain.CartState) error) error {
	return fn(domain.EmptyState())
}
