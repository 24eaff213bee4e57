package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/shopeasy/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cart is the slice of the cart store checkout needs.
// ClearAfter must hold the cart for the whole call, so two submissions of
// the same cart cannot both see it non-empty.
type Cart interface {
	ClearAfter(fn func(domain.CartState) error) error
}

type Service struct {
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit turns the cart into an order, publishes it and empties the cart,
// all while the cart is held. The cart is left untouched when validation or
// publishing fails.
func (s *Service) Submit(ctx context.Context, sessionID string, cart Cart, form Form) (*Order, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var order *Order
	err := cart.ClearAfter(func(state domain.CartState) error {
		if state.IsEmpty() {
			return ErrEmptyCart
		}

		order = buildOrder(sessionID, state, form, s.now())
		if err := s.publisher.Publish(ctx, order); err != nil {
			return fmt.Errorf("submit order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("checkout completed",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", sessionID),
		zap.Int("total_items", order.TotalItems))
	return order, nil
}

func buildOrder(sessionID string, state domain.CartState, form Form, now time.Time) *Order {
	items := make([]OrderItem, 0, len(state.Items))
	for _, line := range state.Items {
		items = append(items, OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Title,
			Quantity:    line.Quantity,
			UnitPrice:   line.Product.Price,
			Subtotal:    line.Product.Price * float64(line.Quantity),
		})
	}

	return &Order{
		ID:        uuid.New(),
		SessionID: sessionID,
		Customer: Customer{
			Name:    form.Name,
			Email:   form.Email,
			Address: form.Address,
		},
		Items:      items,
		TotalItems: state.Totals.TotalItems,
		// Rounded once here, for the amount shown to the shopper.
		TotalAmount: decimal.NewFromFloat(state.Totals.TotalPrice).Round(2),
		SubmittedAt: now.UTC(),
	}
}
