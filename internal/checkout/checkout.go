package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrInvalidForm = errors.New("invalid checkout form")
)

// Form is what the shopper submits at checkout. Card details are required
// by the form but never processed or stored.
type Form struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	CardNumber string `json:"card_number"`
}

// Validate reports every missing field at once.
func (f Form) Validate() error {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"name", f.Name},
		{"email", f.Email},
		{"address", f.Address},
		{"card_number", f.CardNumber},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidForm, strings.Join(missing, ", "))
	}
	return nil
}

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// Order is the record published when a cart is checked out.
type Order struct {
	ID          uuid.UUID       `json:"order_id"`
	SessionID   string          `json:"session_id"`
	Customer    Customer        `json:"customer"`
	Items       []OrderItem     `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
