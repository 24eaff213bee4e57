package cart

import (
	"encoding/json"
	"fmt"

	"github.com/fjod/shopeasy/internal/domain"
)

// StorageKey is the fixed key the cart record is stored under.
const StorageKey = "shopEasy-cart"

// recordVersion is written for diagnostics only; readers accept records
// with any or no version.
const recordVersion = 1

type record struct {
	Version int               `json:"version,omitempty"`
	Items   []domain.LineItem `json:"items"`
	Totals  domain.Summary    `json:"totals"`
}

func Encode(state domain.CartState) ([]byte, error) {
	items := state.Items
	if items == nil {
		items = []domain.LineItem{}
	}

	data, err := json.Marshal(record{
		Version: recordVersion,
		Items:   items,
		Totals:  state.Totals,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

// Decode parses a stored record. The stored totals are ignored and derived
// again from the items, which also normalizes records written with stale
// totals. Records that break the cart invariants are rejected.
func Decode(data []byte) (domain.CartState, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.EmptyState(), &DecodeError{Err: err}
	}

	seen := make(map[int64]struct{}, len(rec.Items))
	for _, item := range rec.Items {
		if item.Quantity < 1 {
			return domain.EmptyState(), &DecodeError{
				Err: fmt.Errorf("product %d has quantity %d", item.Product.ID, item.Quantity),
			}
		}
		if _, dup := seen[item.Product.ID]; dup {
			return domain.EmptyState(), &DecodeError{
				Err: fmt.Errorf("product %d appears more than once", item.Product.ID),
			}
		}
		seen[item.Product.ID] = struct{}{}
	}

	items := rec.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return withItems(items), nil
}
