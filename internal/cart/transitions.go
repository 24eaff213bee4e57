package cart

import "github.com/fjod/shopeasy/internal/domain"

// The transitions below are pure: each one derives a fresh item slice from
// prev and recomputes the summary, so prev stays valid for anyone holding it.

// AddItem bumps the quantity of an existing line or appends a new one with
// quantity 1. The first snapshot seen for a product id is kept.
func AddItem(prev domain.CartState, product domain.Product) domain.CartState {
	idx := prev.Find(product.ID)
	if idx < 0 {
		items := make([]domain.LineItem, len(prev.Items), len(prev.Items)+1)
		copy(items, prev.Items)
		items = append(items, domain.LineItem{Product: product, Quantity: 1})
		return withItems(items)
	}

	items := copyItems(prev.Items)
	items[idx].Quantity++
	return withItems(items)
}

// RemoveItem drops the line for productID. Unknown ids leave the cart as is.
func RemoveItem(prev domain.CartState, productID int64) domain.CartState {
	if prev.Find(productID) < 0 {
		return withItems(copyItems(prev.Items))
	}

	items := make([]domain.LineItem, 0, len(prev.Items)-1)
	for _, item := range prev.Items {
		if item.Product.ID != productID {
			items = append(items, item)
		}
	}
	return withItems(items)
}

// DecreaseQuantity lowers a line by one but never below one; a line at
// quantity 1 is kept unchanged rather than removed.
func DecreaseQuantity(prev domain.CartState, productID int64) domain.CartState {
	items := copyItems(prev.Items)
	idx := prev.Find(productID)
	if idx < 0 || items[idx].Quantity <= 1 {
		return withItems(items)
	}

	items[idx].Quantity--
	return withItems(items)
}

func Clear(domain.CartState) domain.CartState {
	return domain.EmptyState()
}

func copyItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out
}

func withItems(items []domain.LineItem) domain.CartState {
	return domain.CartState{Items: items, Totals: domain.ComputeSummary(items)}
}
