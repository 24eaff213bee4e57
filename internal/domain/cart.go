package domain

// Product is the catalog snapshot captured when an item is added to the cart.
// The cart never re-fetches or validates it.
type Product struct {
	ID          int64    `json:"id" bson:"id"`
	Title       string   `json:"title" bson:"title"`
	Price       float64  `json:"price" bson:"price"`
	Description string   `json:"description" bson:"description"`
	Thumbnail   string   `json:"thumbnail" bson:"thumbnail"`
	Rating      float64  `json:"rating" bson:"rating"`
	Brand       string   `json:"brand" bson:"brand"`
	Category    string   `json:"category" bson:"category"`
	Images      []string `json:"images" bson:"images"`
}

type LineItem struct {
	Product  Product `json:"product" bson:"product"`
	Quantity int     `json:"quantity" bson:"quantity"`
}

type Summary struct {
	TotalItems int     `json:"totalItems" bson:"total_items"`
	TotalPrice float64 `json:"totalPrice" bson:"total_price"`
}

// CartState is an immutable value: transitions build new Items slices
// instead of editing the existing one.
type CartState struct {
	Items  []LineItem `json:"items" bson:"items"`
	Totals Summary    `json:"totals" bson:"totals"`
}

func EmptyState() CartState {
	return CartState{Items: []LineItem{}}
}

func (s CartState) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the index of the line item holding productID, or -1.
func (s CartState) Find(productID int64) int {
	for i, item := range s.Items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy whose Items (and product image lists) can be
// modified without touching s.
func (s CartState) Clone() CartState {
	items := make([]LineItem, len(s.Items))
	for i, item := range s.Items {
		items[i] = item
		if item.Product.Images != nil {
			items[i].Product.Images = append([]string(nil), item.Product.Images...)
		}
	}
	return CartState{Items: items, Totals: s.Totals}
}
