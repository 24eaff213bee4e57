package domain

// ComputeSummary derives the cart summary from its line items. Prices are
// accumulated without rounding; presentation rounding belongs to callers.
func ComputeSummary(items []LineItem) Summary {
	var summary Summary
	for _, item := range items {
		summary.TotalItems += item.Quantity
		summary.TotalPrice += item.Product.Price * float64(item.Quantity)
	}
	return summary
}
