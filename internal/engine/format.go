package engine

import (
	"fmt"
	"strings"

	"price_bot/internal/model"
)

// FormatAlert builds one grouped notification message naming every changed
// product, its new price, and the user's threshold when one is set.
func FormatAlert(items []model.TrackedProduct) string {
	var b strings.Builder
	b.WriteString("Price updates:\n")
	for _, tp := range items {
		name := tp.Name
		if name == "" {
			name = tp.URL
		}
		fmt.Fprintf(&b, "\n%s\n", name)
		fmt.Fprintf(&b, "Current price: %s ₽", tp.Price)
		if tp.Threshold != nil {
			fmt.Fprintf(&b, " (your threshold: %s ₽)", *tp.Threshold)
		}
		b.WriteString("\n")
		if tp.Seller != "" {
			fmt.Fprintf(&b, "Seller: %s\n", tp.Seller)
		}
		b.WriteString(tp.URL)
		b.WriteString("\n")
	}
	return b.String()
}
