package bot

import (
	"fmt"
	"strings"

	"price_bot/internal/model"
)

// historyDisplayLimit caps how many recent observations /history shows.
const historyDisplayLimit = 15

// FormatTrackedList formats a user's tracked products for display.
func FormatTrackedList(tracked []model.TrackedProduct) string {
	if len(tracked) == 0 {
		return "You are not tracking any products yet. Use /track <url|sku> to add one."
	}
	var b strings.Builder
	b.WriteString("Your tracked products:\n")
	for _, tp := range tracked {
		fmt.Fprintf(&b, "\n#%d %s\n", tp.ID, displayName(&tp.Product))
		fmt.Fprintf(&b, "   Price: %s ₽", tp.Price)
		if tp.Threshold != nil {
			fmt.Fprintf(&b, " (threshold: %s ₽)", *tp.Threshold)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "   %s\n", tp.URL)
	}
	return b.String()
}

// FormatProductInfo formats one product with the user's alert threshold.
func FormatProductInfo(p *model.Product, threshold string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", p.ID, displayName(p))
	fmt.Fprintf(&b, "Price: %s ₽\n", p.Price)
	if p.Seller != "" {
		fmt.Fprintf(&b, "Seller: %s\n", p.Seller)
	}
	fmt.Fprintf(&b, "Alert threshold: %s ₽\n", threshold)
	b.WriteString(p.URL)
	return b.String()
}

// FormatHistory formats a product's price history, most recent first.
func FormatHistory(p *model.Product, history []model.PriceObservation) string {
	if len(history) == 0 {
		return fmt.Sprintf("No price history for #%d %s yet.", p.ID, displayName(p))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Price history for #%d %s:\n", p.ID, displayName(p))

	shown := 0
	for i := len(history) - 1; i >= 0 && shown < historyDisplayLimit; i-- {
		obs := history[i]
		fmt.Fprintf(&b, "%s — %s ₽\n", obs.ObservedAt.Format("2006-01-02 15:04 UTC"), obs.Price)
		shown++
	}
	if len(history) > shown {
		fmt.Fprintf(&b, "... and %d earlier observation(s)", len(history)-shown)
	}
	return b.String()
}

func displayName(p *model.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.URL
}
