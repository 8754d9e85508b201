// internal/analytics/parser.go
package analytics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/andresuchdata/revsplit/internal/domain"
)

var (
	// PRODUCT - LOCATION , D.M : QTY, repeated.
	multiItemPattern = regexp.MustCompile(`(.*?)\s*-\s*(.*?)\s*,\s*(\d{1,2}\.\d{1,2})\s*:\s*(\d+)`)
	// PRODUCT - LOCATION , D.M at the start of the text.
	singleItemPattern = regexp.MustCompile(`^(.*?)\s*-\s*(.*?)\s*,\s*(\d{1,2}\.\d{1,2})`)
)

// ParseOrderDetails extracts the line items encoded in an order details cell.
// Items that carry no explicit quantity use fallbackQty. Malformed text
// degrades to a single item at OtherLocation; blank text yields nothing.
func ParseOrderDetails(text string, fallbackQty float64) []domain.OrderLineItem {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if fallbackQty < 0 {
		fallbackQty = 0
	}

	if strings.Contains(text, ":") {
		matches := multiItemPattern.FindAllStringSubmatch(text, -1)
		items := make([]domain.OrderLineItem, 0, len(matches))
		for _, m := range matches {
			qty, err := strconv.Atoi(m[4])
			if err != nil || qty <= 0 {
				continue
			}
			product := cleanProduct(m[1])
			if product == "" {
				continue
			}
			items = append(items, domain.OrderLineItem{
				Product:  product,
				Location: strings.TrimSpace(m[2]),
				Date:     m[3],
				Qty:      float64(qty),
			})
		}
		if len(items) > 0 {
			return items
		}

		// No usable match: keep the row as one item named by its prefix.
		return fallbackItem(text[:strings.Index(text, ":")], fallbackQty)
	}

	if m := singleItemPattern.FindStringSubmatch(text); m != nil {
		product := cleanProduct(m[1])
		if product != "" {
			return []domain.OrderLineItem{{
				Product:  product,
				Location: strings.TrimSpace(m[2]),
				Date:     m[3],
				Qty:      fallbackQty,
			}}
		}
	}

	if i := strings.Index(text, "-"); i >= 0 {
		text = text[:i]
	}
	return fallbackItem(text, fallbackQty)
}

func fallbackItem(product string, qty float64) []domain.OrderLineItem {
	product = cleanProduct(product)
	if product == "" {
		return nil
	}
	return []domain.OrderLineItem{{
		Product:  product,
		Location: domain.OtherLocation,
		Qty:      qty,
	}}
}

// cleanProduct trims whitespace and any separator left over from the
// previous item in a concatenated list.
func cleanProduct(s string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), ",;|"))
}
