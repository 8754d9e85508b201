// internal/analytics/resolver.go
package analytics

import "github.com/andresuchdata/revsplit/internal/domain"

// PriceResolver estimates a unit price for a line item.
type PriceResolver interface {
	Resolve(product, location, date string) (float64, bool)
}

// Resolve looks up the exact key first, then the mean over the product at
// the location, then the mean over the product anywhere.
func (t *PriceTable) Resolve(product, location, date string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	if lp, ok := t.entries[domain.PriceKey{Product: product, Location: location, Date: date}]; ok {
		return lp.Price, true
	}
	if p, ok := t.byProductLocation[productLocation{product: product, location: location}]; ok {
		return p, true
	}
	if p, ok := t.byProduct[product]; ok {
		return p, true
	}
	return 0, false
}
