// internal/analytics/learner.go
package analytics

import (
	"math"
	"sort"

	"github.com/andresuchdata/revsplit/internal/domain"
)

type productLocation struct {
	product  string
	location string
}

// PriceTable holds learned prices and the coarser averages used when an
// exact key is missing. It is immutable once built and safe for concurrent
// readers.
type PriceTable struct {
	entries           map[domain.PriceKey]domain.LearnedPrice
	byProductLocation map[productLocation]float64
	byProduct         map[string]float64
}

// NewPriceTable indexes a set of learned prices.
func NewPriceTable(prices []domain.LearnedPrice) *PriceTable {
	t := &PriceTable{
		entries:           make(map[domain.PriceKey]domain.LearnedPrice, len(prices)),
		byProductLocation: make(map[productLocation]float64),
		byProduct:         make(map[string]float64),
	}

	type mean struct {
		sum float64
		n   int
	}
	pl := make(map[productLocation]*mean)
	p := make(map[string]*mean)

	for _, lp := range prices {
		t.entries[lp.Key()] = lp

		k := productLocation{product: lp.Product, location: lp.Location}
		if pl[k] == nil {
			pl[k] = &mean{}
		}
		pl[k].sum += lp.Price
		pl[k].n++

		if p[lp.Product] == nil {
			p[lp.Product] = &mean{}
		}
		p[lp.Product].sum += lp.Price
		p[lp.Product].n++
	}

	for k, m := range pl {
		t.byProductLocation[k] = m.sum / float64(m.n)
	}
	for k, m := range p {
		t.byProduct[k] = m.sum / float64(m.n)
	}

	return t
}

// Len returns the number of learned keys.
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Get returns the learned price for an exact key.
func (t *PriceTable) Get(key domain.PriceKey) (domain.LearnedPrice, bool) {
	if t == nil {
		return domain.LearnedPrice{}, false
	}
	lp, ok := t.entries[key]
	return lp, ok
}

// Entries returns the learned prices ordered by product, location and date.
func (t *PriceTable) Entries() []domain.LearnedPrice {
	if t == nil {
		return []domain.LearnedPrice{}
	}
	out := make([]domain.LearnedPrice, 0, len(t.entries))
	for _, lp := range t.entries {
		out = append(out, lp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product != out[j].Product {
			return out[i].Product < out[j].Product
		}
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// LearnPrices builds the price table from rows that parse to exactly one
// line item. Rows at or past cutoff are ignored; a cutoff <= 0 means no limit.
func LearnPrices(rows []domain.RawRow, cutoff int) *PriceTable {
	samples := make(map[domain.PriceKey][]float64)
	var order []domain.PriceKey

	for _, row := range rows {
		if cutoff > 0 && row.RowIndex >= cutoff {
			continue
		}
		items := ParseOrderDetails(row.OrderDetailsText, row.TotalQty)
		if len(items) != 1 || items[0].Qty <= 0 {
			continue
		}
		item := items[0]
		key := domain.PriceKey{Product: item.Product, Location: item.Location, Date: item.Date}
		if _, seen := samples[key]; !seen {
			order = append(order, key)
		}
		samples[key] = append(samples[key], row.TotalAmount/item.Qty)
	}

	prices := make([]domain.LearnedPrice, 0, len(order))
	for _, key := range order {
		price, confidence := priceStats(samples[key])
		prices = append(prices, domain.LearnedPrice{
			Product:    key.Product,
			Location:   key.Location,
			Date:       key.Date,
			Price:      price,
			Confidence: confidence,
			Samples:    len(samples[key]),
		})
	}

	return NewPriceTable(prices)
}

// priceStats returns the mean of the samples and a confidence in [0, 1]
// derived from their coefficient of variation.
func priceStats(samples []float64) (mean, confidence float64) {
	n := float64(len(samples))
	for _, s := range samples {
		mean += s
	}
	mean /= n

	var variance float64
	for _, s := range samples {
		d := s - mean
		variance += d * d
	}
	variance /= n

	if variance == 0 {
		return mean, 1
	}
	if mean <= 0 {
		return mean, 0
	}
	confidence = 1 - math.Sqrt(variance)/mean
	return mean, math.Min(1, math.Max(0, confidence))
}
