// internal/analytics/aggregator.go
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/revsplit/internal/domain"
)

type productAcc struct {
	product string
	qty     float64
	revenue float64
	byPrice map[string]*domain.Breakdown
	byLoc   map[string]*domain.Breakdown
	byDate  map[string]*domain.Breakdown
}

func newProductAcc(product string) *productAcc {
	return &productAcc{
		product: product,
		byPrice: make(map[string]*domain.Breakdown),
		byLoc:   make(map[string]*domain.Breakdown),
		byDate:  make(map[string]*domain.Breakdown),
	}
}

type locationAcc struct {
	location string
	revenue  float64
	dates    map[string]struct{}
	products map[string]*domain.Breakdown
}

func newLocationAcc(location string) *locationAcc {
	return &locationAcc{
		location: location,
		dates:    make(map[string]struct{}),
		products: make(map[string]*domain.Breakdown),
	}
}

// Aggregator folds allocated rows into product, location and sale summaries.
// It is not safe for concurrent use; parallel callers fold into separate
// aggregators and Merge them.
type Aggregator struct {
	products      map[string]*productAcc
	productOrder  []string
	locations     map[string]*locationAcc
	locationOrder []string
	sales         []domain.SaleSummary
	totalRevenue  float64
	totalOrders   int
	minDate       string
	maxDate       string
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		products:  make(map[string]*productAcc),
		locations: make(map[string]*locationAcc),
	}
}

// Fold adds one allocated row. Rows without line items are ignored and
// reported with ok == false.
func (a *Aggregator) Fold(row domain.RawRow, alloc domain.Allocation) (sale domain.SaleSummary, ok bool) {
	if len(alloc.Lines) == 0 {
		return domain.SaleSummary{}, false
	}

	first := alloc.Lines[0]
	sale = domain.SaleSummary{
		RowIndex:     row.RowIndex,
		Date:         first.Date,
		Location:     first.Location,
		TotalRevenue: row.TotalAmount,
		Method:       alloc.Method,
		Details:      make([]domain.SaleDetail, 0, len(alloc.Lines)),
	}

	for _, line := range alloc.Lines {
		p := a.product(line.Product)
		p.qty += line.Qty
		p.revenue += line.TotalPrice
		addTo(p.byPrice, priceBucket(line.UnitPrice), line.Qty, line.TotalPrice)
		addTo(p.byLoc, line.Location, line.Qty, line.TotalPrice)
		addTo(p.byDate, line.Date, line.Qty, line.TotalPrice)

		l := a.location(line.Location)
		l.revenue += line.TotalPrice
		addTo(l.products, line.Product, line.Qty, line.TotalPrice)
		if line.Date != "" {
			l.dates[line.Date] = struct{}{}
		}

		sale.Details = append(sale.Details, domain.SaleDetail{
			Product:    line.Product,
			Qty:        line.Qty,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
			Unpriced:   line.Unpriced,
		})
	}

	a.extendDateRange(first.Date)
	a.totalRevenue += row.TotalAmount
	a.totalOrders++
	a.sales = append(a.sales, sale)

	return sale, true
}

// Merge folds the state of other into a. Keys first seen in other are
// ordered after the keys already present in a.
func (a *Aggregator) Merge(other *Aggregator) {
	for _, name := range other.productOrder {
		src := other.products[name]
		dst := a.product(name)
		dst.qty += src.qty
		dst.revenue += src.revenue
		mergeBreakdowns(dst.byPrice, src.byPrice)
		mergeBreakdowns(dst.byLoc, src.byLoc)
		mergeBreakdowns(dst.byDate, src.byDate)
	}
	for _, name := range other.locationOrder {
		src := other.locations[name]
		dst := a.location(name)
		dst.revenue += src.revenue
		mergeBreakdowns(dst.products, src.products)
		for d := range src.dates {
			dst.dates[d] = struct{}{}
		}
	}
	a.sales = append(a.sales, other.sales...)
	a.totalRevenue += other.totalRevenue
	a.totalOrders += other.totalOrders
	a.extendDateRange(other.minDate)
	a.extendDateRange(other.maxDate)
}

// Finalize derives the public summaries. The aggregator must not be used
// afterwards.
func (a *Aggregator) Finalize(prices []domain.LearnedPrice) *domain.DashboardData {
	products := make([]domain.ProductSummary, 0, len(a.productOrder))
	for _, name := range a.productOrder {
		p := a.products[name]
		var avg float64
		if p.qty > 0 {
			avg = p.revenue / p.qty
		}
		products = append(products, domain.ProductSummary{
			Product:           p.product,
			TotalQty:          p.qty,
			TotalRevenue:      p.revenue,
			AvgPrice:          avg,
			PriceBreakdown:    p.byPrice,
			LocationBreakdown: p.byLoc,
			DateBreakdown:     p.byDate,
		})
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].TotalRevenue > products[j].TotalRevenue
	})

	locations := make([]domain.LocationSummary, 0, len(a.locationOrder))
	for _, name := range a.locationOrder {
		l := a.locations[name]
		// TotalOrders is the dataset-wide count, not scoped to the location.
		locations = append(locations, domain.LocationSummary{
			Location:         l.location,
			TotalRevenue:     l.revenue,
			TotalOrders:      a.totalOrders,
			SalesDays:        len(l.dates),
			ProductBreakdown: l.products,
		})
	}
	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].TotalRevenue > locations[j].TotalRevenue
	})

	sales := a.sales
	if sales == nil {
		sales = []domain.SaleSummary{}
	}
	sort.SliceStable(sales, func(i, j int) bool {
		if sales[i].Date != sales[j].Date {
			return sales[i].Date > sales[j].Date
		}
		return sales[i].Location < sales[j].Location
	})

	if prices == nil {
		prices = []domain.LearnedPrice{}
	}

	return &domain.DashboardData{
		Products:      products,
		Locations:     locations,
		LearnedPrices: prices,
		Sales:         sales,
		TotalRevenue:  a.totalRevenue,
		TotalOrders:   a.totalOrders,
		DateRange:     domain.DateRange{Start: a.minDate, End: a.maxDate},
	}
}

func (a *Aggregator) product(name string) *productAcc {
	p, ok := a.products[name]
	if !ok {
		p = newProductAcc(name)
		a.products[name] = p
		a.productOrder = append(a.productOrder, name)
	}
	return p
}

func (a *Aggregator) location(name string) *locationAcc {
	l, ok := a.locations[name]
	if !ok {
		l = newLocationAcc(name)
		a.locations[name] = l
		a.locationOrder = append(a.locationOrder, name)
	}
	return l
}

func (a *Aggregator) extendDateRange(date string) {
	if date == "" {
		return
	}
	if a.minDate == "" || date < a.minDate {
		a.minDate = date
	}
	if a.maxDate == "" || date > a.maxDate {
		a.maxDate = date
	}
}

func priceBucket(unit float64) string {
	return decimal.NewFromFloat(unit).StringFixed(2)
}

func addTo(m map[string]*domain.Breakdown, key string, qty, revenue float64) {
	b, ok := m[key]
	if !ok {
		b = &domain.Breakdown{}
		m[key] = b
	}
	b.Qty += qty
	b.Revenue += revenue
}

func mergeBreakdowns(dst, src map[string]*domain.Breakdown) {
	for k, b := range src {
		addTo(dst, k, b.Qty, b.Revenue)
	}
}
