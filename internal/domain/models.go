// internal/domain/models.go
package domain

import "time"

// OtherLocation is the location assigned to line items whose text carries no
// recognizable location.
const OtherLocation = "Other"

// RawRow is one record of a point-of-sale export.
type RawRow struct {
	RowIndex         int     `json:"row_index" db:"row_index"`
	TotalAmount      float64 `json:"total_amount" db:"total_amount"`
	OrderDetailsText string  `json:"order_details" db:"order_details"`
	TotalQty         float64 `json:"total_qty" db:"total_qty"`
}

// OrderLineItem is one (product, location, date, qty) tuple parsed from a row.
type OrderLineItem struct {
	Product  string  `json:"product"`
	Location string  `json:"location"`
	Date     string  `json:"date"`
	Qty      float64 `json:"qty"`
}

// PriceKey identifies a learned price.
type PriceKey struct {
	Product  string
	Location string
	Date     string
}

// LearnedPrice is the mean unit price observed for one key in unambiguous rows.
type LearnedPrice struct {
	Product    string  `json:"product"`
	Location   string  `json:"location"`
	Date       string  `json:"date"`
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
	Samples    int     `json:"samples"`
}

func (p LearnedPrice) Key() PriceKey {
	return PriceKey{Product: p.Product, Location: p.Location, Date: p.Date}
}

// Breakdown accumulates quantity and revenue for one bucket.
type Breakdown struct {
	Qty     float64 `json:"qty"`
	Revenue float64 `json:"revenue"`
}

// ProductSummary aggregates every allocated line item of one product.
type ProductSummary struct {
	Product           string                `json:"product"`
	TotalQty          float64               `json:"total_qty"`
	TotalRevenue      float64               `json:"total_revenue"`
	AvgPrice          float64               `json:"avg_price"`
	PriceBreakdown    map[string]*Breakdown `json:"price_breakdown"`
	LocationBreakdown map[string]*Breakdown `json:"location_breakdown"`
	DateBreakdown     map[string]*Breakdown `json:"date_breakdown"`
}

// LocationSummary aggregates every allocated line item sold at one location.
type LocationSummary struct {
	Location         string                `json:"location"`
	TotalRevenue     float64               `json:"total_revenue"`
	TotalOrders      int                   `json:"total_orders"`
	SalesDays        int                   `json:"sales_days"`
	ProductBreakdown map[string]*Breakdown `json:"product_breakdown"`
}

// SaleDetail is one allocated line item of a sale.
type SaleDetail struct {
	Product    string  `json:"product"`
	Qty        float64 `json:"qty"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Unpriced   bool    `json:"unpriced,omitempty"`
}

// SaleSummary describes one source row that produced at least one line item.
type SaleSummary struct {
	RowIndex     int          `json:"row_index"`
	Date         string       `json:"date"`
	Location     string       `json:"location"`
	TotalRevenue float64      `json:"total_revenue"`
	Method       string       `json:"method"`
	Details      []SaleDetail `json:"details"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DashboardData is the result of processing a dataset.
type DashboardData struct {
	Products      []ProductSummary  `json:"products"`
	Locations     []LocationSummary `json:"locations"`
	LearnedPrices []LearnedPrice    `json:"learned_prices"`
	Sales         []SaleSummary     `json:"sales"`
	TotalRevenue  float64           `json:"total_revenue"`
	TotalOrders   int               `json:"total_orders"`
	DateRange     DateRange         `json:"date_range"`
}

// DateFilter is an inclusive dd.mm window. Empty bounds are open.
type DateFilter struct {
	Start string `json:"start" form:"start"`
	End   string `json:"end" form:"end"`
}

func (f DateFilter) IsZero() bool {
	return f.Start == "" && f.End == ""
}

// AllocatedLine is a parsed line item with its share of the row total.
type AllocatedLine struct {
	OrderLineItem
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Unpriced   bool    `json:"unpriced,omitempty"`
}

// Allocation is the split of one row's total across its line items.
type Allocation struct {
	Method string          `json:"method"`
	Lines  []AllocatedLine `json:"lines"`
}

// RowAllocation pairs a source row with its allocation.
type RowAllocation struct {
	Row        RawRow     `json:"row"`
	Allocation Allocation `json:"allocation"`
}

// Dataset is an imported export file.
type Dataset struct {
	ID         string    `json:"id" db:"id"`
	Filename   string    `json:"filename" db:"filename"`
	RowCount   int       `json:"row_count" db:"row_count"`
	ArchiveKey string    `json:"archive_key,omitempty" db:"archive_key"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
