// internal/analytics/allocator.go
package analytics

import "github.com/andresuchdata/revsplit/internal/domain"

// Allocate splits row.TotalAmount across items.
//
// A single item takes the whole total. With several items, resolved prices
// set each item's share; when some items cannot be priced they split the
// revenue the priced items leave over, and when none can be priced the total
// is shared by quantity. The line totals always sum to row.TotalAmount.
func Allocate(row domain.RawRow, items []domain.OrderLineItem, prices PriceResolver) domain.Allocation {
	if len(items) == 0 {
		return domain.Allocation{}
	}

	lines := make([]domain.AllocatedLine, len(items))
	for i, item := range items {
		lines[i].OrderLineItem = item
	}

	if len(items) == 1 {
		lines[0].TotalPrice = row.TotalAmount
		lines[0].UnitPrice = unitPrice(row.TotalAmount, items[0].Qty)
		return domain.Allocation{Method: domain.MethodSingle, Lines: lines}
	}

	estimates := make([]float64, len(items))
	var resolved, unresolved []int
	var estimatedTotal float64
	for i, item := range items {
		if prices != nil {
			if price, ok := prices.Resolve(item.Product, item.Location, item.Date); ok {
				estimates[i] = price * item.Qty
				estimatedTotal += estimates[i]
				resolved = append(resolved, i)
				continue
			}
		}
		unresolved = append(unresolved, i)
	}

	if estimatedTotal <= 0 {
		shareByQty(lines, allIndexes(len(lines)), row.TotalAmount)
		return domain.Allocation{Method: domain.MethodQuantityShare, Lines: lines}
	}

	leftover := row.TotalAmount - estimatedTotal
	if len(unresolved) > 0 && leftover > 0 {
		for _, i := range resolved {
			lines[i].TotalPrice = estimates[i]
			lines[i].UnitPrice = unitPrice(estimates[i], lines[i].Qty)
		}
		shareByQty(lines, unresolved, leftover)
		return domain.Allocation{Method: domain.MethodLearnedResidual, Lines: lines}
	}

	for _, i := range resolved {
		total := estimates[i] / estimatedTotal * row.TotalAmount
		lines[i].TotalPrice = total
		lines[i].UnitPrice = unitPrice(total, lines[i].Qty)
	}
	for _, i := range unresolved {
		lines[i].Unpriced = true
	}
	return domain.Allocation{Method: domain.MethodLearned, Lines: lines}
}

// AllocateRow parses the row's order details and allocates its total.
func AllocateRow(row domain.RawRow, prices PriceResolver) domain.Allocation {
	return Allocate(row, ParseOrderDetails(row.OrderDetailsText, row.TotalQty), prices)
}

// shareByQty distributes amount across lines[idx] in proportion to quantity,
// or evenly when the quantities sum to zero.
func shareByQty(lines []domain.AllocatedLine, idx []int, amount float64) {
	var qty float64
	for _, i := range idx {
		qty += lines[i].Qty
	}
	for _, i := range idx {
		var total float64
		if qty > 0 {
			total = lines[i].Qty / qty * amount
		} else {
			total = amount / float64(len(idx))
		}
		lines[i].TotalPrice = total
		lines[i].UnitPrice = unitPrice(total, lines[i].Qty)
	}
}

func unitPrice(total, qty float64) float64 {
	if qty <= 0 {
		return 0
	}
	return total / qty
}

func allIndexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
