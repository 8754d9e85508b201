package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/revsplit/internal/domain"
)

func TestParseOrderDetails(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		fallbackQty float64
		want        []domain.OrderLineItem
	}{
		{
			name:        "canonical colon form",
			text:        "Widget - StoreA,5.3:2",
			fallbackQty: 9,
			want:        []domain.OrderLineItem{{Product: "Widget", Location: "StoreA", Date: "5.3", Qty: 2}},
		},
		{
			name:        "single item without quantity",
			text:        "Widget - StoreA,5.3",
			fallbackQty: 3,
			want:        []domain.OrderLineItem{{Product: "Widget", Location: "StoreA", Date: "5.3", Qty: 3}},
		},
		{
			name:        "single item ignores trailing text",
			text:        "Widget - StoreA , 05.03 extra notes",
			fallbackQty: 1,
			want:        []domain.OrderLineItem{{Product: "Widget", Location: "StoreA", Date: "05.03", Qty: 1}},
		},
		{
			name:        "concatenated items",
			text:        "A - L,1.1:1B - M,2.1:4",
			fallbackQty: 5,
			want: []domain.OrderLineItem{
				{Product: "A", Location: "L", Date: "1.1", Qty: 1},
				{Product: "B", Location: "M", Date: "2.1", Qty: 4},
			},
		},
		{
			name:        "separated items",
			text:        "A - L , 1.1 : 1, B - M,2.1:4",
			fallbackQty: 5,
			want: []domain.OrderLineItem{
				{Product: "A", Location: "L", Date: "1.1", Qty: 1},
				{Product: "B", Location: "M", Date: "2.1", Qty: 4},
			},
		},
		{
			name:        "colon without pattern falls back to prefix",
			text:        "Gift card: balance",
			fallbackQty: 2,
			want:        []domain.OrderLineItem{{Product: "Gift card", Location: domain.OtherLocation, Qty: 2}},
		},
		{
			name:        "no pattern takes text before hyphen",
			text:        "Service fee - manual",
			fallbackQty: 1,
			want:        []domain.OrderLineItem{{Product: "Service fee", Location: domain.OtherLocation, Qty: 1}},
		},
		{
			name:        "no hyphen takes whole text",
			text:        "  Delivery  ",
			fallbackQty: 1,
			want:        []domain.OrderLineItem{{Product: "Delivery", Location: domain.OtherLocation, Qty: 1}},
		},
		{
			name:        "zero quantity match is dropped",
			text:        "A - L,1.1:0B - L,1.1:2",
			fallbackQty: 2,
			want:        []domain.OrderLineItem{{Product: "B", Location: "L", Date: "1.1", Qty: 2}},
		},
		{
			name:        "all matches rejected falls back to prefix",
			text:        "A - L,1.1:0",
			fallbackQty: 3,
			want:        []domain.OrderLineItem{{Product: "A - L,1.1", Location: domain.OtherLocation, Qty: 3}},
		},
		{
			name:        "overflowing quantity falls back to prefix",
			text:        "Bundle - L,1.1:99999999999999999999",
			fallbackQty: 2,
			want:        []domain.OrderLineItem{{Product: "Bundle - L,1.1", Location: domain.OtherLocation, Qty: 2}},
		},
		{
			name:        "negative fallback is clamped",
			text:        "Widget",
			fallbackQty: -4,
			want:        []domain.OrderLineItem{{Product: "Widget", Location: domain.OtherLocation, Qty: 0}},
		},
		{name: "empty", text: "", fallbackQty: 1, want: nil},
		{name: "whitespace", text: " \t\n", fallbackQty: 1, want: nil},
		{name: "leading hyphen leaves no product", text: "- L", fallbackQty: 1, want: nil},
		{name: "leading colon leaves no product", text: ": 3", fallbackQty: 1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOrderDetails(tt.text, tt.fallbackQty)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOrderDetailsNeverNegative(t *testing.T) {
	inputs := []string{"x", "a - b,1.1", "a - b,1.1:3", "a:b", "-", "a - b - c,12.12:7"}
	for _, in := range inputs {
		for _, qty := range []float64{-1, 0, 2.5} {
			for _, item := range ParseOrderDetails(in, qty) {
				require.GreaterOrEqual(t, item.Qty, 0.0, "input %q", in)
			}
		}
	}
}
