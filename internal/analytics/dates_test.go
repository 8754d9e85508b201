package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/revsplit/internal/domain"
)

var fixedNow = time.Date(2024, time.March, 15, 13, 30, 0, 0, time.UTC)

func TestResolveDayMonth(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "10.3", want: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)},
		{in: "15.3", want: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{in: "16.3", want: time.Date(2023, time.March, 16, 0, 0, 0, 0, time.UTC)},
		{in: "01.12", want: time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)},
		{in: " 1.1 ", want: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveDayMonth(tt.in, fixedNow)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestResolveDayMonthInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1", "1.2.3", "0.1", "32.1", "1.0", "1.13", "x.3"} {
		_, err := ResolveDayMonth(in, fixedNow)
		assert.Error(t, err, in)
	}
}

func TestCompileFilter(t *testing.T) {
	w, err := compileFilter(domain.DateFilter{}, fixedNow)
	require.NoError(t, err)
	assert.Nil(t, w)

	_, err = compileFilter(domain.DateFilter{Start: "40.1"}, fixedNow)
	assert.ErrorIs(t, err, domain.ErrInvalidDateFilter)

	_, err = compileFilter(domain.DateFilter{End: "bad"}, fixedNow)
	assert.ErrorIs(t, err, domain.ErrInvalidDateFilter)
}

func TestDateWindowMatches(t *testing.T) {
	w, err := compileFilter(domain.DateFilter{Start: "5.3", End: "12.3"}, fixedNow)
	require.NoError(t, err)

	in := domain.OrderLineItem{Date: "10.3"}
	out := domain.OrderLineItem{Date: "1.3"}
	undated := domain.OrderLineItem{}

	assert.True(t, w.matches([]domain.OrderLineItem{in}))
	assert.True(t, w.matches([]domain.OrderLineItem{out, in}))
	assert.False(t, w.matches([]domain.OrderLineItem{out}))
	assert.False(t, w.matches([]domain.OrderLineItem{undated}))

	var open *dateWindow
	assert.True(t, open.matches([]domain.OrderLineItem{undated}))

	startOnly, err := compileFilter(domain.DateFilter{Start: "5.3"}, fixedNow)
	require.NoError(t, err)
	assert.True(t, startOnly.matches([]domain.OrderLineItem{{Date: "14.3"}}))
	assert.False(t, startOnly.matches([]domain.OrderLineItem{{Date: "4.3"}}))
}
