package numparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-calendar-lab/internal/domain"
)

func TestParse_Values(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		kind domain.ValueKind
	}{
		{"3.5%", 3.5, domain.KindPct},
		{"-0.2K", -200, domain.KindLevel},
		{"-0.2%", -0.2, domain.KindPct},
		{"1.3M", 1300000, domain.KindLevel},
		{"4,500", 4500, domain.KindLevel},
		{"256K", 256000, domain.KindLevel},
		{"2.1B", 2100000000, domain.KindLevel},
		{"1.2T", 1200000000000, domain.KindLevel},
		{"0.5k", 500, domain.KindLevel},
		{"+12", 12, domain.KindLevel},
		{".5", 0.5, domain.KindLevel},
		{"-.25%", -0.25, domain.KindPct},
		{"1.3 billion", 1300000000, domain.KindLevel},
		{"4.5bn", 4500000000, domain.KindLevel},
		{"12 million", 12000000, domain.KindLevel},
		{"7 mln", 7000000, domain.KindLevel},
		{"3 thousand", 3000, domain.KindLevel},
		{" 1 234 ", 1234, domain.KindLevel},
		{"$1.25", 1.25, domain.KindLevel},
		{"−0.3%", -0.3, domain.KindPct},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := Parse(tt.in)
			require.NoError(t, err)
			require.NotNil(t, n.Value)
			require.NotNil(t, n.Kind)
			assert.InDelta(t, tt.want, *n.Value, 1e-9)
			assert.Equal(t, tt.kind, *n.Kind)
		})
	}
}

func TestParse_ExactSuffixArithmetic(t *testing.T) {
	n, err := Parse("-0.2K")
	require.NoError(t, err)
	assert.Equal(t, -200.0, *n.Value)

	n, err = Parse("0.3M")
	require.NoError(t, err)
	assert.Equal(t, 300000.0, *n.Value)
}

func TestParse_Placeholders(t *testing.T) {
	for _, in := range []string{"", "   ", "n/a", "N/A", "na", "NA", "--"} {
		n, err := Parse(in)
		assert.NoError(t, err, in)
		assert.Nil(t, n.Value, in)
		assert.Nil(t, n.Kind, in)
	}
}

func TestParse_Fallback(t *testing.T) {
	n, err := Parse("approx 1.5x")
	require.NoError(t, err)
	require.NotNil(t, n.Value)
	assert.Equal(t, 1.5, *n.Value)

	n, err = Parse("1.")
	require.NoError(t, err)
	assert.Equal(t, 1.0, *n.Value)
}

func TestParse_Malformed(t *testing.T) {
	n, err := Parse("pending%")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedValue))
	assert.Nil(t, n.Value)
	require.NotNil(t, n.Kind)
	assert.Equal(t, domain.KindPct, *n.Kind)

	n, err = Parse("tbd")
	require.Error(t, err)
	assert.Nil(t, n.Value)
	assert.Nil(t, n.Kind)
}

func TestParse_OutOfRange(t *testing.T) {
	n, err := Parse("1" + strings.Repeat("0", 320))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedValue)
	assert.Nil(t, n.Value)

	n, err = Parse("9" + strings.Repeat("9", 310) + "T")
	require.Error(t, err)
	assert.Nil(t, n.Value)
}

func TestParse_ExponentAndAccountingNegative(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		kind domain.ValueKind
	}{
		{"1e3", 1000, domain.KindLevel},
		{"2.5E-2", 0.025, domain.KindLevel},
		{"(2.1)", -2.1, domain.KindLevel},
		{"(0.4%)", -0.4, domain.KindPct},
		{"(1.2K)", -1200, domain.KindLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := Parse(tt.in)
			require.NoError(t, err)
			require.NotNil(t, n.Value)
			assert.InDelta(t, tt.want, *n.Value, 1e-12)
			assert.Equal(t, tt.kind, *n.Kind)
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	a, _ := Parse("1.3M")
	b, _ := Parse("1.3M")
	assert.Equal(t, *a.Value, *b.Value)
}
