package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustDecimal(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func TestDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"0.01", 1},
		{"1", 100},
		{"49.00", 4900},
		{"33.33", 3333},
		{"-12.50", -1250},
		{"1000000", 100000000},
	}
	for _, tc := range cases {
		got, err := DecimalToCents(mustDecimal(t, tc.in))
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestDecimalToCents_SubCentPrecision(t *testing.T) {
	_, err := DecimalToCents(mustDecimal(t, "10.005"))
	assert.Error(t, err)
}

func TestCentsToDecimal(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{4900, "49.00"},
		{3333, "33.33"},
		{-1250, "-12.50"},
		{-50, "-0.50"},
	}
	for _, tc := range cases {
		got, err := CentsToDecimal(tc.in)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got.String())
	}
}

func TestMonthlyInstallment(t *testing.T) {
	cases := []struct {
		total string
		n     int
		want  string
	}{
		{"900.00", 3, "300.00"},
		{"100.00", 3, "33.33"},
		{"100.00", 1, "100.00"},
		{"0.05", 2, "0.03"}, // half rounds away from zero
		{"1200.00", 12, "100.00"},
	}
	for _, tc := range cases {
		got, err := MonthlyInstallment(mustDecimal(t, tc.total), tc.n)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got.String(), "%s / %d", tc.total, tc.n)
	}
}

func TestMonthlyInstallment_InvalidCount(t *testing.T) {
	_, err := MonthlyInstallment(mustDecimal(t, "100.00"), 0)
	assert.Error(t, err)
}

func TestCompareDecimal128(t *testing.T) {
	cmp, err := CompareDecimal128(mustDecimal(t, "10.00"), mustDecimal(t, "10"))
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	cmp, err = CompareDecimal128(mustDecimal(t, "9.99"), mustDecimal(t, "10"))
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)
}

func TestAddDecimal128(t *testing.T) {
	sum, err := AddDecimal128(mustDecimal(t, "10.50"), mustDecimal(t, "0.75"))
	require.NoError(t, err)

	cmp, err := CompareDecimal128(sum, mustDecimal(t, "11.25"))
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)
}
