package helper

import (
	"fmt"
	"math/big"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompareDecimal128 compares two primitive.Decimal128 values.
// It returns:
// -1 if d1 < d2
// 0 if d1 == d2
// 1 if d1 > d2
// An error if conversion to BigFloat fails.
func CompareDecimal128(d1, d2 primitive.Decimal128) (int, error) {
	f1, _, err := new(big.Float).Parse(d1.String(), 10)
	if err != nil {
		return 0, fmt.Errorf("failed to convert d1 to big.Float: %w", err)
	}
	f2, _, err := new(big.Float).Parse(d2.String(), 10)
	if err != nil {
		return 0, fmt.Errorf("failed to convert d2 to big.Float: %w", err)
	}
	return f1.Cmp(f2), nil
}

// AddDecimal128 adds two primitive.Decimal128 values (d1 + d2).
// It returns the result as a primitive.Decimal128.
func AddDecimal128(d1, d2 primitive.Decimal128) (primitive.Decimal128, error) {
	f1, _, err := new(big.Float).SetPrec(big.MaxPrec).Parse(d1.String(), 10)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert d1 to big.Float: %w", err)
	}
	f2, _, err := new(big.Float).SetPrec(big.MaxPrec).Parse(d2.String(), 10)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert d2 to big.Float: %w", err)
	}

	resultFloat := new(big.Float).Add(f1, f2)

	resultDecimal, err := primitive.ParseDecimal128(resultFloat.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert result to Decimal128: %w", err)
	}

	return resultDecimal, nil
}

// DecimalToCents converts a monetary Decimal128 into an integer number of
// cents, as the payment gateway expects amounts in the smallest currency
// unit. Values with more than two fractional digits are rejected.
func DecimalToCents(d primitive.Decimal128) (int64, error) {
	if d.IsNaN() || d.IsInf() != 0 {
		return 0, fmt.Errorf("cannot convert special Decimal128 value (NaN or Infinity) to cents")
	}

	r, ok := new(big.Rat).SetString(d.String())
	if !ok {
		return 0, fmt.Errorf("failed to parse Decimal128 string '%s'", d.String())
	}
	r.Mul(r, big.NewRat(100, 1))
	if !r.IsInt() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", d.String())
	}
	if !r.Num().IsInt64() {
		return 0, fmt.Errorf("amount %s is out of int64 range", d.String())
	}
	return r.Num().Int64(), nil
}

// CentsToDecimal converts an integer number of cents into a monetary
// Decimal128 with two fractional digits.
func CentsToDecimal(cents int64) (primitive.Decimal128, error) {
	whole := cents / 100
	frac := cents % 100
	if frac < 0 {
		frac = -frac
	}
	s := fmt.Sprintf("%d.%02d", whole, frac)
	if cents < 0 && whole == 0 {
		s = "-" + s
	}
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %d cents to Decimal128: %w", cents, err)
	}
	return d, nil
}

// MonthlyInstallment splits a total across n payments, rounded to the
// nearest cent (half away from zero).
func MonthlyInstallment(total primitive.Decimal128, n int) (primitive.Decimal128, error) {
	if n <= 0 {
		return primitive.Decimal128{}, fmt.Errorf("number of payments must be positive, got %d", n)
	}
	r, ok := new(big.Rat).SetString(total.String())
	if !ok {
		return primitive.Decimal128{}, fmt.Errorf("failed to parse Decimal128 string '%s'", total.String())
	}
	r.Quo(r, big.NewRat(int64(n), 1))

	// Round to cents: floor(r*100 + 1/2).
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	cents := new(big.Int).Quo(r.Num(), r.Denom())
	if !cents.IsInt64() {
		return primitive.Decimal128{}, fmt.Errorf("installment out of range for total %s", total.String())
	}
	return CentsToDecimal(cents.Int64())
}
