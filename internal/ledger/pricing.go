package ledger

import (
	"fmt"
	"math/big"

	"w4-go/internal/w4"
)

// Pricing is the linear price model of the local ledgers: base + perByte*size.
type Pricing struct {
	Base    *big.Int
	PerByte *big.Int
}

// NewPricing parses base and perByte as atomic amounts. Empty strings are zero.
func NewPricing(base, perByte string) (Pricing, error) {
	b, err := parseOptionalAmount(base)
	if err != nil {
		return Pricing{}, fmt.Errorf("price base: %w", err)
	}
	p, err := parseOptionalAmount(perByte)
	if err != nil {
		return Pricing{}, fmt.Errorf("price per byte: %w", err)
	}
	return Pricing{Base: b, PerByte: p}, nil
}

// Price returns the cost of size bytes.
func (p Pricing) Price(size int64) *big.Int {
	price := new(big.Int).Mul(orZero(p.PerByte), big.NewInt(size))
	return price.Add(price, orZero(p.Base))
}

func parseOptionalAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	return w4.ParseAmount(s)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
