package w4

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseAmount parses a base-10 atomic amount as returned by ledger nodes.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return v, nil
}

// FormatAtomic renders an atomic amount in whole units with the given number
// of decimals, e.g. 1500000000 with 9 decimals is "1.5". Display only.
func FormatAtomic(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, unit, new(big.Int))

	s := whole.String()
	if frac.Sign() != 0 {
		digits := frac.String()
		digits = strings.Repeat("0", decimals-len(digits)) + digits
		s += "." + strings.TrimRight(digits, "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}
