package testutil

import (
	"math/big"

	"w4-go/internal/ledger"
)

// TestOwner is the publishing identity of test ledgers.
const TestOwner = "test-owner-address"

// NewTestLedger creates an in-memory ledger charging perByte atomic units per
// byte, with the given starting balance.
func NewTestLedger(perByte, balance int64) *ledger.MemoryLedger {
	pricing := ledger.Pricing{Base: big.NewInt(0), PerByte: big.NewInt(perByte)}
	return ledger.NewMemoryLedger(TestOwner, pricing, big.NewInt(balance))
}
