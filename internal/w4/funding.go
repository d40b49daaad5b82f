package w4

import (
	"fmt"
	"math/big"
)

// Funder makes sure the balance covers a publish before it is attempted.
type Funder struct {
	gateway  LedgerGateway
	logger   Logger
	decimals int
}

// NewFunder creates a Funder. decimals is only used to format amounts in logs.
func NewFunder(gateway LedgerGateway, logger Logger, decimals int) *Funder {
	return &Funder{gateway: gateway, logger: logger, decimals: decimals}
}

// EnsureFunded compares the price of size bytes with the current balance and
// tops up when the balance is short. The top-up is for the full price, not the
// shortfall. Nothing is retried; any gateway failure is a *FundingError.
func (f *Funder) EnsureFunded(size int64) error {
	price, err := f.gateway.PriceFor(size)
	if err != nil {
		return &FundingError{Op: "price lookup", Err: err}
	}
	balance, err := f.gateway.CurrentBalance()
	if err != nil {
		return &FundingError{Op: "balance lookup", Err: err}
	}

	f.logger.Info("funding check",
		"size", size,
		"price", FormatAtomic(price, f.decimals),
		"balance", FormatAtomic(balance, f.decimals),
	)

	if balance.Cmp(price) >= 0 {
		return nil
	}

	f.logger.Info("balance insufficient, topping up", "amount", FormatAtomic(price, f.decimals))

	tx, err := f.gateway.CreateFundingTransaction(new(big.Int).Set(price))
	if err != nil {
		return &FundingError{Op: "top-up", Err: err}
	}
	if err := f.gateway.SubmitFundingTransaction(tx); err != nil {
		return &FundingError{Op: "top-up submit", Err: fmt.Errorf("transaction %s: %w", tx.ID, err)}
	}

	f.logger.Info("top-up submitted", "tx", tx.ID)
	return nil
}
