package ledger

import (
	"fmt"
	"math/big"
	"time"

	"w4-go/internal/config"
	"w4-go/internal/w4"
)

// NewLedgerFromConfig creates a LedgerGateway implementation based on the ledger config type.
// The irys gateway is created without a Wallet, so it can price, query and
// fetch but not publish or top up.
func NewLedgerFromConfig(cfg config.LedgerConfig) (w4.LedgerGateway, error) {
	switch cfg.Type {
	case "irys", "":
		return NewIrysGateway(IrysOptions{
			NodeURL:    cfg.NodeURL,
			GatewayURL: cfg.GatewayURL,
			Token:      cfg.Token,
			Address:    cfg.Address,
			Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		})
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem ledger requires fs_root to be set")
		}
		pricing, balance, err := localLedgerParams(cfg)
		if err != nil {
			return nil, err
		}
		return NewFileSystemLedger(cfg.FSRoot, cfg.Address, pricing, balance)
	case "memory":
		pricing, balance, err := localLedgerParams(cfg)
		if err != nil {
			return nil, err
		}
		return NewMemoryLedger(cfg.Address, pricing, balance), nil
	default:
		return nil, fmt.Errorf("unknown ledger type: %s", cfg.Type)
	}
}

func localLedgerParams(cfg config.LedgerConfig) (Pricing, *big.Int, error) {
	pricing, err := NewPricing(cfg.PriceBase, cfg.PricePerByte)
	if err != nil {
		return Pricing{}, nil, err
	}
	balance, err := parseOptionalAmount(cfg.InitialBalance)
	if err != nil {
		return Pricing{}, nil, fmt.Errorf("initial balance: %w", err)
	}
	return pricing, balance, nil
}
