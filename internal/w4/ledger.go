package w4

import "math/big"

// FundingTx identifies a funding transaction created by the ledger's wallet
// and not yet acknowledged by the node.
type FundingTx struct {
	ID     string
	Amount *big.Int
}

// LedgerGateway is the storage network as seen by this client. Settlement and
// wallet signing live behind it. Amounts are in the ledger's atomic unit.
// Any network timeout is the implementation's concern.
type LedgerGateway interface {
	// PriceFor returns the cost of publishing size bytes.
	PriceFor(size int64) (*big.Int, error)

	// CurrentBalance returns the balance available to the publishing identity.
	CurrentBalance() (*big.Int, error)

	// CreateFundingTransaction creates and signs a top-up for amount.
	CreateFundingTransaction(amount *big.Int) (FundingTx, error)

	// SubmitFundingTransaction hands a created top-up to the node so it is
	// credited to the balance.
	SubmitFundingTransaction(tx FundingTx) error

	// Publish stores data with tags and returns its transaction id.
	Publish(data []byte, tags Tags) (string, error)

	// ExecuteDiscoveryQuery runs a query against the indexing service.
	ExecuteDiscoveryQuery(doc QueryDocument) (*QueryResult, error)

	// FetchRaw returns the content stored under id.
	FetchRaw(id string) ([]byte, error)
}

// PublishChecker is implemented by gateways that can only publish when set up
// for it, e.g. with a signing wallet. Publisher calls CanPublish before any
// other ledger call.
type PublishChecker interface {
	CanPublish() error
}
