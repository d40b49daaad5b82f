package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"w4-go/internal/w4"
)

// Op names a gateway operation, for call logs and injected failures.
type Op string

const (
	OpPrice         Op = "PriceFor"
	OpBalance       Op = "CurrentBalance"
	OpCreateFunding Op = "CreateFundingTransaction"
	OpSubmitFunding Op = "SubmitFundingTransaction"
	OpPublish       Op = "Publish"
	OpQuery         Op = "ExecuteDiscoveryQuery"
	OpFetch         Op = "FetchRaw"
)

type memoryTx struct {
	id    string
	owner string
	data  []byte
	tags  w4.Tags
}

// MemoryLedger is an in-process implementation of w4.LedgerGateway.
// Publishing charges the price against the balance, so funding behaves like
// a real node. It records every call and funding request, which makes it
// useful for testing. This implementation is safe for concurrent use.
type MemoryLedger struct {
	mu       sync.Mutex
	owner    string
	pricing  Pricing
	balance  *big.Int
	seq      int64
	txs      []memoryTx // oldest first
	pending  map[string]*big.Int
	requests []*big.Int
	calls    []Op
	failures map[Op]error
	ids      w4.IDGenerator
}

// NewMemoryLedger creates an empty ledger. Publishes are attributed to owner.
func NewMemoryLedger(owner string, pricing Pricing, balance *big.Int) *MemoryLedger {
	return &MemoryLedger{
		owner:    owner,
		pricing:  pricing,
		balance:  new(big.Int).Set(orZero(balance)),
		pending:  make(map[string]*big.Int),
		failures: make(map[Op]error),
		ids:      w4.UUIDGenerator{},
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (m *MemoryLedger) FailOn(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// SetBalance replaces the current balance.
func (m *MemoryLedger) SetBalance(v *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = new(big.Int).Set(v)
}

// Balance returns a copy of the current balance.
func (m *MemoryLedger) Balance() *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.balance)
}

// FundingRequests returns the amounts of every created funding transaction, in order.
func (m *MemoryLedger) FundingRequests() []*big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*big.Int, len(m.requests))
	for i, r := range m.requests {
		out[i] = new(big.Int).Set(r)
	}
	return out
}

// Calls returns the operations invoked so far, in order.
func (m *MemoryLedger) Calls() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Op(nil), m.calls...)
}

// Len returns the number of published transactions.
func (m *MemoryLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// begin records a call and returns its injected failure, if any. Caller holds mu.
func (m *MemoryLedger) begin(op Op) error {
	m.calls = append(m.calls, op)
	return m.failures[op]
}

func (m *MemoryLedger) PriceFor(size int64) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpPrice); err != nil {
		return nil, err
	}
	return m.pricing.Price(size), nil
}

func (m *MemoryLedger) CurrentBalance() (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpBalance); err != nil {
		return nil, err
	}
	return new(big.Int).Set(m.balance), nil
}

func (m *MemoryLedger) CreateFundingTransaction(amount *big.Int) (w4.FundingTx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpCreateFunding); err != nil {
		return w4.FundingTx{}, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return w4.FundingTx{}, fmt.Errorf("funding amount must be positive")
	}

	id := m.ids.New()
	m.pending[id] = new(big.Int).Set(amount)
	m.requests = append(m.requests, new(big.Int).Set(amount))
	return w4.FundingTx{ID: id, Amount: new(big.Int).Set(amount)}, nil
}

func (m *MemoryLedger) SubmitFundingTransaction(tx w4.FundingTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpSubmitFunding); err != nil {
		return err
	}
	amount, ok := m.pending[tx.ID]
	if !ok {
		return fmt.Errorf("unknown funding transaction: %s", tx.ID)
	}
	delete(m.pending, tx.ID)
	m.balance.Add(m.balance, amount)
	return nil
}

func (m *MemoryLedger) Publish(data []byte, tags w4.Tags) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpPublish); err != nil {
		return "", err
	}

	price := m.pricing.Price(int64(len(data)))
	if m.balance.Cmp(price) < 0 {
		return "", fmt.Errorf("insufficient balance: have %s, need %s", m.balance, price)
	}

	id, err := TransactionID(data, m.seq+1)
	if err != nil {
		return "", err
	}
	m.seq++
	m.balance.Sub(m.balance, price)
	m.txs = append(m.txs, memoryTx{
		id:    id,
		owner: m.owner,
		data:  append([]byte(nil), data...),
		tags:  append(w4.Tags(nil), tags...),
	})
	return id, nil
}

func (m *MemoryLedger) ExecuteDiscoveryQuery(doc w4.QueryDocument) (*w4.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpQuery); err != nil {
		return nil, err
	}

	result := &w4.QueryResult{Edges: []w4.Edge{}}
	for i := len(m.txs) - 1; i >= 0 && len(result.Edges) < doc.Limit; i-- {
		tx := m.txs[i]
		if !doc.Matches(tx.owner, tx.tags) {
			continue
		}
		result.Edges = append(result.Edges, w4.Edge{Node: w4.Node{
			ID:   tx.id,
			Tags: append(w4.Tags(nil), tx.tags...),
		}})
	}
	return result, nil
}

func (m *MemoryLedger) FetchRaw(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpFetch); err != nil {
		return nil, err
	}
	for _, tx := range m.txs {
		if tx.id == id {
			return append([]byte(nil), tx.data...), nil
		}
	}
	return nil, fmt.Errorf("transaction not found: %s", id)
}

// Compile-time check that MemoryLedger implements w4.LedgerGateway interface
var _ w4.LedgerGateway = (*MemoryLedger)(nil)
