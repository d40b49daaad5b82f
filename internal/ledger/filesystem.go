package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"w4-go/internal/w4"
)

// FileSystemLedger is a local, filesystem-backed implementation of
// w4.LedgerGateway for offline development. Its layout is:
//
//	<root>/
//	  blobs/
//	    <id>          (published content)
//	  tags/
//	    <id>.json     (owner, sequence and tags of each transaction)
//	  account.json    (balance, sequence and pending top-ups)
type FileSystemLedger struct {
	mu      sync.Mutex
	root    string
	blobDir string
	tagDir  string
	owner   string
	pricing Pricing
	ids     w4.IDGenerator
}

type fsAccount struct {
	Balance  string            `json:"balance"`
	Sequence int64             `json:"sequence"`
	Pending  map[string]string `json:"pending,omitempty"`
}

type fsTransaction struct {
	ID       string  `json:"id"`
	Owner    string  `json:"owner"`
	Sequence int64   `json:"sequence"`
	Tags     w4.Tags `json:"tags"`
}

// NewFileSystemLedger opens (creating if needed) a ledger rooted at root.
// initialBalance seeds account.json when the ledger is new.
func NewFileSystemLedger(root, owner string, pricing Pricing, initialBalance *big.Int) (*FileSystemLedger, error) {
	blobDir := filepath.Join(root, "blobs")
	tagDir := filepath.Join(root, "tags")

	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.MkdirAll(tagDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tag directory: %w", err)
	}

	l := &FileSystemLedger{
		root:    root,
		blobDir: blobDir,
		tagDir:  tagDir,
		owner:   owner,
		pricing: pricing,
		ids:     w4.UUIDGenerator{},
	}

	if _, err := os.Stat(l.accountPath()); errors.Is(err, os.ErrNotExist) {
		acct := &fsAccount{Balance: orZero(initialBalance).String()}
		if err := l.writeAccount(acct); err != nil {
			return nil, err
		}
	}

	return l, nil
}

func (l *FileSystemLedger) accountPath() string {
	return filepath.Join(l.root, "account.json")
}

func (l *FileSystemLedger) PriceFor(size int64) (*big.Int, error) {
	return l.pricing.Price(size), nil
}

func (l *FileSystemLedger) CurrentBalance() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.readAccount()
	if err != nil {
		return nil, err
	}
	return w4.ParseAmount(acct.Balance)
}

func (l *FileSystemLedger) CreateFundingTransaction(amount *big.Int) (w4.FundingTx, error) {
	if amount == nil || amount.Sign() <= 0 {
		return w4.FundingTx{}, fmt.Errorf("funding amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.readAccount()
	if err != nil {
		return w4.FundingTx{}, err
	}
	if acct.Pending == nil {
		acct.Pending = make(map[string]string)
	}
	id := l.ids.New()
	acct.Pending[id] = amount.String()
	if err := l.writeAccount(acct); err != nil {
		return w4.FundingTx{}, err
	}
	return w4.FundingTx{ID: id, Amount: new(big.Int).Set(amount)}, nil
}

func (l *FileSystemLedger) SubmitFundingTransaction(tx w4.FundingTx) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.readAccount()
	if err != nil {
		return err
	}
	pending, ok := acct.Pending[tx.ID]
	if !ok {
		return fmt.Errorf("unknown funding transaction: %s", tx.ID)
	}
	amount, err := w4.ParseAmount(pending)
	if err != nil {
		return fmt.Errorf("pending funding %s: %w", tx.ID, err)
	}
	balance, err := w4.ParseAmount(acct.Balance)
	if err != nil {
		return fmt.Errorf("account balance: %w", err)
	}

	delete(acct.Pending, tx.ID)
	acct.Balance = balance.Add(balance, amount).String()
	return l.writeAccount(acct)
}

func (l *FileSystemLedger) Publish(data []byte, tags w4.Tags) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.readAccount()
	if err != nil {
		return "", err
	}
	balance, err := w4.ParseAmount(acct.Balance)
	if err != nil {
		return "", fmt.Errorf("account balance: %w", err)
	}
	price := l.pricing.Price(int64(len(data)))
	if balance.Cmp(price) < 0 {
		return "", fmt.Errorf("insufficient balance: have %s, need %s", balance, price)
	}

	seq := acct.Sequence + 1
	id, err := TransactionID(data, seq)
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(filepath.Join(l.blobDir, id), data); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	meta, err := json.Marshal(fsTransaction{ID: id, Owner: l.owner, Sequence: seq, Tags: tags})
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(l.tagDir, id+".json"), meta); err != nil {
		return "", fmt.Errorf("writing tags: %w", err)
	}

	acct.Sequence = seq
	acct.Balance = balance.Sub(balance, price).String()
	if err := l.writeAccount(acct); err != nil {
		return "", err
	}
	return id, nil
}

func (l *FileSystemLedger) ExecuteDiscoveryQuery(doc w4.QueryDocument) (*w4.QueryResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := os.ReadDir(l.tagDir)
	if err != nil {
		return nil, fmt.Errorf("reading tag directory: %w", err)
	}

	var txs []fsTransaction
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(l.tagDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var tx fsTransaction
		if err := json.Unmarshal(data, &tx); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", e.Name(), err)
		}
		txs = append(txs, tx)
	}

	sort.Slice(txs, func(i, j int) bool { return txs[i].Sequence > txs[j].Sequence })

	result := &w4.QueryResult{Edges: []w4.Edge{}}
	for _, tx := range txs {
		if len(result.Edges) >= doc.Limit {
			break
		}
		if !doc.Matches(tx.Owner, tx.Tags) {
			continue
		}
		result.Edges = append(result.Edges, w4.Edge{Node: w4.Node{ID: tx.ID, Tags: tx.Tags}})
	}
	return result, nil
}

func (l *FileSystemLedger) FetchRaw(id string) ([]byte, error) {
	if !ValidTransactionID(id) {
		return nil, fmt.Errorf("invalid transaction id: %q", id)
	}
	data, err := os.ReadFile(filepath.Join(l.blobDir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transaction not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// readAccount loads account.json. Caller holds mu.
func (l *FileSystemLedger) readAccount() (*fsAccount, error) {
	data, err := os.ReadFile(l.accountPath())
	if err != nil {
		return nil, fmt.Errorf("reading account: %w", err)
	}
	var acct fsAccount
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("decoding account: %w", err)
	}
	return &acct, nil
}

// writeAccount replaces account.json. Caller holds mu.
func (l *FileSystemLedger) writeAccount(acct *fsAccount) error {
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding account: %w", err)
	}
	if err := writeFileAtomic(l.accountPath(), data); err != nil {
		return fmt.Errorf("writing account: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to destPath using a temp file and rename.
func writeFileAtomic(destPath string, data []byte) error {
	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemLedger implements w4.LedgerGateway interface
var _ w4.LedgerGateway = (*FileSystemLedger)(nil)
