package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"w4-go/internal/w4"
)

// ErrWalletNotConfigured is returned by operations that need a signature when
// the gateway has no Wallet.
var ErrWalletNotConfigured = errors.New("wallet signing is not configured")

// Wallet signs on behalf of the publishing identity. Key handling and the
// settlement chain live behind it.
type Wallet interface {
	// SignDataItem returns the signed, serialized data item for data and tags.
	SignDataItem(data []byte, tags w4.Tags) ([]byte, error)

	// Transfer sends amount atomic units to address and returns the chain
	// transaction id.
	Transfer(address string, amount *big.Int) (string, error)
}

// IrysOptions configures an IrysGateway.
type IrysOptions struct {
	NodeURL    string // e.g. https://uploader.irys.xyz
	GatewayURL string // e.g. https://gateway.irys.xyz
	Token      string // e.g. solana
	Address    string // wallet address whose balance is reported
	Timeout    time.Duration
	Wallet     Wallet // optional
	Client     *http.Client
}

// IrysGateway talks to an Irys node over HTTPS: pricing, balance, the
// GraphQL index and raw content are plain HTTP calls; publishing and creating
// a top-up go through the Wallet.
type IrysGateway struct {
	nodeURL    string
	gatewayURL string
	token      string
	address    string
	wallet     Wallet
	client     *http.Client
}

// NewIrysGateway creates a gateway. A zero Timeout means 30 seconds.
func NewIrysGateway(opts IrysOptions) (*IrysGateway, error) {
	if opts.NodeURL == "" {
		return nil, fmt.Errorf("irys gateway requires node_url to be set")
	}
	if opts.GatewayURL == "" {
		return nil, fmt.Errorf("irys gateway requires gateway_url to be set")
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("irys gateway requires token to be set")
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &IrysGateway{
		nodeURL:    strings.TrimRight(opts.NodeURL, "/"),
		gatewayURL: strings.TrimRight(opts.GatewayURL, "/"),
		token:      opts.Token,
		address:    opts.Address,
		wallet:     opts.Wallet,
		client:     client,
	}, nil
}

// CanPublish reports ErrWalletNotConfigured when the gateway has no Wallet.
func (g *IrysGateway) CanPublish() error {
	if g.wallet == nil {
		return ErrWalletNotConfigured
	}
	return nil
}

func (g *IrysGateway) PriceFor(size int64) (*big.Int, error) {
	body, err := g.get(fmt.Sprintf("%s/price/%s/%d", g.nodeURL, url.PathEscape(g.token), size))
	if err != nil {
		return nil, fmt.Errorf("fetching price: %w", err)
	}
	price, err := w4.ParseAmount(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing price: %w", err)
	}
	return price, nil
}

func (g *IrysGateway) CurrentBalance() (*big.Int, error) {
	if g.address == "" {
		return nil, fmt.Errorf("no wallet address configured")
	}
	u := fmt.Sprintf("%s/account/balance/%s?address=%s", g.nodeURL, url.PathEscape(g.token), url.QueryEscape(g.address))
	body, err := g.get(u)
	if err != nil {
		return nil, fmt.Errorf("fetching balance: %w", err)
	}

	var resp struct {
		Balance json.RawMessage `json:"balance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding balance: %w", err)
	}
	// Nodes have returned the balance both as a string and as a bare number.
	raw := strings.Trim(string(resp.Balance), `"`)
	balance, err := w4.ParseAmount(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing balance: %w", err)
	}
	return balance, nil
}

func (g *IrysGateway) CreateFundingTransaction(amount *big.Int) (w4.FundingTx, error) {
	if g.wallet == nil {
		return w4.FundingTx{}, ErrWalletNotConfigured
	}

	body, err := g.get(g.nodeURL + "/info")
	if err != nil {
		return w4.FundingTx{}, fmt.Errorf("fetching node info: %w", err)
	}
	var info struct {
		Addresses map[string]string `json:"addresses"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return w4.FundingTx{}, fmt.Errorf("decoding node info: %w", err)
	}
	to, ok := info.Addresses[g.token]
	if !ok || to == "" {
		return w4.FundingTx{}, fmt.Errorf("node has no %s funding address", g.token)
	}

	txID, err := g.wallet.Transfer(to, amount)
	if err != nil {
		return w4.FundingTx{}, fmt.Errorf("transferring funds: %w", err)
	}
	return w4.FundingTx{ID: txID, Amount: new(big.Int).Set(amount)}, nil
}

func (g *IrysGateway) SubmitFundingTransaction(tx w4.FundingTx) error {
	payload, err := json.Marshal(map[string]string{"tx_id": tx.ID})
	if err != nil {
		return fmt.Errorf("encoding funding submission: %w", err)
	}
	u := fmt.Sprintf("%s/account/balance/%s", g.nodeURL, url.PathEscape(g.token))
	if _, err := g.post(u, "application/json", payload); err != nil {
		return fmt.Errorf("submitting funding transaction: %w", err)
	}
	return nil
}

func (g *IrysGateway) Publish(data []byte, tags w4.Tags) (string, error) {
	if g.wallet == nil {
		return "", ErrWalletNotConfigured
	}
	item, err := g.wallet.SignDataItem(data, tags)
	if err != nil {
		return "", fmt.Errorf("signing data item: %w", err)
	}

	u := fmt.Sprintf("%s/tx/%s", g.nodeURL, url.PathEscape(g.token))
	body, err := g.post(u, "application/octet-stream", item)
	if err != nil {
		return "", fmt.Errorf("uploading data item: %w", err)
	}

	var receipt struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &receipt); err != nil {
		return "", fmt.Errorf("decoding upload receipt: %w", err)
	}
	if receipt.ID == "" {
		return "", fmt.Errorf("upload receipt has no id")
	}
	return receipt.ID, nil
}

func (g *IrysGateway) ExecuteDiscoveryQuery(doc w4.QueryDocument) (*w4.QueryResult, error) {
	payload, err := json.Marshal(map[string]string{"query": doc.String()})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	body, err := g.post(g.nodeURL+"/graphql", "application/json", payload)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}

	var resp struct {
		Data struct {
			Transactions *w4.QueryResult `json:"transactions"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	if resp.Data.Transactions == nil {
		return &w4.QueryResult{Edges: []w4.Edge{}}, nil
	}
	return resp.Data.Transactions, nil
}

func (g *IrysGateway) FetchRaw(id string) ([]byte, error) {
	body, err := g.get(g.gatewayURL + "/" + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", id, err)
	}
	return body, nil
}

func (g *IrysGateway) get(u string) ([]byte, error) {
	resp, err := g.client.Get(u)
	if err != nil {
		return nil, err
	}
	return readResponse(resp)
}

func (g *IrysGateway) post(u, contentType string, payload []byte) ([]byte, error) {
	resp, err := g.client.Post(u, contentType, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return readResponse(resp)
}

// readResponse drains and closes resp, turning non-2xx statuses into errors.
func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return body, nil
}

// Compile-time check that IrysGateway implements w4.LedgerGateway interface
var (
	_ w4.LedgerGateway  = (*IrysGateway)(nil)
	_ w4.PublishChecker = (*IrysGateway)(nil)
)
