package ledger

import (
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"w4-go/internal/w4"
)

type stubWallet struct {
	signed      []byte
	transferTo  string
	transferAmt *big.Int
}

func (w *stubWallet) SignDataItem(data []byte, tags w4.Tags) ([]byte, error) {
	w.signed = append([]byte("signed:"), data...)
	return w.signed, nil
}

func (w *stubWallet) Transfer(address string, amount *big.Int) (string, error) {
	w.transferTo = address
	w.transferAmt = amount
	return "chain-tx-1", nil
}

func newTestIrys(t *testing.T, handler http.HandlerFunc, wallet Wallet) *IrysGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewIrysGateway(IrysOptions{
		NodeURL:    srv.URL,
		GatewayURL: srv.URL + "/gw",
		Token:      "solana",
		Address:    "addr-1",
		Wallet:     wallet,
		Client:     srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewIrysGateway() error = %v", err)
	}
	return g
}

func TestIrysGateway_PriceAndBalance(t *testing.T) {
	g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/price/solana/2048":
			io.WriteString(w, "123456789012345678901")
		case r.URL.Path == "/account/balance/solana" && r.URL.Query().Get("address") == "addr-1":
			io.WriteString(w, `{"balance":"500"}`)
		default:
			http.NotFound(w, r)
		}
	}, nil)

	price, err := g.PriceFor(2048)
	if err != nil {
		t.Fatalf("PriceFor() error = %v", err)
	}
	if price.String() != "123456789012345678901" {
		t.Errorf("PriceFor() = %s", price)
	}

	balance, err := g.CurrentBalance()
	if err != nil {
		t.Fatalf("CurrentBalance() error = %v", err)
	}
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("CurrentBalance() = %s, want 500", balance)
	}
}

func TestIrysGateway_BalanceAsNumber(t *testing.T) {
	g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"balance":42}`)
	}, nil)

	balance, err := g.CurrentBalance()
	if err != nil {
		t.Fatalf("CurrentBalance() error = %v", err)
	}
	if balance.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("CurrentBalance() = %s, want 42", balance)
	}
}

func TestIrysGateway_Funding(t *testing.T) {
	var submitted string
	g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/info":
			io.WriteString(w, `{"addresses":{"solana":"node-wallet"}}`)
		case r.URL.Path == "/account/balance/solana" && r.Method == http.MethodPost:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			submitted = body["tx_id"]
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}, &stubWallet{})
	wallet := g.wallet.(*stubWallet)

	tx, err := g.CreateFundingTransaction(big.NewInt(77))
	if err != nil {
		t.Fatalf("CreateFundingTransaction() error = %v", err)
	}
	if wallet.transferTo != "node-wallet" || wallet.transferAmt.Cmp(big.NewInt(77)) != 0 {
		t.Errorf("transfer = %s to %q, want 77 to node-wallet", wallet.transferAmt, wallet.transferTo)
	}
	if err := g.SubmitFundingTransaction(tx); err != nil {
		t.Fatalf("SubmitFundingTransaction() error = %v", err)
	}
	if submitted != "chain-tx-1" {
		t.Errorf("submitted tx_id = %q, want chain-tx-1", submitted)
	}
}

func TestIrysGateway_Publish(t *testing.T) {
	t.Run("uploads the signed item", func(t *testing.T) {
		var received []byte
		g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tx/solana" || r.Method != http.MethodPost {
				http.NotFound(w, r)
				return
			}
			received, _ = io.ReadAll(r.Body)
			io.WriteString(w, `{"id":"tx-abc"}`)
		}, &stubWallet{})

		if err := g.CanPublish(); err != nil {
			t.Fatalf("CanPublish() error = %v", err)
		}
		id, err := g.Publish([]byte("hello"), w4.Tags{{Name: "a", Value: "b"}})
		if err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if id != "tx-abc" {
			t.Errorf("Publish() = %q, want tx-abc", id)
		}
		if string(received) != "signed:hello" {
			t.Errorf("uploaded %q, want signed:hello", received)
		}
	})

	t.Run("requires a wallet", func(t *testing.T) {
		g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request %s", r.URL.Path)
		}, nil)

		if err := g.CanPublish(); !errors.Is(err, ErrWalletNotConfigured) {
			t.Errorf("CanPublish() error = %v, want ErrWalletNotConfigured", err)
		}

		if _, err := g.Publish([]byte("x"), nil); !errors.Is(err, ErrWalletNotConfigured) {
			t.Errorf("Publish() error = %v, want ErrWalletNotConfigured", err)
		}
		if _, err := g.CreateFundingTransaction(big.NewInt(1)); !errors.Is(err, ErrWalletNotConfigured) {
			t.Errorf("CreateFundingTransaction() error = %v, want ErrWalletNotConfigured", err)
		}
	})

	t.Run("rejection carries the status", func(t *testing.T) {
		g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Not enough balance for transaction", http.StatusPaymentRequired)
		}, &stubWallet{})

		_, err := g.Publish([]byte("x"), nil)
		if err == nil || !strings.Contains(err.Error(), "status 402") {
			t.Errorf("Publish() error = %v, want status 402", err)
		}
	})
}

func TestIrysGateway_ExecuteDiscoveryQuery(t *testing.T) {
	t.Run("decodes edges", func(t *testing.T) {
		var query string
		g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			query = body["query"]
			io.WriteString(w, `{"data":{"transactions":{"edges":[
				{"node":{"id":"tx2","tags":[{"name":"Version","value":"0.1.1"}]}},
				{"node":{"id":"tx1","tags":[]}}
			]}}}`)
		}, nil)

		doc := w4.BuildQuery(w4.QueryCriteria{TagName: "istartproject", TagValue: "layout", Owner: "addr-1", Limit: 5})
		result, err := g.ExecuteDiscoveryQuery(doc)
		if err != nil {
			t.Fatalf("ExecuteDiscoveryQuery() error = %v", err)
		}
		if query != doc.String() {
			t.Errorf("sent query =\n%s\nwant\n%s", query, doc.String())
		}
		if len(result.Edges) != 2 || result.Edges[0].Node.ID != "tx2" {
			t.Fatalf("edges = %+v", result.Edges)
		}
		if v, _ := result.Edges[0].Node.Tags.Get("Version"); v != "0.1.1" {
			t.Errorf("Version tag = %q", v)
		}
	})

	t.Run("graphql errors fail the query", func(t *testing.T) {
		g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"errors":[{"message":"bad owner"}]}`)
		}, nil)

		_, err := g.ExecuteDiscoveryQuery(w4.QueryDocument{Owners: []string{"x"}, Limit: 1, Order: w4.OrderDesc})
		if err == nil || !strings.Contains(err.Error(), "bad owner") {
			t.Errorf("ExecuteDiscoveryQuery() error = %v, want graphql message", err)
		}
	})
}

func TestIrysGateway_FetchRaw(t *testing.T) {
	g := newTestIrys(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gw/tx1" {
			io.WriteString(w, "<p>page</p>")
			return
		}
		http.NotFound(w, r)
	}, nil)

	data, err := g.FetchRaw("tx1")
	if err != nil {
		t.Fatalf("FetchRaw() error = %v", err)
	}
	if string(data) != "<p>page</p>" {
		t.Errorf("FetchRaw() = %q", data)
	}
	if _, err := g.FetchRaw("tx2"); err == nil {
		t.Error("FetchRaw(tx2) error = nil")
	}
}
