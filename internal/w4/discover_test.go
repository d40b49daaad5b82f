package w4_test

import (
	"errors"
	"testing"
	"time"

	"w4-go/internal/ledger"
	"w4-go/internal/testutil"
	"w4-go/internal/w4"
)

func publishRaw(t *testing.T, gw w4.LedgerGateway, data string, tags w4.Tags) string {
	t.Helper()
	id, err := gw.Publish([]byte(data), tags)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	return id
}

func marketTags(version string) w4.Tags {
	return w4.Tags{
		{Name: w4.TagContentType, Value: w4.ContentTypeJSON},
		{Name: "istartproject", Value: "nft-market"},
		{Name: w4.TagVersion, Value: version},
	}
}

func TestDiscoverer_Discover(t *testing.T) {
	criteria := w4.QueryCriteria{
		ContentType: w4.ContentTypeJSON,
		TagName:     "istartproject",
		TagValue:    "nft-market",
		Owner:       testutil.TestOwner,
		Limit:       10,
	}

	t.Run("returns matches newest first", func(t *testing.T) {
		gw := testutil.NewTestLedger(0, 0)
		first := publishRaw(t, gw, `{"v":1}`, marketTags("0.1.0"))
		publishRaw(t, gw, `{"other":true}`, w4.Tags{
			{Name: w4.TagContentType, Value: w4.ContentTypeJSON},
			{Name: "istartproject", Value: "layout"},
		})
		second := publishRaw(t, gw, `{"v":2}`, marketTags("0.1.1"))
		third := publishRaw(t, gw, `{"v":3}`, marketTags("0.1.2"))

		d := w4.NewDiscoverer(gw, testGatewayURL, w4.NewNopLogger())
		records, err := d.Discover(criteria)
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}

		want := []string{third, second, first}
		if len(records) != len(want) {
			t.Fatalf("len(records) = %d, want %d", len(records), len(want))
		}
		for i, id := range want {
			if records[i].ID != id {
				t.Errorf("records[%d].ID = %q, want %q", i, records[i].ID, id)
			}
		}
		if records[0].Version() != "0.1.2" {
			t.Errorf("records[0].Version() = %q, want 0.1.2", records[0].Version())
		}
		if records[0].Type("istartproject") != "nft-market" {
			t.Errorf("records[0].Type() = %q, want nft-market", records[0].Type("istartproject"))
		}
	})

	t.Run("respects the limit", func(t *testing.T) {
		gw := testutil.NewTestLedger(0, 0)
		for i := 0; i < 4; i++ {
			publishRaw(t, gw, string(rune('a'+i)), marketTags("0.1.0"))
		}

		d := w4.NewDiscoverer(gw, testGatewayURL, w4.NewNopLogger())
		c := criteria
		c.Limit = 2
		records, err := d.Discover(c)
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if len(records) != 2 {
			t.Errorf("len(records) = %d, want 2", len(records))
		}
	})

	t.Run("no matches is an empty result, not an error", func(t *testing.T) {
		gw := testutil.NewTestLedger(0, 0)

		d := w4.NewDiscoverer(gw, testGatewayURL, w4.NewNopLogger())
		records, err := d.Discover(criteria)
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if records == nil {
			t.Fatal("Discover() returned nil slice, want empty")
		}
		if len(records) != 0 {
			t.Errorf("len(records) = %d, want 0", len(records))
		}
	})

	t.Run("other owners are not returned", func(t *testing.T) {
		gw := testutil.NewTestLedger(0, 0)
		publishRaw(t, gw, `{}`, marketTags("0.1.0"))

		d := w4.NewDiscoverer(gw, testGatewayURL, w4.NewNopLogger())
		c := criteria
		c.Owner = "someone-else"
		records, err := d.Discover(c)
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if len(records) != 0 {
			t.Errorf("len(records) = %d, want 0", len(records))
		}
	})

	t.Run("gateway failure is a query error", func(t *testing.T) {
		gw := testutil.NewTestLedger(0, 0)
		gw.FailOn(ledger.OpQuery, errors.New("502 bad gateway"))

		d := w4.NewDiscoverer(gw, testGatewayURL, w4.NewNopLogger())
		_, err := d.Discover(criteria)

		var queryErr *w4.QueryError
		if !errors.As(err, &queryErr) {
			t.Fatalf("Discover() error = %v, want *w4.QueryError", err)
		}
	})

	t.Run("invalid criteria never reach the gateway", func(t *testing.T) {
		gw := testutil.NewTestLedger(0, 0)

		d := w4.NewDiscoverer(gw, testGatewayURL, w4.NewNopLogger())
		c := criteria
		c.Limit = 0
		if _, err := d.Discover(c); err == nil {
			t.Fatal("Discover() error = nil, want error")
		}
		if calls := gw.Calls(); len(calls) != 0 {
			t.Errorf("ledger calls = %v, want none", calls)
		}
	})
}

func TestDiscoverer_FetchByID(t *testing.T) {
	t.Run("structured content", func(t *testing.T) {
		gw := testutil.NewTestLedger(0, 0)
		id := publishRaw(t, gw, `{"a":1}`, marketTags("0.1.0"))

		d := w4.NewDiscoverer(gw, testGatewayURL, w4.NewNopLogger())
		content, err := d.FetchByID(id)
		if err != nil {
			t.Fatalf("FetchByID() error = %v", err)
		}
		if !content.Structured {
			t.Error("Structured = false, want true")
		}
		if got := content.Pretty(); got != "{\n  \"a\": 1\n}" {
			t.Errorf("Pretty() = %q", got)
		}
	})

	t.Run("opaque content", func(t *testing.T) {
		gw := testutil.NewTestLedger(0, 0)
		id := publishRaw(t, gw, "<html>hi</html>", w4.Tags{{Name: w4.TagContentType, Value: w4.ContentTypeHTML}})

		d := w4.NewDiscoverer(gw, testGatewayURL, w4.NewNopLogger())
		content, err := d.FetchByID(id)
		if err != nil {
			t.Fatalf("FetchByID() error = %v", err)
		}
		if content.Structured {
			t.Error("Structured = true, want false")
		}
		if content.Pretty() != "<html>hi</html>" {
			t.Errorf("Pretty() = %q", content.Pretty())
		}
	})

	t.Run("empty id is an input error", func(t *testing.T) {
		d := w4.NewDiscoverer(testutil.NewTestLedger(0, 0), testGatewayURL, w4.NewNopLogger())
		_, err := d.FetchByID("  ")
		if !errors.Is(err, w4.ErrMissingTarget) {
			t.Fatalf("FetchByID() error = %v, want ErrMissingTarget", err)
		}
	})

	t.Run("unknown id is a fetch error", func(t *testing.T) {
		d := w4.NewDiscoverer(testutil.NewTestLedger(0, 0), testGatewayURL, w4.NewNopLogger())
		_, err := d.FetchByID("nope")

		var fetchErr *w4.FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("FetchByID() error = %v, want *w4.FetchError", err)
		}
		if fetchErr.ID != "nope" {
			t.Errorf("ID = %q, want nope", fetchErr.ID)
		}
	})
}

func TestDiscoverer_AccessURL(t *testing.T) {
	d := w4.NewDiscoverer(testutil.NewTestLedger(0, 0), "https://gateway.example/", w4.NewNopLogger())
	if got := d.AccessURL("abc"); got != "https://gateway.example/abc" {
		t.Errorf("AccessURL() = %q", got)
	}
}

func TestDiscoveryRecord_UnixTime(t *testing.T) {
	r := w4.DiscoveryRecord{Tags: w4.Tags{{Name: w4.TagUnixTime, Value: "1700000000000"}}}
	got, ok := r.UnixTime()
	if !ok {
		t.Fatal("UnixTime() ok = false")
	}
	if !got.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("UnixTime() = %v", got)
	}

	if _, ok := (w4.DiscoveryRecord{Tags: w4.Tags{{Name: w4.TagUnixTime, Value: "soon"}}}).UnixTime(); ok {
		t.Error("UnixTime() ok = true for invalid value")
	}
}

func TestDiscoveryRecord_RepeatedTags(t *testing.T) {
	r := w4.DiscoveryRecord{Tags: w4.Tags{
		{Name: w4.TagVersion, Value: "0.1.0"},
		{Name: "istartproject", Value: "layout"},
		{Name: w4.TagVersion, Value: "0.2.0"},
		{Name: "istartproject", Value: "nft-market"},
	}}

	if got := r.Version(); got != "0.2.0" {
		t.Errorf("Version() = %q, want 0.2.0", got)
	}
	if got := r.Type("istartproject"); got != "nft-market" {
		t.Errorf("Type() = %q, want nft-market", got)
	}
}
