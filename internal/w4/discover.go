package w4

import (
	"strconv"
	"strings"
	"time"
)

// DiscoveryRecord is one decoded query result. Its accessors resolve
// repeated tag names to the last value.
type DiscoveryRecord struct {
	ID   string
	Tags Tags
}

// Type returns the value of the discovery tag, or "" if absent.
func (r DiscoveryRecord) Type(tagName string) string {
	v, _ := r.Tags.Last(tagName)
	return v
}

// Version returns the value of the Version tag, or "" if absent.
func (r DiscoveryRecord) Version() string {
	v, _ := r.Tags.Last(TagVersion)
	return v
}

// UnixTime returns the Unix-Time tag (epoch milliseconds) if present and valid.
func (r DiscoveryRecord) UnixTime() (time.Time, bool) {
	v, ok := r.Tags.Last(TagUnixTime)
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// Discoverer finds published content by tag or fetches it by id.
type Discoverer struct {
	gateway    LedgerGateway
	gatewayURL string
	logger     Logger
}

// NewDiscoverer creates a Discoverer. gatewayURL is the base of access URLs.
func NewDiscoverer(gateway LedgerGateway, gatewayURL string, logger Logger) *Discoverer {
	return &Discoverer{
		gateway:    gateway,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		logger:     logger,
	}
}

// Discover runs a tag query and decodes its edges in result order.
// No matches is an empty slice and a nil error.
func (d *Discoverer) Discover(c QueryCriteria) ([]DiscoveryRecord, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	doc := BuildQuery(c)
	d.logger.Debug("executing discovery query", "filters", len(doc.Filters), "limit", doc.Limit)

	result, err := d.gateway.ExecuteDiscoveryQuery(doc)
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	records := []DiscoveryRecord{}
	if result == nil {
		return records, nil
	}
	for _, edge := range result.Edges {
		records = append(records, DiscoveryRecord{
			ID:   edge.Node.ID,
			Tags: edge.Node.Tags,
		})
	}

	d.logger.Info("discovery complete", "matches", len(records))
	return records, nil
}

// FetchByID retrieves content directly by id, bypassing the tag index.
func (d *Discoverer) FetchByID(id string) (*FetchedContent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &InputError{Op: "fetch", Err: ErrMissingTarget}
	}

	raw, err := d.gateway.FetchRaw(id)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}

	content := DecodeContent(id, raw)
	d.logger.Debug("fetched content", "id", id, "bytes", len(raw), "structured", content.Structured)
	return content, nil
}

// AccessURL returns the public URL of id.
func (d *Discoverer) AccessURL(id string) string {
	return d.gatewayURL + "/" + id
}
