package w4

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnyContentType disables the Content-Type filter.
const AnyContentType = "any"

// OrderDesc sorts results newest first.
const OrderDesc = "DESC"

// QueryCriteria selects publishes by tag. At least one of TagValue or Version
// should be set by the caller; a direct id lookup goes through FetchByID instead.
type QueryCriteria struct {
	ContentType string // empty or AnyContentType omits the filter
	TagName     string // discovery tag name, e.g. "istartproject"
	TagValue    string
	Version     string
	Owner       string // publisher address every query is scoped to
	Limit       int
}

// Validate checks the fields BuildQuery relies on.
func (c QueryCriteria) Validate() error {
	if c.TagName == "" {
		return &InputError{Op: "query", Err: fmt.Errorf("discovery tag name is empty")}
	}
	if c.Owner == "" {
		return &InputError{Op: "query", Err: fmt.Errorf("owner address is empty")}
	}
	if c.Limit <= 0 {
		return &InputError{Op: "query", Err: fmt.Errorf("limit must be positive, got %d", c.Limit)}
	}
	return nil
}

// HasTarget reports whether the criteria name something to look for.
func (c QueryCriteria) HasTarget() bool {
	return c.TagValue != "" || c.Version != ""
}

// TagFilter matches transactions carrying tag Name with any of Values.
type TagFilter struct {
	Name   string
	Values []string
}

// QueryDocument is a discovery query against the ledger's indexing service.
type QueryDocument struct {
	Filters []TagFilter
	Owners  []string
	Limit   int
	Order   string
}

// BuildQuery turns criteria into a query document. Filters are appended in a
// fixed order (Content-Type, discovery tag, Version) so equal criteria always
// produce equal documents.
func BuildQuery(c QueryCriteria) QueryDocument {
	var filters []TagFilter

	if c.ContentType != "" && c.ContentType != AnyContentType {
		filters = append(filters, TagFilter{Name: TagContentType, Values: []string{c.ContentType}})
	}
	if c.TagValue != "" {
		filters = append(filters, TagFilter{Name: c.TagName, Values: []string{c.TagValue}})
	}
	if c.Version != "" {
		filters = append(filters, TagFilter{Name: TagVersion, Values: []string{c.Version}})
	}

	return QueryDocument{
		Filters: filters,
		Owners:  []string{c.Owner},
		Limit:   c.Limit,
		Order:   OrderDesc,
	}
}

// String renders the document as GraphQL text for the indexing service.
func (d QueryDocument) String() string {
	var b strings.Builder

	b.WriteString("{\n  transactions(\n")
	b.WriteString("    tags: [")
	for i, f := range d.Filters {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n      { name: %s, values: %s }", quote(f.Name), quoteList(f.Values))
	}
	if len(d.Filters) > 0 {
		b.WriteString("\n    ")
	}
	b.WriteString("],\n")
	fmt.Fprintf(&b, "    owners: %s,\n", quoteList(d.Owners))
	fmt.Fprintf(&b, "    first: %d,\n", d.Limit)
	fmt.Fprintf(&b, "    order: %s\n", d.Order)
	b.WriteString("  ) {\n    edges {\n      node {\n        id\n        tags {\n          name\n          value\n        }\n      }\n    }\n  }\n}")

	return b.String()
}

// quote renders s as a GraphQL string literal. JSON string escaping is a
// subset GraphQL accepts.
func quote(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Matches reports whether a transaction owned by owner with the given tags
// satisfies the document's owner and tag filters. Backends that evaluate
// queries locally use it.
func (d QueryDocument) Matches(owner string, tags Tags) bool {
	if len(d.Owners) > 0 && !contains(d.Owners, owner) {
		return false
	}
	for _, f := range d.Filters {
		matched := false
		for _, t := range tags {
			if t.Name == f.Name && contains(f.Values, t.Value) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// QueryResult is the raw result set of a discovery query, shaped like the
// indexing service's transactions connection.
type QueryResult struct {
	Edges []Edge `json:"edges"`
}

// Edge wraps one result node.
type Edge struct {
	Node Node `json:"node"`
}

// Node is a single published transaction.
type Node struct {
	ID   string `json:"id"`
	Tags Tags   `json:"tags"`
}
