package w4

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Content types attached to published blobs.
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html"
)

// DefaultAppName identifies documents published by this tool.
const DefaultAppName = "Web4-CLI"

// Category is the kind of source content being published.
type Category int

const (
	// CategoryStructured is JSON data, discoverable by the discovery tag.
	CategoryStructured Category = iota + 1
	// CategoryDocument is a hypertext page, tagged with the application name.
	CategoryDocument
)

func (c Category) String() string {
	switch c {
	case CategoryStructured:
		return "structured"
	case CategoryDocument:
		return "document"
	default:
		return "unknown"
	}
}

// CategoryForPath picks the category from the file extension.
func CategoryForPath(path string) (Category, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return CategoryStructured, nil
	case ".html", ".htm":
		return CategoryDocument, nil
	default:
		return 0, &InputError{Op: "publish", Err: fmt.Errorf("%w: %q", ErrUnsupportedContent, ext)}
	}
}

// PublishOptions are the user-supplied parts of the publish tag set.
type PublishOptions struct {
	TagName  string // discovery tag name, e.g. "web4-test"
	TagValue string // discovery tag value, required for structured content
	Version  string
	AppName  string // defaults to DefaultAppName
}

// NewPublishTags builds the tag set for a category. Content-Type always comes
// first and Version last.
func NewPublishTags(cat Category, opts PublishOptions) (Tags, error) {
	switch cat {
	case CategoryStructured:
		if opts.TagValue == "" {
			return nil, &InputError{Op: "publish", Err: ErrMissingTagValue}
		}
		if opts.TagName == "" {
			return nil, &InputError{Op: "publish", Err: fmt.Errorf("discovery tag name is empty")}
		}
		return Tags{
			{Name: TagContentType, Value: ContentTypeJSON},
			{Name: opts.TagName, Value: opts.TagValue},
			{Name: TagVersion, Value: opts.Version},
		}, nil
	case CategoryDocument:
		app := opts.AppName
		if app == "" {
			app = DefaultAppName
		}
		return Tags{
			{Name: TagContentType, Value: ContentTypeHTML},
			{Name: TagAppName, Value: app},
			{Name: TagVersion, Value: opts.Version},
		}, nil
	default:
		return nil, &InputError{Op: "publish", Err: fmt.Errorf("%w: %s", ErrUnsupportedContent, cat)}
	}
}

// hasDiscoveryValue reports whether tags carry a non-empty value on some tag
// other than the well-known ones.
func hasDiscoveryValue(tags Tags) bool {
	for _, t := range tags {
		switch t.Name {
		case TagContentType, TagVersion, TagAppName, TagUnixTime:
			continue
		}
		if t.Value != "" {
			return true
		}
	}
	return false
}

// FetchedContent is raw content retrieved by id. The store is content
// agnostic, so the bytes are either structured JSON or opaque text.
type FetchedContent struct {
	ID         string
	Raw        []byte
	Structured bool
}

// DecodeContent classifies raw bytes. Failing to parse as JSON is not an
// error; the content is kept as opaque text.
func DecodeContent(id string, raw []byte) *FetchedContent {
	return &FetchedContent{
		ID:         id,
		Raw:        raw,
		Structured: json.Valid(bytes.TrimSpace(raw)),
	}
}

// Pretty returns indented JSON for structured content and the raw text otherwise.
func (c *FetchedContent) Pretty() string {
	if !c.Structured {
		return string(c.Raw)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(c.Raw), "", "  "); err != nil {
		return string(c.Raw)
	}
	return buf.String()
}
