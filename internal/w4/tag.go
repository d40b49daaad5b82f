package w4

import "fmt"

// Well-known tag names.
const (
	TagContentType = "Content-Type"
	TagVersion     = "Version"
	TagAppName     = "App-Name"
	TagUnixTime    = "Unix-Time"
)

// Tag is a name/value annotation attached to a published blob.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Validate reports an error if the tag has no name.
func (t Tag) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tag name is empty (value %q)", t.Value)
	}
	return nil
}

// Tags is an ordered tag collection. Names may repeat; the ledger does not
// enforce uniqueness.
type Tags []Tag

// Get returns the value of the first tag with the given name.
func (ts Tags) Get(name string) (string, bool) {
	for _, t := range ts {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// Last returns the value of the last tag with the given name.
func (ts Tags) Last(name string) (string, bool) {
	for i := len(ts) - 1; i >= 0; i-- {
		if ts[i].Name == name {
			return ts[i].Value, true
		}
	}
	return "", false
}

// Validate checks every tag in order and returns the first failure.
func (ts Tags) Validate() error {
	for i, t := range ts {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tag %d: %w", i, err)
		}
	}
	return nil
}
