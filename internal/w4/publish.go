package w4

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
)

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// PublishReceipt identifies a published blob.
type PublishReceipt struct {
	ID  string
	URL string
}

// Publisher submits source files to the ledger and journals each success.
type Publisher struct {
	fsmgr      FilesystemManager
	funder     *Funder
	gateway    LedgerGateway
	journal    Journal
	gatewayURL string
	logger     Logger
	clock      Clock
}

// NewPublisher creates a Publisher. gatewayURL is the base of access URLs,
// e.g. "https://gateway.irys.xyz".
func NewPublisher(fsmgr FilesystemManager, funder *Funder, gateway LedgerGateway, journal Journal, gatewayURL string, logger Logger, clock Clock) *Publisher {
	return &Publisher{
		fsmgr:      fsmgr,
		funder:     funder,
		gateway:    gateway,
		journal:    journal,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		logger:     logger,
		clock:      clock,
	}
}

// PublishFile derives the tag set from the file extension and opts, then publishes.
func (p *Publisher) PublishFile(rawPath string, opts PublishOptions) (*PublishReceipt, error) {
	cat, err := CategoryForPath(rawPath)
	if err != nil {
		return nil, err
	}
	tags, err := NewPublishTags(cat, opts)
	if err != nil {
		return nil, err
	}
	return p.Publish(rawPath, tags)
}

// Publish reads the file at rawPath, funds and submits it with tags, and
// records the result in the journal.
//
// A successful call publishes exactly one transaction and records exactly one
// journal entry. Input problems, including a gateway that cannot publish, are
// reported before any ledger call. If the journal write fails after the
// ledger accepted the blob, the receipt is returned together with a
// *PublishError.
func (p *Publisher) Publish(rawPath string, tags Tags) (*PublishReceipt, error) {
	path, err := p.fsmgr.Resolve(rawPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &InputError{Op: "publish", Err: fmt.Errorf("%w: %s", ErrMissingFile, rawPath)}
		}
		return nil, &InputError{Op: "publish", Err: err}
	}
	if err := tags.Validate(); err != nil {
		return nil, &InputError{Op: "publish", Err: err}
	}
	if ct, _ := tags.Get(TagContentType); ct == ContentTypeJSON && !hasDiscoveryValue(tags) {
		return nil, &InputError{Op: "publish", Err: ErrMissingTagValue}
	}

	if pc, ok := p.gateway.(PublishChecker); ok {
		if err := pc.CanPublish(); err != nil {
			return nil, &InputError{Op: "publish", Err: err}
		}
	}

	data, err := p.readAll(path)
	if err != nil {
		return nil, &InputError{Op: "publish", Err: err}
	}
	size := int64(len(data))

	p.logger.Info("publishing file", "path", path.String(), "size", sizeLabel(size))

	if err := p.funder.EnsureFunded(size); err != nil {
		return nil, err
	}

	id, err := p.gateway.Publish(data, tags)
	if err != nil {
		return nil, &PublishError{Op: "submit", Err: err}
	}

	receipt := &PublishReceipt{ID: id, URL: p.gatewayURL + "/" + id}
	p.logger.Info("published", "id", id, "url", receipt.URL)

	entry := HistoryEntry{
		Timestamp: p.clock.Now().UTC().Format(timestampLayout),
		FileName:  filepath.Base(path.String()),
		ID:        id,
		URL:       receipt.URL,
		SizeLabel: sizeLabel(size),
		Tags:      append(Tags(nil), tags...),
	}
	if err := p.journal.Record(entry); err != nil {
		return receipt, &PublishError{Op: "record history", Err: err}
	}

	return receipt, nil
}

func (p *Publisher) readAll(path *Path) ([]byte, error) {
	rc, err := p.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path.String(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path.String(), err)
	}
	return data, nil
}

func sizeLabel(size int64) string {
	return fmt.Sprintf("%.2f KB", float64(size)/1024)
}
