package app

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"time"

	"w4-go/internal/config"
	"w4-go/internal/fs"
	"w4-go/internal/journal"
	"w4-go/internal/ledger"
	"w4-go/internal/w4"
)

// Options tune how the app is built.
type Options struct {
	// StderrLevel is the lowest level echoed to stderr. The log file always
	// receives every level.
	StderrLevel slog.Level
	// Clock defaults to w4.RealClock.
	Clock w4.Clock
}

// W4App is the application layer between the CLI and the core.
// It constructs all dependencies from config, exposes high-level operations,
// and releases resources on Close.
type W4App struct {
	cfg        *config.Config
	gateway    w4.LedgerGateway
	journal    w4.Journal
	publisher  *w4.Publisher
	discoverer *w4.Discoverer
	logger     *slog.Logger
	logFile    *os.File
	clock      w4.Clock
	op         *Operation
}

// NewW4App creates a fully wired W4App from the given config.
// operation identifies the CLI command being run (e.g. "Publish", "Discover").
// The caller must call Close when done.
func NewW4App(cfg *config.Config, operation string, opts Options) (*W4App, error) {
	clock := opts.Clock
	if clock == nil {
		clock = w4.RealClock{}
	}

	started := clock.Now()
	opID := started.UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, opts.StderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	gateway, err := ledger.NewLedgerFromConfig(cfg.Ledger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating ledger gateway: %w", err)
	}

	jrnl, err := journal.NewJournalFromConfig(cfg.Journal, adapter)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	funder := w4.NewFunder(gateway, adapter, cfg.Ledger.Decimals)
	publisher := w4.NewPublisher(fs.NewOSFilesystemManager(), funder, gateway, jrnl, cfg.Ledger.GatewayURL, adapter, clock)
	discoverer := w4.NewDiscoverer(gateway, cfg.Ledger.GatewayURL, adapter)

	logger.Debug("operation started", "operation", operation, "ledger", cfg.Ledger.Type, "journal", cfg.Journal.Type)

	return &W4App{
		cfg:        cfg,
		gateway:    gateway,
		journal:    jrnl,
		publisher:  publisher,
		discoverer: discoverer,
		logger:     logger,
		logFile:    logFile,
		clock:      clock,
		op:         NewOperation(opID, operation, started),
	}, nil
}

// Config returns the config the app was built from.
func (a *W4App) Config() *config.Config {
	return a.cfg
}

// DefaultCriteria returns query criteria filled from the [query] config section.
func (a *W4App) DefaultCriteria() w4.QueryCriteria {
	return w4.QueryCriteria{
		ContentType: a.cfg.Query.ContentType,
		TagName:     a.cfg.Query.Tag,
		Owner:       a.cfg.Query.Owner,
		Limit:       a.cfg.Query.Limit,
	}
}

// DefaultPublishOptions returns publish options filled from the [upload] config section.
func (a *W4App) DefaultPublishOptions() w4.PublishOptions {
	return w4.PublishOptions{
		TagName: a.cfg.Upload.Tag,
		Version: a.cfg.Upload.Version,
		AppName: a.cfg.Upload.AppName,
	}
}

// Publish publishes the file at rawPath with tags derived from its extension.
func (a *W4App) Publish(rawPath string, opts w4.PublishOptions) (*w4.PublishReceipt, error) {
	receipt, err := a.publisher.PublishFile(rawPath, opts)
	return receipt, a.op.Track(err)
}

// Discover runs a tag query. Criteria without a target are rejected.
func (a *W4App) Discover(c w4.QueryCriteria) ([]w4.DiscoveryRecord, error) {
	if !c.HasTarget() {
		return nil, a.op.Track(&w4.InputError{Op: "query", Err: w4.ErrMissingTarget})
	}
	records, err := a.discoverer.Discover(c)
	return records, a.op.Track(err)
}

// FetchByID retrieves content directly by transaction id.
func (a *W4App) FetchByID(id string) (*w4.FetchedContent, error) {
	content, err := a.discoverer.FetchByID(id)
	return content, a.op.Track(err)
}

// AccessURL returns the public URL of a transaction id.
func (a *W4App) AccessURL(id string) string {
	return a.discoverer.AccessURL(id)
}

// History returns up to limit journal entries, newest first. limit <= 0 means all.
func (a *W4App) History(limit int) ([]w4.HistoryEntry, error) {
	entries, err := a.journal.Load()
	if err != nil {
		return nil, a.op.Track(fmt.Errorf("loading history: %w", err))
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Balance returns the current ledger balance.
func (a *W4App) Balance() (*big.Int, error) {
	balance, err := a.gateway.CurrentBalance()
	if err != nil {
		return nil, a.op.Track(fmt.Errorf("fetching balance: %w", err))
	}
	return balance, nil
}

// FormatAmount renders an atomic amount with the configured decimals.
func (a *W4App) FormatAmount(v *big.Int) string {
	return w4.FormatAtomic(v, a.cfg.Ledger.Decimals)
}

// Close logs the outcome of the operation and releases the journal and log file.
func (a *W4App) Close() error {
	var firstErr error

	if c, ok := a.journal.(io.Closer); ok {
		if err := c.Close(); err != nil {
			firstErr = fmt.Errorf("closing journal: %w", err)
		}
	}

	elapsed := a.clock.Now().Sub(a.op.StartedAt).Truncate(time.Millisecond)
	if a.op.Err != nil {
		a.logger.Error("operation finished", "operation", a.op.Name, "status", a.op.Status, "duration", elapsed, "error", a.op.Err)
	} else {
		a.logger.Debug("operation finished", "operation", a.op.Name, "status", a.op.Status, "duration", elapsed)
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}
