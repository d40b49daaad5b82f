package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults for a fresh config.
const (
	DefaultNodeURL     = "https://uploader.irys.xyz"
	DefaultGatewayURL  = "https://gateway.irys.xyz"
	DefaultToken       = "solana"
	DefaultDecimals    = 9
	DefaultTimeout     = 30
	DefaultOwner       = "A5Hzm1b3mtQfYfU6q5qvKeVJmoaReCvthwfHuZkBBdAQ"
	DefaultQueryTag    = "istartproject"
	DefaultContentType = "application/json"
	DefaultQueryLimit  = 5
	DefaultUploadTag   = "web4-test"
	DefaultVersion     = "0.1.0"
	DefaultAppName     = "Web4-CLI"
	DefaultJournalFile = "upload-history.json"
	DefaultJournalType = "file"
	DefaultLedgerType  = "irys"
)

// Config represents the main configuration for w4.
type Config struct {
	BaseDir string        `toml:"base_dir"`
	LogDir  string        `toml:"log_dir"`
	Ledger  LedgerConfig  `toml:"ledger"`
	Journal JournalConfig `toml:"journal"`
	Query   QueryConfig   `toml:"query"`
	Upload  UploadConfig  `toml:"upload"`
}

// LedgerConfig selects and configures the ledger gateway.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type LedgerConfig struct {
	Type       string `toml:"type"`        // "irys", "filesystem" or "memory"
	GatewayURL string `toml:"gateway_url"` // base of public access URLs
	Decimals   int    `toml:"decimals"`    // for displaying atomic amounts

	// Irys-specific fields (only used when Type == "irys")
	NodeURL        string `toml:"node_url,omitempty"`
	Token          string `toml:"token,omitempty"`
	Address        string `toml:"address,omitempty"` // wallet address whose balance is checked
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// Local ledger pricing (used when Type is "filesystem" or "memory").
	// Amounts are atomic units in base 10.
	PriceBase      string `toml:"price_base,omitempty"`
	PricePerByte   string `toml:"price_per_byte,omitempty"`
	InitialBalance string `toml:"initial_balance,omitempty"`
}

// JournalConfig selects the publish history backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "file", "sqlite", "s3" or "memory"
	Path    string `toml:"path,omitempty"`     // only used for type=file
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite

	// S3-specific fields (only used when Type == "s3")
	Bucket          string `toml:"bucket,omitempty"`
	Key             string `toml:"key,omitempty"` // object key, defaults to upload-history.json
	Region          string `toml:"region,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty"` // S3-compatible endpoint, path-style addressing
	AccessKeyID     string `toml:"access_key_id,omitempty"`
	SecretAccessKey string `toml:"secret_access_key,omitempty"`
}

// QueryConfig holds discovery defaults.
type QueryConfig struct {
	Owner       string `toml:"owner"`
	Tag         string `toml:"tag"`
	ContentType string `toml:"content_type"` // "any" disables the filter
	Limit       int    `toml:"limit"`
}

// UploadConfig holds publish defaults.
type UploadConfig struct {
	Tag     string `toml:"tag"`
	Version string `toml:"version"`
	AppName string `toml:"app_name"`
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Ledger: LedgerConfig{
			Type:           DefaultLedgerType,
			GatewayURL:     DefaultGatewayURL,
			Decimals:       DefaultDecimals,
			NodeURL:        DefaultNodeURL,
			Token:          DefaultToken,
			Address:        DefaultOwner,
			TimeoutSeconds: DefaultTimeout,
		},
		Journal: JournalConfig{
			Type: DefaultJournalType,
			Path: filepath.Join(baseDir, DefaultJournalFile),
		},
		Query: QueryConfig{
			Owner:       DefaultOwner,
			Tag:         DefaultQueryTag,
			ContentType: DefaultContentType,
			Limit:       DefaultQueryLimit,
		},
		Upload: UploadConfig{
			Tag:     DefaultUploadTag,
			Version: DefaultVersion,
			AppName: DefaultAppName,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader. Keys missing from the
// document keep their NewConfig defaults; log_dir and the file journal path
// default to locations under base_dir.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := NewConfig("")
	cfg.LogDir = ""
	cfg.Journal.Path = ""

	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.BaseDir != "" {
		if cfg.LogDir == "" {
			cfg.LogDir = filepath.Join(cfg.BaseDir, "log")
		}
		if cfg.Journal.Path == "" && (cfg.Journal.Type == "file" || cfg.Journal.Type == "") {
			cfg.Journal.Path = filepath.Join(cfg.BaseDir, DefaultJournalFile)
		}
	}
	return cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
