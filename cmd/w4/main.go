package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"w4-go/internal/app"
	"w4-go/internal/config"
	"w4-go/internal/w4"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a W4App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Publish", "Discover").
func newApp(cmd *cobra.Command, operation string) (*app.W4App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w (run \"w4 config init\" first)", err)
	}

	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	a, err := app.NewW4App(cfg, operation, app.Options{StderrLevel: level})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// rule prints a separator line when stdout is a terminal.
func rule(w io.Writer) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(w, strings.Repeat("-", 52))
	}
}

var rootCmd = &cobra.Command{
	Use:          "w4",
	Short:        "Publish and discover tagged content on the Irys network",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("History:  %s\n", cfg.Journal.Path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Ledger:      %s (%s)\n", cfg.Ledger.Type, cfg.Ledger.GatewayURL)
		fmt.Printf("Journal:     %s\n", cfg.Journal.Type)
		fmt.Printf("Owner:       %s\n", cfg.Query.Owner)
		fmt.Printf("Query tag:   %s\n", cfg.Query.Tag)
		fmt.Printf("Upload tag:  %s\n", cfg.Upload.Tag)
		return nil
	},
}

// query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Discover published content by tag, or fetch one id",
	Example: `  w4 query --type nft-market
  w4 query --type layout --version 0.1.3
  w4 query --type layout --tag istart
  w4 query --id 44WjLE7J9psmwt5Jz5MuCzsjtMS5tZ3uWp8yRyF8UAwi
  w4 query --type nft-market --limit 10 --content-type any`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Discover")
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()

		if id, _ := cmd.Flags().GetString("id"); id != "" {
			content, err := a.FetchByID(id)
			if err != nil {
				return err
			}
			rule(out)
			fmt.Fprintln(out, content.Pretty())
			rule(out)
			fmt.Fprintf(out, "URL: %s\n", a.AccessURL(content.ID))
			return nil
		}

		c := a.DefaultCriteria()
		if cmd.Flags().Changed("tag") {
			c.TagName, _ = cmd.Flags().GetString("tag")
		}
		if cmd.Flags().Changed("content-type") {
			c.ContentType, _ = cmd.Flags().GetString("content-type")
		}
		if cmd.Flags().Changed("limit") {
			c.Limit, _ = cmd.Flags().GetInt("limit")
		}
		c.TagValue, _ = cmd.Flags().GetString("type")
		c.Version, _ = cmd.Flags().GetString("version")

		records, err := a.Discover(c)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Fprintln(out, "No matching records.")
			return nil
		}

		fmt.Fprintf(out, "Found %d record(s)\n", len(records))
		rule(out)
		for i, r := range records {
			when := "-"
			if t, ok := r.UnixTime(); ok {
				when = t.Local().Format(time.DateTime)
			}
			fmt.Fprintf(out, "#%d  %s\n", i+1, r.ID)
			fmt.Fprintf(out, "    type:    %s\n", orDash(r.Type(c.TagName)))
			fmt.Fprintf(out, "    version: %s\n", orDash(r.Version()))
			fmt.Fprintf(out, "    time:    %s\n", when)
			fmt.Fprintf(out, "    url:     %s\n", a.AccessURL(r.ID))
		}
		rule(out)
		return nil
	},
}

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Publish a JSON component or an HTML page",
	Long: `Publish a JSON component or an HTML page to the configured ledger.

The irys ledger can read balances, prices and the index without a wallet, but
publishing needs a signing wallet and none is built in. Uploads against an irys
ledger fail before any network call. Use the filesystem or memory ledger to
publish locally.`,
	Example: `  w4 upload project/layout.json --type layout --version 0.1.0 --tag web4-test
  w4 upload project/index.html --version 0.1.0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Publish")
		if err != nil {
			return err
		}
		defer a.Close()

		opts := a.DefaultPublishOptions()
		if cmd.Flags().Changed("tag") {
			opts.TagName, _ = cmd.Flags().GetString("tag")
		}
		if cmd.Flags().Changed("version") {
			opts.Version, _ = cmd.Flags().GetString("version")
		}
		opts.TagValue, _ = cmd.Flags().GetString("type")

		receipt, err := a.Publish(args[0], opts)
		if receipt != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "ID:  %s\nURL: %s\n", receipt.ID, receipt.URL)
		}
		return err
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View publish history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "History")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.History(limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No publishes recorded.")
			return nil
		}

		for _, e := range entries {
			version, _ := e.Tags.Get(w4.TagVersion)
			fmt.Fprintf(out, "%s  %-24s  %-10s  %-8s  %s\n", e.Timestamp, e.FileName, e.SizeLabel, orDash(version), e.ID)
		}
		return nil
	},
}

// balance command
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the ledger balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Balance")
		if err != nil {
			return err
		}
		defer a.Close()

		balance, err := a.Balance()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s atomic)\n", a.FormatAmount(balance), balance)
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Echo debug logs to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// query flags; defaults mirror config.NewConfig and are only applied when set
	queryCmd.Flags().StringP("type", "t", "", "Discovery tag value to match")
	queryCmd.Flags().String("tag", config.DefaultQueryTag, "Discovery tag name")
	queryCmd.Flags().String("version", "", "Version to match")
	queryCmd.Flags().IntP("limit", "n", config.DefaultQueryLimit, "Maximum number of results")
	queryCmd.Flags().String("content-type", config.DefaultContentType, `Content-Type to match ("any" disables the filter)`)
	queryCmd.Flags().String("id", "", "Fetch one transaction by id, bypassing tag filters")

	// upload flags
	uploadCmd.Flags().StringP("type", "t", "", "Discovery tag value (required for .json)")
	uploadCmd.Flags().String("tag", config.DefaultUploadTag, "Discovery tag name")
	uploadCmd.Flags().String("version", config.DefaultVersion, "Version tag")

	historyCmd.Flags().IntP("limit", "n", 0, "Maximum number of entries to show (0 for all)")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(balanceCmd)
}
