package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/htmlner"
	nerhttp "github.com/fwojciec/htmlner/http"
	"github.com/fwojciec/htmlner/pipeline"
	nerslog "github.com/fwojciec/htmlner/slog"
	"github.com/fwojciec/htmlner/sqlite"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Empty uses the config file's database, then the
	// default under the home directory.
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	ExtractionService htmlner.ExtractionService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: os.Getenv("HTMLNER_DB"),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("htmlner"),
		kong.Description("Named entity recognition for HTML pages."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'htmlner --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}
	deps.Config = cfg

	command := kongCtx.Command()
	switch command {
	case "tokenize <file>", "features <file>", "train <files>", "extract <source>":
		p, err := cfg.Pipeline(deps.Logger)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", htmlner.ErrorMessage(err))
			return err
		}
		deps.Pipeline = p
	}

	switch command {
	case "train <files>", "extract <source>":
		deps.Pipeline.Model = cfg.Model(deps.Pipeline.Features, deps.Logger)
	}

	if command == "extract <source>" {
		fetcher := nerslog.NewLoggingFetcher(nerhttp.NewFetcher(), deps.Logger)
		defer fetcher.Close()
		deps.Fetcher = fetcher
		deps.Limiter = pipeline.NewDomainLimiter(1.0)
		deps.Pipeline.RetryDelays = pipeline.DefaultRetryDelays()
	}

	if command == "list" || command == "delete <id>" || (command == "extract <source>" && cli.Extract.Save) {
		path := m.dbPath(cfg)
		m.DB = sqlite.NewDB(path)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set HTMLNER_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", path, err)
		}
		defer m.Close()

		m.ExtractionService = sqlite.NewExtractionService(m.DB)
		deps.Extractions = m.ExtractionService
	}

	return kongCtx.Run(deps)
}

func (m *Main) dbPath(cfg *Config) string {
	if m.DBPath != "" {
		return m.DBPath
	}
	if cfg.Database != "" {
		return cfg.Database
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "htmlner.db"
	}
	dir := filepath.Join(home, ".htmlner")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "htmlner.db")
}
