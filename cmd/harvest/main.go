package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/extract"
	harvestfs "github.com/fwojciec/harvest/fs"
	"github.com/fwojciec/harvest/goquery"
	"github.com/fwojciec/harvest/htmltomarkdown"
	harvesthttp "github.com/fwojciec/harvest/http"
	"github.com/fwojciec/harvest/rod"
	harvestslog "github.com/fwojciec/harvest/slog"
	"github.com/fwojciec/harvest/sqlite"
	harvestzip "github.com/fwojciec/harvest/zip"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, harvest.ErrorMessage(err))
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// EnvFile is loaded before flags are parsed. Missing files are ignored.
	EnvFile string

	// Stdin is read when URLs or the request come from "-".
	Stdin io.Reader

	// SQLite database used by the listing archive.
	DB *sqlite.DB

	// Archive is exposed for end-to-end testing.
	Archive harvest.ListingArchive
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:  defaultDBPath(),
		EnvFile: ".env",
		Stdin:   os.Stdin,
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
	if m.EnvFile != "" {
		if err := godotenv.Load(m.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", m.EnvFile, err)
		}
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  m.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("harvest"),
		kong.Description("Harvest truck listings into manuscript and photo bundles."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'harvest --help' to see available commands")
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
	if cli.Debug {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if cli.DB != "" {
		m.DBPath = cli.DB
	}

	defer m.Close()
	defer deps.close()

	switch strings.Fields(kongCtx.Command())[0] {
	case "run":
		if err := m.wireRun(deps, &cli.Run); err != nil {
			return err
		}
	case "history":
		if err := m.openArchive(deps, stderr); err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// wireRun builds the harvester, bundle store and archive for the run command.
func (m *Main) wireRun(deps *Dependencies, c *RunCmd) error {
	tier, err := harvest.LookupTier(c.Tier)
	if err != nil {
		return err
	}
	deps.Tier = tier
	if _, err := c.loadRequest(deps.Stdin); err != nil {
		return err
	}
	userAgent := cmp.Or(c.UserAgent, harvest.DefaultUserAgent)

	var fetcher harvest.Fetcher
	if c.Browser {
		f, err := rod.NewFetcher(rod.WithFetchTimeout(c.timeout(tier)), rod.WithUserAgent(userAgent))
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed for --browser")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = f
	} else {
		fetcher = harvesthttp.NewFetcher(
			harvesthttp.WithTimeout(c.timeout(tier)),
			harvesthttp.WithUserAgent(userAgent))
	}
	fetcher = harvestslog.NewLoggingFetcher(fetcher, deps.Logger)
	deps.closers = append(deps.closers, fetcher.Close)

	budget := tier.Budget
	if c.Budget != 0 {
		budget = c.Budget
	}
	if c.NoBudget {
		budget = 0
	}
	deps.Harvester = &crawl.Harvester{
		Fetcher:   fetcher,
		Parser:    goquery.NewParser(),
		Extractor: extract.NewExtractor(htmltomarkdown.NewConverter()),
		Budget:    budget,
		Logger:    deps.Logger,
	}

	if !c.NoBundles {
		limiterOpts := make([]crawl.LimiterOption, 0, len(harvest.DefaultURLPolicy.Hosts))
		for _, host := range harvest.DefaultURLPolicy.Hosts {
			limiterOpts = append(limiterOpts, crawl.WithHostInterval(host, c.delay(tier)))
		}
		limiter := crawl.NewDomainLimiter(c.ImageRate, limiterOpts...)
		for _, host := range harvest.DefaultURLPolicy.Hosts {
			deps.Logger.Debug("image pacing", "host", host, "interval", limiter.Interval(host))
		}
		images := harvestslog.NewLoggingImageFetcher(
			harvesthttp.NewImageFetcher(limiter,
				harvesthttp.WithTimeout(c.timeout(tier)),
				harvesthttp.WithUserAgent(userAgent),
				harvesthttp.WithMinBodyLength(0)),
			deps.Logger,
		)
		assembler := &crawl.Assembler{Images: images, Concurrency: c.ImageConcurrency}

		if c.Zip {
			store := harvestzip.NewBundleStore(filepath.Join(c.Out, harvestzip.ArchiveName(time.Now())), assembler)
			deps.OutputPath = store.Path()
			deps.Bundles = harvestslog.NewLoggingBundleStore(store, deps.Logger)
		} else {
			store := harvestfs.NewBundleStore(c.Out, "truck-data-"+time.Now().Format("2006-01-02"), assembler)
			deps.OutputPath = store.Dir()
			deps.Bundles = harvestslog.NewLoggingBundleStore(store, deps.Logger)
		}
	}

	if !c.NoArchive {
		if err := m.openArchive(deps, deps.Stderr); err != nil {
			return err
		}
	}
	return nil
}

func (m *Main) openArchive(deps *Dependencies, stderr io.Writer) error {
	if m.DB == nil {
		m.DB = sqlite.NewDB(m.DBPath)
		if err := m.DB.Open(); err != nil {
			m.DB = nil
			fmt.Fprintf(stderr, "Hint: Set HARVEST_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
		}
		if m.Archive == nil {
			m.Archive = sqlite.NewListingArchive(m.DB)
		}
	}
	deps.Archive = m.Archive
	return nil
}

func defaultDBPath() string {
	if path := os.Getenv("HARVEST_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "harvest.db"
	}
	dir := filepath.Join(home, ".harvest")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "harvest.db")
}
