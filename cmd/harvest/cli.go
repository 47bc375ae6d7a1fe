package main

import (
	"cmp"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Tier      harvest.Tier
	Harvester harvest.Harvester
	Bundles   harvest.BundleStore
	Archive   harvest.ListingArchive

	// OutputPath is where committed bundles end up, for display.
	OutputPath string

	closers []func() error
}

func (d *Dependencies) close() {
	for _, c := range d.closers {
		_ = c()
	}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Debug bool   `help:"Enable debug logging"`
	DB    string `name:"db" env:"HARVEST_DB" help:"Archive database path"`

	Run     RunCmd     `cmd:"" help:"Harvest listings and write bundles"`
	Check   CheckCmd   `cmd:"" help:"Validate listing URLs without fetching"`
	History HistoryCmd `cmd:"" help:"Show archived batches"`
}

// URLInput collects listing URLs from arguments and an optional file.
type URLInput struct {
	URLs    []string `arg:"" optional:"" help:"Listing URLs"`
	File    string   `short:"f" help:"Read URLs from a file, one per line (- for stdin)"`
	AnyHost bool     `help:"Accept any http(s) URL instead of dealer detail pages only"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	URLInput `embed:""`

	Request          string        `help:"Read a JSON batch request {urls, interRequestDelayMs, perRequestTimeoutMs} (- for stdin)"`
	UserAgent        string        `env:"HARVEST_USER_AGENT" help:"User-Agent sent to the dealer site"`
	Tier             string        `default:"local" env:"HARVEST_TIER" enum:"local,production,prod" help:"Timing defaults (local, production)"`
	Delay            time.Duration `help:"Delay between requests (default from tier)"`
	Timeout          time.Duration `help:"Per-request timeout (default from tier)"`
	Budget           time.Duration `help:"Total time budget (default from tier)"`
	NoBudget         bool          `help:"Run without a total time budget"`
	Out              string        `short:"o" default:"." env:"HARVEST_OUT" help:"Output directory"`
	Zip              bool          `short:"z" help:"Write one ZIP archive instead of folders"`
	Browser          bool          `short:"b" help:"Render pages with headless Chrome"`
	JSON             bool          `name:"json" help:"Print the batch result as JSON"`
	NoBundles        bool          `help:"Skip writing bundles"`
	NoArchive        bool          `help:"Skip recording the batch in the archive"`
	ImageConcurrency int           `default:"4" help:"Parallel image downloads per listing"`
	ImageRate        float64       `default:"4" help:"Image requests per second per CDN host, 0 for unlimited; the dealer host is paced like pages"`

	base   harvest.BatchRequest
	loaded bool
}

// loadRequest reads --request once; later calls return the same request.
func (c *RunCmd) loadRequest(stdin io.Reader) (harvest.BatchRequest, error) {
	if c.loaded || c.Request == "" {
		return c.base, nil
	}
	if c.Request == "-" && c.File == "-" {
		return harvest.BatchRequest{}, harvest.Errorf(harvest.EINVALID, "--request and --file cannot both read stdin")
	}
	data, err := readInput(c.Request, stdin)
	if err != nil {
		return harvest.BatchRequest{}, err
	}
	if err := json.Unmarshal(data, &c.base); err != nil {
		return harvest.BatchRequest{}, harvest.Errorf(harvest.EINVALID, "%s: %s", c.Request, harvest.ErrorMessage(err))
	}
	c.loaded = true
	return c.base, nil
}

// timing returns the batch timings: flags first, then --request, then tier.
func (c *RunCmd) timing(tier harvest.Tier) harvest.BatchRequest {
	return harvest.BatchRequest{
		InterRequestDelay: cmp.Or(c.Delay, c.base.InterRequestDelay),
		PerRequestTimeout: cmp.Or(c.Timeout, c.base.PerRequestTimeout),
	}.WithDefaults(tier)
}

func (c *RunCmd) delay(tier harvest.Tier) time.Duration {
	return c.timing(tier).InterRequestDelay
}

func (c *RunCmd) timeout(tier harvest.Tier) time.Duration {
	return c.timing(tier).PerRequestTimeout
}

// CheckCmd is the "check" subcommand.
type CheckCmd struct {
	URLInput `embed:""`

	JSON bool `name:"json" help:"Print the valid URLs as a JSON batch request for run --request"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Batch  string `arg:"" optional:"" help:"Batch ID to show listings for"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of rows"`
	Failed bool   `help:"Include failed records"`
}
