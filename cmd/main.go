// Package main is the command line entry point. It extracts the unique
// tickers of a CSV column and prints them, and can optionally download each
// ticker's trading history with a headless browser.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"tickerextract/internal/scraper"
	"tickerextract/internal/utils"

	"github.com/google/uuid"
)

type options struct {
	file       string
	column     string
	ticker     string
	configPath string
	asJSON     bool
	scrape     bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("tickerextract", flag.ContinueOnError)
	fs.StringVar(&opts.file, "file", "", "Path to CSV file containing tickers")
	fs.StringVar(&opts.column, "column", "", "Column holding the tickers (default from config, else Ticker)")
	fs.StringVar(&opts.ticker, "ticker", "", "Single ticker to scrape, skips extraction")
	fs.StringVar(&opts.configPath, "config", "", "Config file (default $CONFIG_PATH or "+utils.DefaultConfigPath+")")
	fs.BoolVar(&opts.asJSON, "json", false, "Print tickers as a JSON array")
	fs.BoolVar(&opts.scrape, "scrape", false, "Download trading history for every extracted ticker")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.file == "" && opts.ticker == "" {
		return opts, fmt.Errorf("no input specified. Use -file for a ticker CSV or -ticker for a single ticker")
	}
	return opts, nil
}

// printTickers writes tickers one per line, or as a JSON array.
func printTickers(w io.Writer, tickers []string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		return enc.Encode(tickers)
	}
	for _, t := range tickers {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

// extract reads tickers from the CSV named in opts, timing the step.
func extract(config *utils.Config, logger *utils.Logger, tracker *utils.PerformanceTracker, opts options) ([]string, error) {
	var tickers []string
	err := tracker.Track("extract", func() error {
		var err error
		tickers, err = utils.ReadTickers(config, opts.file, opts.column)
		return err
	})
	if err != nil {
		logger.Error("[%s] %v", utils.ErrorKind(err), err)
		return nil, err
	}
	logger.Info("Found %d unique tickers in %s", len(tickers), opts.file)
	return tickers, nil
}

func run(args []string, stdout io.Writer) int {
	startTime := time.Now()

	opts, err := parseFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	config, err := utils.LoadConfig(utils.ResolveConfigPath(opts.configPath))
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	logDir := ""
	if opts.scrape || opts.ticker != "" {
		logDir = config.Log.Dir
	}
	logger, err := utils.NewLogger(logDir, "tickerextract", config.Log.Level)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}
	defer logger.Close()
	logger = logger.With("run", uuid.NewString())

	tracker := utils.NewPerformanceTracker()

	var tickers []string
	if opts.ticker != "" {
		tickers = []string{opts.ticker}
	} else {
		tickers, err = extract(config, logger, tracker, opts)
		if err != nil {
			return 1
		}
		if err := printTickers(stdout, tickers, opts.asJSON); err != nil {
			logger.Error("Failed to write tickers: %v", err)
			return 1
		}
	}

	if opts.scrape || opts.ticker != "" {
		if code := scrapeAll(config, logger, tickers); code != 0 {
			return code
		}
	}

	logger.Debug("%s", tracker.GenerateReport())
	logger.Info("Total execution time: %v", time.Since(startTime).Round(time.Millisecond))
	return 0
}

func scrapeAll(config *utils.Config, logger *utils.Logger, tickers []string) int {
	if len(tickers) == 0 {
		logger.Info("No tickers to scrape")
		return 0
	}

	s, err := scraper.New(context.Background(), logger, config)
	if err != nil {
		logger.Error("Failed to initialize scraper: %v", err)
		return 1
	}
	defer s.Close()

	if err := s.PreflightCheck(); err != nil {
		logger.Error("Preflight check failed: %v", err)
		return 1
	}

	summary := s.ProcessTickers(tickers)
	logger.Info("Scraped %d of %d tickers", len(summary.Saved), len(tickers))
	if len(summary.Failed) > 0 {
		for ticker, err := range summary.Failed {
			logger.Error("%s: %v", ticker, err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}
