package scraper

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tickerextract/internal/utils"
	"tickerextract/models"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/91.0.4472.124 Safari/537.36"
	refreshEvery = 5
)

type Scraper struct {
	logger      *utils.Logger
	config      *utils.Config
	perfTracker *utils.PerformanceTracker

	parent      context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// Summary is the outcome of ProcessTickers.
type Summary struct {
	Saved  map[string]string // ticker -> CSV file
	Failed map[string]error
}

// BrowserOptions returns the Chrome flags the scraper runs with.
func BrowserOptions(config *utils.Config) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("headless", config.Scraper.Browser.Headless),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("enable-logging", config.Scraper.Browser.Debug),
		chromedp.UserAgent(userAgent),
	)
}

// New starts a browser and checks that it can open a blank page.
func New(parent context.Context, logger *utils.Logger, config *utils.Config) (*Scraper, error) {
	s := &Scraper{
		logger:      logger,
		config:      config,
		perfTracker: utils.NewPerformanceTracker(),
		parent:      parent,
	}
	if err := s.startBrowser(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Scraper) startBrowser() error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(s.parent, BrowserOptions(s.config)...)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(s.logger.Debug))
	s.allocCancel, s.ctx, s.cancel = allocCancel, ctx, cancel

	// Accept alert/confirm dialogs so they never block navigation.
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if ev, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			s.logger.Debug("Dialog detected: %s", ev.Message)
			go func() {
				if err := chromedp.Run(ctx, page.HandleJavaScriptDialog(true)); err != nil {
					s.logger.Debug("Failed to handle dialog: %v", err)
				}
			}()
		}
	})

	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	return nil
}

// TickerURL fills the configured URL template with ticker.
func (s *Scraper) TickerURL(ticker string) string {
	return fmt.Sprintf(s.config.Scraper.URLTemplate, url.QueryEscape(ticker))
}

func (s *Scraper) GetStockData(ticker string) ([]models.StockData, error) {
	timeout := time.Duration(s.config.Scraper.Timeout) * time.Second
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	s.perfTracker.StartStep("navigate")
	err := chromedp.Run(ctx,
		chromedp.Navigate(s.TickerURL(ticker)),
		chromedp.WaitReady("body"),
	)
	s.perfTracker.EndStep()
	if err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if setup := s.setupActions(); len(setup) > 0 {
		if err := s.perfTracker.Track("setup", func() error { return chromedp.Run(ctx, setup) }); err != nil {
			return nil, fmt.Errorf("failed to set date range: %w", err)
		}
	}

	var all []models.StockData
	maxPages := s.config.Scraper.MaxPages
	delay := time.Duration(s.config.Scraper.Delay) * time.Second

	for currentPage := 1; currentPage <= maxPages; currentPage++ {
		var rows [][]string
		err := s.perfTracker.Track("extract page", func() error {
			return chromedp.Run(ctx, chromedp.Evaluate(rowsScript(s.config.Scraper.TableSelector), &rows))
		})
		if err != nil {
			return nil, fmt.Errorf("failed to extract data from page %d: %w", currentPage, err)
		}

		pageData := parseRows(ticker, rows)
		s.logger.Debug("Extracted %d records for %s from page %d", len(pageData), ticker, currentPage)
		all = append(all, pageData...)

		next := s.config.Scraper.NextSelector
		if next == "" || currentPage == maxPages {
			break
		}
		err = chromedp.Run(ctx,
			chromedp.Click(next, chromedp.ByQuery),
			chromedp.Sleep(delay),
		)
		if err != nil {
			s.logger.Debug("No page %d for %s: %v", currentPage+1, ticker, err)
			break
		}
	}

	return all, nil
}

// setupActions runs the configured setup script and waits for the table to
// reload. There are none when no script is configured.
func (s *Scraper) setupActions() chromedp.Tasks {
	script := strings.TrimSpace(s.config.Scraper.SetupScript)
	if script == "" {
		return nil
	}
	return chromedp.Tasks{
		chromedp.Evaluate(script, nil),
		chromedp.Sleep(time.Duration(s.config.Scraper.Delay) * time.Second),
	}
}

func rowsScript(selector string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(
		row => Array.from(row.querySelectorAll('td')).map(cell => cell.textContent.trim()))`, selector)
}

// parseRows maps history table rows to StockData. The table lists, in
// order: trades, volume, total shares, -, -, low, high, open, close, date.
// Rows with fewer cells are skipped.
func parseRows(ticker string, rows [][]string) []models.StockData {
	out := make([]models.StockData, 0, len(rows))
	for _, cells := range rows {
		if len(cells) < 10 {
			continue
		}
		out = append(out, models.StockData{
			Ticker:      ticker,
			Date:        cells[9],
			Open:        cells[7],
			High:        cells[6],
			Low:         cells[5],
			Close:       cells[8],
			Volume:      cells[1],
			TotalShares: cells[2],
			NumTrades:   cells[0],
		})
	}
	return out
}

// SaveToCSV writes data to <outputDir>/<ticker>_data.csv and returns the path.
func (s *Scraper) SaveToCSV(ticker string, data []models.StockData) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no data to save")
	}

	if err := os.MkdirAll(s.config.Scraper.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(s.config.Scraper.OutputDir, fileSafe(ticker)+"_data.csv")
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(models.CSVHeader); err != nil {
		return "", fmt.Errorf("failed to write headers: %w", err)
	}
	for _, record := range data {
		if err := writer.Write(record.Record()); err != nil {
			return "", fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV file: %w", err)
	}

	s.logger.Info("Saved %d rows to %s", len(data), filename)
	return filename, nil
}

func fileSafe(ticker string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, ticker)
}

// ProcessTicker downloads and saves the history of one ticker, retrying up to
// the configured number of times.
func (s *Scraper) ProcessTicker(ticker string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.config.Scraper.Retries; attempt++ {
		if attempt > 0 {
			s.logger.Debug("Retrying %s (attempt %d)", ticker, attempt+1)
			if err := s.refreshBrowser(); err != nil {
				return "", err
			}
		}

		var data []models.StockData
		err := s.perfTracker.Track("ticker", func() error {
			var err error
			data, err = s.GetStockData(ticker)
			return err
		})
		if err != nil {
			lastErr = err
			continue
		}
		return s.SaveToCSV(ticker, data)
	}
	return "", lastErr
}

// ProcessTickers runs ProcessTicker over tickers in order. Failures are
// collected, not fatal.
func (s *Scraper) ProcessTickers(tickers []string) Summary {
	summary := Summary{Saved: map[string]string{}, Failed: map[string]error{}}
	delay := time.Duration(s.config.Scraper.Delay) * time.Second

	for i, ticker := range tickers {
		s.logger.Info("Processing ticker %d/%d: %s", i+1, len(tickers), ticker)

		if i > 0 && i%refreshEvery == 0 {
			if err := s.refreshBrowser(); err != nil {
				s.logger.Error("Failed to refresh browser: %v", err)
			}
		}

		filename, err := s.ProcessTicker(ticker)
		if err != nil {
			s.logger.Error("Failed to process ticker %s: %v", ticker, err)
			summary.Failed[ticker] = err
		} else {
			summary.Saved[ticker] = filename
		}

		if i < len(tickers)-1 && delay > 0 {
			time.Sleep(delay)
		}
	}

	s.logger.Info("Aggregate Performance Report:%s", s.perfTracker.GenerateAggregateReport())
	return summary
}

func (s *Scraper) refreshBrowser() error {
	s.logger.Debug("Refreshing browser session")
	s.Close()
	if err := s.startBrowser(); err != nil {
		return fmt.Errorf("failed to refresh browser: %w", err)
	}
	return nil
}

func (s *Scraper) Close() {
	if s.ctx != nil {
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.logger.Debug("Error during graceful shutdown: %v", err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.ctx, s.cancel, s.allocCancel = nil, nil, nil
}

func (s *Scraper) GetPerformanceTracker() *utils.PerformanceTracker {
	return s.perfTracker
}

// PreflightCheck verifies config, output directory and browser before a run.
func (s *Scraper) PreflightCheck() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"Config Validation", s.config.Validate},
		{"Directory Structure", s.checkDirectories},
		{"Browser Launch", s.testBrowserLaunch},
		{"Network Settings", s.testNetworkSettings},
	}

	for _, c := range checks {
		s.logger.Debug("Running preflight check: %s", c.name)
		if err := c.check(); err != nil {
			return fmt.Errorf("%s check failed: %w", c.name, err)
		}
		s.logger.Debug("%s check passed", c.name)
	}
	return nil
}

func (s *Scraper) checkDirectories() error {
	return os.MkdirAll(s.config.Scraper.OutputDir, 0755)
}

func (s *Scraper) testBrowserLaunch() error {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	return chromedp.Run(ctx, chromedp.Navigate("about:blank"))
}

func (s *Scraper) testNetworkSettings() error {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	return chromedp.Run(ctx,
		network.Enable(),
		network.SetCacheDisabled(true),
		emulation.SetUserAgentOverride(userAgent),
	)
}
