package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultConfigPath is used when neither a flag nor CONFIG_PATH names a file.
const DefaultConfigPath = "configs/config.yaml"

// DefaultSetupScript sets the history page's start date and runs its search
// before the first page of rows is read.
const DefaultSetupScript = `(() => {
	const dateInput = document.querySelector("#fromDate");
	dateInput.value = "01/01/2020";
	dateInput.dispatchEvent(new Event('change', { bubbles: true }));

	const searchButton = document.querySelector("#command > div.filterbox > div.button-all > input[type=button]");
	searchButton.click();
	return true;
})()`

type Config struct {
	Extractor struct {
		Column      string   `yaml:"column"`
		Delimiter   string   `yaml:"delimiter"`
		NullMarkers []string `yaml:"nullMarkers"`
	} `yaml:"extractor"`
	Scraper struct {
		Timeout       int    `yaml:"timeout"`
		Retries       int    `yaml:"retries"`
		Delay         int    `yaml:"delay"`
		MaxPages      int    `yaml:"maxPages"`
		URLTemplate   string `yaml:"urlTemplate"`
		TableSelector string `yaml:"tableSelector"`
		NextSelector  string `yaml:"nextSelector"`
		SetupScript   string `yaml:"setupScript"`
		OutputDir     string `yaml:"outputDir"`
		Browser       struct {
			Headless bool `yaml:"headless"`
			Debug    bool `yaml:"debug"`
		} `yaml:"browser"`
	} `yaml:"scraper"`
	Log struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"log"`
	Server struct {
		Addr       string `yaml:"addr"`
		TickerFile string `yaml:"tickerFile"`
		// DataDir is the only directory the file query parameter can read from.
		DataDir string `yaml:"dataDir"`
	} `yaml:"server"`
}

// DefaultConfig returns the settings used for anything the config file
// leaves out.
func DefaultConfig() *Config {
	config := &Config{}
	config.Extractor.Column = "Ticker"
	config.Extractor.Delimiter = ","
	config.Scraper.Timeout = 30
	config.Scraper.Retries = 2
	config.Scraper.Delay = 2
	config.Scraper.MaxPages = 5
	config.Scraper.URLTemplate = "http://www.isx-iq.net/isxportal/portal/companyprofilecontainer.html?currLanguage=en&companyCode=%s%%20&activeTab=0"
	config.Scraper.TableSelector = "#dispTable tbody tr"
	config.Scraper.SetupScript = DefaultSetupScript
	config.Scraper.OutputDir = "output"
	config.Scraper.Browser.Headless = true
	config.Log.Level = "info"
	config.Log.Dir = "logs"
	config.Server.Addr = "127.0.0.1:8080"
	config.Server.TickerFile = "TICKERS.csv"
	config.Server.DataDir = "data"
	return config
}

// ResolveConfigPath picks the config file: the explicit path if set, then
// CONFIG_PATH, then DefaultConfigPath. A .env file in the working directory
// is loaded first so it can set CONFIG_PATH.
func ResolveConfigPath(explicit string) string {
	_ = godotenv.Load()

	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfig reads the YAML file at path over DefaultConfig. A missing file
// is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.UnmarshalStrict(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Scraper.Timeout <= 0 {
		return errors.New("scraper.timeout must be > 0")
	}
	if c.Scraper.MaxPages <= 0 {
		return errors.New("scraper.maxPages must be > 0")
	}
	if c.Scraper.Delay < 0 {
		return errors.New("scraper.delay must be >= 0")
	}
	if c.Scraper.Retries < 0 {
		return errors.New("scraper.retries must be >= 0")
	}
	if !strings.Contains(c.Scraper.URLTemplate, "%s") {
		return errors.New("scraper.urlTemplate must contain %s for the ticker")
	}
	if utf8.RuneCountInString(c.Extractor.Delimiter) > 1 {
		return fmt.Errorf("extractor.delimiter must be a single character, got %q", c.Extractor.Delimiter)
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// Comma returns the extractor delimiter as a rune, 0 meaning the default.
func (c *Config) Comma() rune {
	if c.Extractor.Delimiter == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.Extractor.Delimiter)
	return r
}
