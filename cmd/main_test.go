package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "tickers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir, path
}

func TestRun_PrintsTickers(t *testing.T) {
	dir, path := writeCSV(t, "Ticker,Price\nAAPL,1\nMSFT,2\nAAPL,3\n  SPY  ,4\n")

	var out bytes.Buffer
	code := run([]string{"-config", filepath.Join(dir, "none.yaml"), "-file", path}, &out)
	assert.Equal(t, 0, code)
	assert.Equal(t, "AAPL\nMSFT\nSPY\n", out.String())
}

func TestRun_JSON(t *testing.T) {
	dir, path := writeCSV(t, "Symbol\nNVDA\nNVDA\nAMD\n")

	var out bytes.Buffer
	code := run([]string{"-config", filepath.Join(dir, "none.yaml"), "-file", path, "-column", "Symbol", "-json"}, &out)
	assert.Equal(t, 0, code)
	assert.JSONEq(t, `["NVDA","AMD"]`, out.String())
}

func TestRun_EmptyFileJSON(t *testing.T) {
	dir, path := writeCSV(t, "")

	var out bytes.Buffer
	code := run([]string{"-config", filepath.Join(dir, "none.yaml"), "-file", path, "-json"}, &out)
	assert.Equal(t, 0, code)
	assert.Equal(t, "[]\n", out.String())
}

func TestRun_Errors(t *testing.T) {
	dir, path := writeCSV(t, "Name,Value\nApple,100\n")
	cfg := filepath.Join(dir, "none.yaml")

	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{"-config", cfg, "-file", path}, &out))
	assert.Equal(t, 1, run([]string{"-config", cfg, "-file", filepath.Join(dir, "missing.csv")}, &out))
	assert.Empty(t, out.String())
}

func TestRun_BadConfig(t *testing.T) {
	dir, path := writeCSV(t, "Ticker\nAAPL\n")
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: loud\n"), 0o644))

	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{"-config", cfg, "-file", path}, &out))
}

func TestParseFlags(t *testing.T) {
	_, err := parseFlags(nil)
	assert.Error(t, err)

	opts, err := parseFlags([]string{"-file", "a.csv", "-column", "Symbol", "-json", "-scrape"})
	require.NoError(t, err)
	assert.Equal(t, options{file: "a.csv", column: "Symbol", asJSON: true, scrape: true}, opts)

	opts, err = parseFlags([]string{"-ticker", "BBOB"})
	require.NoError(t, err)
	assert.Equal(t, "BBOB", opts.ticker)
}

func TestPrintTickers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTickers(&buf, []string{}, true))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, printTickers(&buf, []string{"A", "B"}, false))
	assert.Equal(t, "A\nB\n", buf.String())
}
