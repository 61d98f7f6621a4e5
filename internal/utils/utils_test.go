package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"tickerextract/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTickers(t *testing.T) {
	path := writeTempFile(t, "tickers.csv", "Symbol;Ticker\nAAPL;x\n-;y\nMSFT;z\nAAPL;w\n")

	cfg := DefaultConfig()
	cfg.Extractor.Column = "Symbol"
	cfg.Extractor.Delimiter = ";"
	cfg.Extractor.NullMarkers = []string{"-"}

	tickers, err := ReadTickers(cfg, path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	// an explicit column wins over the configured one
	tickers, err = ReadTickers(cfg, path, "Ticker")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z", "w"}, tickers)
}

func TestReadTickers_WrapsExtractorErrors(t *testing.T) {
	_, err := ReadTickers(DefaultConfig(), filepath.Join(t.TempDir(), "missing.csv"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, extractor.ErrFileNotFound)
	assert.Equal(t, "FileNotFound", ErrorKind(err))

	var extErr *extractor.Error
	assert.True(t, errors.As(err, &extErr))
}

func TestReadTickers_QuoteDelimiter(t *testing.T) {
	path := writeTempFile(t, "tickers.csv", "Ticker\nAAPL\n")

	cfg := DefaultConfig()
	cfg.Extractor.Delimiter = `"`

	_, err := ReadTickers(cfg, path, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, extractor.ErrInvalidOptions)
	assert.Equal(t, "InvalidOptions", ErrorKind(err))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "InvalidOptions", ErrorKind(&extractor.Error{Kind: extractor.ErrInvalidOptions}))
	assert.Equal(t, "ColumnNotFound", ErrorKind(&extractor.Error{Kind: extractor.ErrColumnNotFound}))
	assert.Equal(t, "MalformedData", ErrorKind(fmt.Errorf("x: %w", &extractor.Error{Kind: extractor.ErrMalformedData})))
	assert.Equal(t, "ProcessingError", ErrorKind(&extractor.Error{Kind: extractor.ErrProcessing}))
	assert.Equal(t, "Error", ErrorKind(errors.New("other")))
}
