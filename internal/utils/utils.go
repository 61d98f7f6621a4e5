package utils

import (
	"errors"
	"fmt"

	"tickerextract/internal/extractor"
)

// ReadTickers extracts the unique tickers of column from the CSV file at
// filePath using the extractor settings in config. An empty column falls back
// to the configured one.
func ReadTickers(config *Config, filePath, column string) ([]string, error) {
	if column == "" {
		column = config.Extractor.Column
	}

	tickers, err := extractor.Extract(filePath, extractor.Options{
		Column:      column,
		Comma:       config.Comma(),
		NullMarkers: config.Extractor.NullMarkers,
	})
	if err != nil {
		return nil, fmt.Errorf("read tickers: %w", err)
	}
	return tickers, nil
}

// ErrorKind names the extractor error kind of err for log lines.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, extractor.ErrInvalidOptions):
		return "InvalidOptions"
	case errors.Is(err, extractor.ErrFileNotFound):
		return "FileNotFound"
	case errors.Is(err, extractor.ErrColumnNotFound):
		return "ColumnNotFound"
	case errors.Is(err, extractor.ErrMalformedData):
		return "MalformedData"
	case errors.Is(err, extractor.ErrProcessing):
		return "ProcessingError"
	}
	return "Error"
}
