// Package models defines the data structures used in the application.
package models

// StockData is one row of a ticker's trading history.
type StockData struct {
	Ticker      string
	Date        string
	Open        string
	High        string
	Low         string
	Close       string
	Volume      string
	TotalShares string // T.Shares
	NumTrades   string // No.Trades
}

// CSVHeader is the header row written before StockData records.
var CSVHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume", "T.Shares", "Trades"}

// Record returns the row in CSVHeader order.
func (s StockData) Record() []string {
	return []string{s.Date, s.Open, s.High, s.Low, s.Close, s.Volume, s.TotalShares, s.NumTrades}
}
