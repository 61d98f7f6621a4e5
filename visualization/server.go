package main

import (
	"errors"
	"flag"
	"log"
	"net/http"
	"path/filepath"

	"tickerextract/internal/extractor"
	"tickerextract/internal/utils"

	"github.com/gin-gonic/gin"
)

type tickersResponse struct {
	File    string   `json:"file"`
	Column  string   `json:"column"`
	Tickers []string `json:"tickers"`
}

type errorResponse struct {
	Error     string   `json:"error"`
	Kind      string   `json:"kind"`
	Available []string `json:"available,omitempty"`
}

func newRouter(config *utils.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/tickers", tickersHandler(config))

	// Scraped history files
	r.Static("/data", config.Scraper.OutputDir)
	return r
}

func tickersHandler(config *utils.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		file := c.DefaultQuery("file", config.Server.TickerFile)
		column := c.DefaultQuery("column", config.Extractor.Column)

		path, ok := tickerPath(config, c.Query("file"))
		if !ok {
			c.JSON(http.StatusBadRequest, errorResponse{
				Error: "file must be a relative path inside the data directory",
				Kind:  "InvalidPath",
			})
			return
		}

		tickers, err := utils.ReadTickers(config, path, column)
		if err != nil {
			c.JSON(statusFor(err), toErrorResponse(err))
			return
		}
		c.JSON(http.StatusOK, tickersResponse{File: file, Column: column, Tickers: tickers})
	}
}

// tickerPath resolves the file query parameter. An empty name selects the
// configured ticker file; anything else must stay inside the data directory.
func tickerPath(config *utils.Config, name string) (string, bool) {
	if name == "" {
		return config.Server.TickerFile, true
	}
	if !filepath.IsLocal(name) {
		return "", false
	}
	return filepath.Join(config.Server.DataDir, name), true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, extractor.ErrColumnNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extractor.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, extractor.ErrMalformedData):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func toErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error(), Kind: utils.ErrorKind(err)}
	var extErr *extractor.Error
	if errors.As(err, &extErr) {
		resp.Available = extErr.Available
	}
	return resp
}

func main() {
	configPath := flag.String("config", "", "Config file")
	flag.Parse()

	config, err := utils.LoadConfig(utils.ResolveConfigPath(*configPath))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := utils.NewLogger("", "server", config.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	gin.SetMode(gin.ReleaseMode)
	logger.Info("Starting server on %s", config.Server.Addr)
	if err := newRouter(config).Run(config.Server.Addr); err != nil {
		logger.Fatal("Server stopped: %v", err)
	}
}
