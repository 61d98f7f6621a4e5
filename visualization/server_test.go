package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"tickerextract/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	config := utils.DefaultConfig()
	config.Scraper.OutputDir = filepath.Join(dir, "output")
	config.Server.DataDir = filepath.Join(dir, "data")
	config.Server.TickerFile = filepath.Join(config.Server.DataDir, "TICKERS.csv")
	require.NoError(t, os.MkdirAll(config.Scraper.OutputDir, 0o755))
	require.NoError(t, os.MkdirAll(config.Server.DataDir, 0o755))
	require.NoError(t, os.WriteFile(config.Server.TickerFile, []byte("Ticker,Name\nBBOB,Bank\nBBOB,Bank\nTASC,Telecom\n"), 0o644))
	return newRouter(config), dir
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestTickers_DefaultFile(t *testing.T) {
	r, _ := setup(t)

	w := get(r, "/tickers")
	require.Equal(t, http.StatusOK, w.Code)

	var resp tickersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ticker", resp.Column)
	assert.Equal(t, []string{"BBOB", "TASC"}, resp.Tickers)
}

func TestTickers_ColumnNotFound(t *testing.T) {
	r, _ := setup(t)

	w := get(r, "/tickers?column=Symbol")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ColumnNotFound", resp.Kind)
	assert.Equal(t, []string{"Ticker", "Name"}, resp.Available)
}

func TestTickers_Statuses(t *testing.T) {
	r, dir := setup(t)
	data := filepath.Join(dir, "data")

	assert.Equal(t, http.StatusNotFound, get(r, "/tickers?file=missing.csv").Code)

	require.NoError(t, os.WriteFile(filepath.Join(data, "ragged.csv"), []byte("Ticker\nA,B\n"), 0o644))
	assert.Equal(t, http.StatusBadRequest, get(r, "/tickers?file=ragged.csv").Code)

	require.NoError(t, os.WriteFile(filepath.Join(data, "empty.csv"), nil, 0o644))
	w := get(r, "/tickers?file=empty.csv")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tickers":[]`)
}

func TestTickers_FileInDataDir(t *testing.T) {
	r, dir := setup(t)
	nested := filepath.Join(dir, "data", "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "more.csv"), []byte("Ticker\nZAIN\n"), 0o644))

	w := get(r, "/tickers?file="+url.QueryEscape("nested/more.csv"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp tickersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "nested/more.csv", resp.File)
	assert.Equal(t, []string{"ZAIN"}, resp.Tickers)
}

func TestTickers_RejectsPathsOutsideDataDir(t *testing.T) {
	r, dir := setup(t)
	secret := filepath.Join(dir, "secret.csv")
	require.NoError(t, os.WriteFile(secret, []byte("Ticker\nLEAKED\n"), 0o644))

	for _, file := range []string{
		"/etc/hostname",
		secret,
		"../secret.csv",
		"nested/../../secret.csv",
		"..",
	} {
		t.Run(file, func(t *testing.T) {
			w := get(r, "/tickers?file="+url.QueryEscape(file))
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotContains(t, w.Body.String(), "LEAKED")

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "InvalidPath", resp.Kind)
			assert.Empty(t, resp.Available)
		})
	}
}

func TestTickerPath(t *testing.T) {
	config := utils.DefaultConfig()
	config.Server.DataDir = "data"

	path, ok := tickerPath(config, "")
	assert.True(t, ok)
	assert.Equal(t, config.Server.TickerFile, path)

	path, ok = tickerPath(config, "a/b.csv")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("data", "a", "b.csv"), path)

	_, ok = tickerPath(config, "../b.csv")
	assert.False(t, ok)
}

func TestHealthzAndData(t *testing.T) {
	r, dir := setup(t)

	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "output", "BBOB_data.csv"), []byte("Date\n"), 0o644))
	w := get(r, "/data/BBOB_data.csv")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Date\n", w.Body.String())
}
