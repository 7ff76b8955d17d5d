// Package ingest fetches raw financial statements from external providers and
// decodes them into models.RawFinancials.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"value_investor/pkg/models"
)

// ErrNotFound means the provider has no data for the ticker.
var ErrNotFound = errors.New("ticker not found")

// maxBodyBytes caps a provider response.
const maxBodyBytes = 32 << 20

// Fetcher returns the raw bundle for a ticker.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (*models.RawFinancials, error)
}

// HTTPFetcher reads bundles from {BaseURL}/financials/{TICKER}. JSON bodies go
// through DecodeBundle, text/html bodies through ParseStatementsHTML.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewHTTPFetcher creates a provider client. A nil logger disables logging.
func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, ticker string) (*models.RawFinancials, error) {
	ticker, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/financials/%s", f.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build provider request")
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.8")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "provider request for %s", ticker)
	}
	defer resp.Body.Close()

	f.logger.Debug("provider response",
		zap.String("ticker", ticker),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(ErrNotFound, "provider has no data for %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("provider returned status %d for %s", resp.StatusCode, ticker)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read provider response")
	}

	var raw *models.RawFinancials
	if isHTML(resp.Header.Get("Content-Type"), body) {
		raw, err = ParseStatementsHTML(bytes.NewReader(body))
	} else {
		raw, err = DecodeBundle(body)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode provider response for %s", ticker)
	}
	f.stamp(raw, ticker)
	return raw, nil
}

func (f *HTTPFetcher) stamp(raw *models.RawFinancials, ticker string) {
	if raw.Ticker == "" {
		raw.Ticker = ticker
	}
	if raw.FetchedAt.IsZero() {
		raw.FetchedAt = f.now().UTC()
	}
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// FileFetcher reads bundles from {Dir}/{TICKER}.json, .hjson or .html.
// Handy for offline use and fixtures.
type FileFetcher struct {
	Dir string
}

var fileExtensions = []string{".json", ".hjson", ".html"}

// Fetch implements Fetcher.
func (f FileFetcher) Fetch(_ context.Context, ticker string) (*models.RawFinancials, error) {
	ticker, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	for _, ext := range fileExtensions {
		path := filepath.Join(f.Dir, ticker+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}

		var raw *models.RawFinancials
		if ext == ".html" {
			raw, err = ParseStatementsHTML(bytes.NewReader(data))
		} else {
			raw, err = DecodeBundle(data)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
		if raw.Ticker == "" {
			raw.Ticker = ticker
		}
		if raw.FetchedAt.IsZero() {
			if st, err := os.Stat(path); err == nil {
				raw.FetchedAt = st.ModTime().UTC()
			}
		}
		return raw, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "no bundle file for %s in %s", ticker, f.Dir)
}
