package scraping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
)

// maxPageBytes caps how much of a scraped page is read; listing and
// detail pages fit comfortably below this.
const maxPageBytes = 2 << 20

// HTTPPageFetcher is the low-level scraping provider. It only fetches
// raw documents; all selector parsing lives in the sources.
type HTTPPageFetcher struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
}

func NewHTTPPageFetcher(timeout time.Duration, userAgent, acceptLanguage string) *HTTPPageFetcher {
	return &HTTPPageFetcher{
		client:         &http.Client{Timeout: timeout},
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
	}
}

var _ repository.IPageFetcher = (*HTTPPageFetcher)(nil)

func (f *HTTPPageFetcher) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, model.NewLayerError("fetcher", url, model.ErrKindConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, model.NewLayerError("fetcher", url, model.ErrKindRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, model.NewLayerError("fetcher", url, model.ErrKindConnectivity, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, model.NewLayerError("fetcher", url, model.ErrKindConnectivity, err)
	}
	return body, nil
}

// Close releases idle connections held by the underlying transport.
func (f *HTTPPageFetcher) Close() {
	f.client.CloseIdleConnections()
}
