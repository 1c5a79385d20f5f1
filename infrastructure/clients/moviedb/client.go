package moviedb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/time/rate"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
)

// Config represents the metadata API configuration.
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerMinute int
}

// Client talks to the movie metadata API. It enforces its own request
// timeout and rate limit so the orchestrator never has to.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	timeout    time.Duration
}

type searchParams struct {
	APIKey string `url:"api_key"`
	Query  string `url:"query"`
	Limit  int    `url:"limit,omitempty"`
}

type movieDoc struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	ReleaseDate string      `json:"release_date"`
	PosterPath  string      `json:"poster_path"`
	VoteAverage float64     `json:"vote_average"`
	Overview    string      `json:"overview"`
	Genre       string      `json:"genre"`
	Director    string      `json:"director"`
	Cast        []string    `json:"cast"`
}

type searchResponse struct {
	Results []movieDoc `json:"results"`
}

// NewClient creates a metadata API client.
func NewClient(cfg *Config) repository.IMovieAPI {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 40
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		timeout:    timeout,
	}
}

// Search queries the API for movies matching the query.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]model.NormalizedMovie, error) {
	if strings.TrimSpace(q) == "" {
		return nil, nil
	}
	if !c.limiter.Allow() {
		return nil, model.NewLayerError("api", "moviedb", model.ErrKindRateLimited, fmt.Errorf("quota exhausted"))
	}

	params, err := query.Values(searchParams{APIKey: c.apiKey, Query: q, Limit: limit})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/search/movie?%s", c.baseURL, params.Encode())

	var res searchResponse
	if err := c.getJSON(ctx, url, &res); err != nil {
		return nil, err
	}

	movies := make([]model.NormalizedMovie, 0, len(res.Results))
	for _, doc := range res.Results {
		movies = append(movies, doc.normalized())
	}
	if limit > 0 && len(movies) > limit {
		movies = movies[:limit]
	}
	return movies, nil
}

// GetByID fetches a single movie by its external id.
func (c *Client) GetByID(ctx context.Context, id string) (*model.NormalizedMovie, error) {
	if id == "" {
		return nil, nil
	}
	if !c.limiter.Allow() {
		return nil, model.NewLayerError("api", "moviedb", model.ErrKindRateLimited, fmt.Errorf("quota exhausted"))
	}

	url := fmt.Sprintf("%s/movie/%s?api_key=%s", c.baseURL, id, c.apiKey)
	var doc movieDoc
	if err := c.getJSON(ctx, url, &doc); err != nil {
		return nil, err
	}
	if doc.Title == "" {
		return nil, nil
	}
	movie := doc.normalized()
	return &movie, nil
}

// Ping probes the API with a minimal request.
func (c *Client) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/configuration?api_key="+c.apiKey, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewLayerError("api", "moviedb", model.ErrKindConnectivity, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return model.NewLayerError("api", "moviedb", model.ErrKindConnectivity, fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewLayerError("api", "moviedb", model.ErrKindConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return model.NewLayerError("api", "moviedb", model.ErrKindRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return model.NewLayerError("api", "moviedb", model.ErrKindConnectivity, fmt.Errorf("status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return model.NewLayerError("api", "moviedb", model.ErrKindParse, err)
	}
	return nil
}

func (d movieDoc) normalized() model.NormalizedMovie {
	year := 0
	if len(d.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(d.ReleaseDate[:4]); err == nil {
			year = y
		}
	}
	return model.NormalizedMovie{
		ID:        d.ID.String(),
		Title:     d.Title,
		Year:      year,
		PosterURL: d.PosterPath,
		Rating:    d.VoteAverage,
		Plot:      d.Overview,
		Genre:     d.Genre,
		Director:  d.Director,
		Cast:      d.Cast,
		Source:    "moviedb",
	}
}
