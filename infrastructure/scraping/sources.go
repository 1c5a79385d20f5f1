package scraping

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
	"movie-hub/infrastructure/logger"
)

// Source is one scraped site. Implementations own their selectors and
// confidence heuristics; everything they return is best-effort.
type Source interface {
	Name() string
	Priority() int
	BaseURL() string
	Search(ctx context.Context, query string) ([]model.ScrapingResult, error)
	Details(ctx context.Context, externalID string) (*model.NormalizedMovie, error)
	// Ping fetches robots.txt as a cheap reachability probe.
	Ping(ctx context.Context) error
}

var titleIDPattern = regexp.MustCompile(`/title/(tt\d+)`)
var filmSlugPattern = regexp.MustCompile(`/film/([a-z0-9-]+)`)
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// imdbSource parses the IMDb find page. Highest confidence of the
// scraped sources; still parsed defensively because the markup shifts.
type imdbSource struct {
	fetcher  repository.IPageFetcher
	baseURL  string
	priority int
}

func NewIMDbSource(fetcher repository.IPageFetcher, baseURL string, priority int) Source {
	return &imdbSource{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), priority: priority}
}

func (s *imdbSource) Name() string    { return "imdb" }
func (s *imdbSource) Priority() int   { return s.priority }
func (s *imdbSource) BaseURL() string { return s.baseURL }

func (s *imdbSource) Ping(ctx context.Context) error {
	_, err := s.fetcher.Fetch(ctx, s.baseURL+"/robots.txt", nil)
	return err
}

func (s *imdbSource) Search(ctx context.Context, query string) ([]model.ScrapingResult, error) {
	searchURL := fmt.Sprintf("%s/find/?q=%s&s=tt&ttype=ft", s.baseURL, url.QueryEscape(query))
	body, err := s.fetcher.Fetch(ctx, searchURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewLayerError("fetcher", s.Name(), model.ErrKindParse, err)
	}

	now := time.Now().UTC()
	var results []model.ScrapingResult
	doc.Find("li.ipc-metadata-list-summary-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.ipc-metadata-list-summary-item__t").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		href, _ := link.Attr("href")
		id := extractMatch(titleIDPattern, href)

		r := model.ScrapingResult{
			Title:      title,
			ExternalID: id,
			Source:     s.Name(),
			Confidence: 0.9,
			ScrapedAt:  now,
		}
		sel.Find("span.ipc-metadata-list-summary-item__li").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
			if y := extractYear(meta.Text()); y != 0 {
				r.Year = y
				return false
			}
			return true
		})
		if img, ok := sel.Find("img.ipc-image").First().Attr("src"); ok {
			r.PosterURL = img
		}
		r.Confidence = scoreConfidence(0.9, r)
		results = append(results, r)
		return len(results) < 25
	})
	return results, nil
}

func (s *imdbSource) Details(ctx context.Context, externalID string) (*model.NormalizedMovie, error) {
	detailURL := fmt.Sprintf("%s/title/%s/", s.baseURL, url.PathEscape(externalID))
	body, err := s.fetcher.Fetch(ctx, detailURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewLayerError("fetcher", s.Name(), model.ErrKindParse, err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		return nil, model.NewLayerError("fetcher", s.Name(), model.ErrKindParse, fmt.Errorf("no title on detail page"))
	}

	movie := &model.NormalizedMovie{
		ID:     externalID,
		Title:  title,
		Plot:   strings.TrimSpace(doc.Find("p[data-testid='plot'] span").First().Text()),
		Source: s.Name(),
	}
	if ratingText := doc.Find("div[data-testid='hero-rating-bar__aggregate-rating__score'] span").First().Text(); ratingText != "" {
		if rating, err := strconv.ParseFloat(strings.TrimSpace(ratingText), 64); err == nil {
			movie.Rating = rating
		}
	}
	movie.Year = extractYear(doc.Find("a[href*='releaseinfo']").First().Text())
	if genre := doc.Find("div[data-testid='genres'] span.ipc-chip__text").First().Text(); genre != "" {
		movie.Genre = strings.TrimSpace(genre)
	}
	doc.Find("li[data-testid='title-pc-principal-credit']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(sel.Text()), "director") {
			movie.Director = strings.TrimSpace(sel.Find("a").First().Text())
			return false
		}
		return true
	})
	doc.Find("a[data-testid='title-cast-item__actor']").Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" && len(movie.Cast) < 10 {
			movie.Cast = append(movie.Cast, name)
		}
	})
	if poster, ok := doc.Find("img.ipc-image").First().Attr("src"); ok {
		movie.PosterURL = poster
	}
	return movie, nil
}

// letterboxdSource parses letterboxd search listings. Sparser metadata
// than IMDb, so it starts from a lower confidence base.
type letterboxdSource struct {
	fetcher  repository.IPageFetcher
	baseURL  string
	priority int
}

func NewLetterboxdSource(fetcher repository.IPageFetcher, baseURL string, priority int) Source {
	return &letterboxdSource{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), priority: priority}
}

func (s *letterboxdSource) Name() string    { return "letterboxd" }
func (s *letterboxdSource) Priority() int   { return s.priority }
func (s *letterboxdSource) BaseURL() string { return s.baseURL }

func (s *letterboxdSource) Ping(ctx context.Context) error {
	_, err := s.fetcher.Fetch(ctx, s.baseURL+"/robots.txt", nil)
	return err
}

func (s *letterboxdSource) Search(ctx context.Context, query string) ([]model.ScrapingResult, error) {
	searchURL := fmt.Sprintf("%s/search/films/%s/", s.baseURL, url.PathEscape(query))
	body, err := s.fetcher.Fetch(ctx, searchURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewLayerError("fetcher", s.Name(), model.ErrKindParse, err)
	}

	now := time.Now().UTC()
	var results []model.ScrapingResult
	doc.Find("ul.results li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("span.film-title-wrapper a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		href, _ := link.Attr("href")

		r := model.ScrapingResult{
			Title:      title,
			ExternalID: extractMatch(filmSlugPattern, href),
			Year:       extractYear(sel.Find("small.metadata").First().Text()),
			Source:     s.Name(),
			ScrapedAt:  now,
		}
		if img, ok := sel.Find("img").First().Attr("src"); ok {
			r.PosterURL = img
		}
		r.Confidence = scoreConfidence(0.75, r)
		results = append(results, r)
		return len(results) < 25
	})
	return results, nil
}

func (s *letterboxdSource) Details(ctx context.Context, externalID string) (*model.NormalizedMovie, error) {
	detailURL := fmt.Sprintf("%s/film/%s/", s.baseURL, url.PathEscape(externalID))
	body, err := s.fetcher.Fetch(ctx, detailURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewLayerError("fetcher", s.Name(), model.ErrKindParse, err)
	}

	title := strings.TrimSpace(doc.Find("h1.headline-1").First().Text())
	if title == "" {
		return nil, model.NewLayerError("fetcher", s.Name(), model.ErrKindParse, fmt.Errorf("no title on detail page"))
	}
	movie := &model.NormalizedMovie{
		ID:       externalID,
		Title:    title,
		Year:     extractYear(doc.Find("div.releaseyear").First().Text()),
		Plot:     strings.TrimSpace(doc.Find("div.truncate p").First().Text()),
		Director: strings.TrimSpace(doc.Find("span.directorlist a").First().Text()),
		Source:   s.Name(),
	}
	return movie, nil
}

// scoreConfidence adjusts a source's base confidence by how complete the
// extracted record is.
func scoreConfidence(base float64, r model.ScrapingResult) float64 {
	score := base
	if r.Year == 0 {
		score -= 0.15
	}
	if r.ExternalID == "" {
		score -= 0.1
	}
	if r.PosterURL == "" {
		score -= 0.05
	}
	if score < 0.1 {
		score = 0.1
	}
	return score
}

func extractMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func extractYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		logger.GetLogger().WithField("value", m).Debug("Unparseable year token")
		return 0
	}
	return y
}
