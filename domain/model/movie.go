package model

import "time"

// NormalizedMovie is the canonical movie record exchanged between the
// retrieval layers. Every field has a defined zero default so partial
// sources can still contribute entries.
type NormalizedMovie struct {
	ID        string   `json:"id" bson:"_id"`
	Title     string   `json:"title" bson:"title"`
	Year      int      `json:"year,omitempty" bson:"year,omitempty"`
	PosterURL string   `json:"poster_url,omitempty" bson:"poster_url,omitempty"`
	Rating    float64  `json:"rating,omitempty" bson:"rating,omitempty"`
	Plot      string   `json:"plot,omitempty" bson:"plot,omitempty"`
	Genre     string   `json:"genre,omitempty" bson:"genre,omitempty"`
	Director  string   `json:"director,omitempty" bson:"director,omitempty"`
	Cast      []string `json:"cast,omitempty" bson:"cast,omitempty"`
	Source    string   `json:"source,omitempty" bson:"source,omitempty"`
}

// ScrapingResult is a movie extracted from a single source together with
// how certain the extraction was.
type ScrapingResult struct {
	Title      string    `json:"title"`
	Year       int       `json:"year,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	PosterURL  string    `json:"poster_url,omitempty"`
	Rating     float64   `json:"rating,omitempty"`
	Plot       string    `json:"plot,omitempty"`
	Genre      string    `json:"genre,omitempty"`
	Director   string    `json:"director,omitempty"`
	Cast       []string  `json:"cast,omitempty"`
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// Normalized converts a scraping result into the canonical record.
func (r ScrapingResult) Normalized() NormalizedMovie {
	return NormalizedMovie{
		ID:        r.ExternalID,
		Title:     r.Title,
		Year:      r.Year,
		PosterURL: r.PosterURL,
		Rating:    r.Rating,
		Plot:      r.Plot,
		Genre:     r.Genre,
		Director:  r.Director,
		Cast:      r.Cast,
		Source:    r.Source,
	}
}

// AsScrapingResult wraps a normalized movie so it can take part in the
// confidence-ranked merge alongside scraped entries.
func (m NormalizedMovie) AsScrapingResult(confidence float64) ScrapingResult {
	return ScrapingResult{
		Title:      m.Title,
		Year:       m.Year,
		ExternalID: m.ID,
		PosterURL:  m.PosterURL,
		Rating:     m.Rating,
		Plot:       m.Plot,
		Genre:      m.Genre,
		Director:   m.Director,
		Cast:       m.Cast,
		Source:     m.Source,
		Confidence: confidence,
		ScrapedAt:  time.Now().UTC(),
	}
}
