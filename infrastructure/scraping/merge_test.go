package scraping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"movie-hub/domain/model"
	"movie-hub/infrastructure/scraping"
)

func TestMergeResults_RanksByConfidence(t *testing.T) {
	setA := []model.ScrapingResult{
		{Title: "The Matrix", ExternalID: "tt0133093", Source: "imdb", Confidence: 0.9},
	}
	setB := []model.ScrapingResult{
		{Title: "The Matrix Reloaded", ExternalID: "the-matrix-reloaded", Source: "letterboxd", Confidence: 0.95},
	}

	merged := scraping.MergeResults([][]model.ScrapingResult{setA, setB}, nil, 0)

	assert.Len(t, merged, 2)
	assert.Equal(t, "The Matrix Reloaded", merged[0].Title)
	assert.Equal(t, "The Matrix", merged[1].Title)
}

func TestMergeResults_PriorityBreaksConfidenceTies(t *testing.T) {
	setA := []model.ScrapingResult{
		{Title: "Dune", ExternalID: "dune-2021", Source: "letterboxd", Confidence: 0.8},
	}
	setB := []model.ScrapingResult{
		{Title: "Dune Part Two", ExternalID: "tt15239678", Source: "imdb", Confidence: 0.8},
	}
	priorities := map[string]int{"imdb": 1, "letterboxd": 2}

	merged := scraping.MergeResults([][]model.ScrapingResult{setA, setB}, priorities, 0)

	assert.Equal(t, "imdb", merged[0].Source)
	assert.Equal(t, "letterboxd", merged[1].Source)
}

func TestMergeResults_DeduplicatesByTitle(t *testing.T) {
	setA := []model.ScrapingResult{
		{Title: "The  MATRIX", ExternalID: "tt0133093", Source: "imdb", Confidence: 0.9},
	}
	setB := []model.ScrapingResult{
		{Title: "the matrix", ExternalID: "the-matrix", Source: "letterboxd", Confidence: 0.75},
	}

	merged := scraping.MergeResults([][]model.ScrapingResult{setA, setB}, nil, 0)

	// The higher-confidence occurrence wins.
	assert.Len(t, merged, 1)
	assert.Equal(t, "imdb", merged[0].Source)
}

func TestMergeResults_DeduplicatesByExternalID(t *testing.T) {
	setA := []model.ScrapingResult{
		{Title: "The Matrix", ExternalID: "tt0133093", Source: "imdb", Confidence: 0.9},
		{Title: "The Matrix (1999)", ExternalID: "tt0133093", Source: "imdb", Confidence: 0.7},
	}

	merged := scraping.MergeResults([][]model.ScrapingResult{setA}, nil, 0)

	assert.Len(t, merged, 1)
	assert.Equal(t, "The Matrix", merged[0].Title)
}

func TestMergeResults_Truncates(t *testing.T) {
	set := []model.ScrapingResult{
		{Title: "A", Source: "imdb", Confidence: 0.9},
		{Title: "B", Source: "imdb", Confidence: 0.8},
		{Title: "C", Source: "imdb", Confidence: 0.7},
	}

	merged := scraping.MergeResults([][]model.ScrapingResult{set}, nil, 2)

	assert.Len(t, merged, 2)
	assert.Equal(t, "A", merged[0].Title)
}

func TestMergeResults_ToleratesEmptySets(t *testing.T) {
	set := []model.ScrapingResult{
		{Title: "Dune", Source: "imdb", Confidence: 0.9},
	}

	// A failed source contributes a nil set.
	merged := scraping.MergeResults([][]model.ScrapingResult{nil, set, {}}, nil, 0)
	assert.Len(t, merged, 1)

	merged = scraping.MergeResults(nil, nil, 10)
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}

func TestMergeResults_SkipsUntitledEntries(t *testing.T) {
	set := []model.ScrapingResult{
		{Title: "   ", Source: "imdb", Confidence: 0.9},
		{Title: "Dune", Source: "imdb", Confidence: 0.8},
	}

	merged := scraping.MergeResults([][]model.ScrapingResult{set}, nil, 0)

	assert.Len(t, merged, 1)
	assert.Equal(t, "Dune", merged[0].Title)
}
