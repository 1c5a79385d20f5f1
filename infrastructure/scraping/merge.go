package scraping

import (
	"sort"

	"movie-hub/domain/model"
	"movie-hub/infrastructure/utils"
)

// MergeResults flattens the per-source result sets, ranks them by
// (confidence desc, source priority asc), drops duplicates by normalized
// title and by external id keeping the first occurrence, and truncates
// to limit. limit <= 0 means no truncation. A failed source simply
// contributes an empty set upstream.
func MergeResults(resultSets [][]model.ScrapingResult, priorities map[string]int, limit int) []model.ScrapingResult {
	var flat []model.ScrapingResult
	for _, set := range resultSets {
		flat = append(flat, set...)
	}
	if len(flat) == 0 {
		return []model.ScrapingResult{}
	}

	sort.SliceStable(flat, func(i, j int) bool {
		if flat[i].Confidence != flat[j].Confidence {
			return flat[i].Confidence > flat[j].Confidence
		}
		return priorities[flat[i].Source] < priorities[flat[j].Source]
	})

	seenTitles := make(map[string]struct{}, len(flat))
	seenIDs := make(map[string]struct{}, len(flat))
	merged := make([]model.ScrapingResult, 0, len(flat))
	for _, r := range flat {
		title := utils.NormalizeQuery(r.Title)
		if title == "" {
			continue
		}
		if _, dup := seenTitles[title]; dup {
			continue
		}
		if r.ExternalID != "" {
			if _, dup := seenIDs[r.ExternalID]; dup {
				continue
			}
		}
		seenTitles[title] = struct{}{}
		if r.ExternalID != "" {
			seenIDs[r.ExternalID] = struct{}{}
		}
		merged = append(merged, r)
		if limit > 0 && len(merged) == limit {
			break
		}
	}
	return merged
}
