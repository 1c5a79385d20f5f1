package usecase

import (
	"sort"
	"strings"
	"sync"
	"time"

	"movie-hub/domain/model"
	"movie-hub/infrastructure/utils"
)

const (
	ringSize            = 1000
	sequenceScanWindow  = 50
	sequencePairWindow  = 5 * time.Minute
	sequenceMinCount    = 3
	similarityThreshold = 0.3
	frequencyThreshold  = 3
)

// keywordCategories maps query keywords to coarse content categories.
// Category counters are advisory input for the seasonal predictor.
var keywordCategories = map[string]string{
	"christmas": "holiday",
	"santa":     "holiday",
	"holiday":   "holiday",
	"halloween": "horror",
	"horror":    "horror",
	"scary":     "horror",
	"zombie":    "horror",
	"action":    "action",
	"heist":     "action",
	"comedy":    "comedy",
	"funny":     "comedy",
	"romance":   "romance",
	"romantic":  "romance",
	"love":      "romance",
	"thriller":  "thriller",
	"war":       "war",
	"space":     "scifi",
	"alien":     "scifi",
	"scifi":     "scifi",
	"western":   "western",
	"animated":  "family",
	"kids":      "family",
}

type patternEvent struct {
	query string
	at    time.Time
}

// PatternAnalyzer keeps the bounded query history and frequency tables
// that drive pre-fetch predictions. All data is process-lifetime only.
type PatternAnalyzer struct {
	mu         sync.RWMutex
	ring       []patternEvent
	patterns   map[string]*model.SearchPattern
	categories map[string]int
}

func NewPatternAnalyzer() *PatternAnalyzer {
	return &PatternAnalyzer{
		ring:       make([]patternEvent, 0, ringSize),
		patterns:   make(map[string]*model.SearchPattern),
		categories: make(map[string]int),
	}
}

// Observe records one normalized query into the ring buffer, frequency
// table and category counters.
func (a *PatternAnalyzer) Observe(query string) {
	q := utils.NormalizeQuery(query)
	if q == "" {
		return
	}
	now := time.Now().UTC()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.ring = append(a.ring, patternEvent{query: q, at: now})
	if len(a.ring) > ringSize {
		a.ring = a.ring[len(a.ring)-ringSize:]
	}

	p, ok := a.patterns[q]
	if !ok {
		p = &model.SearchPattern{NormalizedQuery: q}
		a.patterns[q] = p
	}
	p.Frequency++
	p.LastSeenAt = now

	for _, word := range strings.Fields(q) {
		if category, ok := keywordCategories[word]; ok {
			a.categories[category]++
		}
	}
}

// PrefixCandidates returns frequently seen queries that the given query
// is a proper prefix of, i.e. what the user is probably still typing.
func (a *PatternAnalyzer) PrefixCandidates(query string) []string {
	q := utils.NormalizeQuery(query)
	if q == "" {
		return nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	var candidates []string
	for full, p := range a.patterns {
		if full == q || p.Frequency < frequencyThreshold {
			continue
		}
		if strings.HasPrefix(full, q) {
			candidates = append(candidates, full)
		}
	}
	sort.Strings(candidates)
	return candidates
}

// SimilarCandidates returns up to topN frequent past queries whose word
// sets overlap the given query above the Jaccard threshold.
func (a *PatternAnalyzer) SimilarCandidates(query string, topN int) []string {
	q := utils.NormalizeQuery(query)
	if q == "" || topN <= 0 {
		return nil
	}
	qWords := wordSet(q)

	type scored struct {
		query string
		score float64
	}

	a.mu.RLock()
	var matches []scored
	for past, p := range a.patterns {
		if past == q || p.Frequency <= frequencyThreshold {
			continue
		}
		score := jaccard(qWords, wordSet(past))
		if score > similarityThreshold {
			matches = append(matches, scored{query: past, score: score})
		}
	}
	a.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].query < matches[j].query
	})
	if len(matches) > topN {
		matches = matches[:topN]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.query)
	}
	return out
}

// MineSequences scans the most recent ring entries for consecutive query
// pairs issued within the pair window. Pairs seen at least
// sequenceMinCount times predict their successor.
func (a *PatternAnalyzer) MineSequences() []string {
	a.mu.RLock()
	recent := a.ring
	if len(recent) > sequenceScanWindow {
		recent = recent[len(recent)-sequenceScanWindow:]
	}
	events := make([]patternEvent, len(recent))
	copy(events, recent)
	a.mu.RUnlock()

	type pair struct{ first, second string }
	counts := make(map[pair]int)
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if prev.query == cur.query {
			continue
		}
		if cur.at.Sub(prev.at) > sequencePairWindow {
			continue
		}
		counts[pair{first: prev.query, second: cur.query}]++
	}

	seen := make(map[string]struct{})
	var predictions []string
	for p, n := range counts {
		if n < sequenceMinCount {
			continue
		}
		if _, dup := seen[p.second]; dup {
			continue
		}
		seen[p.second] = struct{}{}
		predictions = append(predictions, p.second)
	}
	sort.Strings(predictions)
	return predictions
}

// TopQueries returns the k most frequent queries seen so far.
func (a *PatternAnalyzer) TopQueries(k int) []string {
	if k <= 0 {
		return nil
	}

	a.mu.RLock()
	all := make([]*model.SearchPattern, 0, len(a.patterns))
	for _, p := range a.patterns {
		all = append(all, p)
	}
	a.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Frequency != all[j].Frequency {
			return all[i].Frequency > all[j].Frequency
		}
		return all[i].NormalizedQuery < all[j].NormalizedQuery
	})
	if len(all) > k {
		all = all[:k]
	}
	out := make([]string, 0, len(all))
	for _, p := range all {
		out = append(out, p.NormalizedQuery)
	}
	return out
}

// CategoryCounts snapshots the keyword-derived category counters.
func (a *PatternAnalyzer) CategoryCounts() map[string]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]int, len(a.categories))
	for k, v := range a.categories {
		out[k] = v
	}
	return out
}

func wordSet(q string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(q) {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
