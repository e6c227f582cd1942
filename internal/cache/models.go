package cache

import "time"

// Record is one piece of mined content. RelevanceScore starts at zero and is
// set once by the scorer; everything else is fixed at fetch time.
type Record struct {
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	SourceLabel    string    `json:"source_label"`
	RelevanceScore float64   `json:"relevance_score"`
	FetchedAt      time.Time `json:"fetched_at"`
}

type Stats struct {
	Total    int
	Valid    int
	Expired  int
	HitRatio float64
}

type QueryOpts struct {
	Search   string
	MinScore float64
	Limit    int
}
