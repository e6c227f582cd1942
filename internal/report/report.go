package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/classify"
)

// Digest summarizes a mining run: the strongest pages as study cards,
// which sources delivered, and which terms recur across titles.
type Digest struct {
	DateLabel string
	Scanned   int
	Selected  int
	Sources   string
	Trending  []string
	Focus     string
	Cards     []Card
}

// Card is a single study item in the digest.
type Card struct {
	Record      cache.Record
	Category    classify.Category
	Index       int
	ReadingTime int
	Excerpt     string
}

// Opts holds options for Build.
type Opts struct {
	Size  int               // max cards; default 5
	Focus classify.Category // keep only this category when set
}

// Build assembles a digest from freshly mined records. Records arrive
// already scored and ranked; corpus is the wider cache population used
// to weight trending terms, and may be nil.
func Build(records []cache.Record, corpus []cache.Record, opts Opts) *Digest {
	if opts.Size <= 0 {
		opts.Size = 5
	}

	d := &Digest{
		DateLabel: time.Now().Format("Jan 2"),
		Scanned:   len(records),
		Focus:     string(opts.Focus),
	}
	if len(records) == 0 {
		return d
	}

	d.Sources = sourceTally(records)

	type classified struct {
		rec cache.Record
		cat classify.Category
	}
	var picked []classified
	for _, rec := range records {
		cat := classify.Classify(rec.Title, rec.Body)
		if opts.Focus != "" && cat != opts.Focus {
			continue
		}
		picked = append(picked, classified{rec, cat})
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].rec.RelevanceScore > picked[j].rec.RelevanceScore
	})
	if len(picked) > opts.Size {
		picked = picked[:opts.Size]
	}
	d.Selected = len(picked)

	for i, p := range picked {
		d.Cards = append(d.Cards, Card{
			Record:      p.rec,
			Category:    p.cat,
			Index:       i + 1,
			ReadingTime: estimateReadTime(p.rec.Body),
			Excerpt:     Excerpt(p.rec.Body),
		})
	}

	if len(corpus) == 0 {
		corpus = records
	}
	if t := trending(records, corpus); t != "" {
		d.Trending = strings.Split(t, ", ")
	}

	return d
}

// Excerpt returns the first sentence of a body as a one-line preview.
func Excerpt(body string) string {
	if body == "" {
		return ""
	}
	for i, c := range body {
		if c == '.' && i > 20 {
			return body[:i+1]
		}
	}
	runes := []rune(body)
	if len(runes) > 150 {
		return string(runes[:150]) + "..."
	}
	return body
}

func estimateReadTime(body string) int {
	words := len(strings.Fields(body))
	// Bodies are clipped, so scale up for the full page, then 200 WPM.
	minutes := (words * 3) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func sourceTally(records []cache.Record) string {
	counts := map[string]int{}
	for _, rec := range records {
		if rec.SourceLabel == "" {
			continue
		}
		counts[rec.SourceLabel]++
	}

	type sc struct {
		name  string
		count int
	}
	var sorted []sc
	for name, count := range counts {
		sorted = append(sorted, sc{name, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})

	limit := 3
	if len(sorted) < limit {
		limit = len(sorted)
	}

	parts := make([]string, limit)
	for i := 0; i < limit; i++ {
		parts[i] = fmt.Sprintf("%s (%d)", sorted[i].name, sorted[i].count)
	}
	return strings.Join(parts, ", ")
}

// trending extracts top keywords from mined titles using TF-IDF.
func trending(records []cache.Record, corpus []cache.Record) string {
	df := map[string]int{}
	for _, rec := range corpus {
		seen := map[string]bool{}
		for _, w := range tokenize(rec.Title) {
			if !seen[w] {
				df[w]++
				seen[w] = true
			}
		}
	}

	tf := map[string]int{}
	for _, rec := range records {
		for _, w := range tokenize(rec.Title) {
			tf[w]++
		}
	}

	totalDocs := len(corpus)
	if totalDocs == 0 {
		totalDocs = 1
	}

	type scored struct {
		term  string
		score float64
	}
	var terms []scored
	for term, freq := range tf {
		if freq < 2 {
			continue
		}
		docFreq := df[term]
		if docFreq == 0 {
			docFreq = 1
		}
		idf := math.Log(float64(totalDocs) / float64(docFreq))
		terms = append(terms, scored{term, float64(freq) * idf})
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].score != terms[j].score {
			return terms[i].score > terms[j].score
		}
		return terms[i].term < terms[j].term
	})

	limit := 3
	if len(terms) < limit {
		limit = len(terms)
	}

	parts := make([]string, limit)
	for i := 0; i < limit; i++ {
		parts[i] = terms[i].term
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "it": true, "its": true,
	"this": true, "that": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "not": true, "no": true, "nor": true,
	"how": true, "what": true, "when": true, "where": true, "who": true, "which": true,
	"why": true, "all": true, "each": true, "every": true, "both": true, "few": true,
	"more": true, "most": true, "other": true, "some": true, "such": true, "than": true,
	"too": true, "very": true, "just": true, "about": true, "into": true, "over": true,
	"after": true, "before": true, "between": true, "under": true, "above": true,
	"out": true, "up": true, "down": true, "off": true, "our": true, "your": true,
	"we": true, "you": true, "they": true, "them": true, "their": true, "new": true,
	"use": true, "using": true, "used": true, "best": true, "top": true,
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(word) < 4 {
			continue
		}
		if stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
