// Package relevance scores mined content against the subject a candidate
// is preparing for. Scoring is a pure function: no I/O, no shared state,
// same inputs always produce the same score.
package relevance

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Subject is what the caller is preparing for: the role, the skills the
// role asks for, and optionally the company. Read-only for this package.
type Subject struct {
	RoleKeywords  []string
	SkillKeywords []string
	CompanyName   string
}

// Input holds the content fields considered by the scorer.
type Input struct {
	Title       string
	Body        string
	SourceLabel string
	URL         string
}

// Breakdown shows how each component contributed to the final score.
// Component values are in [0,1] before weighting.
type Breakdown struct {
	SubjectOverlap float64
	InterviewTerms float64
	Credibility    float64
	LengthPenalty  float64
	Final          float64
}

// Params are the tunable weights and thresholds. Zero fields fall back to
// the defaults; an explicitly empty (non-nil) term list disables that
// signal.
type Params struct {
	OverlapWeight  float64
	TermsWeight    float64
	CredibleWeight float64
	LengthWeight   float64

	// TermIncrement is the per-distinct-term contribution to the
	// interview-terms component, which saturates at 1.0.
	TermIncrement float64

	// FuzzyTolerance is the minimum similarity ratio (0–1) at which a
	// near-miss keyword still counts as matched.
	FuzzyTolerance float64

	// LengthThreshold and LengthCeiling bound the length penalty ramp,
	// in words: no penalty at or below the threshold, full penalty at
	// or above the ceiling.
	LengthThreshold int
	LengthCeiling   int

	InterviewTerms  []string
	CredibleSources []string
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		OverlapWeight:   0.5,
		TermsWeight:     0.3,
		CredibleWeight:  0.2,
		LengthWeight:    0.3,
		TermIncrement:   0.2,
		FuzzyTolerance:  0.7,
		LengthThreshold: 800,
		LengthCeiling:   6000,
		InterviewTerms:  defaultInterviewTerms(),
		CredibleSources: defaultCredibleSources(),
	}
}

func defaultInterviewTerms() []string {
	return []string{
		"interview", "question", "technical", "coding", "problem",
		"solution", "assessment", "test", "challenge", "exercise",
		"practice", "mock", "preparation", "guide", "tutorial",
	}
}

func defaultCredibleSources() []string {
	return []string{
		"github", "leetcode", "hackerrank", "geeksforgeeks", "medium",
		"stackoverflow", "reddit", "kaggle", "datacamp", "coursera",
		"edx", "udemy", "freecodecamp", "w3schools", "tutorialspoint",
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.OverlapWeight <= 0 {
		p.OverlapWeight = d.OverlapWeight
	}
	if p.TermsWeight <= 0 {
		p.TermsWeight = d.TermsWeight
	}
	if p.CredibleWeight <= 0 {
		p.CredibleWeight = d.CredibleWeight
	}
	if p.LengthWeight <= 0 {
		p.LengthWeight = d.LengthWeight
	}
	if p.TermIncrement <= 0 {
		p.TermIncrement = d.TermIncrement
	}
	if p.FuzzyTolerance <= 0 {
		p.FuzzyTolerance = d.FuzzyTolerance
	}
	if p.LengthThreshold <= 0 {
		p.LengthThreshold = d.LengthThreshold
	}
	if p.LengthCeiling <= p.LengthThreshold {
		p.LengthCeiling = d.LengthCeiling
	}
	if p.InterviewTerms == nil {
		p.InterviewTerms = d.InterviewTerms
	}
	if p.CredibleSources == nil {
		p.CredibleSources = d.CredibleSources
	}
	return p
}

// Score computes a relevance score in [0,1] for one piece of content.
func Score(in Input, subj Subject, p Params) float64 {
	return ScoreWithBreakdown(in, subj, p).Final
}

// ScoreWithBreakdown computes a relevance score with component details.
// Components are combined additively and the length penalty is discounted
// by the accumulated relevance, so strongly relevant long pages keep most
// of their score while boilerplate-heavy ones lose theirs.
func ScoreWithBreakdown(in Input, subj Subject, p Params) Breakdown {
	p = p.withDefaults()
	doc := tokenize(in.Title, in.Body)

	b := Breakdown{
		SubjectOverlap: overlapScore(doc, subj, p.FuzzyTolerance),
		InterviewTerms: termScore(doc.joined, p.InterviewTerms, p.TermIncrement),
		Credibility:    credibilityScore(in.SourceLabel, in.URL, p.CredibleSources),
		LengthPenalty:  lengthPenalty(len(doc.words), p.LengthThreshold, p.LengthCeiling),
	}

	base := b.SubjectOverlap*p.OverlapWeight +
		b.InterviewTerms*p.TermsWeight +
		b.Credibility*p.CredibleWeight
	base = clamp01(base)

	b.Final = clamp01(base - b.LengthPenalty*p.LengthWeight*(1-base))
	return b
}

// docText is the lowercased, punctuation-stripped view of one document.
type docText struct {
	words  []string
	joined string
}

func tokenize(title, body string) docText {
	text := strings.ToLower(title + " " + body)
	var words []string
	for _, w := range strings.Fields(text) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return docText{words: words, joined: strings.Join(words, " ")}
}

// overlapScore averages the match strength of every subject keyword
// against the document. Role and skill keywords count alike.
func overlapScore(doc docText, subj Subject, tolerance float64) float64 {
	keywords := make([]string, 0, len(subj.RoleKeywords)+len(subj.SkillKeywords))
	keywords = append(keywords, subj.RoleKeywords...)
	keywords = append(keywords, subj.SkillKeywords...)
	if len(keywords) == 0 {
		return 0.0
	}

	total := 0.0
	for _, kw := range keywords {
		total += matchStrength(kw, doc, tolerance)
	}
	return total / float64(len(keywords))
}

// matchStrength returns 1.0 for a literal substring hit, the similarity
// ratio for a fuzzy hit at or above the tolerance, and 0 otherwise.
// Multi-word keywords are compared against word n-grams of the same width.
func matchStrength(keyword string, doc docText, tolerance float64) float64 {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return 0.0
	}
	if strings.Contains(doc.joined, kw) {
		return 1.0
	}

	width := len(strings.Fields(kw))
	if width > len(doc.words) {
		return 0.0
	}
	best := 0.0
	for i := 0; i+width <= len(doc.words); i++ {
		gram := strings.Join(doc.words[i:i+width], " ")
		if sim := similarity(kw, gram); sim > best {
			best = sim
		}
	}
	if best >= tolerance {
		return best
	}
	return 0.0
}

// similarity is an edit-distance ratio: 1.0 for identical strings, 0.0
// for completely different ones.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(longest)
}

// termScore counts distinct interview-domain terms, each adding a fixed
// increment, saturating at 1.0.
func termScore(joined string, terms []string, increment float64) float64 {
	hits := 0
	for _, term := range terms {
		if strings.Contains(joined, strings.ToLower(term)) {
			hits++
		}
	}
	score := float64(hits) * increment
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// credibilityScore returns 1.0 when the source label or URL host matches
// a known-credible source, else 0.
func credibilityScore(sourceLabel, rawURL string, sources []string) float64 {
	haystacks := []string{strings.ToLower(sourceLabel)}
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		haystacks = append(haystacks, strings.ToLower(u.Hostname()))
	}
	for _, src := range sources {
		for _, h := range haystacks {
			if h != "" && strings.Contains(h, strings.ToLower(src)) {
				return 1.0
			}
		}
	}
	return 0.0
}

// lengthPenalty ramps linearly from 0 at the threshold to 1.0 at the
// ceiling.
func lengthPenalty(words, threshold, ceiling int) float64 {
	if words <= threshold {
		return 0.0
	}
	if words >= ceiling {
		return 1.0
	}
	return float64(words-threshold) / float64(ceiling-threshold)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
