package report

import (
	"strings"
	"testing"

	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/classify"
)

func sampleRecords() []cache.Record {
	return []cache.Record{
		{
			URL:            "https://www.geeksforgeeks.org/sql-interview",
			Title:          "SQL Interview Questions",
			Body:           "Window function and group by query drills for the data interview.",
			SourceLabel:    "GeeksforGeeks",
			RelevanceScore: 0.74,
		},
		{
			URL:            "https://blog.example.com/jobs",
			Title:          "Career tips for your resume",
			Body:           "Advice on applications and cover letters.",
			SourceLabel:    "Blog",
			RelevanceScore: 0.42,
		},
		{
			URL:            "https://leetcode.com/list",
			Title:          "LeetCode Algorithm Practice Problems",
			Body:           "Grind dynamic programming and binary tree problems.",
			SourceLabel:    "LeetCode",
			RelevanceScore: 0.91,
		},
	}
}

func TestBuildDigest(t *testing.T) {
	d := Build(sampleRecords(), nil, Opts{})

	if d.Scanned != 3 {
		t.Errorf("expected 3 scanned, got %d", d.Scanned)
	}
	if d.Selected != 3 {
		t.Errorf("expected 3 selected, got %d", d.Selected)
	}
	if len(d.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(d.Cards))
	}

	// Cards ranked by relevance, not input order.
	if d.Cards[0].Record.URL != "https://leetcode.com/list" {
		t.Errorf("expected LeetCode record first, got %s", d.Cards[0].Record.URL)
	}
	if d.Cards[2].Record.URL != "https://blog.example.com/jobs" {
		t.Errorf("expected blog record last, got %s", d.Cards[2].Record.URL)
	}
	for i, card := range d.Cards {
		if card.Index != i+1 {
			t.Errorf("card %d: expected index %d, got %d", i, i+1, card.Index)
		}
		if card.ReadingTime < 1 {
			t.Errorf("card %d: expected reading time >= 1, got %d", i, card.ReadingTime)
		}
	}

	if d.Cards[0].Category != classify.CodingPractice {
		t.Errorf("expected Coding Practice, got %s", d.Cards[0].Category)
	}
	if d.Cards[1].Category != classify.SQLData {
		t.Errorf("expected SQL & Data, got %s", d.Cards[1].Category)
	}
}

func TestBuildFocusFilter(t *testing.T) {
	d := Build(sampleRecords(), nil, Opts{Focus: classify.SQLData})

	if d.Scanned != 3 {
		t.Errorf("expected 3 scanned, got %d", d.Scanned)
	}
	if d.Selected != 1 {
		t.Fatalf("expected 1 selected, got %d", d.Selected)
	}
	if d.Cards[0].Record.URL != "https://www.geeksforgeeks.org/sql-interview" {
		t.Errorf("expected the SQL record, got %s", d.Cards[0].Record.URL)
	}
	if d.Focus != "SQL & Data" {
		t.Errorf("expected focus label carried over, got %q", d.Focus)
	}
}

func TestBuildSizeCap(t *testing.T) {
	d := Build(sampleRecords(), nil, Opts{Size: 2})

	if d.Selected != 2 {
		t.Fatalf("expected 2 selected, got %d", d.Selected)
	}
	if d.Cards[1].Record.URL != "https://www.geeksforgeeks.org/sql-interview" {
		t.Errorf("expected second-strongest record to survive the cap, got %s", d.Cards[1].Record.URL)
	}
}

func TestBuildEmpty(t *testing.T) {
	d := Build(nil, nil, Opts{})

	if d.Scanned != 0 || d.Selected != 0 {
		t.Errorf("expected empty digest, got scanned %d selected %d", d.Scanned, d.Selected)
	}
	if len(d.Cards) != 0 {
		t.Errorf("expected no cards, got %d", len(d.Cards))
	}
	if d.Sources != "" {
		t.Errorf("expected empty sources, got %q", d.Sources)
	}
}

func TestSourceTally(t *testing.T) {
	records := []cache.Record{
		{SourceLabel: "GitHub"}, {SourceLabel: "GitHub"}, {SourceLabel: "GitHub"},
		{SourceLabel: "LeetCode"}, {SourceLabel: "LeetCode"},
		{SourceLabel: "Reddit"}, {SourceLabel: "Blog"},
	}

	got := sourceTally(records)
	if !strings.HasPrefix(got, "GitHub (3)") {
		t.Errorf("expected GitHub first, got %q", got)
	}
	if !strings.Contains(got, "LeetCode (2)") {
		t.Errorf("expected LeetCode (2) in tally, got %q", got)
	}
	parts := strings.Split(got, ", ")
	if len(parts) > 3 {
		t.Errorf("expected at most 3 sources, got %d: %q", len(parts), got)
	}
}

func TestTrendingAcrossTitles(t *testing.T) {
	records := []cache.Record{
		{Title: "Python interview guide", RelevanceScore: 0.9},
		{Title: "Python coding questions", RelevanceScore: 0.8},
		{Title: "Pandas interview drills", RelevanceScore: 0.7},
	}

	d := Build(records, nil, Opts{})
	found := false
	for _, term := range d.Trending {
		if term == "python" {
			found = true
		}
		if term == "the" || len(term) < 4 {
			t.Errorf("unexpected trending term %q", term)
		}
	}
	if !found {
		t.Errorf("expected 'python' in trending, got %v", d.Trending)
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("Top SQL questions for the data interview!")
	found := map[string]bool{}
	for _, tok := range tokens {
		found[tok] = true
	}
	if !found["questions"] {
		t.Error("expected 'questions' in tokens")
	}
	if !found["interview"] {
		t.Error("expected 'interview' in tokens")
	}
	if found["sql"] {
		t.Error("'sql' should be filtered (< 4 chars)")
	}
	if found["the"] {
		t.Error("'the' should be filtered (stop word)")
	}
}

func TestExcerpt(t *testing.T) {
	got := Excerpt("This is a complete sentence about interview prep. And more text follows.")
	if !strings.HasSuffix(got, ".") {
		t.Errorf("expected excerpt to end with period, got %q", got)
	}
	if strings.Contains(got, "more text") {
		t.Errorf("expected excerpt cut at first sentence, got %q", got)
	}

	got = Excerpt("")
	if got != "" {
		t.Errorf("expected empty for empty input, got %q", got)
	}

	got = Excerpt(strings.Repeat("word ", 100))
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected long sentence-free body to be truncated, got %q", got)
	}
	if len([]rune(got)) != 153 {
		t.Errorf("expected 150 runes plus ellipsis, got %d", len([]rune(got)))
	}
}

func TestEstimateReadTime(t *testing.T) {
	// 100 words * 3 / 200 = 1.5 → 1
	short := estimateReadTime(nWords(100))
	if short != 1 {
		t.Errorf("expected 1 min for 100 words, got %d", short)
	}

	// 500 words * 3 / 200 = 7.5 → 7
	long := estimateReadTime(nWords(500))
	if long < 5 {
		t.Errorf("expected >= 5 min for 500 words, got %d", long)
	}

	empty := estimateReadTime("")
	if empty != 1 {
		t.Errorf("expected min 1 for empty, got %d", empty)
	}
}

func TestRenderDigest(t *testing.T) {
	d := Build(sampleRecords(), nil, Opts{})
	out := Render(d)

	if !strings.Contains(out, "LeetCode Algorithm Practice Problems") {
		t.Errorf("expected top card title in output:\n%s", out)
	}
	if !strings.Contains(out, "scanned 3, kept 3") {
		t.Errorf("expected summary line in output:\n%s", out)
	}
	if !strings.Contains(out, "https://leetcode.com/list") {
		t.Errorf("expected card URL in output:\n%s", out)
	}
	if !strings.Contains(out, "GeeksforGeeks (1)") {
		t.Errorf("expected source tally in output:\n%s", out)
	}
}

func TestRenderEmptyDigest(t *testing.T) {
	out := Render(Build(nil, nil, Opts{}))
	if !strings.Contains(out, "Nothing cleared the relevance bar") {
		t.Errorf("expected empty-state message, got:\n%s", out)
	}
}

func nWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "word"
	}
	return strings.Join(words, " ")
}
