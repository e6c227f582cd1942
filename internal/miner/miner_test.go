package miner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/fetch"
	"github.com/matheuskafuri/prepmine/internal/limiter"
	"github.com/matheuskafuri/prepmine/internal/relevance"
)

type fakeStrategy struct {
	name  string
	calls atomic.Int64
	fn    func(ctx context.Context, url, label string) (cache.Record, error)
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Fetch(ctx context.Context, url, label string) (cache.Record, error) {
	f.calls.Add(1)
	return f.fn(ctx, url, label)
}

func failingStrategy(name string) *fakeStrategy {
	return &fakeStrategy{name: name, fn: func(_ context.Context, url, _ string) (cache.Record, error) {
		return cache.Record{}, &fetch.TransientError{URL: url, Err: errors.New("unreachable")}
	}}
}

// contentStrategy serves canned records by URL and fails for unknown URLs.
func contentStrategy(name string, pages map[string]cache.Record) *fakeStrategy {
	return &fakeStrategy{name: name, fn: func(_ context.Context, url, label string) (cache.Record, error) {
		rec, ok := pages[url]
		if !ok {
			return cache.Record{}, &fetch.TransientError{URL: url, Err: errors.New("no such page")}
		}
		rec.URL = url
		rec.SourceLabel = label
		return rec, nil
	}}
}

func testCache(t *testing.T) (*cache.Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mine.db")
	db, err := cache.Open(path, cache.DefaultTTL)
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestMineEndToEnd(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Python Interview Questions</title></head>` +
			`<body>Practice python coding problems with solutions and a preparation guide.</body></html>`))
	}))
	defer good.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close() // refuses connections from here on

	db, _ := testCache(t)
	lim := limiter.New(limiter.Config{RequestsPerSecond: 10000})
	static := fetch.NewStatic(lim, http.DefaultTransport, fetch.StaticConfig{}, nil)
	dynamic := failingStrategy("dynamic")

	m := New(db, []fetch.Strategy{static, dynamic}, Options{}, nil)
	records, err := m.Mine(context.Background(), []Candidate{
		{URL: good.URL, SourceLabel: "GitHub"},
		{URL: deadURL, SourceLabel: "Blog"},
	}, relevance.Subject{RoleKeywords: []string{"python"}})
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(records), records)
	}
	rec := records[0]
	if rec.URL != good.URL {
		t.Errorf("URL = %q, want %q", rec.URL, good.URL)
	}
	if rec.Title != "Python Interview Questions" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.RelevanceScore <= DefaultMinScore {
		t.Errorf("score = %v, want above threshold", rec.RelevanceScore)
	}
	if n := dynamic.calls.Load(); n != 1 {
		t.Errorf("dynamic tried %d times, want 1 (the dead URL only)", n)
	}
}

func TestMineSecondRunHitsCache(t *testing.T) {
	pages := map[string]cache.Record{
		"https://one.example/a": {Title: "Python Guide", Body: "python interview practice problems"},
		"https://two.example/b": {Title: "SQL Drills", Body: "python and sql coding questions"},
	}
	candidates := []Candidate{
		{URL: "https://one.example/a", SourceLabel: "GitHub"},
		{URL: "https://two.example/b", SourceLabel: "LeetCode"},
	}
	subj := relevance.Subject{RoleKeywords: []string{"python"}}

	db1, path := testCache(t)
	m1 := New(db1, []fetch.Strategy{contentStrategy("static", pages)}, Options{MinScore: -1}, nil)
	first, err := m1.Mine(context.Background(), candidates, subj)
	if err != nil {
		t.Fatalf("first Mine: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first run got %d records, want 2", len(first))
	}
	db1.Close()

	// Fresh handle, as a new process would open it; the network is gone.
	db2, err := cache.Open(path, cache.DefaultTTL)
	if err != nil {
		t.Fatalf("reopening cache: %v", err)
	}
	defer db2.Close()

	offline := failingStrategy("static")
	m2 := New(db2, []fetch.Strategy{offline}, Options{MinScore: -1}, nil)
	second, err := m2.Mine(context.Background(), candidates, subj)
	if err != nil {
		t.Fatalf("second Mine: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("second run got %d records, want 2", len(second))
	}
	if n := offline.calls.Load(); n != 0 {
		t.Errorf("network touched %d times on a fully cached run", n)
	}

	bodies := map[string]string{}
	for _, rec := range first {
		bodies[rec.URL] = rec.Body
	}
	for _, rec := range second {
		if bodies[rec.URL] != rec.Body {
			t.Errorf("body for %s changed between runs", rec.URL)
		}
	}

	stats, err := db2.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.HitRatio < 0.9 {
		t.Errorf("hit ratio = %v, want >= 0.9", stats.HitRatio)
	}
}

func TestMineEscalatesOnlyOnStaticFailure(t *testing.T) {
	goodURL := "https://good.example/a"
	badURL := "https://bad.example/b"
	static := contentStrategy("static", map[string]cache.Record{
		goodURL: {Title: "Guide", Body: "python interview practice"},
	})
	dynamic := failingStrategy("dynamic")

	db, _ := testCache(t)
	m := New(db, []fetch.Strategy{static, dynamic}, Options{MinScore: -1}, nil)
	records, err := m.Mine(context.Background(), []Candidate{
		{URL: goodURL, SourceLabel: "GitHub"},
		{URL: badURL, SourceLabel: "Blog"},
	}, relevance.Subject{})
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if n := static.calls.Load(); n != 2 {
		t.Errorf("static tried %d times, want 2", n)
	}
	if n := dynamic.calls.Load(); n != 1 {
		t.Errorf("dynamic tried %d times, want 1", n)
	}
}

type faultyStore struct{}

func (faultyStore) Lookup(string) (cache.Record, bool, error) {
	return cache.Record{}, false, errors.New("disk went away")
}
func (faultyStore) Store(string, cache.Record) error  { return errors.New("disk went away") }
func (faultyStore) UpdateScore(string, float64) error { return errors.New("disk went away") }

func TestMineCacheFailureDegrades(t *testing.T) {
	strat := contentStrategy("static", map[string]cache.Record{
		"https://one.example/a": {Title: "Guide", Body: "python interview practice"},
	})

	m := New(faultyStore{}, []fetch.Strategy{strat}, Options{MinScore: -1}, nil)
	records, err := m.Mine(context.Background(), []Candidate{
		{URL: "https://one.example/a", SourceLabel: "GitHub"},
	}, relevance.Subject{})
	if err != nil {
		t.Fatalf("cache trouble should not fail the run: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestMineSetupErrorAborts(t *testing.T) {
	static := failingStrategy("static")
	dynamic := &fakeStrategy{name: "dynamic", fn: func(_ context.Context, _, _ string) (cache.Record, error) {
		return cache.Record{}, &fetch.SetupError{Err: errors.New("browser missing")}
	}}

	db, _ := testCache(t)
	m := New(db, []fetch.Strategy{static, dynamic}, Options{}, nil)
	records, err := m.Mine(context.Background(), []Candidate{
		{URL: "https://one.example/a", SourceLabel: "GitHub"},
	}, relevance.Subject{})

	var serr *fetch.SetupError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SetupError", err)
	}
	if records != nil {
		t.Errorf("records = %+v, want nil on a fatal run", records)
	}
}

func TestMineDeduplicatesCandidates(t *testing.T) {
	url := "https://one.example/a"
	strat := contentStrategy("static", map[string]cache.Record{
		url: {Title: "Guide", Body: "python interview practice"},
	})

	db, _ := testCache(t)
	m := New(db, []fetch.Strategy{strat}, Options{MinScore: -1}, nil)
	records, err := m.Mine(context.Background(), []Candidate{
		{URL: url, SourceLabel: "GitHub"},
		{URL: url, SourceLabel: "GitHub"},
		{URL: url, SourceLabel: "Mirror"},
	}, relevance.Subject{})
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
	if n := strat.calls.Load(); n != 1 {
		t.Errorf("strategy called %d times, want 1", n)
	}
}

func TestMineRanksAndCaps(t *testing.T) {
	pages := map[string]cache.Record{
		"https://a.example": {Title: "", Body: "python interview questions practice guide"},
		"https://b.example": {Title: "", Body: "python tutorial"},
		"https://c.example": {Title: "", Body: "gardening tips"},
		"https://d.example": {Title: "", Body: "python coding interview"},
	}
	strat := contentStrategy("static", pages)

	db, _ := testCache(t)
	m := New(db, []fetch.Strategy{strat}, Options{MaxResults: 2}, nil)
	records, err := m.Mine(context.Background(), []Candidate{
		{URL: "https://a.example", SourceLabel: "GitHub"},
		{URL: "https://b.example", SourceLabel: "Blog"},
		{URL: "https://c.example", SourceLabel: "Blog"},
		{URL: "https://d.example", SourceLabel: "LeetCode"},
	}, relevance.Subject{RoleKeywords: []string{"python"}})
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want the capped 2: %+v", len(records), records)
	}
	if records[0].URL != "https://a.example" {
		t.Errorf("top record = %q, want the strongest match", records[0].URL)
	}
	if records[1].URL != "https://d.example" {
		t.Errorf("second record = %q", records[1].URL)
	}
	if records[0].RelevanceScore < records[1].RelevanceScore {
		t.Errorf("records out of order: %v then %v", records[0].RelevanceScore, records[1].RelevanceScore)
	}
}

func TestMineEmptyCandidates(t *testing.T) {
	db, _ := testCache(t)
	m := New(db, []fetch.Strategy{failingStrategy("static")}, Options{}, nil)
	records, err := m.Mine(context.Background(), nil, relevance.Subject{})
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestMinePersistsScores(t *testing.T) {
	url := "https://one.example/a"
	strat := contentStrategy("static", map[string]cache.Record{
		url: {Title: "Python Interview Guide", Body: "python interview questions and practice problems"},
	})

	db, _ := testCache(t)
	m := New(db, []fetch.Strategy{strat}, Options{MinScore: -1}, nil)
	records, err := m.Mine(context.Background(), []Candidate{{URL: url, SourceLabel: "GitHub"}},
		relevance.Subject{RoleKeywords: []string{"python"}})
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	stored, ok, err := db.Lookup(url)
	if err != nil || !ok {
		t.Fatalf("lookup after mine: ok=%v err=%v", ok, err)
	}
	if stored.RelevanceScore != records[0].RelevanceScore {
		t.Errorf("stored score %v != returned score %v", stored.RelevanceScore, records[0].RelevanceScore)
	}
}
