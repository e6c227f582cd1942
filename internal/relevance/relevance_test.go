package relevance

import (
	"math"
	"strings"
	"testing"
)

func sampleSubject() Subject {
	return Subject{
		RoleKeywords:  []string{"data scientist"},
		SkillKeywords: []string{"python", "machine learning", "sql", "statistics"},
		CompanyName:   "Google",
	}
}

func TestScoreDeterministic(t *testing.T) {
	in := Input{
		Title:       "Data Scientist Interview Questions",
		Body:        "Practice python and sql problems with solutions.",
		SourceLabel: "GitHub",
		URL:         "https://github.com/example/questions",
	}
	subj := sampleSubject()

	first := Score(in, subj, DefaultParams())
	for i := 0; i < 3; i++ {
		if got := Score(in, subj, DefaultParams()); got != first {
			t.Fatalf("score changed between calls: %v vs %v", got, first)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	if got := Score(Input{}, Subject{}, Params{}); got < 0 || got > 1 {
		t.Errorf("score out of range for zero input: %v", got)
	}

	perfect := Input{
		Title:       "Data Scientist Interview Questions and Answers",
		Body:        "Complete guide for data scientist interviews covering python, machine learning, sql, and statistics practice problems.",
		SourceLabel: "GitHub",
		URL:         "https://github.com/example/prep",
	}
	got := Score(perfect, sampleSubject(), DefaultParams())
	if got > 1 {
		t.Errorf("score exceeds 1.0: %v", got)
	}
	if got <= 0.5 {
		t.Errorf("strong match should score high, got %v", got)
	}
}

func TestFuzzyRoleMatching(t *testing.T) {
	subj := sampleSubject()
	// Bodies differ only in the role phrase so the ordering isolates
	// the fuzzy overlap component.
	exact := Input{Body: "Guide to data scientist interview preparation."}
	partial := Input{Body: "Guide to data science interview preparation."}
	none := Input{Body: "Guide to watercolor painting interview preparation."}

	scoreExact := Score(exact, subj, DefaultParams())
	scorePartial := Score(partial, subj, DefaultParams())
	scoreNone := Score(none, subj, DefaultParams())

	if scoreExact <= scorePartial {
		t.Errorf("exact match %v should beat partial match %v", scoreExact, scorePartial)
	}
	if scorePartial <= scoreNone {
		t.Errorf("partial match %v should beat no match %v", scorePartial, scoreNone)
	}
	if scoreNone >= 0.3 {
		t.Errorf("unrelated content scored %v", scoreNone)
	}
}

func TestSkillOverlapAccumulates(t *testing.T) {
	subj := sampleSubject()
	one := Input{Body: "Learn python for interviews."}
	two := Input{Body: "Learn python and sql for interviews."}

	if s1, s2 := Score(one, subj, DefaultParams()), Score(two, subj, DefaultParams()); s2 <= s1 {
		t.Errorf("two matched skills %v should beat one %v", s2, s1)
	}
}

func TestInterviewTermsSaturate(t *testing.T) {
	five := Input{Body: "interview question technical coding problem"}
	eight := Input{Body: "interview question technical coding problem solution assessment test"}

	b5 := ScoreWithBreakdown(five, Subject{}, DefaultParams())
	b8 := ScoreWithBreakdown(eight, Subject{}, DefaultParams())
	if b5.InterviewTerms != 1.0 {
		t.Errorf("five distinct terms should saturate, got %v", b5.InterviewTerms)
	}
	if b8.InterviewTerms != 1.0 {
		t.Errorf("terms component should stay capped, got %v", b8.InterviewTerms)
	}

	two := ScoreWithBreakdown(Input{Body: "interview question"}, Subject{}, DefaultParams())
	if two.InterviewTerms >= b5.InterviewTerms {
		t.Errorf("two terms %v should score below five %v", two.InterviewTerms, b5.InterviewTerms)
	}
}

func TestCredibleSourceBonus(t *testing.T) {
	subj := sampleSubject()
	body := "Data scientist interview questions with python examples."

	credible := Input{Body: body, SourceLabel: "GitHub", URL: "https://github.com/example"}
	unknown := Input{Body: body, SourceLabel: "Personal Blog", URL: "https://unknown-site.example/post"}

	if sc, su := Score(credible, subj, DefaultParams()), Score(unknown, subj, DefaultParams()); sc <= su {
		t.Errorf("credible source %v should beat unknown %v", sc, su)
	}

	b := ScoreWithBreakdown(unknown, subj, DefaultParams())
	if b.Credibility != 0 {
		t.Errorf("unknown source credibility = %v", b.Credibility)
	}
}

func TestCredibilityFromURLHost(t *testing.T) {
	in := Input{
		Body:        "Two sum and other warmup problems.",
		SourceLabel: "Blog",
		URL:         "https://leetcode.com/problems/two-sum",
	}
	b := ScoreWithBreakdown(in, Subject{}, DefaultParams())
	if b.Credibility != 1.0 {
		t.Errorf("URL host should establish credibility, got %v", b.Credibility)
	}
}

func TestLongPagePenalty(t *testing.T) {
	subj := sampleSubject()

	short := Input{
		Title: "General Programming Guide",
		Body:  "General programming information for beginners with python examples.",
	}
	long := Input{
		Title: "General Programming Guide",
		Body:  strings.Repeat("general programming information with python examples. ", 1000),
	}

	scoreShort := Score(short, subj, DefaultParams())
	scoreLong := Score(long, subj, DefaultParams())
	if scoreLong >= scoreShort {
		t.Errorf("long low-relevance page %v should score below short one %v", scoreLong, scoreShort)
	}

	longRelevant := Input{
		Title: "Data Scientist Interview Questions",
		Body:  strings.Repeat("Data scientist interview questions and answers covering python machine learning sql statistics practice problems. ", 500),
	}
	if got := Score(longRelevant, subj, DefaultParams()); got <= 0.3 {
		t.Errorf("highly relevant long page should keep most of its score, got %v", got)
	}
}

func TestLengthPenaltyRamp(t *testing.T) {
	if got := lengthPenalty(500, 800, 6000); got != 0 {
		t.Errorf("below threshold should be 0, got %v", got)
	}
	if got := lengthPenalty(800, 800, 6000); got != 0 {
		t.Errorf("at threshold should be 0, got %v", got)
	}
	if got := lengthPenalty(7000, 800, 6000); got != 1.0 {
		t.Errorf("beyond ceiling should be 1.0, got %v", got)
	}
	mid := lengthPenalty(3400, 800, 6000)
	if math.Abs(mid-0.5) > 0.01 {
		t.Errorf("midpoint should be ~0.5, got %v", mid)
	}
}

func TestSimilarityRatio(t *testing.T) {
	if got := similarity("python", "python"); got != 1.0 {
		t.Errorf("identical strings = %v", got)
	}
	if got := similarity("python", "pythn"); math.Abs(got-5.0/6.0) > 0.01 {
		t.Errorf("one-deletion similarity = %v", got)
	}
	if got := similarity("python", "haskell"); got > 0.5 {
		t.Errorf("unrelated strings = %v", got)
	}
}

func TestZeroParamsUseDefaults(t *testing.T) {
	in := Input{Title: "Mock Interview Guide", Body: "Practice problems with python.", SourceLabel: "LeetCode"}
	subj := sampleSubject()

	if z, d := Score(in, subj, Params{}), Score(in, subj, DefaultParams()); z != d {
		t.Errorf("zero params %v should behave like defaults %v", z, d)
	}
}
