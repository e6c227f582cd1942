package classify

import (
	"fmt"
	"strings"
	"unicode"
)

// Category represents a mined-content classification.
type Category string

const (
	CodingPractice  Category = "Coding Practice"
	SystemDesign    Category = "System Design"
	MachineLearning Category = "Machine Learning"
	SQLData         Category = "SQL & Data"
	Behavioral      Category = "Behavioral"
	CompanyPrep     Category = "Company"
	General         Category = "General"
)

// AllCategories returns all valid categories in canonical order.
func AllCategories() []Category {
	return []Category{CodingPractice, SystemDesign, MachineLearning, SQLData, Behavioral, CompanyPrep, General}
}

var categoryKeywords = map[Category][]string{
	CodingPractice: {
		"leetcode", "algorithm", "data structure", "dynamic programming",
		"recursion", "binary tree", "linked list", "two pointers", "array",
		"coding challenge", "coding problem", "whiteboard", "big o",
		"time complexity", "hackerrank", "codewars",
	},
	SystemDesign: {
		"system design", "scalability", "architecture", "load balancer",
		"caching", "message queue", "distributed", "microservice",
		"high availability", "sharding", "api design", "rate limiting",
		"consistency", "throughput",
	},
	MachineLearning: {
		"machine learning", "deep learning", "neural", "model", "regression",
		"classification", "overfitting", "feature engineering", "training",
		"pytorch", "tensorflow", "statistics", "probability", "a/b test",
		"hypothesis", "gradient",
	},
	SQLData: {
		"sql", "query", "join", "window function", "database", "schema",
		"etl", "pipeline", "pandas", "dataframe", "aggregation",
		"group by", "index", "warehouse",
	},
	Behavioral: {
		"behavioral", "star method", "tell me about", "leadership",
		"conflict", "teamwork", "weakness", "strength", "culture fit",
		"salary", "negotiation", "soft skill",
	},
	CompanyPrep: {
		"onsite", "phone screen", "hiring process", "recruiter", "offer",
		"interview process", "interview experience", "rounds", "faang",
		"hiring manager", "take home",
	},
	General: {
		"interview", "question", "preparation", "guide", "practice",
		"career", "resume", "tips",
	},
}

// FocusAliases maps short CLI flags to full category names.
var FocusAliases = map[string]Category{
	"coding":     CodingPractice,
	"design":     SystemDesign,
	"ml":         MachineLearning,
	"sql":        SQLData,
	"behavioral": Behavioral,
	"company":    CompanyPrep,
	"general":    General,
}

// ResolveAlias maps a CLI alias to a Category.
func ResolveAlias(alias string) (Category, error) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if cat, ok := FocusAliases[alias]; ok {
		return cat, nil
	}
	// Also accept full category names (case-insensitive)
	for _, cat := range AllCategories() {
		if strings.EqualFold(string(cat), alias) {
			return cat, nil
		}
	}
	valid := make([]string, 0, len(FocusAliases))
	for k := range FocusAliases {
		valid = append(valid, k)
	}
	return "", fmt.Errorf("unknown focus %q (valid: %s)", alias, strings.Join(valid, ", "))
}

// Classify determines the category for mined content based on title and
// body. Title keywords are weighted 2x. Returns General as default.
func Classify(title, body string) Category {
	titleTokens := tokenize(title)
	bodyTokens := tokenize(body)
	titleLower := strings.ToLower(title)
	bodyLower := strings.ToLower(body)

	var bestCat Category
	bestScore := 0

	for i, cat := range AllCategories() {
		score := 0
		keywords := categoryKeywords[cat]
		for _, kw := range keywords {
			if !strings.Contains(kw, " ") {
				// Single-word keyword
				for _, t := range titleTokens {
					if t == kw || strings.Contains(t, kw) {
						score += 2
					}
				}
				for _, t := range bodyTokens {
					if t == kw || strings.Contains(t, kw) {
						score++
					}
				}
			} else {
				// Multi-word keyword: check in pre-lowered text
				if strings.Contains(titleLower, kw) {
					score += 2
				}
				if strings.Contains(bodyLower, kw) {
					score++
				}
			}
		}
		if score > bestScore || (score == bestScore && score > 0 && i < categoryIndex(bestCat)) {
			bestScore = score
			bestCat = cat
		}
	}

	if bestScore == 0 {
		return General
	}
	return bestCat
}

func categoryIndex(cat Category) int {
	for i, c := range AllCategories() {
		if c == cat {
			return i
		}
	}
	return len(AllCategories())
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
