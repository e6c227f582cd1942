package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/classify"
	"github.com/matheuskafuri/prepmine/internal/config"
	"github.com/matheuskafuri/prepmine/internal/discover"
	"github.com/matheuskafuri/prepmine/internal/fetch"
	"github.com/matheuskafuri/prepmine/internal/limiter"
	"github.com/matheuskafuri/prepmine/internal/miner"
	"github.com/matheuskafuri/prepmine/internal/relevance"
	"github.com/matheuskafuri/prepmine/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagRole       string
	flagSkills     []string
	flagCompany    string
	flagURLs       []string
	flagTop        int
	flagMineFocus  string
	flagStaticOnly bool
	flagJSON       bool
	flagVerbose    bool
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Fetch, score, and cache pages for a target role",
	Long: `Discover candidate pages from the configured catalogs, URL patterns, and
search feeds, fetch each one under the outbound rate limits, score the content
against your subject, and store everything in the local cache.

Pages that resist a plain HTTP fetch are retried in a headless browser. A
second run over the same ground is nearly free: anything still fresh in the
cache is served from disk without touching the network.`,
	Example: `  prepmine mine --role "data scientist" --skill python --skill sql
  prepmine mine --role "backend engineer" --company Stripe --url https://example.com/guide
  prepmine mine --focus sql --top 10`,
	RunE: runMine,
}

func init() {
	mineCmd.Flags().StringVar(&flagRole, "role", "", "target role, e.g. \"data scientist\"")
	mineCmd.Flags().StringArrayVar(&flagSkills, "skill", nil, "skill keyword, repeatable")
	mineCmd.Flags().StringVar(&flagCompany, "company", "", "target company")
	mineCmd.Flags().StringArrayVar(&flagURLs, "url", nil, "extra page to mine, repeatable")
	mineCmd.Flags().IntVar(&flagTop, "top", 0, "digest size (default 5)")
	mineCmd.Flags().StringVar(&flagMineFocus, "focus", "", "digest category filter")
	mineCmd.Flags().BoolVar(&flagStaticOnly, "static-only", false, "skip the headless browser fallback")
	mineCmd.Flags().BoolVar(&flagJSON, "json", false, "emit mined records as JSON")
	mineCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log every fetch decision")
}

func runMine(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(os.Stderr)
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	subj, err := buildSubject(cfg)
	if err != nil {
		return err
	}

	var focus classify.Category
	if flagMineFocus != "" {
		focus, err = classify.ResolveAlias(flagMineFocus)
		if err != nil {
			return err
		}
	}

	db, err := cache.Open(config.CachePath(), cfg.CacheTTLDuration())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	limCfg := limiter.Config{
		RequestsPerSecond: cfg.Limiter.RequestsPerSecond,
		MaxConnections:    cfg.Limiter.MaxConnections,
		MaxPerHost:        cfg.Limiter.MaxPerHost,
		DNSCacheTTL:       cfg.Limiter.DNSCacheTTLDuration(),
	}
	lim := limiter.New(limCfg)

	static := fetch.NewStatic(lim, limiter.NewTransport(limCfg), fetch.StaticConfig{
		Timeout:    cfg.Fetch.StaticTimeoutDuration(),
		MaxBodyLen: cfg.Fetch.MaxBodyLen,
		UserAgent:  cfg.Fetch.UserAgent,
	}, logger)

	strategies := []fetch.Strategy{static}
	if !flagStaticOnly {
		renderer := fetch.NewRenderer(fetch.RenderConfig{
			AttemptTimeout: cfg.Fetch.RenderTimeoutDuration(),
			Delays:         cfg.Fetch.RetryDelayDurations(),
			MaxBodyLen:     cfg.Fetch.MaxBodyLen,
			UserAgent:      cfg.Fetch.UserAgent,
		}, logger)
		defer renderer.Close()
		strategies = append(strategies, renderer)
	}

	m := miner.New(db, strategies, miner.Options{
		MinScore:   cfg.MinScore,
		MaxResults: cfg.MaxResults,
		Scoring: relevance.Params{
			FuzzyTolerance:  cfg.Scoring.FuzzyTolerance,
			InterviewTerms:  cfg.Scoring.InterviewTerms,
			CredibleSources: cfg.Scoring.CredibleSources,
		},
	}, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	candidates := make([]miner.Candidate, 0, len(flagURLs))
	for _, u := range flagURLs {
		candidates = append(candidates, miner.Candidate{URL: u, SourceLabel: discover.Label(u)})
	}
	candidates = append(candidates, discover.Candidates(ctx, cfg, subj, logger)...)
	if len(candidates) == 0 {
		return errors.New("nothing to mine: no candidate URLs from config or --url")
	}

	logger.Info("mining", "candidates", len(candidates), "role", subj.RoleKeywords)

	records, err := m.Mine(ctx, candidates, subj)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	// The whole cache population weights the trending terms.
	corpus, err := db.Records(cache.QueryOpts{})
	if err != nil {
		corpus = nil
	}
	digest := report.Build(records, corpus, report.Opts{Size: flagTop, Focus: focus})
	fmt.Print(report.Render(digest))
	return nil
}

// buildSubject merges command-line flags over the configured defaults.
func buildSubject(cfg *config.Config) (relevance.Subject, error) {
	role := flagRole
	if role == "" {
		role = cfg.Subject.Role
	}
	skills := flagSkills
	if len(skills) == 0 {
		skills = cfg.Subject.Skills
	}
	company := flagCompany
	if company == "" {
		company = cfg.Subject.Company
	}

	if role == "" && len(skills) == 0 {
		return relevance.Subject{}, errors.New("no subject: pass --role or --skill, or set one in the config")
	}

	subj := relevance.Subject{
		SkillKeywords: skills,
		CompanyName:   company,
	}
	if role != "" {
		subj.RoleKeywords = []string{role}
	}
	return subj, nil
}
