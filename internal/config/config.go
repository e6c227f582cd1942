package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Source is a fixed catalog entry: known pages worth mining for any
// subject.
type Source struct {
	Name    string   `yaml:"name"`
	URLs    []string `yaml:"urls"`
	Enabled bool     `yaml:"enabled"`
}

// Pattern is a URL template with a {role} placeholder, filled with the
// slugged role per run.
type Pattern struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// Feed is a search feed template with a {query} placeholder; results are
// parsed as RSS/Atom and each item becomes a candidate.
type Feed struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type LimiterConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	MaxConnections    int64   `yaml:"max_connections,omitempty"`
	MaxPerHost        int64   `yaml:"max_per_host,omitempty"`
	DNSCacheTTL       string  `yaml:"dns_cache_ttl,omitempty"`
}

type FetchConfig struct {
	StaticTimeout string   `yaml:"static_timeout,omitempty"`
	RenderTimeout string   `yaml:"render_timeout,omitempty"`
	RetryDelays   []string `yaml:"retry_delays,omitempty"`
	MaxBodyLen    int      `yaml:"max_body_len,omitempty"`
	UserAgent     string   `yaml:"user_agent,omitempty"`
}

type ScoringConfig struct {
	FuzzyTolerance  float64  `yaml:"fuzzy_tolerance,omitempty"`
	InterviewTerms  []string `yaml:"interview_terms,omitempty"`
	CredibleSources []string `yaml:"credible_sources,omitempty"`
}

// SubjectConfig is the default subject when the command line gives none.
type SubjectConfig struct {
	Role    string   `yaml:"role,omitempty"`
	Skills  []string `yaml:"skills,omitempty"`
	Company string   `yaml:"company,omitempty"`
}

type Config struct {
	CacheTTL   string  `yaml:"cache_ttl"`
	MinScore   float64 `yaml:"min_score,omitempty"`
	MaxResults int     `yaml:"max_results,omitempty"`

	Limiter LimiterConfig `yaml:"limiter,omitempty"`
	Fetch   FetchConfig   `yaml:"fetch,omitempty"`
	Scoring ScoringConfig `yaml:"scoring,omitempty"`
	Subject SubjectConfig `yaml:"subject,omitempty"`

	Sources  []Source  `yaml:"sources"`
	Patterns []Pattern `yaml:"patterns,omitempty"`
	Feeds    []Feed    `yaml:"feeds,omitempty"`
}

// CacheTTLDuration parses the cache TTL, supporting "Nd" day syntax,
// defaulting to 7 days.
func (c *Config) CacheTTLDuration() time.Duration {
	return parseDaysOr(c.CacheTTL, 7*24*time.Hour)
}

func (l LimiterConfig) DNSCacheTTLDuration() time.Duration {
	return parseDaysOr(l.DNSCacheTTL, 0)
}

func (f FetchConfig) StaticTimeoutDuration() time.Duration {
	return parseDaysOr(f.StaticTimeout, 0)
}

func (f FetchConfig) RenderTimeoutDuration() time.Duration {
	return parseDaysOr(f.RenderTimeout, 0)
}

// RetryDelayDurations parses the render retry schedule. A list with any
// unparseable entry is discarded wholesale so a typo cannot silently
// shorten the schedule.
func (f FetchConfig) RetryDelayDurations() []time.Duration {
	if len(f.RetryDelays) == 0 {
		return nil
	}
	out := make([]time.Duration, 0, len(f.RetryDelays))
	for _, raw := range f.RetryDelays {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil
		}
		out = append(out, d)
	}
	return out
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) EnabledPatterns() []Pattern {
	var out []Pattern
	for _, p := range c.Patterns {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) EnabledFeeds() []Feed {
	var out []Feed
	for _, f := range c.Feeds {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "prepmine", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "prepmine", "prepmine.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if len(s.URLs) == 0 {
			return fmt.Errorf("source %q: at least one url is required", s.Name)
		}
		for _, raw := range s.URLs {
			if err := checkURL(raw); err != nil {
				return fmt.Errorf("source %q: %w", s.Name, err)
			}
		}
	}
	for _, p := range cfg.Patterns {
		if p.Name == "" {
			return fmt.Errorf("pattern %q: name is required", p.URL)
		}
		if !strings.Contains(p.URL, "{role}") {
			return fmt.Errorf("pattern %q: url must contain {role}", p.Name)
		}
		if err := checkURL(p.URL); err != nil {
			return fmt.Errorf("pattern %q: %w", p.Name, err)
		}
	}
	for _, f := range cfg.Feeds {
		if f.Name == "" {
			return fmt.Errorf("feed %q: name is required", f.URL)
		}
		if !strings.Contains(f.URL, "{query}") {
			return fmt.Errorf("feed %q: url must contain {query}", f.Name)
		}
		if err := checkURL(f.URL); err != nil {
			return fmt.Errorf("feed %q: %w", f.Name, err)
		}
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

// parseDaysOr parses a duration, supporting "Nd" day syntax on top of the
// standard units.
func parseDaysOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if len(raw) > 1 && raw[len(raw)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(raw, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
