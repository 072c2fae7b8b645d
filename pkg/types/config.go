// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-intel/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RequestsPerSecond caps outgoing requests to one service (0 disables).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// Sort keys accepted by the bibliographic search service.
const (
	SortCitations = "cited_by_count:desc"
	SortRelevance = "relevance_score:desc"
	SortRecent    = "publication_date:desc"
)

// SearchConfig holds settings for the bibliographic search collaborator.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the maximum number of records to return (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// YearFrom and YearTo bound the publication year (0 leaves a side open).
	YearFrom int `json:"year_from,omitempty" yaml:"year_from,omitempty" mapstructure:"year_from"`
	YearTo   int `json:"year_to,omitempty" yaml:"year_to,omitempty" mapstructure:"year_to"`

	// OpenAccessOnly restricts results to open-access works.
	OpenAccessOnly bool `json:"open_access_only,omitempty" yaml:"open_access_only,omitempty" mapstructure:"open_access_only"`

	// MinCitations drops works cited fewer times.
	MinCitations int `json:"min_citations,omitempty" yaml:"min_citations,omitempty" mapstructure:"min_citations"`

	// Sort is one of the Sort* keys (default SortCitations).
	Sort string `json:"sort,omitempty" yaml:"sort,omitempty" mapstructure:"sort"`

	// Email is sent as the OpenAlex mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// EnableSemanticScholar adds the Semantic Scholar backend to the federation.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar" mapstructure:"enable_semantic_scholar"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`
}

// AIConfig holds settings for the AI text generators.
type AIConfig struct {
	// Provider orders the generators: "groq", "gemini", or "groq,gemini".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	GroqAPIKey string `json:"groq_api_key,omitempty" yaml:"groq_api_key,omitempty" mapstructure:"groq_api_key"`
	GroqModel  string `json:"groq_model" yaml:"groq_model" mapstructure:"groq_model"`

	GeminiAPIKey string `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty" mapstructure:"gemini_api_key"`
	GeminiModel  string `json:"gemini_model" yaml:"gemini_model" mapstructure:"gemini_model"`

	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// RequestsPerMinute caps generator calls per provider (0 disables).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ClassifierConfig holds settings for the paper classifier.
type ClassifierConfig struct {
	// MaxRetries is the number of generation attempts before the keyword
	// fallback runs (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Concurrency bounds parallel classifications during exploration (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// BranchesFile is a YAML taxonomy; empty selects the built-in one.
	BranchesFile string `json:"branches_file,omitempty" yaml:"branches_file,omitempty" mapstructure:"branches_file"`
}

// LayoutConfig holds canvas settings for the density layout.
type LayoutConfig struct {
	Width  float64 `json:"width" yaml:"width" mapstructure:"width"`
	Height float64 `json:"height" yaml:"height" mapstructure:"height"`
	Margin float64 `json:"margin" yaml:"margin" mapstructure:"margin"`

	// Seed fixes the random source when non-zero.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// ExploreConfig holds settings for the query exploration flow.
type ExploreConfig struct {
	// Timeout bounds one whole exploration (0 disables).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// GapConfig holds settings for the research gap pipeline.
type GapConfig struct {
	// PerQueryLimit caps results collected per related-paper query (default 20).
	PerQueryLimit int `json:"per_query_limit" yaml:"per_query_limit" mapstructure:"per_query_limit"`

	// MaxRelated caps the deduplicated related set (default 50).
	MaxRelated int `json:"max_related" yaml:"max_related" mapstructure:"max_related"`

	// MaxDirections caps extracted future-work directions (default 10).
	MaxDirections int `json:"max_directions" yaml:"max_directions" mapstructure:"max_directions"`

	// CoverageYear is the earliest year counted as existing work (default 2020).
	CoverageYear int `json:"coverage_year" yaml:"coverage_year" mapstructure:"coverage_year"`

	// MinTitleSimilarity is the token overlap in [0,1] a validation result
	// title needs with the gap title to count as coverage (default 0).
	MinTitleSimilarity float64 `json:"min_title_similarity" yaml:"min_title_similarity" mapstructure:"min_title_similarity"`

	// Timeout bounds one whole analysis (0 disables).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// SummaryConfig holds settings for paper summarization.
type SummaryConfig struct {
	// Concurrency bounds parallel summaries in a batch (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxSentences caps the extractive fallback (default 3).
	MaxSentences int `json:"max_sentences" yaml:"max_sentences" mapstructure:"max_sentences"`

	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// CacheTTL is how long generated summaries stay cached.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheConfig selects and tunes the result cache.
type CacheConfig struct {
	Backend       string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	RedisAddr     string        `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisPassword string        `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int           `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`
	Prefix        string        `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	TTL           time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// ArchiveConfig locates the gap report archive.
type ArchiveConfig struct {
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all stage configurations.
type Config struct {
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	AI         AIConfig         `json:"ai" yaml:"ai" mapstructure:"ai"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	Layout     LayoutConfig     `json:"layout" yaml:"layout" mapstructure:"layout"`
	Explore    ExploreConfig    `json:"explore" yaml:"explore" mapstructure:"explore"`
	Gaps       GapConfig        `json:"gaps" yaml:"gaps" mapstructure:"gaps"`
	Summary    SummaryConfig    `json:"summary" yaml:"summary" mapstructure:"summary"`
	Cache      CacheConfig      `json:"cache" yaml:"cache" mapstructure:"cache"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive" mapstructure:"archive"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:           30 * time.Second,
				UserAgent:         "research-intel/0.1",
				RequestsPerSecond: 10,
			},
			MaxResults: 50,
			Sort:       SortCitations,
		},
		AI: AIConfig{
			Provider:          "groq,gemini",
			GroqModel:         "mixtral-8x7b-32768",
			GeminiModel:       "gemini-1.5-flash",
			Temperature:       0.7,
			MaxTokens:         1000,
			RequestsPerMinute: 30,
			Timeout:           60 * time.Second,
		},
		Classifier: ClassifierConfig{
			MaxRetries:  3,
			Concurrency: 4,
		},
		Layout: LayoutConfig{
			Width:  1000,
			Height: 800,
			Margin: 40,
		},
		Explore: ExploreConfig{Timeout: 3 * time.Minute},
		Gaps: GapConfig{
			Timeout:       5 * time.Minute,
			PerQueryLimit: 20,
			MaxRelated:    50,
			MaxDirections: 10,
			CoverageYear:  2020,
		},
		Summary: SummaryConfig{
			Concurrency:  4,
			MaxSentences: 3,
			Temperature:  0.5,
			MaxTokens:    500,
			CacheTTL:     7 * 24 * time.Hour,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Prefix:  "research-intel:",
			TTL:     7 * 24 * time.Hour,
		},
		Archive: ArchiveConfig{Dir: "archive"},
		Server:  ServerConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}
