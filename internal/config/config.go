package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"researchpub/internal/prompts"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Sources    Sources    `mapstructure:"sources"`
	Filters    Filters    `mapstructure:"filters"`
	LLM        LLM        `mapstructure:"llm"`
	Formatting Formatting `mapstructure:"formatting"`
	Publishing Publishing `mapstructure:"publishing"`
	Server     Server     `mapstructure:"server"`
	Trends     Trends     `mapstructure:"trend_discovery"`

	// Stages is llm.prompt_stages parsed into the closed stage set.
	Stages []prompts.Stage `mapstructure:"-"`
}

// App holds general application settings
type App struct {
	DataDir   string `mapstructure:"data_dir" validate:"required"`
	OutputDir string `mapstructure:"output_dir" validate:"required"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=json console"`
}

// Sources configures the fetchers
type Sources struct {
	Arxiv       ArxivSource      `mapstructure:"arxiv"`
	HackerNews  HackerNewsSource `mapstructure:"hackernews"`
	GitHub      GitHubSource     `mapstructure:"github"`
	Blogs       BlogsSource      `mapstructure:"blogs"`
	Timeout     time.Duration    `mapstructure:"timeout"`
	Concurrency int              `mapstructure:"concurrency" validate:"gte=1"`
}

// ArxivSource configures the arXiv RSS fetcher
type ArxivSource struct {
	Enabled    bool     `mapstructure:"enabled"`
	BaseURL    string   `mapstructure:"base_url" validate:"omitempty,url"`
	Categories []string `mapstructure:"categories"`
	MaxResults int      `mapstructure:"max_results" validate:"gte=0"`
}

// HackerNewsSource configures the Algolia Hacker News fetcher
type HackerNewsSource struct {
	Enabled    bool     `mapstructure:"enabled"`
	BaseURL    string   `mapstructure:"base_url" validate:"omitempty,url"`
	FilterTags []string `mapstructure:"filter_tags"`
	MinPoints  int      `mapstructure:"min_points" validate:"gte=0"`
	MaxResults int      `mapstructure:"max_results" validate:"gte=0"`
}

// GitHubSource configures the GitHub search fetcher
type GitHubSource struct {
	Enabled    bool     `mapstructure:"enabled"`
	BaseURL    string   `mapstructure:"base_url" validate:"omitempty,url"`
	Token      string   `mapstructure:"token"`
	Topics     []string `mapstructure:"topics"`
	MinStars   int      `mapstructure:"min_stars" validate:"gte=0"`
	MaxResults int      `mapstructure:"max_results" validate:"gte=0"`
	WindowDays int      `mapstructure:"window_days" validate:"gte=1"`
}

// BlogsSource configures RSS/Atom blog feeds
type BlogsSource struct {
	Enabled bool   `mapstructure:"enabled"`
	Feeds   []Feed `mapstructure:"feeds" validate:"dive"`
}

// Feed is one configured blog feed
type Feed struct {
	Name     string `mapstructure:"name" validate:"required"`
	URL      string `mapstructure:"url" validate:"required,url"`
	Priority string `mapstructure:"priority" validate:"omitempty,oneof=high medium low"`
}

// Filters configures relevance, dedup and ranking
type Filters struct {
	MaxAgeDays             int           `mapstructure:"max_age_days" validate:"gte=0"`
	Keywords               Keywords      `mapstructure:"keywords"`
	ExcludeKeywords        []string      `mapstructure:"exclude_keywords"`
	MinEngagementThreshold int           `mapstructure:"min_engagement_threshold" validate:"gte=0"`
	Languages              []string      `mapstructure:"languages"`
	Deduplication          Deduplication `mapstructure:"deduplication"`
	Ranking                Ranking       `mapstructure:"ranking"`
}

// Keywords holds the inclusion keyword lists
type Keywords struct {
	HighPriority   []string `mapstructure:"high_priority"`
	MediumPriority []string `mapstructure:"medium_priority"`
}

// Deduplication configures the deduplicator
type Deduplication struct {
	TitleSimilarityThreshold float64 `mapstructure:"title_similarity_threshold" validate:"gte=0,lte=1"`
	URLHash                  bool    `mapstructure:"url_hash"`
}

// Ranking configures the ranker
type Ranking struct {
	Weights Weights `mapstructure:"weights"`
}

// Weights are the composite score weights
type Weights struct {
	Recency        float64 `mapstructure:"recency" validate:"gte=0"`
	SourcePriority float64 `mapstructure:"source_priority" validate:"gte=0"`
	KeywordMatch   float64 `mapstructure:"keyword_match" validate:"gte=0"`
	Engagement     float64 `mapstructure:"engagement" validate:"gte=0"`
}

// LLM configures the generation client and the analyzer
type LLM struct {
	Provider                string           `mapstructure:"provider" validate:"oneof=perplexity openai gemini"`
	Model                   string           `mapstructure:"model" validate:"required"`
	APIKey                  string           `mapstructure:"api_key"`
	BaseURL                 string           `mapstructure:"base_url" validate:"omitempty,url"`
	APITimeout              time.Duration    `mapstructure:"api_timeout"`
	MaxRetries              int              `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	GenerationParams        GenerationParams `mapstructure:"generation_params"`
	RateLimiting            RateLimiting     `mapstructure:"rate_limiting"`
	PromptStages            []string         `mapstructure:"prompt_stages"`
	ArxivEnhancement        bool             `mapstructure:"arxiv_enhancement"`
	ArxivRelevancyThreshold float64          `mapstructure:"arxiv_relevancy_threshold" validate:"gte=0,lte=10"`
	Cache                   LLMCache         `mapstructure:"cache"`
}

// GenerationParams are the default sampling parameters
type GenerationParams struct {
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int32   `mapstructure:"max_tokens" validate:"gte=1"`
	TopP        float32 `mapstructure:"top_p" validate:"gte=0,lte=1"`
}

// RateLimiting configures the client-side request ceiling
type RateLimiting struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"gte=0"`
}

// LLMCache configures the response cache
type LLMCache struct {
	Enabled bool `mapstructure:"enabled"`
}

// Formatting configures the output formatters
type Formatting struct {
	Blog     BlogFormat     `mapstructure:"blog"`
	LinkedIn LinkedInFormat `mapstructure:"linkedin"`
	Medium   MediumFormat   `mapstructure:"medium"`
}

// BlogFormat configures blog drafts
type BlogFormat struct {
	Author    string `mapstructure:"author"`
	MaxTokens int32  `mapstructure:"max_tokens" validate:"gte=1"`
}

// LinkedInFormat configures LinkedIn drafts
type LinkedInFormat struct {
	HashtagCount   int      `mapstructure:"hashtag_count" validate:"gte=0"`
	MaxTokens      int32    `mapstructure:"max_tokens" validate:"gte=1"`
	Engaging       bool     `mapstructure:"engaging"`
	ValidateSafety bool     `mapstructure:"validate_safety"`
	ProfanityList  []string `mapstructure:"profanity_list"`
}

// MediumFormat configures Medium drafts
type MediumFormat struct {
	IncludeDiagrams   bool `mapstructure:"include_diagrams"`
	IncludeReferences bool `mapstructure:"include_references"`
}

// Publishing configures the publishers
type Publishing struct {
	GitHubPages GitHubPages `mapstructure:"github_pages"`
	LinkedIn    LinkedIn    `mapstructure:"linkedin"`
	Medium      Medium      `mapstructure:"medium"`
	MaxRetries  int         `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// GitHubPages configures the GitHub Pages publisher
type GitHubPages struct {
	Enabled bool   `mapstructure:"enabled"`
	APIURL  string `mapstructure:"api_url" validate:"omitempty,url"`
	Token   string `mapstructure:"token"`
	Repo    string `mapstructure:"repo"`
	Branch  string `mapstructure:"branch"`
	Path    string `mapstructure:"path"`
}

// LinkedIn configures the LinkedIn publisher
type LinkedIn struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIURL      string `mapstructure:"api_url" validate:"omitempty,url"`
	AccessToken string `mapstructure:"access_token"`
	UserID      string `mapstructure:"user_id"`
}

// Medium configures the Medium publisher
type Medium struct {
	Enabled       bool   `mapstructure:"enabled"`
	APIURL        string `mapstructure:"api_url" validate:"omitempty,url"`
	Token         string `mapstructure:"token"`
	AuthorID      string `mapstructure:"author_id"`
	PublishStatus string `mapstructure:"publish_status" validate:"oneof=draft public unlisted"`
}

// Trends configures LLM trend discovery over recently ranked items
type Trends struct {
	IntervalHours int `mapstructure:"interval_hours" validate:"gte=1"`
	MaxTrends     int `mapstructure:"max_trends" validate:"gte=1"`
	MaxItems      int `mapstructure:"max_items" validate:"gte=1"`
}

// Interval is the minimum spacing between discovery runs
func (t Trends) Interval() time.Duration {
	return time.Duration(t.IntervalHours) * time.Hour
}

// Server configures the read-only API server
type Server struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Load reads configuration from the given file (or the default search path),
// the environment and any .env file, then validates it.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.AddConfigPath("$HOME")
		v.SetConfigName("researchpub")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("RESEARCHPUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	bindEnvironmentVariables(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	postProcessConfig(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	postProcessConfig(cfg)
	cfg.Stages, _ = prompts.ParseStages(cfg.LLM.PromptStages)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.data_dir", "data")
	v.SetDefault("app.output_dir", "drafts")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("sources.timeout", "30s")
	v.SetDefault("sources.concurrency", 4)
	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.arxiv.categories", []string{"cs.AI"})
	v.SetDefault("sources.arxiv.max_results", 20)
	v.SetDefault("sources.hackernews.enabled", true)
	v.SetDefault("sources.hackernews.filter_tags", []string{"ai", "ml"})
	v.SetDefault("sources.hackernews.min_points", 50)
	v.SetDefault("sources.hackernews.max_results", 15)
	v.SetDefault("sources.github.enabled", true)
	v.SetDefault("sources.github.topics", []string{"machine-learning", "artificial-intelligence"})
	v.SetDefault("sources.github.min_stars", 100)
	v.SetDefault("sources.github.max_results", 10)
	v.SetDefault("sources.github.window_days", 7)
	v.SetDefault("sources.blogs.enabled", false)

	v.SetDefault("filters.max_age_days", 7)
	v.SetDefault("filters.min_engagement_threshold", 100)
	v.SetDefault("filters.deduplication.title_similarity_threshold", 0.85)
	v.SetDefault("filters.deduplication.url_hash", true)
	v.SetDefault("filters.ranking.weights.recency", 0.3)
	v.SetDefault("filters.ranking.weights.source_priority", 0.3)
	v.SetDefault("filters.ranking.weights.keyword_match", 0.2)
	v.SetDefault("filters.ranking.weights.engagement", 0.2)

	v.SetDefault("llm.provider", "perplexity")
	v.SetDefault("llm.model", "sonar-pro")
	v.SetDefault("llm.api_timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.generation_params.temperature", 0.3)
	v.SetDefault("llm.generation_params.max_tokens", 2000)
	v.SetDefault("llm.generation_params.top_p", 0.9)
	v.SetDefault("llm.rate_limiting.requests_per_minute", 20)
	v.SetDefault("llm.arxiv_enhancement", false)
	v.SetDefault("llm.arxiv_relevancy_threshold", 6.0)
	v.SetDefault("llm.cache.enabled", true)

	v.SetDefault("formatting.blog.author", "AI Research Publisher")
	v.SetDefault("formatting.blog.max_tokens", 3000)
	v.SetDefault("formatting.linkedin.hashtag_count", 4)
	v.SetDefault("formatting.linkedin.max_tokens", 500)
	v.SetDefault("formatting.linkedin.validate_safety", true)
	v.SetDefault("formatting.medium.include_diagrams", true)
	v.SetDefault("formatting.medium.include_references", true)

	v.SetDefault("publishing.max_retries", 3)
	v.SetDefault("publishing.github_pages.api_url", "https://api.github.com")
	v.SetDefault("publishing.github_pages.branch", "gh-pages")
	v.SetDefault("publishing.github_pages.path", "_posts")
	v.SetDefault("publishing.linkedin.api_url", "https://api.linkedin.com")
	v.SetDefault("publishing.medium.api_url", "https://api.medium.com/v1")
	v.SetDefault("publishing.medium.publish_status", "draft")

	v.SetDefault("trend_discovery.interval_hours", 24)
	v.SetDefault("trend_discovery.max_trends", 5)
	v.SetDefault("trend_discovery.max_items", 20)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
}

func bindEnvironmentVariables(v *viper.Viper) {
	switch v.GetString("llm.provider") {
	case "gemini":
		bindEnvKeys(v, "llm.api_key", []string{"GEMINI_API_KEY", "GOOGLE_AI_API_KEY"})
	case "openai":
		bindEnvKeys(v, "llm.api_key", []string{"OPENAI_API_KEY"})
	default:
		bindEnvKeys(v, "llm.api_key", []string{"PERPLEXITY_API_KEY", "PPLX_API_KEY"})
	}

	bindEnvKeys(v, "sources.github.token", []string{"GITHUB_TOKEN"})
	bindEnvKeys(v, "publishing.github_pages.token", []string{"GITHUB_TOKEN"})
	bindEnvKeys(v, "publishing.github_pages.repo", []string{"GITHUB_REPO"})
	bindEnvKeys(v, "publishing.linkedin.access_token", []string{"LINKEDIN_ACCESS_TOKEN"})
	bindEnvKeys(v, "publishing.linkedin.user_id", []string{"LINKEDIN_USER_ID"})
	bindEnvKeys(v, "publishing.medium.token", []string{"MEDIUM_INTEGRATION_TOKEN"})
	bindEnvKeys(v, "publishing.medium.author_id", []string{"MEDIUM_AUTHOR_ID"})
}

// bindEnvKeys sets viperKey from the first non-empty env var, leaving values
// already present in the file or RESEARCHPUB_* env untouched.
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	if v.GetString(viperKey) != "" {
		return
	}
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

func postProcessConfig(cfg *Config) {
	cfg.App.DataDir = expandPath(cfg.App.DataDir)
	cfg.App.OutputDir = expandPath(cfg.App.OutputDir)
	cfg.App.LogLevel = strings.ToLower(cfg.App.LogLevel)
	cfg.App.LogFormat = strings.ToLower(cfg.App.LogFormat)
	for i := range cfg.Sources.Blogs.Feeds {
		if cfg.Sources.Blogs.Feeds[i].Priority == "" {
			cfg.Sources.Blogs.Feeds[i].Priority = "medium"
		}
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg *Config) error {
	var problems []error

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Errorf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			problems = append(problems, err)
		}
	}

	stages, err := prompts.ParseStages(cfg.LLM.PromptStages)
	if err != nil {
		problems = append(problems, fmt.Errorf("llm.prompt_stages: %w", err))
	}
	cfg.Stages = stages

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(problems...))
	}
	return nil
}
