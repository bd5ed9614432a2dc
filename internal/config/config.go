// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Stock     StockConfig     `yaml:"stock" mapstructure:"stock"`
	Captions  CaptionsConfig  `yaml:"captions" mapstructure:"captions"`
	Frames    FramesConfig    `yaml:"frames" mapstructure:"frames"`
	Embedder  EmbedderConfig  `yaml:"embedder" mapstructure:"embedder"`
	Scorer    ScorerConfig    `yaml:"scorer" mapstructure:"scorer"`
	Lexical   LexicalConfig   `yaml:"lexical" mapstructure:"lexical"`
	Localizer LocalizerConfig `yaml:"localizer" mapstructure:"localizer"`
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StockConfig holds candidate retriever API settings.
type StockConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	PerQuery    int     `yaml:"per_query" mapstructure:"per_query"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CaptionsConfig holds transcript provider settings.
type CaptionsConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Language    string `yaml:"language" mapstructure:"language"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FramesConfig holds frame sampler settings.
type FramesConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	MaxFrames   int    `yaml:"max_frames" mapstructure:"max_frames"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EmbedderConfig holds embedding oracle settings.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ScorerConfig configures metadata scoring weights and bonuses.
type ScorerConfig struct {
	KeywordWeight float64 `yaml:"keyword_weight" mapstructure:"keyword_weight"`
	ContextWeight float64 `yaml:"context_weight" mapstructure:"context_weight"`
	QualityWeight float64 `yaml:"quality_weight" mapstructure:"quality_weight"`

	TitleHitWeight   float64 `yaml:"title_hit_weight" mapstructure:"title_hit_weight"`
	DescHitWeight    float64 `yaml:"desc_hit_weight" mapstructure:"desc_hit_weight"`
	TagHitWeight     float64 `yaml:"tag_hit_weight" mapstructure:"tag_hit_weight"`
	FullTitleBonus   float64 `yaml:"full_title_bonus" mapstructure:"full_title_bonus"`
	StyleMatchBonus  float64 `yaml:"style_match_bonus" mapstructure:"style_match_bonus"`
	PeriodMatchBonus float64 `yaml:"period_match_bonus" mapstructure:"period_match_bonus"`

	SweetSpotMinSecs float64 `yaml:"sweet_spot_min_secs" mapstructure:"sweet_spot_min_secs"`
	SweetSpotMaxSecs float64 `yaml:"sweet_spot_max_secs" mapstructure:"sweet_spot_max_secs"`
	ShortPenaltySecs float64 `yaml:"short_penalty_secs" mapstructure:"short_penalty_secs"`
}

// LexicalConfig configures the hybrid transcript matcher.
type LexicalConfig struct {
	BM25K1      float64 `yaml:"bm25_k1" mapstructure:"bm25_k1"`
	BM25B       float64 `yaml:"bm25_b" mapstructure:"bm25_b"`
	MaxFeatures int     `yaml:"max_features" mapstructure:"max_features"`
}

// LocalizerConfig configures the transcript window scan.
type LocalizerConfig struct {
	WindowSegments  int     `yaml:"window_segments" mapstructure:"window_segments"`
	MinDurationSecs float64 `yaml:"min_duration_secs" mapstructure:"min_duration_secs"`
	MaxDurationSecs float64 `yaml:"max_duration_secs" mapstructure:"max_duration_secs"`
}

// VerifyConfig configures orchestration, fusion and selection.
type VerifyConfig struct {
	VisualEnabled       bool    `yaml:"visual_enabled" mapstructure:"visual_enabled"`
	VisualThreshold     float64 `yaml:"visual_threshold" mapstructure:"visual_threshold"`
	LexicalFusionWeight float64 `yaml:"lexical_fusion_weight" mapstructure:"lexical_fusion_weight"`
	VisualFusionWeight  float64 `yaml:"visual_fusion_weight" mapstructure:"visual_fusion_weight"`

	MaxPerSource        int `yaml:"max_per_source" mapstructure:"max_per_source"`
	RequiredCount       int `yaml:"required_count" mapstructure:"required_count"`
	MaxVerifyCandidates int `yaml:"max_verify_candidates" mapstructure:"max_verify_candidates"`

	Workers     int `yaml:"workers" mapstructure:"workers"`
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
	CallTimeout int `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "broll.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("stock.base_url", "https://api.pexels.com/videos")
	v.SetDefault("stock.per_query", 15)
	v.SetDefault("stock.rate_per_sec", 2.0)
	v.SetDefault("stock.timeout_secs", 15)
	v.SetDefault("captions.base_url", "http://localhost:8091")
	v.SetDefault("captions.language", "en")
	v.SetDefault("captions.timeout_secs", 20)
	v.SetDefault("frames.base_url", "http://localhost:8092")
	v.SetDefault("frames.max_frames", 3)
	v.SetDefault("frames.timeout_secs", 30)
	v.SetDefault("embedder.base_url", "http://localhost:8093")
	v.SetDefault("embedder.model", "ViT-B-32")
	v.SetDefault("embedder.timeout_secs", 30)

	v.SetDefault("scorer.keyword_weight", 0.4)
	v.SetDefault("scorer.context_weight", 0.3)
	v.SetDefault("scorer.quality_weight", 0.3)
	v.SetDefault("scorer.title_hit_weight", 3.0)
	v.SetDefault("scorer.desc_hit_weight", 1.0)
	v.SetDefault("scorer.tag_hit_weight", 2.0)
	v.SetDefault("scorer.full_title_bonus", 5.0)
	v.SetDefault("scorer.style_match_bonus", 10.0)
	v.SetDefault("scorer.period_match_bonus", 8.0)
	v.SetDefault("scorer.sweet_spot_min_secs", 10)
	v.SetDefault("scorer.sweet_spot_max_secs", 300)
	v.SetDefault("scorer.short_penalty_secs", 5)

	v.SetDefault("lexical.bm25_k1", 1.5)
	v.SetDefault("lexical.bm25_b", 0.75)
	v.SetDefault("lexical.max_features", 5000)

	v.SetDefault("localizer.window_segments", 5)
	v.SetDefault("localizer.min_duration_secs", 5)
	v.SetDefault("localizer.max_duration_secs", 15)

	v.SetDefault("verify.visual_enabled", true)
	v.SetDefault("verify.visual_threshold", 0.6)
	v.SetDefault("verify.lexical_fusion_weight", 0.4)
	v.SetDefault("verify.visual_fusion_weight", 0.6)
	v.SetDefault("verify.max_per_source", 2)
	v.SetDefault("verify.required_count", 1)
	v.SetDefault("verify.max_verify_candidates", 10)
	v.SetDefault("verify.workers", 4)
	v.SetDefault("verify.max_retries", 2)
	v.SetDefault("verify.call_timeout_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
