package config

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/home"
)

// Config holds primer configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers" json:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults" json:"defaults"`
	Catalog      CatalogCfg                `mapstructure:"catalog" yaml:"catalog" json:"catalog"`
	Search       SearchCfg                 `mapstructure:"search" yaml:"search" json:"search"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server" json:"server"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type" json:"type"`                   // "dashscope", "openai", "openrouter", "gemini"
	Model     string  `mapstructure:"model" yaml:"model" json:"model"`                // Model name
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url" json:"base_url"`       // Optional endpoint override
	APIKey    string  `mapstructure:"api_key" yaml:"api_key" json:"api_key"`          // API key (supports ${ENV_VAR} syntax)
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"` // Requests per second
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider" json:"llm_provider"` // Default LLM provider
	MaxWorkers  int    `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`    // Max concurrent segment requests
}

// CatalogCfg controls outline extraction and the on-disk book layout.
type CatalogCfg struct {
	PagesForCatalog    int    `mapstructure:"pages_for_catalog" yaml:"pages_for_catalog" json:"pages_for_catalog"`
	TextDir            string `mapstructure:"text_dir" yaml:"text_dir" json:"text_dir"`
	OutputFile         string `mapstructure:"output_file" yaml:"output_file" json:"output_file"`
	SegmentsFile       string `mapstructure:"segments_file" yaml:"segments_file" json:"segments_file"`
	KeyPrefix          string `mapstructure:"key_prefix" yaml:"key_prefix" json:"key_prefix"`
	KeyWidth           int    `mapstructure:"key_width" yaml:"key_width" json:"key_width"`
	TextExt            string `mapstructure:"text_ext" yaml:"text_ext" json:"text_ext"`
	VerifyAnchor       bool   `mapstructure:"verify_anchor" yaml:"verify_anchor" json:"verify_anchor"`
	AnchorSearchRadius int    `mapstructure:"anchor_search_radius" yaml:"anchor_search_radius" json:"anchor_search_radius"`
	MindmapFile        string `mapstructure:"mindmap_file" yaml:"mindmap_file" json:"mindmap_file"`
	LeafMindmapsFile   string `mapstructure:"mindmap_leaves_file" yaml:"mindmap_leaves_file" json:"mindmap_leaves_file"`
	IndexFile          string `mapstructure:"index_file" yaml:"index_file" json:"index_file"`
}

// SearchCfg configures knowledge point embeddings and search.
type SearchCfg struct {
	EmbeddingProvider string `mapstructure:"embedding_provider" yaml:"embedding_provider" json:"embedding_provider"` // Empty uses defaults.llm_provider
	EmbeddingModel    string `mapstructure:"embedding_model" yaml:"embedding_model" json:"embedding_model"`          // Empty uses the provider default
	TopK              int    `mapstructure:"top_k" yaml:"top_k" json:"top_k"`
	BatchSize         int    `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`
}

// ServerCfg configures `primer serve`.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host" json:"host"`
	Port int    `mapstructure:"port" yaml:"port" json:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"dashscope": {
				Type:      "dashscope",
				Model:     "qwen-turbo",
				APIKey:    "${DASHSCOPE_API_KEY}",
				RateLimit: 5,
				Enabled:   true,
			},
			"openrouter": {
				Type:    "openrouter",
				Model:   "qwen/qwen-turbo",
				APIKey:  "${OPENROUTER_API_KEY}",
				Enabled: false,
			},
			"gemini": {
				Type:    "gemini",
				Model:   "gemini-2.5-flash",
				APIKey:  "${GEMINI_API_KEY}",
				Enabled: false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "dashscope",
			MaxWorkers:  4,
		},
		Catalog: CatalogCfg{
			PagesForCatalog:    30,
			TextDir:            home.DefaultLayout.TextDir,
			OutputFile:         home.DefaultLayout.CatalogFile,
			SegmentsFile:       home.DefaultLayout.SegmentsFile,
			KeyPrefix:          catalog.DefaultPageKeyFormat.Prefix,
			KeyWidth:           catalog.DefaultPageKeyFormat.Width,
			TextExt:            ".txt",
			VerifyAnchor:       true,
			AnchorSearchRadius: 3,
			MindmapFile:        home.DefaultLayout.MindmapFile,
			LeafMindmapsFile:   home.DefaultLayout.LeafMindmapsFile,
			IndexFile:          home.DefaultLayout.IndexFile,
		},
		Search: SearchCfg{
			TopK:      5,
			BatchSize: 10,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// PageKeyFormat returns the page file key format.
func (c *Config) PageKeyFormat() catalog.PageKeyFormat {
	f := catalog.DefaultPageKeyFormat
	if c.Catalog.KeyPrefix != "" {
		f.Prefix = c.Catalog.KeyPrefix
	}
	if c.Catalog.KeyWidth > 0 {
		f.Width = c.Catalog.KeyWidth
	}
	return f
}

// Layout returns the per-book file layout.
func (c *Config) Layout() home.Layout {
	l := home.DefaultLayout
	if c.Catalog.TextDir != "" {
		l.TextDir = c.Catalog.TextDir
	}
	if c.Catalog.OutputFile != "" {
		l.CatalogFile = c.Catalog.OutputFile
	}
	if c.Catalog.SegmentsFile != "" {
		l.SegmentsFile = c.Catalog.SegmentsFile
	}
	if c.Catalog.MindmapFile != "" {
		l.MindmapFile = c.Catalog.MindmapFile
	}
	if c.Catalog.LeafMindmapsFile != "" {
		l.LeafMindmapsFile = c.Catalog.LeafMindmapsFile
	}
	if c.Catalog.IndexFile != "" {
		l.IndexFile = c.Catalog.IndexFile
	}
	return l
}

// EmbeddingProvider returns the provider used for embeddings.
func (c *Config) EmbeddingProvider() string {
	if c.Search.EmbeddingProvider != "" {
		return c.Search.EmbeddingProvider
	}
	return c.Defaults.LLMProvider
}

// Validate checks values that would make a run meaningless.
func (c *Config) Validate() error {
	var errs []error
	if c.Catalog.PagesForCatalog <= 0 {
		errs = append(errs, fmt.Errorf("catalog.pages_for_catalog must be positive, got %d", c.Catalog.PagesForCatalog))
	}
	if c.Catalog.KeyWidth < 0 {
		errs = append(errs, fmt.Errorf("catalog.key_width must not be negative, got %d", c.Catalog.KeyWidth))
	}
	if c.Catalog.AnchorSearchRadius < 0 {
		errs = append(errs, fmt.Errorf("catalog.anchor_search_radius must not be negative, got %d", c.Catalog.AnchorSearchRadius))
	}
	if c.Defaults.MaxWorkers < 0 {
		errs = append(errs, fmt.Errorf("defaults.max_workers must not be negative, got %d", c.Defaults.MaxWorkers))
	}
	if c.Search.TopK < 0 {
		errs = append(errs, fmt.Errorf("search.top_k must not be negative, got %d", c.Search.TopK))
	}
	if c.Search.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("search.batch_size must not be negative, got %d", c.Search.BatchSize))
	}
	if name := c.Search.EmbeddingProvider; name != "" {
		if _, ok := c.LLMProviders[name]; !ok {
			errs = append(errs, fmt.Errorf("search.embedding_provider %q is not configured", name))
		}
	}
	if name := c.Defaults.LLMProvider; name != "" {
		if _, ok := c.LLMProviders[name]; !ok {
			errs = append(errs, fmt.Errorf("defaults.llm_provider %q is not configured", name))
		}
	}
	return errors.Join(errs...)
}
