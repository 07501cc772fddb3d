package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the doctree tool.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Cache     CacheConfig     `yaml:"cache"`
	Scan      ScanConfig      `yaml:"scan"`
	Document  DocumentConfig  `yaml:"document"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GeneratorConfig holds generation-service configuration.
type GeneratorConfig struct {
	BaseURL           string  `yaml:"base_url"`    // OpenAI-compatible endpoint
	Model             string  `yaml:"model"`       // e.g. "gpt-4o-mini"
	APIKeyEnv         string  `yaml:"api_key_env"` // environment variable for the API key
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	MaxRetries        int     `yaml:"max_retries"`
	RetryDelaySeconds int     `yaml:"retry_delay_seconds"`
}

// CacheConfig holds cache location configuration.
type CacheConfig struct {
	DirName string `yaml:"dir_name"`
}

// ScanConfig holds tree-scanning configuration.
type ScanConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// DocumentConfig holds staleness-validation configuration. The keyword
// thresholds tune the relevance heuristic; the decision boundary itself
// (path match OR two-plus keyword matches by default) is fixed.
type DocumentConfig struct {
	Name              string `yaml:"name"`
	StemMinLen        int    `yaml:"stem_min_len"`
	KeywordMinLen     int    `yaml:"keyword_min_len"`
	KeywordTake       int    `yaml:"keyword_take"`
	KeywordMinMatches int    `yaml:"keyword_min_matches"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			APIKeyEnv:         "OPENAI_API_KEY",
			MaxTokens:         1000,
			Temperature:       0.3,
			MaxRetries:        3,
			RetryDelaySeconds: 2,
		},
		Cache: CacheConfig{
			DirName: ".doctree",
		},
		Scan: ScanConfig{
			Includes: []string{
				"**/*.go", "**/*.py", "**/*.js", "**/*.ts", "**/*.tsx", "**/*.jsx",
				"**/*.rs", "**/*.java", "**/*.c", "**/*.h", "**/*.cpp", "**/*.hpp",
				"**/*.rb", "**/*.php", "**/*.swift", "**/*.kt", "**/*.scala",
				"**/*.sh", "**/*.sql", "**/*.proto", "**/*.graphql",
				"**/*.md", "**/*.yaml", "**/*.yml", "**/*.json", "**/*.toml",
				"**/*.html", "**/*.css", "**/Makefile", "**/Dockerfile",
			},
			Excludes: []string{
				"**/.git/**", "**/.doctree/**", "**/node_modules/**",
				"**/vendor/**", "**/target/**", "**/build/**", "**/dist/**",
				"**/__pycache__/**", "**/.venv/**", "**/venv/**",
				"**/coverage/**", "**/*.min.js",
			},
		},
		Document: DocumentConfig{
			Name:              "README.md",
			StemMinLen:        3,
			KeywordMinLen:     5,
			KeywordTake:       5,
			KeywordMinMatches: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, overlaying the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for doctree.yaml,
// then <cache-dir>/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "doctree.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, DefaultConfig().Cache.DirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields the core cannot default.
func (c *Config) Validate() error {
	if c.Generator.BaseURL == "" {
		return fmt.Errorf("generator.base_url cannot be empty")
	}
	if !strings.HasPrefix(c.Generator.BaseURL, "http://") && !strings.HasPrefix(c.Generator.BaseURL, "https://") {
		return fmt.Errorf("generator.base_url must be an HTTP or HTTPS URL")
	}
	if c.Generator.Model == "" {
		return fmt.Errorf("generator.model cannot be empty")
	}
	if c.Cache.DirName == "" {
		return fmt.Errorf("cache.dir_name cannot be empty")
	}
	return nil
}

// APIKey resolves the generation-service key from the configured
// environment variable. Local OpenAI-compatible servers usually accept any
// key, so absence is not an error here; the client decides.
func (c *Config) APIKey() string {
	return os.Getenv(c.Generator.APIKeyEnv)
}

// CacheDir returns the cache directory path for a project directory.
func (c *Config) CacheDir(dir string) string {
	return filepath.Join(dir, c.Cache.DirName)
}

// CacheDBPath returns the path to the cache database.
func (c *Config) CacheDBPath(dir string) string {
	return filepath.Join(c.CacheDir(dir), "cache.db")
}

// DocumentPath returns the path of the maintained document.
func (c *Config) DocumentPath(dir string) string {
	return filepath.Join(dir, c.Document.Name)
}

// EnsureCacheDir ensures the cache directory exists.
func (c *Config) EnsureCacheDir(dir string) error {
	return os.MkdirAll(c.CacheDir(dir), 0755)
}

// UpdateGitignore adds the cache directory to the project's .gitignore,
// creating the file if needed. Idempotent.
func (c *Config) UpdateGitignore(dir string) error {
	gitignore := filepath.Join(dir, ".gitignore")
	entry := c.Cache.DirName + "/"

	data, err := os.ReadFile(gitignore)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		return os.WriteFile(gitignore, []byte(entry+"\n"), 0644)
	}

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == entry || trimmed == c.Cache.DirName {
			return nil
		}
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	return os.WriteFile(gitignore, []byte(content), 0644)
}
