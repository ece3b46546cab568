package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/newsdesk/extract"
	"github.com/pevans/newsdesk/scraper"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

// StoreConfig selects and configures the live document store.
type StoreConfig struct {
	Type       string `yaml:"type"`
	DSN        string `yaml:"dsn"`
	Collection string `yaml:"collection"`
}

// HarvestConfig overrides the scroll loop and pacing settings.
type HarvestConfig struct {
	SettleInterval time.Duration `yaml:"settle_interval"`
	MaxStagnation  int           `yaml:"max_stagnation"`
	MaxScrolls     int           `yaml:"max_scrolls"`
	PaceMin        time.Duration `yaml:"pace_min"`
	PaceMax        time.Duration `yaml:"pace_max"`
	Headless       *bool         `yaml:"headless"`
	ChromePath     string        `yaml:"chrome_path"`
}

// KeywordsConfig configures keyword extraction and the jieba dictionaries.
type KeywordsConfig struct {
	extract.KeywordConfig `yaml:",inline"`
	DictPath              string `yaml:"dict_path"`
	HMMPath               string `yaml:"hmm_path"`
	UserDictPath          string `yaml:"user_dict_path"`
	IDFPath               string `yaml:"idf_path"`
	StopWordsPath         string `yaml:"stop_words_path"`
}

// DictPaths returns the jieba dictionary paths, or nil when none are set.
func (k KeywordsConfig) DictPaths() []string {
	paths := []string{k.DictPath, k.HMMPath, k.UserDictPath, k.IDFPath, k.StopWordsPath}
	for _, p := range paths {
		if p != "" {
			return paths
		}
	}
	return nil
}

// FilesConfig locates the local data files.
type FilesConfig struct {
	Archive string `yaml:"archive"`
	Raw     string `yaml:"raw"`
	Cleaned string `yaml:"cleaned"`
}

// MirrorConfig configures the object storage copy of the archive.
type MirrorConfig struct {
	Bucket       string `yaml:"bucket"`
	Key          string `yaml:"key"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// RedisConfig configures the shared table cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// APIConfig configures the read API and its schedules.
type APIConfig struct {
	Addr            string `yaml:"addr"`
	AdvanceSchedule string `yaml:"advance_schedule"`
	CrawlSchedule   string `yaml:"crawl_schedule"`
}

// FileConfig represents the structure of ~/.newsdesk/config.yaml.
type FileConfig struct {
	LogLevel string                 `yaml:"log_level"`
	Scraper  *scraper.ScraperConfig `yaml:"scraper"`
	Harvest  HarvestConfig          `yaml:"harvest"`
	Byline   *extract.BylineConfig  `yaml:"byline"`
	Keywords KeywordsConfig         `yaml:"keywords"`
	Store    StoreConfig            `yaml:"store"`
	Files    FilesConfig            `yaml:"files"`
	Mirror   MirrorConfig           `yaml:"mirror"`
	Redis    RedisConfig            `yaml:"redis"`
	API      APIConfig              `yaml:"api"`
}

// DefaultConfigPath returns ~/.newsdesk/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newsdesk", "config.yaml"), nil
}

// LoadConfigFile loads configuration from ~/.newsdesk/config.yaml. Returns
// nil if the file doesn't exist.
func LoadConfigFile() (*FileConfig, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigPath(configPath)
}

// LoadConfigPath loads configuration from path. Returns nil if the file
// doesn't exist and an error if it exists but cannot be parsed.
func LoadConfigPath(configPath string) (*FileConfig, error) {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	switch cfg.Store.Type {
	case "", StoreSQLite, StoreFirestore:
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}

	return &cfg, nil
}

// SiteConfig returns the ETtoday scraper settings with any file overrides
// applied.
func (c *FileConfig) SiteConfig() *scraper.ScraperConfig {
	site := scraper.NewScraperConfig()
	if c != nil {
		site.Merge(c.Scraper)
	}
	return site
}

// BylineConfig returns the default byline rules with the non-empty file
// settings applied.
func (c *FileConfig) BylineConfig() extract.BylineConfig {
	cfg := extract.DefaultBylineConfig()
	if c == nil || c.Byline == nil {
		return cfg
	}

	b := c.Byline
	if len(b.Patterns) > 0 {
		cfg.Patterns = b.Patterns
	}
	if b.ForbiddenRunes != "" {
		cfg.ForbiddenRunes = b.ForbiddenRunes
	}
	if b.MinLength > 0 {
		cfg.MinLength = b.MinLength
	}
	if b.MaxLength > 0 {
		cfg.MaxLength = b.MaxLength
	}
	if len(b.BlockList) > 0 {
		cfg.BlockList = b.BlockList
	}
	if b.ImageGlyphs != "" {
		cfg.ImageGlyphs = b.ImageGlyphs
	}
	return cfg
}
