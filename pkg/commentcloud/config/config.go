// Package config loads run settings, credentials and stop words.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
)

// Config holds all run settings. Every field can be set from the YAML file
// or the environment; the environment wins.
type Config struct {
	CredentialsPath string `yaml:"credentials_path" env:"COMMENTCLOUD_CREDENTIALS" env-default:"creds.json"`
	APIKey          string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	StopwordsPath   string `yaml:"stopwords_path" env:"COMMENTCLOUD_STOPWORDS" env-default:"stopwords-ja.json"`
	OutputDir       string `yaml:"output_dir" env:"COMMENTCLOUD_OUTPUT_DIR" env-default:"data"`
	ArchivePath     string `yaml:"archive_path" env:"COMMENTCLOUD_ARCHIVE"`
	LogLevel        string `yaml:"log_level" env:"COMMENTCLOUD_LOG_LEVEL" env-default:"info"`

	YouTube   YouTube   `yaml:"youtube"`
	Words     Words     `yaml:"words"`
	WordCloud WordCloud `yaml:"word_cloud"`
}

// YouTube tunes the commentThreads.list requests.
type YouTube struct {
	PageSize   int64  `yaml:"page_size" env:"YOUTUBE_PAGE_SIZE" env-default:"0"`
	TextFormat string `yaml:"text_format" env:"YOUTUBE_TEXT_FORMAT"`
	// RequestsPerSecond paces page requests; 0 disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"YOUTUBE_RPS" env-default:"0"`
}

// Words controls which tokens are counted.
type Words struct {
	POSTags []string `yaml:"pos_tags" env:"COMMENTCLOUD_POS_TAGS" env-default:"名詞,代名詞,形容詞"`
}

// WordCloud holds the image settings.
type WordCloud struct {
	FontPath        string  `yaml:"font_path" env:"COMMENTCLOUD_FONT" env-default:"NotoSansJP-Regular.ttf"`
	Width           int     `yaml:"width" env-default:"1024"`
	Height          int     `yaml:"height" env-default:"512"`
	MaxWords        int     `yaml:"max_words" env-default:"64"`
	MinFontSize     int     `yaml:"min_font_size" env-default:"10"`
	MaxFontSize     int     `yaml:"max_font_size" env-default:"128"`
	RelativeScaling float64 `yaml:"relative_scaling" env-default:"0.8"`
	Background      string  `yaml:"background" env-default:"#ffffff"`
}

// Load reads settings from path and the environment. An empty path reads the
// environment only. A .env file in the working directory is loaded first if
// present.
func Load(path string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return cfg, missing(path, err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveAPIKey returns the configured key, falling back to the credential
// file.
func (c Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	creds, err := LoadCredentials(c.CredentialsPath)
	if err != nil {
		return "", err
	}
	return creds.YouTubeAPIKey, nil
}

func missing(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", internalerr.ErrConfigMissing, path)
	}
	return fmt.Errorf("%w: %s: %v", internalerr.ErrConfigMissing, path, err)
}
