// Package config provides configuration management for the feed generator.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the community site the articles are fetched from and linked to.
const DefaultBaseURL = "https://community.example.org"

// Configuration validation errors.
var (
	ErrMissingBaseURL     = errors.New("source.base_url is required")
	ErrInvalidBaseURL     = errors.New("source.base_url must be an absolute http(s) URL")
	ErrMissingFeedTitle   = errors.New("feed.title is required")
	ErrInvalidLanguage    = errors.New("feed.language must be a valid BCP 47 tag")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrMissingDescription = errors.New("feed.description is required")
)

// Config represents the complete generator configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Source  SourceConfig  `yaml:"source"`
	Feed    FeedConfig    `yaml:"feed"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig points at the content API. Query parameters are not configurable.
type SourceConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FeedConfig holds the channel-level metadata written into every document.
type FeedConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "warn"},
		Source:  SourceConfig{BaseURL: DefaultBaseURL},
		Feed: FeedConfig{
			Title:       "Community discussions",
			Description: "Latest articles and discussions from the community",
			Language:    "en",
		},
	}
}

// LoadConfig loads a YAML file over the defaults. An empty path returns the defaults.
func LoadConfig(filepath string) (*Config, error) {
	cfg := Default()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration and canonicalizes the base URL and language tag.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return ErrInvalidLogLevel
	}

	if c.Source.BaseURL == "" {
		return ErrMissingBaseURL
	}

	u, err := url.Parse(c.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.Source.BaseURL)
	}

	c.Source.BaseURL = strings.TrimRight(c.Source.BaseURL, "/")

	if strings.TrimSpace(c.Feed.Title) == "" {
		return ErrMissingFeedTitle
	}

	if strings.TrimSpace(c.Feed.Description) == "" {
		return ErrMissingDescription
	}

	tag, err := language.Parse(c.Feed.Language)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, c.Feed.Language)
	}

	c.Feed.Language = tag.String()

	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{BaseURL: %s, Language: %s, LogLevel: %s}",
		c.Source.BaseURL,
		c.Feed.Language,
		c.Logging.Level,
	)
}
