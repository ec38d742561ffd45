// Package config loads boardd configuration from defaults, an optional YAML
// file and environment overrides, in that order.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	// The board runs in containers without a zoneinfo database; embed one
	// so Pacific/Auckland always resolves.
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"workshopboard/internal/errs"
)

type Config struct {
	Cin7   Cin7Config   `yaml:"cin7"`
	Board  BoardConfig  `yaml:"board"`
	Cache  CacheConfig  `yaml:"cache"`
	Server ServerConfig `yaml:"server"`
}

// Cin7Config holds the ERP client settings. Username and APIKey have no
// defaults and must come from the file or environment.
type Cin7Config struct {
	BaseURL          string `yaml:"base_url"`
	Username         string `yaml:"username"`
	APIKey           string `yaml:"api_key"`
	WebURLBase       string `yaml:"web_url_base"`
	CustomerAppsLink string `yaml:"customer_apps_link"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MaxRetries       int    `yaml:"max_retries"`
	RetryDelayMillis int    `yaml:"retry_delay_millis"`
	PageSize         int    `yaml:"page_size"`
}

type BoardConfig struct {
	WorkshopBranch     string   `yaml:"workshop_branch"`
	DueSoonWindowDays  int      `yaml:"due_soon_window_days"`
	TVSectionCap       int      `yaml:"tv_section_cap"`
	DisplayedStages    []string `yaml:"displayed_stages"`
	Timezone           string   `yaml:"timezone"`
	UpcomingWindowDays int      `yaml:"upcoming_window_days"`
}

type CacheConfig struct {
	TTLSeconds                      int `yaml:"ttl_seconds"`
	ScheduledRefreshIntervalSeconds int `yaml:"scheduled_refresh_interval_seconds"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Defaults returns the documented default configuration.
func Defaults() *Config {
	return &Config{
		Cin7: Cin7Config{
			BaseURL:          "https://api.cin7.com/api/v1",
			WebURLBase:       "https://go.cin7.com/Cloud/TransactionEntry/TransactionEntry.aspx",
			TimeoutSeconds:   30,
			MaxRetries:       3,
			RetryDelayMillis: 1000,
			PageSize:         250,
		},
		Board: BoardConfig{
			WorkshopBranch:     "Locksmiths",
			DueSoonWindowDays:  7,
			TVSectionCap:       6,
			DisplayedStages:    []string{"New", "Processing", "Job Complete"},
			Timezone:           "Pacific/Auckland",
			UpcomingWindowDays: 30,
		},
		Cache: CacheConfig{
			TTLSeconds:                      300,
			ScheduledRefreshIntervalSeconds: 43200,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the config from defaults, then the YAML file at path (skipped
// when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Config("reading %s: %v", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Config("parsing %s: %v", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Cin7.BaseURL, "BOARD_CIN7_BASE_URL")
	setString(&c.Cin7.Username, "BOARD_CIN7_USERNAME")
	setString(&c.Cin7.APIKey, "BOARD_CIN7_KEY")
	setString(&c.Cin7.WebURLBase, "BOARD_CIN7_WEB_URL_BASE")
	setString(&c.Cin7.CustomerAppsLink, "BOARD_CIN7_APPS_LINK")
	setString(&c.Board.WorkshopBranch, "BOARD_WORKSHOP_BRANCH")
	setInt(&c.Board.DueSoonWindowDays, "BOARD_DUE_SOON_DAYS")
	setInt(&c.Board.TVSectionCap, "BOARD_TV_SECTION_CAP")
	setString(&c.Board.Timezone, "BOARD_TIMEZONE")
	setInt(&c.Cache.TTLSeconds, "BOARD_CACHE_TTL_SECONDS")
	setInt(&c.Cache.ScheduledRefreshIntervalSeconds, "BOARD_REFRESH_INTERVAL_SECONDS")
	setString(&c.Server.Addr, "BOARD_ADDR")

	if v := os.Getenv("BOARD_DISPLAYED_STAGES"); v != "" {
		var stages []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				stages = append(stages, s)
			}
		}
		c.Board.DisplayedStages = stages
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate rejects configurations the engine cannot run with. Failures here
// are fatal at startup, never per-request.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Board.WorkshopBranch) == "" {
		return errs.Config("workshop branch name must not be empty")
	}
	if c.Board.DueSoonWindowDays < 0 {
		return errs.Config("due-soon window must not be negative, got %d", c.Board.DueSoonWindowDays)
	}
	if c.Board.TVSectionCap <= 0 {
		return errs.Config("tv section cap must be positive, got %d", c.Board.TVSectionCap)
	}
	if c.Cache.TTLSeconds <= 0 {
		return errs.Config("cache ttl must be positive, got %d", c.Cache.TTLSeconds)
	}
	if c.Cache.ScheduledRefreshIntervalSeconds <= 0 {
		return errs.Config("scheduled refresh interval must be positive, got %d", c.Cache.ScheduledRefreshIntervalSeconds)
	}
	if _, err := time.LoadLocation(c.Board.Timezone); err != nil {
		return errs.Config("unknown timezone %q", c.Board.Timezone)
	}
	if c.Cin7.BaseURL == "" {
		return errs.Config("cin7 base url must not be empty")
	}
	return nil
}

// Location resolves the operational timezone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Board.Timezone)
	if err != nil {
		// Validate rejects unknown zones; this is unreachable after a
		// successful Load.
		return time.UTC
	}
	return loc
}

func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Cache.ScheduledRefreshIntervalSeconds) * time.Second
}
