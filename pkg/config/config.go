package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	APIs     APIConfig      `yaml:"apis"`
	Scrapers ScraperConfig  `yaml:"scrapers"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig for HTTP server settings
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
}

// DatabaseConfig selects the shared cache backend.
// Driver is "sqlite" (Path) or "postgres" (URL, or the discrete fields).
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// APIConfig holds all external API configurations
type APIConfig struct {
	Ticketmaster TicketmasterConfig `yaml:"ticketmaster"`
	RapidAPI     RapidAPIConfig     `yaml:"rapidapi"`
	Bandsintown  BandsintownConfig  `yaml:"bandsintown"`
}

// TicketmasterConfig for Ticketmaster Discovery API
type TicketmasterConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	DailyQuota int    `yaml:"daily_quota"`
}

// RapidAPIConfig for the Real-Time Events Search API
type RapidAPIConfig struct {
	Key     string `yaml:"key"`
	Host    string `yaml:"host"`
	BaseURL string `yaml:"base_url"`
}

// BandsintownConfig for Bandsintown API
type BandsintownConfig struct {
	AppID   string `yaml:"app_id"`
	BaseURL string `yaml:"base_url"`
}

// ScraperConfig for page extraction
type ScraperConfig struct {
	UserAgent string `yaml:"user_agent"`
	Timeout   int    `yaml:"timeout_seconds"`
}

// CacheConfig for caching settings
type CacheConfig struct {
	TTLHours            int `yaml:"ttl_hours"`
	StoreTimeoutSeconds int `yaml:"store_timeout_seconds"`
}

type SearchConfig struct {
	AllowedCountries      []string `yaml:"allowed_countries"`
	DefaultLimit          int      `yaml:"default_limit"`
	MaxConcurrentRequests int      `yaml:"max_concurrent_requests"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from file and environment variables.
// ${VAR} references in the file are expanded before parsing. Environment
// variables override file values using the pattern GIGSCOUT_SECTION_KEY.
func Load(configPath string) (*Config, error) {
	config := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyDefaults(config)

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 30
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 60
	}
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite"
	}
	if config.Database.Path == "" {
		config.Database.Path = "gigscout.db"
	}
	if config.Database.Port == 0 {
		config.Database.Port = 5432
	}
	if config.Database.SSLMode == "" {
		config.Database.SSLMode = "disable"
	}
	if config.APIs.Ticketmaster.BaseURL == "" {
		config.APIs.Ticketmaster.BaseURL = "https://app.ticketmaster.com/discovery/v2"
	}
	if config.APIs.Ticketmaster.DailyQuota == 0 {
		config.APIs.Ticketmaster.DailyQuota = 5000
	}
	if config.APIs.RapidAPI.Host == "" {
		config.APIs.RapidAPI.Host = "real-time-events-search.p.rapidapi.com"
	}
	if config.APIs.RapidAPI.BaseURL == "" {
		config.APIs.RapidAPI.BaseURL = "https://" + config.APIs.RapidAPI.Host
	}
	if config.APIs.Bandsintown.BaseURL == "" {
		config.APIs.Bandsintown.BaseURL = "https://rest.bandsintown.com"
	}
	if config.Scrapers.UserAgent == "" {
		config.Scrapers.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if config.Scrapers.Timeout == 0 {
		config.Scrapers.Timeout = 20
	}
	if config.Cache.TTLHours == 0 {
		config.Cache.TTLHours = 24
	}
	if config.Cache.StoreTimeoutSeconds == 0 {
		config.Cache.StoreTimeoutSeconds = 5
	}
	if len(config.Search.AllowedCountries) == 0 {
		config.Search.AllowedCountries = DefaultAllowedCountries()
	}
	if config.Search.DefaultLimit == 0 {
		config.Search.DefaultLimit = 50
	}
	if config.Search.MaxConcurrentRequests == 0 {
		config.Search.MaxConcurrentRequests = 5
	}
	if config.Search.RequestTimeoutSeconds == 0 {
		config.Search.RequestTimeoutSeconds = 45
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// DefaultAllowedCountries is the European allow-list used by the geographic filter.
func DefaultAllowedCountries() []string {
	return []string{
		"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR",
		"DE", "GR", "HU", "IE", "IT", "LV", "LT", "LU", "MT", "NL",
		"PL", "PT", "RO", "SK", "SI", "ES", "SE", "CH", "GB", "NO",
		"IS", "TR", "UA", "RU",
	}
}

func applyEnvOverrides(config *Config) error {
	// Server overrides
	if v := os.Getenv("GIGSCOUT_SERVER_PORT"); v != "" {
		config.Server.Port = v
	}

	// Database overrides
	if v := os.Getenv("GIGSCOUT_DATABASE_DRIVER"); v != "" {
		config.Database.Driver = v
	}
	if v := os.Getenv("GIGSCOUT_DATABASE_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := firstEnv("GIGSCOUT_DATABASE_URL", "DATABASE_URL"); v != "" {
		config.Database.URL = v
	}
	if v := os.Getenv("GIGSCOUT_DATABASE_HOST"); v != "" {
		config.Database.Host = v
	}
	if v := os.Getenv("GIGSCOUT_DATABASE_USER"); v != "" {
		config.Database.User = v
	}
	if v := os.Getenv("GIGSCOUT_DATABASE_PASSWORD"); v != "" {
		config.Database.Password = v
	}
	if v := os.Getenv("GIGSCOUT_DATABASE_NAME"); v != "" {
		config.Database.Database = v
	}

	// API key overrides
	if v := firstEnv("GIGSCOUT_TICKETMASTER_API_KEY", "TICKETMASTER_API_KEY"); v != "" {
		config.APIs.Ticketmaster.APIKey = v
	}
	if v := firstEnv("GIGSCOUT_RAPIDAPI_KEY", "RAPIDAPI_KEY"); v != "" {
		config.APIs.RapidAPI.Key = v
	}
	if v := os.Getenv("GIGSCOUT_BANDSINTOWN_APP_ID"); v != "" {
		config.APIs.Bandsintown.AppID = v
	}

	// Cache and search overrides
	if v := os.Getenv("GIGSCOUT_CACHE_TTL_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GIGSCOUT_CACHE_TTL_HOURS: %w", err)
		}
		config.Cache.TTLHours = n
	}
	if v := os.Getenv("GIGSCOUT_SEARCH_ALLOWED_COUNTRIES"); v != "" {
		var codes []string
		for _, code := range strings.Split(v, ",") {
			if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
				codes = append(codes, code)
			}
		}
		config.Search.AllowedCountries = codes
	}

	if v := os.Getenv("GIGSCOUT_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv("GIGSCOUT_LOG_FORMAT"); v != "" {
		config.Log.Format = v
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// CacheTTL returns the configured expiry of both cache tiers.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// StoreTimeout bounds every shared cache call.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Cache.StoreTimeoutSeconds) * time.Second
}

// RequestTimeout bounds one aggregation fan-out.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Search.RequestTimeoutSeconds) * time.Second
}

// HasEventProvider reports whether at least one event provider has credentials.
func (c *Config) HasEventProvider() bool {
	return c.APIs.Ticketmaster.APIKey != "" || c.APIs.RapidAPI.Key != "" || c.APIs.Bandsintown.AppID != ""
}

// Validate checks if required configurations are present. Missing provider
// credentials are not fatal; those providers are reported as not configured.
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			problems = append(problems, "database.path")
		}
	case "postgres":
		if c.Database.URL == "" && (c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "") {
			problems = append(problems, "database.url or database.host/user/database")
		}
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q (want sqlite or postgres)", c.Database.Driver))
	}

	if c.Cache.TTLHours < 0 {
		problems = append(problems, "cache.ttl_hours must not be negative")
	}
	if c.Search.MaxConcurrentRequests < 1 {
		problems = append(problems, "search.max_concurrent_requests must be positive")
	}
	for _, code := range c.Search.AllowedCountries {
		if len(code) != 2 {
			problems = append(problems, fmt.Sprintf("search.allowed_countries entry %q", code))
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q (want text or json)", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}

	return nil
}
