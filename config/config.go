package config

import (
	"fmt"
	"strings"
	"time"

	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Tiebreaker policies for weekly winners
const (
	TiebreakerNone         = "none"
	TiebreakerClosestTotal = "closest_total"
)

// Scheduler overlap policies
const (
	OverlapSkip    = "skip"
	OverlapRestart = "restart"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Logging   LoggingConfig   `json:"logging"`
	Auth      AuthConfig      `json:"auth"`
	App       AppConfig       `json:"app"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Provider  ProviderConfig  `json:"provider"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `json:"port" envconfig:"SERVER_PORT" default:"8080"`
	Host            string        `json:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Environment     string        `json:"environment" envconfig:"ENVIRONMENT" default:"development"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host           string        `json:"host" envconfig:"DB_HOST" default:"localhost"`
	Port           string        `json:"port" envconfig:"DB_PORT" default:"27017"`
	Username       string        `json:"username" envconfig:"DB_USERNAME"`
	Password       string        `json:"-" envconfig:"DB_PASSWORD"`
	Database       string        `json:"database" envconfig:"DB_NAME" default:"nfl_pickem"`
	Timeout        time.Duration `json:"timeout" envconfig:"DB_TIMEOUT" default:"10s"`
	MemoryFallback bool          `json:"memory_fallback" envconfig:"DB_MEMORY_FALLBACK" default:"true"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level" envconfig:"LOG_LEVEL" default:"info"`
	Prefix      string `json:"prefix" envconfig:"LOG_PREFIX" default:"nfl-pickem"`
	EnableColor bool   `json:"enable_color" envconfig:"LOG_COLOR" default:"true"`
	JSON        bool   `json:"json" envconfig:"LOG_JSON" default:"false"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string        `json:"-" envconfig:"JWT_SECRET" default:"your-secret-key-change-in-production"`
	TokenTTL      time.Duration `json:"token_ttl" envconfig:"TOKEN_TTL" default:"24h"`
	AdminName     string        `json:"admin_name" envconfig:"ADMIN_NAME" default:"Admin"`
	AdminEmail    string        `json:"admin_email" envconfig:"ADMIN_EMAIL"`
	AdminPassword string        `json:"-" envconfig:"ADMIN_PASSWORD"`
	// SeedUsersFile is a JSON roster of users created at startup when missing
	SeedUsersFile string `json:"seed_users_file" envconfig:"SEED_USERS_FILE"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	// LeagueSeason forces the season; 0 derives it from the clock at startup
	LeagueSeason     int           `json:"league_season" envconfig:"LEAGUE_SEASON" default:"0"`
	Timezone         string        `json:"timezone" envconfig:"APP_TIMEZONE" default:"America/New_York"`
	LockOffset       time.Duration `json:"lock_offset" envconfig:"LOCK_OFFSET" default:"1h"`
	TiebreakerPolicy string        `json:"tiebreaker_policy" envconfig:"TIEBREAKER_POLICY" default:"none"`
}

// SchedulerConfig holds cron and worker settings for the background jobs
type SchedulerConfig struct {
	Enabled           bool          `json:"enabled" envconfig:"SCHEDULER_ENABLED" default:"true"`
	ScoresSpec        string        `json:"scores_spec" envconfig:"SCORES_CRON" default:"*/2 * * * *"`
	ResultsSpec       string        `json:"results_spec" envconfig:"RESULTS_CRON" default:"*/5 * * * *"`
	WeeklyWinnersSpec string        `json:"weekly_winners_spec" envconfig:"WEEKLY_WINNERS_CRON" default:"0 2 * * 1"`
	RecordsSpec       string        `json:"records_spec" envconfig:"RECORDS_CRON" default:"0 6 * * *"`
	OverlapPolicy     string        `json:"overlap_policy" envconfig:"SCHEDULER_OVERLAP_POLICY" default:"skip"`
	ReconcileWorkers  int           `json:"reconcile_workers" envconfig:"RECONCILE_WORKERS" default:"4"`
	LookbackWeeks     int           `json:"lookback_weeks" envconfig:"RECONCILE_LOOKBACK_WEEKS" default:"1"`
	JobTimeout        time.Duration `json:"job_timeout" envconfig:"JOB_TIMEOUT" default:"4m"`
}

// ProviderConfig holds score provider settings
type ProviderConfig struct {
	BaseURL         string        `json:"base_url" envconfig:"ESPN_BASE_URL" default:"https://site.api.espn.com/apis/site/v2/sports/football/nfl"`
	StandingsURL    string        `json:"standings_url" envconfig:"ESPN_STANDINGS_URL" default:"https://sports.core.api.espn.com/v2/sports/football/leagues/nfl"`
	Timeout         time.Duration `json:"timeout" envconfig:"ESPN_TIMEOUT" default:"10s"`
	MaxRetries      int           `json:"max_retries" envconfig:"ESPN_MAX_RETRIES" default:"2"`
	RetryBackoff    time.Duration `json:"retry_backoff" envconfig:"ESPN_RETRY_BACKOFF" default:"500ms"`
	OddsConcurrency int           `json:"odds_concurrency" envconfig:"ODDS_CONCURRENCY" default:"4"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" envconfig:"METRICS_ENABLED" default:"true"`
	Path    string `json:"path" envconfig:"METRICS_PATH" default:"/metrics"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logging.Debugf("Could not load .env file: %v", err)
	}

	config := &Config{}
	sections := []interface{}{
		&config.Server,
		&config.Database,
		&config.Logging,
		&config.Auth,
		&config.App,
		&config.Scheduler,
		&config.Provider,
		&config.Metrics,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// Validate validates the configuration for required fields and sensible values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("database port is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.JWTSecret == defaultJWTSecret && !c.IsDevelopment() {
		return fmt.Errorf("JWT secret must be changed in production")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if c.App.LeagueSeason != 0 && (c.App.LeagueSeason < 2000 || c.App.LeagueSeason > 2100) {
		return fmt.Errorf("league season must be between 2000 and 2100, got: %d", c.App.LeagueSeason)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}
	if c.App.LockOffset < 0 {
		return fmt.Errorf("lock offset must not be negative")
	}
	switch c.App.TiebreakerPolicy {
	case TiebreakerNone, TiebreakerClosestTotal:
	default:
		return fmt.Errorf("unknown tiebreaker policy %q", c.App.TiebreakerPolicy)
	}

	switch c.Scheduler.OverlapPolicy {
	case OverlapSkip, OverlapRestart:
	default:
		return fmt.Errorf("unknown scheduler overlap policy %q", c.Scheduler.OverlapPolicy)
	}
	if c.Scheduler.ReconcileWorkers < 1 {
		return fmt.Errorf("reconcile workers must be at least 1")
	}
	if c.Scheduler.LookbackWeeks < 0 {
		return fmt.Errorf("lookback weeks must not be negative")
	}

	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base URL is required")
	}
	if c.Provider.Timeout < 10*time.Second {
		return fmt.Errorf("provider timeout must be at least 10s, got: %s", c.Provider.Timeout)
	}

	return nil
}

// Season returns the league season in effect at now, honoring LEAGUE_SEASON
func (c *Config) Season(now time.Time) int {
	if c.App.LeagueSeason != 0 {
		return c.App.LeagueSeason
	}
	return models.LeagueSeason(now.In(c.Location()))
}

// Location returns the league's timezone; Validate guarantees it loads
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// GetMongoURI returns the MongoDB connection URI
func (c *Config) GetMongoURI() string {
	if c.Database.Username != "" && c.Database.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=%s",
			c.Database.Username, c.Database.Password,
			c.Database.Host, c.Database.Port,
			c.Database.Database, c.Database.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s",
		c.Database.Host, c.Database.Port, c.Database.Database)
}

// LogConfiguration logs the current configuration (without sensitive data)
func (c *Config) LogConfiguration() {
	logging.Info("=== Application Configuration ===")
	logging.Infof("Server: %s (Environment: %s)", c.GetServerAddress(), c.Server.Environment)
	logging.Infof("Database: %s:%s/%s (Username: %s, Auth: %t, MemoryFallback: %t)",
		c.Database.Host, c.Database.Port, c.Database.Database,
		c.Database.Username, c.Database.Password != "", c.Database.MemoryFallback)
	logging.Infof("Logging: Level=%s, Prefix=%s, Color=%t, JSON=%t",
		c.Logging.Level, c.Logging.Prefix, c.Logging.EnableColor, c.Logging.JSON)
	logging.Infof("Auth: TokenTTL=%s, SeedAdmin=%t, SeedUsersFile=%q", c.Auth.TokenTTL, c.Auth.AdminEmail != "", c.Auth.SeedUsersFile)
	logging.Infof("App: Season=%d, Timezone=%s, LockOffset=%s, Tiebreaker=%s",
		c.Season(time.Now()), c.App.Timezone, c.App.LockOffset, c.App.TiebreakerPolicy)
	logging.Infof("Scheduler: Enabled=%t, Scores=%q, Results=%q, WeeklyWinners=%q, Records=%q, Overlap=%s, Workers=%d",
		c.Scheduler.Enabled, c.Scheduler.ScoresSpec, c.Scheduler.ResultsSpec,
		c.Scheduler.WeeklyWinnersSpec, c.Scheduler.RecordsSpec, c.Scheduler.OverlapPolicy, c.Scheduler.ReconcileWorkers)
	logging.Infof("Provider: %s (Timeout=%s, Retries=%d)", c.Provider.BaseURL, c.Provider.Timeout, c.Provider.MaxRetries)
	logging.Infof("Metrics: Enabled=%t, Path=%s", c.Metrics.Enabled, c.Metrics.Path)
	logging.Info("================================")
}
