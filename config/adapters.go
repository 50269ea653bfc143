package config

import (
	"os"

	"nfl-pickem/database"
	"nfl-pickem/logging"
	"nfl-pickem/services"
)

// ToDatabaseConfig converts Config to database.Config
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Username: c.Database.Username,
		Password: c.Database.Password,
		Database: c.Database.Database,
		Timeout:  c.Database.Timeout,
	}
}

// ToLoggingConfig converts Config to logging.Config
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Logging.Level,
		Output:      os.Stdout,
		Prefix:      c.Logging.Prefix,
		EnableColor: c.Logging.EnableColor,
		JSON:        c.Logging.JSON,
	}
}

// ToSchedulerConfig converts Config to services.SchedulerConfig
func (c *Config) ToSchedulerConfig() services.SchedulerConfig {
	return services.SchedulerConfig{
		Location:          c.Location(),
		ScoresSpec:        c.Scheduler.ScoresSpec,
		ResultsSpec:       c.Scheduler.ResultsSpec,
		WeeklyWinnersSpec: c.Scheduler.WeeklyWinnersSpec,
		RecordsSpec:       c.Scheduler.RecordsSpec,
		OverlapPolicy:     services.OverlapPolicy(c.Scheduler.OverlapPolicy),
		ReconcileWorkers:  c.Scheduler.ReconcileWorkers,
		LookbackWeeks:     c.Scheduler.LookbackWeeks,
		JobTimeout:        c.Scheduler.JobTimeout,
	}
}

// ToProviderConfig converts Config to services.ESPNConfig
func (c *Config) ToProviderConfig() services.ESPNConfig {
	return services.ESPNConfig{
		BaseURL:      c.Provider.BaseURL,
		StandingsURL: c.Provider.StandingsURL,
		Timeout:      c.Provider.Timeout,
		MaxRetries:   c.Provider.MaxRetries,
		RetryBackoff: c.Provider.RetryBackoff,
	}
}

// ToTiebreakerPolicy converts the configured policy name
func (c *Config) ToTiebreakerPolicy() services.TiebreakerPolicy {
	return services.TiebreakerPolicy(c.App.TiebreakerPolicy)
}
