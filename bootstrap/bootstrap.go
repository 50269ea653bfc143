// Package bootstrap wires configuration, storage and services into a runnable application.
// The HTTP server and the operator CLI share it.
package bootstrap

import (
	"context"
	"time"

	"nfl-pickem/config"
	"nfl-pickem/database"
	"nfl-pickem/database/memory"
	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/services"

	"github.com/cockroachdb/errors"
)

// Storage names reported by health checks
const (
	StorageMongo  = "mongodb"
	StorageMemory = "memory"
)

// Repositories is the set of collections the services run on
type Repositories struct {
	Games         interfaces.GameRepository
	Results       interfaces.GameResultRepository
	Picks         interfaces.PickRepository
	Users         interfaces.UserRepository
	Activities    interfaces.ActivityRepository
	WeeklyResults interfaces.WeeklyResultRepository
}

// App holds every wired service
type App struct {
	Config  *config.Config
	Season  int
	Storage string
	Repos   Repositories

	Provider   *services.ESPNService
	Activity   *services.ActivityLogger
	Reconciler *services.ReconciliationService
	Scoring    *services.ScoringService
	Standings  *services.StandingsService
	Picks      *services.PickService
	Games      *services.GameService
	Users      *services.UserService
	Schedule   *services.ScheduleLoader
	Records    *services.RecordUpdateService
	Auth       *services.AuthService
	Updater    *services.BackgroundUpdater

	db     *database.MongoDB
	logger *logging.Logger
}

// New connects storage and builds the services. Mongo failures fall back to the in-memory
// store when the configuration allows it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		Season: cfg.Season(time.Now()),
		logger: logging.WithPrefix("Bootstrap"),
	}

	if err := a.connect(); err != nil {
		return nil, err
	}

	a.Provider = services.NewESPNService(cfg.ToProviderConfig())
	a.Activity = services.NewActivityLogger(a.Repos.Activities)
	a.Reconciler = services.NewReconciliationService(a.Repos.Games, a.Repos.Results, a.Activity, a.Provider)
	a.Scoring = services.NewScoringService(a.Repos.Results, a.Repos.Picks, a.Repos.Users)
	a.Standings = services.NewStandingsService(a.Repos.Games, a.Repos.Results, a.Repos.Picks, a.Repos.Users,
		a.Repos.WeeklyResults, cfg.ToTiebreakerPolicy())
	a.Scoring.WithWeekSettler(a.Standings)
	a.Picks = services.NewPickService(a.Repos.Games, a.Repos.Results, a.Repos.Picks, a.Repos.Users, a.Activity, a.Scoring)
	a.Games = services.NewGameService(a.Repos.Games, a.Repos.Picks, cfg.App.LockOffset)
	a.Users = services.NewUserService(a.Repos.Users)
	a.Schedule = services.NewScheduleLoader(a.Provider, a.Repos.Games, cfg.App.LockOffset)
	a.Records = services.NewRecordUpdateService(a.Provider, a.Repos.Games, cfg.Provider.OddsConcurrency)
	a.Auth = services.NewAuthService(a.Repos.Users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Updater = services.NewBackgroundUpdater(cfg.ToSchedulerConfig(), a.Season, a.Repos.Games,
		a.Reconciler, a.Scoring, a.Standings, a.Records)

	if err := a.seedUsers(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.logger.Infof("Wired season %d on %s storage", a.Season, a.Storage)
	return a, nil
}

func (a *App) connect() error {
	db, err := database.NewMongoConnection(a.Config.ToDatabaseConfig())
	if err != nil {
		if !a.Config.Database.MemoryFallback {
			return errors.Wrap(err, "database connection failed")
		}
		a.logger.Warnf("Database connection failed: %v", err)
		a.logger.Warn("Continuing with the in-memory store, data will not survive a restart")

		store := memory.NewStore()
		a.Storage = StorageMemory
		a.Repos = Repositories{
			Games:         store.Games(),
			Results:       store.Results(),
			Picks:         store.Picks(),
			Users:         store.Users(),
			Activities:    store.Activities(),
			WeeklyResults: store.WeeklyResults(),
		}
		return nil
	}

	a.db = db
	a.Storage = StorageMongo
	a.Repos = Repositories{
		Games:         database.NewMongoGameRepository(db),
		Results:       database.NewMongoGameResultRepository(db),
		Picks:         database.NewMongoPickRepository(db),
		Users:         database.NewMongoUserRepository(db),
		Activities:    database.NewMongoActivityRepository(db),
		WeeklyResults: database.NewMongoWeeklyResultRepository(db),
	}
	return nil
}

// seedUsers creates the configured admin and any roster file users that do not exist yet
func (a *App) seedUsers(ctx context.Context) error {
	auth := a.Config.Auth
	var seeds []services.SeedUser
	if auth.AdminEmail != "" {
		seeds = append(seeds, services.SeedUser{
			Name:     auth.AdminName,
			Email:    auth.AdminEmail,
			Password: auth.AdminPassword,
			IsAdmin:  true,
		})
	}
	if auth.SeedUsersFile != "" {
		roster, err := services.LoadSeedUsers(auth.SeedUsersFile)
		if err != nil {
			return err
		}
		seeds = append(seeds, roster...)
	}
	if len(seeds) == 0 {
		return nil
	}

	created, err := services.NewUserSeeder(a.Repos.Users).SeedUsers(ctx, seeds)
	if err != nil {
		return errors.Wrap(err, "failed to seed users")
	}
	if created > 0 {
		a.logger.Infof("Seeded %d of %d users", created, len(seeds))
	}
	return nil
}

// Ping checks the datastore; nil for the in-memory store
func (a *App) Ping() func(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.TestConnection
}

// Close stops the scheduler and releases the database connection
func (a *App) Close() {
	if a.Updater != nil {
		a.Updater.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Errorf("Failed to close database: %v", err)
		}
	}
}
