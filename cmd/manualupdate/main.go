// Command manualupdate runs one pass of the scoring pipeline outside the scheduler:
// optional schedule import, provider reconciliation, grading and weekly winners.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"nfl-pickem/bootstrap"
	"nfl-pickem/config"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"

	_ "time/tzdata"
)

type options struct {
	season      int
	weeks       string
	grade       bool
	winners     int
	importWeek  int
	importAll   bool
	records     bool
	skipScoring bool
}

func parseFlags() options {
	var o options
	flag.IntVar(&o.season, "season", 0, "season to update (default: the configured season)")
	flag.StringVar(&o.weeks, "weeks", "", "comma separated weeks to reconcile (default: the current week)")
	flag.BoolVar(&o.grade, "grade", true, "grade picks against final results after reconciling")
	flag.IntVar(&o.winners, "winners", 0, "recalculate weekly winners for this week")
	flag.IntVar(&o.importWeek, "import-week", 0, "import the provider schedule for this week first")
	flag.BoolVar(&o.importAll, "import-season", false, "import the whole provider schedule first")
	flag.BoolVar(&o.records, "records", false, "refresh team records and odds")
	flag.BoolVar(&o.skipScoring, "skip-reconcile", false, "do not fetch scores from the provider")
	flag.Parse()
	return o
}

func parseWeeks(raw string) ([]int, error) {
	var weeks []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		week, err := strconv.Atoi(part)
		if err != nil || !models.ValidWeek(week) {
			return nil, errors.Newf("invalid week %q", part)
		}
		weeks = append(weeks, week)
	}
	return weeks, nil
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.ToLoggingConfig())
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		logging.Errorf("Manual update failed: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	logger := logging.WithPrefix("ManualUpdate")

	// a one-shot run must write to the real datastore
	cfg.Database.MemoryFallback = false
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	season := app.Season
	if opts.season != 0 {
		season = opts.season
	}

	switch {
	case opts.importAll:
		n, err := app.Schedule.LoadSeason(ctx, season)
		if err != nil {
			return errors.Wrap(err, "schedule import failed")
		}
		logger.Infof("Imported %d games for season %d", n, season)
	case opts.importWeek != 0:
		n, err := app.Schedule.LoadWeek(ctx, season, opts.importWeek)
		if err != nil {
			return errors.Wrap(err, "schedule import failed")
		}
		logger.Infof("Imported %d games for week %d", n, opts.importWeek)
	}

	games, err := app.Repos.Games.FindBySeason(ctx, season)
	if err != nil {
		return errors.Wrap(err, "failed to load season games")
	}
	current := models.CurrentWeek(games, time.Now())

	if !opts.skipScoring {
		weeks, err := parseWeeks(opts.weeks)
		if err != nil {
			return err
		}
		if len(weeks) == 0 {
			weeks = []int{current}
		}
		for _, week := range weeks {
			summary, err := app.Reconciler.ReconcileWeek(ctx, season, week)
			if err != nil {
				return errors.Wrapf(err, "reconcile week %d", week)
			}
			logger.Infof("Week %d: %d provider games, %d updated, %d unchanged, %d unmatched",
				week, summary.Provider, summary.Updated, summary.Unchanged, summary.Unmatched)
		}
	}

	if opts.grade {
		summary, err := app.Scoring.ProcessAllResults(ctx)
		if err != nil {
			return errors.Wrap(err, "grading failed")
		}
		logger.Infof("Graded %d results (%d picks, %d users, %d conflicts), re-settled %d weeks",
			summary.Results, summary.Picks, summary.Users, summary.Conflicts, summary.Resettled)
	}

	if opts.winners != 0 {
		result, err := app.Standings.CalculateWeeklyWinners(ctx, season, opts.winners)
		if err != nil {
			return errors.Wrapf(err, "weekly winners for week %d", opts.winners)
		}
		logger.Infof("Week %d: %d winner(s) with %d correct", opts.winners, len(result.Winners), result.HighestScore)
	}

	if opts.records {
		summary, err := app.Records.Run(ctx, season, current)
		if err != nil {
			return errors.Wrap(err, "record update failed")
		}
		logger.Infof("Records: %d teams, %d record updates, %d odds updates", summary.Teams, summary.RecordUpdates, summary.OddsUpdates)
	}
	return nil
}
