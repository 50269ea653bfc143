package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/metrics"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
)

// OverlapPolicy decides what happens when a trigger fires while its previous run is still going
type OverlapPolicy string

const (
	// OverlapSkip drops the new tick
	OverlapSkip OverlapPolicy = "skip"
	// OverlapRestart cancels the running pass and starts a fresh one
	OverlapRestart OverlapPolicy = "restart"
)

// Job names, also used as metric labels and in the admin run endpoint
const (
	JobScores        = "scores"
	JobResults       = "results"
	JobWeeklyWinners = "weekly-winners"
	JobRecords       = "records"
)

// SchedulerConfig holds the trigger schedule and worker settings
type SchedulerConfig struct {
	Location          *time.Location
	ScoresSpec        string
	ResultsSpec       string
	WeeklyWinnersSpec string
	RecordsSpec       string
	OverlapPolicy     OverlapPolicy
	ReconcileWorkers  int
	LookbackWeeks     int
	JobTimeout        time.Duration
}

// DefaultSchedulerConfig mirrors the production schedule
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Location:          time.UTC,
		ScoresSpec:        "*/2 * * * *",
		ResultsSpec:       "*/5 * * * *",
		WeeklyWinnersSpec: "0 2 * * 1",
		RecordsSpec:       "0 6 * * *",
		OverlapPolicy:     OverlapSkip,
		ReconcileWorkers:  2,
		LookbackWeeks:     1,
		JobTimeout:        10 * time.Minute,
	}
}

// ErrJobRunning is returned by RunJob when the job is already running and the policy is skip
var ErrJobRunning = errors.Mark(errors.New("job already running"), models.ErrConflict)

// jobGuard keeps one run of a job at a time
type jobGuard struct {
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// acquire claims the guard. Under OverlapRestart it cancels the running pass and waits for it.
func (g *jobGuard) acquire(parent context.Context, policy OverlapPolicy, timeout time.Duration) (context.Context, bool) {
	for {
		g.mu.Lock()
		if !g.running {
			var ctx context.Context
			var cancel context.CancelFunc
			if timeout > 0 {
				ctx, cancel = context.WithTimeout(parent, timeout)
			} else {
				ctx, cancel = context.WithCancel(parent)
			}
			g.running = true
			g.cancel = cancel
			g.done = make(chan struct{})
			g.mu.Unlock()
			return ctx, true
		}
		if policy != OverlapRestart {
			g.mu.Unlock()
			return nil, false
		}
		cancel, done := g.cancel, g.done
		g.mu.Unlock()

		cancel()
		select {
		case <-done:
		case <-parent.Done():
			return nil, false
		}
	}
}

func (g *jobGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.running = false
	g.cancel = nil
	close(g.done)
}

func (g *jobGuard) isRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// BackgroundUpdater runs the periodic reconcile, grading, weekly winner and record jobs
type BackgroundUpdater struct {
	config     SchedulerConfig
	season     int
	games      interfaces.GameRepository
	reconciler *ReconciliationService
	scoring    *ScoringService
	standings  *StandingsService
	records    *RecordUpdateService

	cron   *cron.Cron
	guards map[string]*jobGuard
	jobs   map[string]func(context.Context) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logging.Logger
	now    func() time.Time
}

// NewBackgroundUpdater creates a scheduler for one league season
func NewBackgroundUpdater(
	config SchedulerConfig,
	season int,
	games interfaces.GameRepository,
	reconciler *ReconciliationService,
	scoring *ScoringService,
	standings *StandingsService,
	records *RecordUpdateService,
) *BackgroundUpdater {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.ReconcileWorkers < 1 {
		config.ReconcileWorkers = 1
	}
	if config.OverlapPolicy == "" {
		config.OverlapPolicy = OverlapSkip
	}

	ctx, cancel := context.WithCancel(context.Background())
	bu := &BackgroundUpdater{
		config:     config,
		season:     season,
		games:      games,
		reconciler: reconciler,
		scoring:    scoring,
		standings:  standings,
		records:    records,
		guards:     make(map[string]*jobGuard),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logging.WithPrefix("Scheduler"),
		now:        time.Now,
	}
	bu.jobs = map[string]func(context.Context) error{
		JobScores:        bu.updateScores,
		JobResults:       bu.processResults,
		JobWeeklyWinners: bu.calculateWeeklyWinners,
		JobRecords:       bu.updateRecords,
	}
	for name := range bu.jobs {
		bu.guards[name] = &jobGuard{}
	}
	return bu
}

// Start registers the cron triggers and starts the scheduler
func (bu *BackgroundUpdater) Start() error {
	if bu.cron != nil {
		bu.logger.Warn("Already running")
		return nil
	}

	c := cron.New(cron.WithLocation(bu.config.Location))
	specs := []struct {
		job  string
		spec string
	}{
		{JobScores, bu.config.ScoresSpec},
		{JobResults, bu.config.ResultsSpec},
		{JobWeeklyWinners, bu.config.WeeklyWinnersSpec},
		{JobRecords, bu.config.RecordsSpec},
	}
	for _, s := range specs {
		if s.spec == "" {
			bu.logger.Infof("Job %s disabled", s.job)
			continue
		}
		job := s.job
		if _, err := c.AddFunc(s.spec, func() { bu.trigger(job) }); err != nil {
			return errors.Wrapf(err, "invalid schedule %q for job %s", s.spec, job)
		}
		bu.logger.Infof("Job %s scheduled at %q (%s)", job, s.spec, bu.config.Location)
	}

	bu.cron = c
	c.Start()
	bu.logger.Infof("Started for season %d, overlap policy %s", bu.season, bu.config.OverlapPolicy)
	return nil
}

// Stop halts the triggers, cancels running jobs and waits for them to return
func (bu *BackgroundUpdater) Stop() {
	if bu.cron != nil {
		<-bu.cron.Stop().Done()
	}
	bu.cancel()
	bu.wg.Wait()
	bu.logger.Info("Stopped")
}

// Jobs lists the job names RunJob accepts
func (bu *BackgroundUpdater) Jobs() []string {
	names := make([]string, 0, len(bu.jobs))
	for name := range bu.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRunning reports whether a job is currently executing
func (bu *BackgroundUpdater) IsRunning(name string) bool {
	g, ok := bu.guards[name]
	return ok && g.isRunning()
}

// trigger runs a job from a cron tick; errors are logged, never propagated
func (bu *BackgroundUpdater) trigger(name string) {
	if err := bu.RunJob(bu.ctx, name); err != nil {
		if errors.Is(err, ErrJobRunning) {
			return
		}
		bu.logger.Errorf("Job %s failed: %v", name, err)
	}
}

// RunJob executes a job synchronously under its guard. It returns ErrJobRunning when the job
// is already running and the overlap policy is skip.
func (bu *BackgroundUpdater) RunJob(ctx context.Context, name string) error {
	fn, ok := bu.jobs[name]
	if !ok {
		return errors.Wrapf(models.ErrNotFound, "job %q", name)
	}

	jobCtx, acquired := bu.guards[name].acquire(ctx, bu.config.OverlapPolicy, bu.config.JobTimeout)
	if !acquired {
		bu.logger.Infof("Job %s already running, skipping", name)
		metrics.RecordJobSkipped(name)
		return ErrJobRunning
	}
	bu.wg.Add(1)
	defer bu.wg.Done()
	defer bu.guards[name].release()

	start := bu.now()
	err := fn(jobCtx)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordJobRun(name, "success", elapsed)
		bu.logger.Debugf("Job %s finished in %s", name, elapsed)
	case errors.Is(err, context.Canceled):
		metrics.RecordJobRun(name, "cancelled", elapsed)
		bu.logger.Infof("Job %s cancelled after %s", name, elapsed)
	default:
		metrics.RecordJobRun(name, "failure", elapsed)
	}
	return err
}

// currentWeek derives the active week from the stored schedule
func (bu *BackgroundUpdater) currentWeek(ctx context.Context) (int, []*models.Game, error) {
	games, err := bu.games.FindBySeason(ctx, bu.season)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to load season schedule")
	}
	return models.CurrentWeek(games, bu.now()), games, nil
}

// updateScores reconciles the current week and the configured number of weeks before it.
// Weeks run on a bounded worker pool; a failed week does not stop the others.
func (bu *BackgroundUpdater) updateScores(ctx context.Context) error {
	current, _, err := bu.currentWeek(ctx)
	if err != nil {
		return err
	}

	first := max(models.MinWeek, current-bu.config.LookbackWeeks)
	weeks := make([]int, 0, current-first+1)
	for w := first; w <= current; w++ {
		weeks = append(weeks, w)
	}

	pool, err := ants.NewPool(bu.config.ReconcileWorkers)
	if err != nil {
		return errors.Wrap(err, "failed to create reconcile pool")
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []int
	)
	for _, week := range weeks {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if _, err := bu.reconciler.ReconcileWeek(ctx, bu.season, week); err != nil {
				bu.logger.Errorf("Reconcile week %d failed: %v", week, err)
				mu.Lock()
				failed = append(failed, week)
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			bu.logger.Errorf("Failed to schedule week %d: %v", week, submitErr)
			mu.Lock()
			failed = append(failed, week)
			mu.Unlock()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failed) > 0 {
		sort.Ints(failed)
		return errors.Newf("reconcile failed for weeks %v", failed)
	}
	return nil
}

func (bu *BackgroundUpdater) processResults(ctx context.Context) error {
	_, err := bu.scoring.ProcessAllResults(ctx)
	return err
}

// calculateWeeklyWinners tallies the most recent week whose games are all terminal
func (bu *BackgroundUpdater) calculateWeeklyWinners(ctx context.Context) error {
	current, games, err := bu.currentWeek(ctx)
	if err != nil {
		return err
	}
	week := LastCompletedWeek(games, current)
	if week == 0 {
		bu.logger.Info("No completed week yet, skipping weekly winners")
		return nil
	}

	result, err := bu.standings.CalculateWeeklyWinners(ctx, bu.season, week)
	if err != nil {
		return errors.Wrapf(err, "weekly winners for week %d", week)
	}
	bu.logger.Infof("Week %d: %d winners with %d correct", week, len(result.Winners), result.HighestScore)
	return nil
}

func (bu *BackgroundUpdater) updateRecords(ctx context.Context) error {
	current, _, err := bu.currentWeek(ctx)
	if err != nil {
		return err
	}
	_, err = bu.records.Run(ctx, bu.season, current)
	return err
}

// LastCompletedWeek returns the latest week no later than current whose games are all
// terminal, or 0 when there is none
func LastCompletedWeek(games []*models.Game, current int) int {
	complete := make(map[int]bool)
	for _, g := range games {
		done, seen := complete[g.Week]
		if !seen {
			done = true
		}
		complete[g.Week] = done && g.Status.IsTerminal()
	}
	for week := current; week >= models.MinWeek; week-- {
		if complete[week] {
			return week
		}
	}
	return 0
}
