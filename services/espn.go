package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nfl-pickem/logging"
	"nfl-pickem/metrics"
	"nfl-pickem/models"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

const (
	defaultESPNBaseURL      = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	defaultESPNStandingsURL = "https://sports.core.api.espn.com/v2/sports/football/leagues/nfl"

	// MinProviderTimeout is the floor for external calls
	MinProviderTimeout = 10 * time.Second

	// regular season events only
	espnRegularSeason = 2

	// below this many teams the scoreboard records are considered incomplete
	minScoreboardRecords = 10

	maxResponseBytes = 8 << 20
)

// ESPNConfig configures the ESPN adapter
type ESPNConfig struct {
	BaseURL      string
	StandingsURL string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultESPNConfig returns the public ESPN endpoints with conservative retries
func DefaultESPNConfig() ESPNConfig {
	return ESPNConfig{
		BaseURL:      defaultESPNBaseURL,
		StandingsURL: defaultESPNStandingsURL,
		Timeout:      MinProviderTimeout,
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// ESPNService handles ESPN API interactions
type ESPNService struct {
	client *http.Client
	config ESPNConfig
	logger *logging.Logger
}

// NewESPNService creates a new ESPN service
func NewESPNService(config ESPNConfig) *ESPNService {
	defaults := DefaultESPNConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.StandingsURL == "" {
		config.StandingsURL = defaults.StandingsURL
	}
	if config.Timeout < MinProviderTimeout {
		config.Timeout = MinProviderTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	config.StandingsURL = strings.TrimRight(config.StandingsURL, "/")

	return &ESPNService{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
		logger: logging.WithPrefix("ESPN"),
	}
}

// ESPN API response structures
type ESPNResponse struct {
	Events []ESPNEvent `json:"events"`
}

type ESPNEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Week         ESPNWeek          `json:"week"`
	Season       ESPNSeason        `json:"season"`
	Status       ESPNStatus        `json:"status"`
	Competitions []ESPNCompetition `json:"competitions"`
}

type ESPNSeason struct {
	Year int `json:"year"`
	Type int `json:"type"`
}

type ESPNWeek struct {
	Number int `json:"number"`
}

type ESPNStatus struct {
	Type         ESPNStatusType `json:"type"`
	Period       int            `json:"period"`
	DisplayClock string         `json:"displayClock,omitempty"`
}

type ESPNStatusType struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
}

type ESPNCompetition struct {
	Competitors []ESPNCompetitor `json:"competitors"`
	Venue       ESPNVenue        `json:"venue"`
	Broadcasts  []ESPNBroadcast  `json:"broadcasts"`
	Odds        []ESPNOdds       `json:"odds"`
}

type ESPNVenue struct {
	FullName string `json:"fullName"`
}

type ESPNBroadcast struct {
	Names []string `json:"names"`
}

// ESPNOdds is one line on a competition. The scoreboard either sends a combined item with
// details and a numeric overUnder, or typed items ("spread", "overUnder") carrying details.
type ESPNOdds struct {
	Type      string  `json:"type"`
	Details   string  `json:"details"`
	OverUnder float64 `json:"overUnder"`
}

type ESPNCompetitor struct {
	ID       string       `json:"id"`
	HomeAway string       `json:"homeAway"`
	Score    string       `json:"score"`
	Team     ESPNTeam     `json:"team"`
	Records  []ESPNRecord `json:"records"`
}

type ESPNTeam struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
	Location     string `json:"location"`
	Name         string `json:"name"`
}

type ESPNRecord struct {
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

// ESPN core standings tree: league -> conference -> division -> team entries
type ESPNStandingsNode struct {
	Children  []ESPNStandingsNode `json:"children"`
	Standings ESPNStandingsGroup  `json:"standings"`
	Team      *ESPNTeam           `json:"team"`
	Stats     []ESPNStat          `json:"stats"`
}

type ESPNStandingsGroup struct {
	Entries []ESPNStandingsNode `json:"entries"`
}

type ESPNStat struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// GetWeekGames fetches and normalizes one week of the regular season
func (e *ESPNService) GetWeekGames(ctx context.Context, season, week int) ([]models.ProviderGame, error) {
	url := fmt.Sprintf("%s/scoreboard?week=%d&year=%d&seasontype=%d", e.config.BaseURL, week, season, espnRegularSeason)

	var resp ESPNResponse
	if err := e.fetch(ctx, "scoreboard", url, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch week %d of %d", week, season)
	}

	games := e.convertEvents(resp.Events)
	if len(games) == 0 {
		e.logger.Debugf("No events for season %d week %d", season, week)
	}
	return games, nil
}

// GetTeamStandings returns "W-L" (or "W-L-T") records keyed by team display name.
// Scoreboard records are used first; the core standings tree fills in when they are sparse.
func (e *ESPNService) GetTeamStandings(ctx context.Context, season int) map[string]string {
	standings := make(map[string]string)

	url := fmt.Sprintf("%s/scoreboard?year=%d&seasontype=%d", e.config.BaseURL, season, espnRegularSeason)
	var resp ESPNResponse
	if err := e.fetch(ctx, "scoreboard", url, &resp); err != nil {
		e.logger.Warnf("Scoreboard records unavailable for %d: %v", season, err)
	} else {
		for _, event := range resp.Events {
			for _, competition := range event.Competitions {
				for _, competitor := range competition.Competitors {
					for _, record := range competitor.Records {
						if record.Type == "total" && record.Summary != "" && competitor.Team.DisplayName != "" {
							standings[competitor.Team.DisplayName] = record.Summary
						}
					}
				}
			}
		}
	}

	if len(standings) >= minScoreboardRecords {
		e.logger.Debugf("Found records for %d teams on the scoreboard", len(standings))
		return standings
	}

	url = fmt.Sprintf("%s/seasons/%d/types/%d/standings", e.config.StandingsURL, season, espnRegularSeason)
	var root ESPNStandingsNode
	if err := e.fetch(ctx, "standings", url, &root); err != nil {
		e.logger.Warnf("Standings endpoint unavailable for %d, using scoreboard data only: %v", season, err)
		return standings
	}
	collectStandings(root, standings)

	e.logger.Debugf("Found records for %d teams", len(standings))
	return standings
}

func collectStandings(node ESPNStandingsNode, out map[string]string) {
	if node.Team != nil && node.Team.DisplayName != "" && len(node.Stats) > 0 {
		if record := formatRecord(node.Stats); record != "" {
			out[node.Team.DisplayName] = record
		}
	}
	for _, child := range node.Children {
		collectStandings(child, out)
	}
	for _, entry := range node.Standings.Entries {
		collectStandings(entry, out)
	}
}

func formatRecord(stats []ESPNStat) string {
	var wins, losses, ties float64
	found := false
	for _, stat := range stats {
		switch {
		case stat.Label == "W" || stat.Name == "wins":
			wins, found = stat.Value, true
		case stat.Label == "L" || stat.Name == "losses":
			losses, found = stat.Value, true
		case stat.Label == "T" || stat.Name == "ties":
			ties = stat.Value
		}
	}
	if !found {
		return ""
	}
	if ties > 0 {
		return fmt.Sprintf("%d-%d-%d", int(wins), int(losses), int(ties))
	}
	return fmt.Sprintf("%d-%d", int(wins), int(losses))
}

// GetGameOdds returns spreads and totals keyed "away@home" using stored team names
func (e *ESPNService) GetGameOdds(ctx context.Context, season, week int) map[string]models.GameOdds {
	odds := make(map[string]models.GameOdds)

	url := fmt.Sprintf("%s/scoreboard?week=%d&year=%d&seasontype=%d", e.config.BaseURL, week, season, espnRegularSeason)
	var resp ESPNResponse
	if err := e.fetch(ctx, "odds", url, &resp); err != nil {
		e.logger.Warnf("Odds unavailable for season %d week %d: %v", season, week, err)
		return odds
	}

	for _, event := range resp.Events {
		if len(event.Competitions) == 0 {
			continue
		}
		competition := event.Competitions[0]
		away, home := sides(competition.Competitors)
		if away == nil || home == nil || len(competition.Odds) == 0 {
			continue
		}

		line := parseOdds(competition.Odds)
		if line.Spread == "" && line.OverUnder == "" {
			continue
		}
		key := models.OddsKey(models.CanonicalTeamName(away.Team.Name), models.CanonicalTeamName(home.Team.Name))
		odds[key] = line
	}
	return odds
}

func parseOdds(items []ESPNOdds) models.GameOdds {
	var line models.GameOdds
	for _, item := range items {
		switch item.Type {
		case "spread":
			if line.Spread == "" {
				line.Spread = item.Details
			}
			continue
		case "overUnder":
			if line.OverUnder == "" {
				line.OverUnder = item.Details
			}
			continue
		}
		if line.Spread == "" && item.Details != "" {
			line.Spread = item.Details
		}
		if line.OverUnder == "" && item.OverUnder > 0 {
			line.OverUnder = strconv.FormatFloat(item.OverUnder, 'f', 1, 64)
		}
	}
	return line
}

// convertEvents converts ESPN events to provider games, dropping non regular season events
func (e *ESPNService) convertEvents(events []ESPNEvent) []models.ProviderGame {
	games := make([]models.ProviderGame, 0, len(events))
	for _, event := range events {
		if event.Season.Type != 0 && event.Season.Type != espnRegularSeason {
			continue
		}
		game, ok := e.convertEvent(event)
		if !ok {
			continue
		}
		games = append(games, game)
	}
	return games
}

func sides(competitors []ESPNCompetitor) (away, home *ESPNCompetitor) {
	for i := range competitors {
		switch competitors[i].HomeAway {
		case "away":
			away = &competitors[i]
		case "home":
			home = &competitors[i]
		}
	}
	return away, home
}

// convertEvent converts a single ESPN event to a provider game
func (e *ESPNService) convertEvent(event ESPNEvent) (models.ProviderGame, bool) {
	if len(event.Competitions) == 0 {
		return models.ProviderGame{}, false
	}
	competition := event.Competitions[0]
	away, home := sides(competition.Competitors)
	if away == nil || home == nil {
		e.logger.Warnf("Event %s is missing a side, skipping", event.ID)
		return models.ProviderGame{}, false
	}

	status := convertGameStatus(event.Status)
	game := models.ProviderGame{
		ProviderID: event.ID,
		AwayTeam:   models.CanonicalTeamName(away.Team.Name),
		HomeTeam:   models.CanonicalTeamName(home.Team.Name),
		Status:     status,
		Quarter:    convertQuarter(event.Status.Period),
		Date:       e.parseDate(event),
		Venue:      competition.Venue.FullName,
		AwayRecord: totalRecord(away.Records),
		HomeRecord: totalRecord(home.Records),
	}
	if len(competition.Broadcasts) > 0 && len(competition.Broadcasts[0].Names) > 0 {
		game.Network = competition.Broadcasts[0].Names[0]
	}

	switch status {
	case models.GameStatusLive:
		game.TimeRemaining = event.Status.DisplayClock
	default:
		game.TimeRemaining = event.Status.Type.Description
	}

	// ESPN reports "0" for games that have not started
	if status == models.GameStatusLive || status == models.GameStatusFinal {
		game.AwayScore = parseScore(away.Score)
		game.HomeScore = parseScore(home.Score)
	}
	return game, true
}

func (e *ESPNService) parseDate(event ESPNEvent) time.Time {
	for _, layout := range []string{"2006-01-02T15:04Z", "2006-01-02T15:04:05Z", time.RFC3339} {
		if t, err := time.Parse(layout, event.Date); err == nil {
			return t
		}
	}
	e.logger.Warnf("Failed to parse date %q for event %s", event.Date, event.ID)
	return time.Time{}
}

func parseScore(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	score, err := strconv.Atoi(raw)
	if err != nil || score < 0 {
		return nil
	}
	return &score
}

func totalRecord(records []ESPNRecord) string {
	for _, r := range records {
		if r.Type == "total" {
			return r.Summary
		}
	}
	return ""
}

// convertGameStatus maps ESPN's state (and the status name for postponements) to GameStatus
func convertGameStatus(status ESPNStatus) models.GameStatus {
	name := strings.ToUpper(status.Type.Name)
	switch {
	case strings.Contains(name, "POSTPONED"):
		return models.GameStatusPostponed
	case strings.Contains(name, "CANCELED"), strings.Contains(name, "CANCELLED"):
		return models.GameStatusCancelled
	}

	switch strings.ToLower(status.Type.State) {
	case "pre":
		return models.GameStatusScheduled
	case "in":
		return models.GameStatusLive
	case "post":
		return models.GameStatusFinal
	case "postponed":
		return models.GameStatusPostponed
	case "cancelled", "canceled":
		return models.GameStatusCancelled
	default:
		return models.GameStatusScheduled
	}
}

func convertQuarter(period int) string {
	switch {
	case period <= 0:
		return ""
	case period <= 4:
		return strconv.Itoa(period)
	case period == 5:
		return "OT"
	default:
		return strconv.Itoa(period)
	}
}

// fetch performs a GET with retries and decodes the JSON body into target.
// Network errors, 429 and 5xx are retried and, once exhausted, marked ErrProviderTransient.
func (e *ESPNService) fetch(ctx context.Context, endpoint, url string, target interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * e.config.RetryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		raw, retryable, err := e.do(ctx, endpoint, url)
		if err == nil {
			if err := sonic.Unmarshal(raw, target); err != nil {
				return errors.Wrapf(err, "failed to decode %s response", endpoint)
			}
			return nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
		e.logger.Debugf("Attempt %d for %s failed: %v", attempt+1, endpoint, err)
	}
	return lastErr
}

func (e *ESPNService) do(ctx context.Context, endpoint, url string) ([]byte, bool, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		metrics.RecordProviderCall(endpoint, "error", time.Since(start))
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, errors.Mark(errors.Wrapf(err, "failed to fetch ESPN %s", endpoint), models.ErrProviderTransient)
	}
	defer resp.Body.Close()
	metrics.RecordProviderCall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		err := errors.Newf("ESPN %s returned status %d", endpoint, resp.StatusCode)
		if isRetryableStatus(resp.StatusCode) {
			return nil, true, errors.Mark(err, models.ErrProviderTransient)
		}
		return nil, false, err
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, errors.Mark(errors.Wrap(err, "failed to read ESPN response"), models.ErrProviderTransient)
	}
	return raw, false, nil
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
